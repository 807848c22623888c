package logger

const (
	Main      = "main"
	Codec     = "codec"
	Rules     = "rules"
	Relay     = "relay"
	FDB       = "fdb"
	Config    = "config"
	Dataplane = "dataplane"
	Monitor   = "monitor"
	IfMgr     = "ifmgr"
	OpDB      = "opdb"
)
