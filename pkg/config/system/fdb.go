package system

const (
	FDBBackendNetlink = "netlink"
	FDBBackendStatic  = "static"
)

type FDBConfig struct {
	Backend string             `json:"backend,omitempty" yaml:"backend,omitempty"`
	Static  []StaticFDBBinding `json:"static,omitempty" yaml:"static,omitempty"`
}

// StaticFDBBinding pins a client MAC on a VLAN to a bridge port.
type StaticFDBBinding struct {
	VLAN uint16 `json:"vlan" yaml:"vlan"`
	MAC  string `json:"mac" yaml:"mac"`
	Port string `json:"port" yaml:"port"`
}
