package system

type OpDBConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

func DefaultOpDBConfig() OpDBConfig {
	return OpDBConfig{Path: "/var/lib/dhcpagent/opdb.db"}
}
