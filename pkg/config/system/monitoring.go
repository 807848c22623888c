package system

type MonitoringConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Listen  string `json:"listen,omitempty" yaml:"listen,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

func DefaultMonitoringConfig() MonitoringConfig {
	return MonitoringConfig{
		Listen: ":9469",
		Path:   "/metrics",
	}
}
