package system

// LoggingConfig selects the log format (text or json), the default level and
// per-component levels keyed by component name, for example "relay" or
// "dataplane".
type LoggingConfig struct {
	Format     string            `json:"format,omitempty" yaml:"format,omitempty"`
	Level      string            `json:"level,omitempty" yaml:"level,omitempty"`
	Components map[string]string `json:"components,omitempty" yaml:"components,omitempty"`
}
