package config

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veesix-networks/dhcpagent/pkg/config/interfaces"
	"github.com/veesix-networks/dhcpagent/pkg/config/system"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	agent := system.DefaultAgentConfig()
	if c.Agent.FDBTimeout == 0 {
		c.Agent.FDBTimeout = agent.FDBTimeout
	}
	if c.Agent.TransactionTTL == 0 {
		c.Agent.TransactionTTL = agent.TransactionTTL
	}
	if c.Agent.ServerPort == 0 {
		c.Agent.ServerPort = agent.ServerPort
	}
	if c.Agent.RemoteID == "" {
		if host, err := os.Hostname(); err == nil {
			c.Agent.RemoteID = host
		}
	}

	monitoring := system.DefaultMonitoringConfig()
	if c.Monitoring.Listen == "" {
		c.Monitoring.Listen = monitoring.Listen
	}
	if c.Monitoring.Path == "" {
		c.Monitoring.Path = monitoring.Path
	}

	if c.OpDB.Path == "" {
		c.OpDB.Path = system.DefaultOpDBConfig().Path
	}

	if c.FDB.Backend == "" {
		c.FDB.Backend = system.FDBBackendNetlink
		if len(c.FDB.Static) > 0 {
			c.FDB.Backend = system.FDBBackendStatic
		}
	}

	for name, iface := range c.Interfaces {
		if iface == nil {
			iface = &interfaces.InterfaceConfig{}
			c.Interfaces[name] = iface
		}
		iface.Name = name
	}
}

// Validate checks the daemon settings. Interface records are compiled and
// reported by the interface store, so a bad record never prevents the file
// from loading.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}

	if c.Agent.FDBTimeout < 0 {
		return fmt.Errorf("agent.fdb-timeout must not be negative")
	}
	if c.Agent.TransactionTTL < 0 {
		return fmt.Errorf("agent.transaction-ttl must not be negative")
	}
	if len(c.Agent.RemoteID) > system.MaxRemoteIDLength {
		return fmt.Errorf("agent.remote-id longer than %d bytes", system.MaxRemoteIDLength)
	}

	switch c.FDB.Backend {
	case system.FDBBackendNetlink, system.FDBBackendStatic:
	default:
		return fmt.Errorf("fdb.backend: unknown backend %q", c.FDB.Backend)
	}
	for i, b := range c.FDB.Static {
		if _, err := net.ParseMAC(b.MAC); err != nil {
			return fmt.Errorf("fdb.static[%d].mac: %w", i, err)
		}
		if b.Port == "" {
			return fmt.Errorf("fdb.static[%d].port is required", i)
		}
	}

	return nil
}

// Records returns the interface records sorted by name.
func (c *Config) Records() []interfaces.InterfaceConfig {
	names := make([]string, 0, len(c.Interfaces))
	for name := range c.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]interfaces.InterfaceConfig, 0, len(names))
	for _, name := range names {
		out = append(out, *c.Interfaces[name])
	}
	return out
}
