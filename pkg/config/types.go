package config

import (
	"github.com/veesix-networks/dhcpagent/pkg/config/interfaces"
	"github.com/veesix-networks/dhcpagent/pkg/config/system"
)

type Config struct {
	Logging    system.LoggingConfig                   `json:"logging,omitempty" yaml:"logging,omitempty"`
	Agent      system.AgentConfig                     `json:"agent,omitempty" yaml:"agent,omitempty"`
	Monitoring system.MonitoringConfig                `json:"monitoring,omitempty" yaml:"monitoring,omitempty"`
	OpDB       system.OpDBConfig                      `json:"opdb,omitempty" yaml:"opdb,omitempty"`
	FDB        system.FDBConfig                       `json:"fdb,omitempty" yaml:"fdb,omitempty"`
	Interfaces map[string]*interfaces.InterfaceConfig `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
}
