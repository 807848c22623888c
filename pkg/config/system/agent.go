package system

import "time"

// MaxRemoteIDLength leaves room in a 255 byte relay agent information option
// for both sub-option headers and a circuit-id of up to IFNAMSIZ bytes.
const MaxRemoteIDLength = 255 - 4 - 16

type AgentConfig struct {
	// RemoteID is sent as relay agent sub-option 2. Defaults to the hostname.
	RemoteID       string        `json:"remote-id,omitempty" yaml:"remote-id,omitempty"`
	FDBTimeout     time.Duration `json:"fdb-timeout,omitempty" yaml:"fdb-timeout,omitempty"`
	TransactionTTL time.Duration `json:"transaction-ttl,omitempty" yaml:"transaction-ttl,omitempty"`
	ServerPort     uint16        `json:"server-port,omitempty" yaml:"server-port,omitempty"`
	Netns          string        `json:"netns,omitempty" yaml:"netns,omitempty"`
	Watch          bool          `json:"watch,omitempty" yaml:"watch,omitempty"`
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		FDBTimeout:     100 * time.Millisecond,
		TransactionTTL: 300 * time.Second,
		ServerPort:     67,
	}
}
