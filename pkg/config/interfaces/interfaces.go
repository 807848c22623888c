package interfaces

// InterfaceConfig is one interface record. Exactly one of DHCPServer (relay
// mode) or Trusted (snoop mode) is set.
type InterfaceConfig struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Address     *AddressConfig `json:"address,omitempty" yaml:"address,omitempty"`
	VLANID      int            `json:"vlan-id,omitempty" yaml:"vlan-id,omitempty"`

	DHCPServer string `json:"dhcp-server,omitempty" yaml:"dhcp-server,omitempty"`
	Trusted    string `json:"trusted,omitempty" yaml:"trusted,omitempty"`

	DeleteRules []RuleConfig    `json:"delete-rules,omitempty" yaml:"delete-rules,omitempty"`
	AddRules    []AddRuleConfig `json:"add-rules,omitempty" yaml:"add-rules,omitempty"`
}

type AddressConfig struct {
	IPv4 []string `json:"ipv4,omitempty" yaml:"ipv4,omitempty"`
}

// RuleConfig is the predicate part shared by delete-rules and add-rules.
// Option accepts a catalog name or a decimal code.
type RuleConfig struct {
	Priority      int    `json:"priority" yaml:"priority"`
	Direction     string `json:"direction,omitempty" yaml:"direction,omitempty"`
	Operation     string `json:"operation" yaml:"operation"`
	ListOperation string `json:"list-operation,omitempty" yaml:"list-operation,omitempty"`
	Field         string `json:"field,omitempty" yaml:"field,omitempty"`
	Option        string `json:"option,omitempty" yaml:"option,omitempty"`
	Value         *Value `json:"value,omitempty" yaml:"value,omitempty"`
}

type AddRuleConfig struct {
	RuleConfig `yaml:",inline"`
	Additions  []AdditionConfig `json:"additions" yaml:"additions"`
}

type AdditionConfig struct {
	Order   int    `json:"order" yaml:"order"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Option  string `json:"option,omitempty" yaml:"option,omitempty"`
	Value   *Value `json:"value" yaml:"value"`
	Replace bool   `json:"replace,omitempty" yaml:"replace,omitempty"`
}
