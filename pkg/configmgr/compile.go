package configmgr

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/veesix-networks/dhcpagent/pkg/config/interfaces"
	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
	"github.com/veesix-networks/dhcpagent/pkg/rules"
)

// Compile validates records and builds their interface configurations. It
// does not consult any loaded state.
func Compile(records []Record) (map[string]*InterfaceConfig, error) {
	return compile(records, nil)
}

func compile(records []Record, current *Snapshot) (map[string]*InterfaceConfig, error) {
	var problems []Problem
	out := make(map[string]*InterfaceConfig, len(records))

	for i, rec := range records {
		report := func(path string, err error) {
			problems = append(problems, Problem{Interface: rec.Name, Record: i, Path: path, Reason: err.Error()})
		}

		if rec.Name == "" {
			report("", errors.New("interface name is required"))
			continue
		}
		if _, dup := out[rec.Name]; dup {
			report("", errors.New("duplicate interface record"))
			continue
		}

		cfg, errs := compileRecord(rec)
		for _, e := range errs {
			report(e.path, e.err)
		}
		if len(errs) > 0 {
			out[rec.Name] = nil
			continue
		}

		if prev, ok := current.Lookup(rec.Name); ok && prev.Mode.Name() != cfg.Mode.Name() {
			report("", fmt.Errorf("cannot change mode from %s to %s in place, remove the interface first", prev.Mode.Name(), cfg.Mode.Name()))
			continue
		}
		out[rec.Name] = cfg
	}

	if len(problems) > 0 {
		return nil, &ConfigurationError{Problems: problems}
	}
	return out, nil
}

type fieldError struct {
	path string
	err  error
}

func compileRecord(rec Record) (*InterfaceConfig, []fieldError) {
	var errs []fieldError
	fail := func(path string, err error) { errs = append(errs, fieldError{path, err}) }

	cfg := &InterfaceConfig{Name: rec.Name}

	switch {
	case rec.DHCPServer != "" && rec.Trusted != "":
		fail("", errors.New("dhcp-server and trusted are mutually exclusive"))
	case rec.DHCPServer != "":
		server, err := netip.ParseAddr(rec.DHCPServer)
		if err != nil || !server.Is4() {
			fail("dhcp-server", fmt.Errorf("invalid IPv4 address %q", rec.DHCPServer))
		}
		cfg.Mode = RelayMode{Server: server}
	case rec.Trusted != "":
		cfg.Mode = SnoopMode{Trusted: rec.Trusted}
	default:
		fail("", errors.New("one of dhcp-server or trusted is required"))
	}

	if rec.Address != nil && len(rec.Address.IPv4) > 0 {
		addr, err := parseInterfaceAddress(rec.Address.IPv4[0])
		if err != nil {
			fail("address.ipv4[0]", err)
		}
		cfg.Address = addr
	}

	if rec.VLANID < 0 || rec.VLANID > 4094 {
		fail("vlan-id", fmt.Errorf("vlan %d out of range", rec.VLANID))
	} else {
		cfg.VLAN = uint16(rec.VLANID)
	}

	deletes := make([]rules.DeleteRule, 0, len(rec.DeleteRules))
	for i, rc := range rec.DeleteRules {
		path := fmt.Sprintf("delete-rules[%d]", i)
		p, err := compilePredicate(rc)
		if err != nil {
			fail(path, err)
			continue
		}
		deletes = append(deletes, rules.DeleteRule{Priority: rc.Priority, Predicate: p})
	}

	adds := make([]rules.AddRule, 0, len(rec.AddRules))
	for i, rc := range rec.AddRules {
		path := fmt.Sprintf("add-rules[%d]", i)
		p, err := compilePredicate(rc.RuleConfig)
		if err != nil {
			fail(path, err)
			continue
		}
		rule := rules.AddRule{Priority: rc.Priority, Predicate: p}
		for j, ac := range rc.Additions {
			a, err := compileAddition(ac)
			if err != nil {
				fail(fmt.Sprintf("%s.additions[%d]", path, j), err)
				continue
			}
			rule.Additions = append(rule.Additions, a)
		}
		adds = append(adds, rule)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	rs, err := rules.NewRuleSet(deletes, adds)
	if err != nil {
		for _, e := range unjoin(err) {
			fail("rules", e)
		}
		return nil, errs
	}
	cfg.Rules = rs
	return cfg, nil
}

func compilePredicate(rc interfaces.RuleConfig) (rules.Predicate, error) {
	var p rules.Predicate
	var err error

	if p.Direction, err = rules.ParseDirection(rc.Direction); err != nil {
		return p, err
	}
	if p.Op, err = rules.ParseOp(rc.Operation); err != nil {
		return p, err
	}
	if p.ListOp, err = rules.ParseListOp(rc.ListOperation); err != nil {
		return p, err
	}
	if p.Target, err = compileTarget(rc.Field, rc.Option, p.Op == rules.OpGLOB); err != nil {
		return p, err
	}
	if rc.Value != nil {
		if p.Literal, err = rc.Value.Parse(); err != nil {
			return p, fmt.Errorf("value: %w", err)
		}
	}
	return p, nil
}

func compileAddition(ac interfaces.AdditionConfig) (rules.Addition, error) {
	a := rules.Addition{Order: ac.Order, Replace: ac.Replace}
	var err error
	if a.Target, err = compileTarget(ac.Field, ac.Option, false); err != nil {
		return a, err
	}
	if a.Target.IsField() && ac.Replace {
		return a, errors.New("replace applies to options only")
	}
	if a.Value, err = ac.Value.Parse(); err != nil {
		return a, fmt.Errorf("value: %w", err)
	}
	return a, nil
}

func compileTarget(field, option string, optional bool) (rules.Target, error) {
	switch {
	case field != "" && option != "":
		return rules.Target{}, errors.New("field and option are mutually exclusive")
	case field != "":
		f, ok := dhcp.ParseField(field)
		if !ok {
			return rules.Target{}, fmt.Errorf("unknown header field %q", field)
		}
		return rules.FieldTarget(f), nil
	case option != "":
		code, ok := dhcp.LookupOption(option)
		if !ok {
			return rules.Target{}, fmt.Errorf("unknown option %q", option)
		}
		if code == dhcp.OptionPad || code == dhcp.OptionEnd {
			return rules.Target{}, fmt.Errorf("option %d cannot be targeted", code)
		}
		return rules.OptionTarget(code), nil
	case optional:
		return rules.Target{}, nil
	}
	return rules.Target{}, errors.New("field or option is required")
}

func parseInterfaceAddress(s string) (netip.Addr, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil || !p.Addr().Is4() {
			return netip.Addr{}, fmt.Errorf("invalid IPv4 prefix %q", s)
		}
		return p.Addr(), nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return netip.Addr{}, fmt.Errorf("invalid IPv4 address %q", s)
	}
	return a, nil
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
