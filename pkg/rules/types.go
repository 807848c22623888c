package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

type Op uint8

const (
	OpEQ Op = iota + 1
	OpGE
	OpLE
	OpG
	OpL
	OpAND
	OpOR
	OpGLOB
)

var opNames = map[Op]string{
	OpEQ:   "EQ",
	OpGE:   "GE",
	OpLE:   "LE",
	OpG:    "G",
	OpL:    "L",
	OpAND:  "AND",
	OpOR:   "OR",
	OpGLOB: "GLOB",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

func ParseOp(s string) (Op, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for op, name := range opNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

func (o Op) bitwise() bool {
	return o == OpAND || o == OpOR
}

// Direction is the flow a packet travels: Up is client to server, Down is
// server to client. DirectionAny applies to both.
type Direction uint8

const (
	DirectionAny Direction = iota
	DirectionUp
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "UP"
	case DirectionDown:
		return "DOWN"
	}
	return "ANY"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ANY":
		return DirectionAny, nil
	case "UP":
		return DirectionUp, nil
	case "DOWN":
		return DirectionDown, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Matches reports whether a rule declared for d applies to a packet
// travelling in current.
func (d Direction) Matches(current Direction) bool {
	return d == DirectionAny || d == current
}

// ListOp reduces per-element results when a predicate is applied to a list.
type ListOp uint8

const (
	ListOR ListOp = iota
	ListAND
)

func (l ListOp) String() string {
	if l == ListAND {
		return "AND"
	}
	return "OR"
}

func ParseListOp(s string) (ListOp, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "OR":
		return ListOR, nil
	case "AND":
		return ListAND, nil
	}
	return 0, fmt.Errorf("unknown list operation %q", s)
}

// Target selects what a predicate inspects: a header field or an option code.
type Target struct {
	Field dhcp.Field
	Code  uint8
}

func FieldTarget(f dhcp.Field) Target { return Target{Field: f} }
func OptionTarget(code uint8) Target  { return Target{Code: code} }

func (t Target) IsField() bool  { return t.Field != 0 }
func (t Target) IsOption() bool { return t.Field == 0 && t.Code != 0 }
func (t Target) IsZero() bool   { return t.Field == 0 && t.Code == 0 }

func (t Target) String() string {
	switch {
	case t.IsField():
		return t.Field.String()
	case t.IsOption():
		return fmt.Sprintf("option %d (%s)", t.Code, dhcp.OptionName(t.Code))
	}
	return "none"
}

type Predicate struct {
	Direction Direction
	Op        Op
	ListOp    ListOp
	Target    Target
	// Literal is nil for presence tests.
	Literal dhcp.Value
}

func (p Predicate) Validate() error {
	if _, ok := opNames[p.Op]; !ok {
		return fmt.Errorf("unknown operation %d", p.Op)
	}
	if p.Target.IsZero() && p.Op != OpGLOB {
		return errors.New("predicate has no target")
	}
	if p.Literal == nil || p.Op == OpGLOB {
		return nil
	}
	if p.Op.bitwise() {
		if _, ok := p.Literal.(dhcp.Integer); !ok {
			return fmt.Errorf("%s requires an integer literal, got %s", p.Op, p.Literal.Kind())
		}
	}
	return nil
}

type DeleteRule struct {
	Priority  int
	Predicate Predicate
}

// Addition is one action of an add-rule: it sets a header field, or appends
// an option (replacing existing instances when Replace is set).
type Addition struct {
	Order   int
	Target  Target
	Value   dhcp.Value
	Replace bool
}

func (a Addition) Validate() error {
	if a.Value == nil {
		return errors.New("addition has no value")
	}
	switch {
	case a.Target.IsField():
		return dhcp.CheckField(a.Target.Field, a.Value)
	case a.Target.IsOption():
		if a.Target.Code == dhcp.OptionEnd {
			return errors.New("option 255 cannot be added")
		}
		if want := dhcp.KindOf(a.Target.Code); a.Value.Kind() != want {
			return fmt.Errorf("option %d carries %s values, got %s", a.Target.Code, want, a.Value.Kind())
		}
		if n := len(a.Value.Bytes()); n > 255 {
			return fmt.Errorf("option %d: %w", a.Target.Code, dhcp.ErrOptionTooLong)
		}
		return nil
	}
	return errors.New("addition has no target")
}

type AddRule struct {
	Priority  int
	Predicate Predicate
	Additions []Addition
}

// RuleSet is the compiled rule list of one interface. Both lists are sorted
// by ascending priority and additions by ascending order.
type RuleSet struct {
	Deletes []DeleteRule
	Adds    []AddRule
}

// RuleError locates a validation failure within a rule list.
type RuleError struct {
	List     string
	Priority int
	Err      error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s-rule priority %d: %v", e.List, e.Priority, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// NewRuleSet validates and sorts the rules. Every problem found is returned,
// joined with errors.Join.
func NewRuleSet(deletes []DeleteRule, adds []AddRule) (*RuleSet, error) {
	var errs []error

	seen := make(map[int]bool, len(deletes))
	for _, r := range deletes {
		if seen[r.Priority] {
			errs = append(errs, &RuleError{"delete", r.Priority, errors.New("duplicate priority")})
		}
		seen[r.Priority] = true
		if err := r.Predicate.Validate(); err != nil {
			errs = append(errs, &RuleError{"delete", r.Priority, err})
		} else if !r.Predicate.Target.IsOption() {
			errs = append(errs, &RuleError{"delete", r.Priority, errors.New("delete-rules must target an option code")})
		}
	}

	seen = make(map[int]bool, len(adds))
	for _, r := range adds {
		if seen[r.Priority] {
			errs = append(errs, &RuleError{"add", r.Priority, errors.New("duplicate priority")})
		}
		seen[r.Priority] = true
		if err := r.Predicate.Validate(); err != nil {
			errs = append(errs, &RuleError{"add", r.Priority, err})
		}
		if len(r.Additions) == 0 {
			errs = append(errs, &RuleError{"add", r.Priority, errors.New("no additions")})
		}
		orders := make(map[int]bool, len(r.Additions))
		for _, a := range r.Additions {
			if orders[a.Order] {
				errs = append(errs, &RuleError{"add", r.Priority, fmt.Errorf("duplicate addition order %d", a.Order)})
			}
			orders[a.Order] = true
			if err := a.Validate(); err != nil {
				errs = append(errs, &RuleError{"add", r.Priority, fmt.Errorf("addition %d: %w", a.Order, err)})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	rs := &RuleSet{
		Deletes: append([]DeleteRule(nil), deletes...),
		Adds:    make([]AddRule, len(adds)),
	}
	for i, r := range adds {
		r.Additions = append([]Addition(nil), r.Additions...)
		sort.Slice(r.Additions, func(a, b int) bool { return r.Additions[a].Order < r.Additions[b].Order })
		rs.Adds[i] = r
	}
	sort.Slice(rs.Deletes, func(i, j int) bool { return rs.Deletes[i].Priority < rs.Deletes[j].Priority })
	sort.Slice(rs.Adds, func(i, j int) bool { return rs.Adds[i].Priority < rs.Adds[j].Priority })
	return rs, nil
}

func (rs *RuleSet) Empty() bool {
	return rs == nil || (len(rs.Deletes) == 0 && len(rs.Adds) == 0)
}
