package rules

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

func addr(s string) dhcp.Address {
	return dhcp.AddressFrom(netip.MustParseAddr(s))
}

func discover() *dhcp.Message {
	msg := &dhcp.Message{Op: dhcp.OpBootRequest, HType: 1, HLen: 6, XID: 0x1234, Flags: dhcp.FlagBroadcast}
	copy(msg.CHAddr[:], []byte{0x52, 0x54, 0, 0, 0, 1})
	msg.Append(dhcp.OptionMessageType, dhcp.Uint8(dhcp.DHCPDiscover))
	msg.Append(dhcp.OptionParameterRequestList, dhcp.Uint8List{1, 3, 6, 15})
	msg.Append(dhcp.OptionServerIdentifier, addr("10.0.0.1"))
	msg.Append(dhcp.OptionRelayAgentInformation, dhcp.RelayAgentInfo{{Code: 1, Data: []byte("old")}})
	return msg
}

func TestGlobMatchesEmptyMessage(t *testing.T) {
	e := NewEvaluator()
	p := Predicate{Direction: DirectionUp, Op: OpGLOB}
	assert.True(t, e.Evaluate(p, &dhcp.Message{}, DirectionUp))
	assert.False(t, e.Evaluate(p, &dhcp.Message{}, DirectionDown))
}

func TestDirectionAnyMatchesBoth(t *testing.T) {
	e := NewEvaluator()
	p := Predicate{Op: OpGLOB}
	assert.True(t, e.Evaluate(p, &dhcp.Message{}, DirectionUp))
	assert.True(t, e.Evaluate(p, &dhcp.Message{}, DirectionDown))
}

func TestEvaluateComparisons(t *testing.T) {
	e := NewEvaluator()
	msg := discover()

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"presence", Predicate{Op: OpEQ, Target: OptionTarget(dhcp.OptionServerIdentifier)}, true},
		{"absent option", Predicate{Op: OpEQ, Target: OptionTarget(dhcp.OptionHostName)}, false},
		{"message type eq", Predicate{Op: OpEQ, Target: OptionTarget(53), Literal: dhcp.Uint8(1)}, true},
		{"message type ge", Predicate{Op: OpGE, Target: OptionTarget(53), Literal: dhcp.Uint8(1)}, true},
		{"message type g", Predicate{Op: OpG, Target: OptionTarget(53), Literal: dhcp.Uint8(1)}, false},
		{"message type l", Predicate{Op: OpL, Target: OptionTarget(53), Literal: dhcp.Uint8(3)}, true},
		{"address le", Predicate{Op: OpLE, Target: OptionTarget(54), Literal: addr("10.0.0.2")}, true},
		{"address g", Predicate{Op: OpG, Target: OptionTarget(54), Literal: addr("9.255.255.255")}, true},
		{"list any", Predicate{Op: OpEQ, Target: OptionTarget(55), Literal: dhcp.Uint8(6)}, true},
		{"list all", Predicate{Op: OpGE, ListOp: ListAND, Target: OptionTarget(55), Literal: dhcp.Uint8(1)}, true},
		{"list all fails", Predicate{Op: OpEQ, ListOp: ListAND, Target: OptionTarget(55), Literal: dhcp.Uint8(6)}, false},
		{"whole list", Predicate{Op: OpEQ, Target: OptionTarget(55), Literal: dhcp.Uint8List{1, 3, 6, 15}}, true},
		{"flags and", Predicate{Op: OpAND, Target: FieldTarget(dhcp.FieldFlags), Literal: dhcp.Uint16(0x8000)}, true},
		{"flags or", Predicate{Op: OpOR, Target: FieldTarget(dhcp.FieldFlags), Literal: dhcp.Uint16(0x0001)}, false},
		{"xid eq", Predicate{Op: OpEQ, Target: FieldTarget(dhcp.FieldXID), Literal: dhcp.Uint32(0x1234)}, true},
		{"chaddr eq", Predicate{Op: OpEQ, Target: FieldTarget(dhcp.FieldCHAddr), Literal: dhcp.Binary{0x52, 0x54, 0, 0, 0, 1}}, true},
		{"binary ordered", Predicate{Op: OpGE, Target: FieldTarget(dhcp.FieldCHAddr), Literal: dhcp.Binary{0}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate(tt.p, msg, DirectionUp))
		})
	}
	assert.Zero(t, e.Mismatches())
}

func TestTypeMismatchIsFalseAndCounted(t *testing.T) {
	var hooked int
	e := NewEvaluator(WithMismatchHook(func(Predicate, dhcp.Value) { hooked++ }))
	eng := NewEngine(e)

	rs, err := NewRuleSet(nil, []AddRule{{
		Priority:  1,
		Predicate: Predicate{Direction: DirectionUp, Op: OpEQ, Target: OptionTarget(dhcp.OptionServerIdentifier), Literal: dhcp.Uint32(5)},
		Additions: []Addition{{Order: 1, Target: OptionTarget(dhcp.OptionHostName), Value: dhcp.String("x")}},
	}})
	require.NoError(t, err)

	msg := discover()
	out := eng.Apply(rs, msg, DirectionUp)

	assert.Equal(t, msg.Options, out.Options)
	assert.Equal(t, uint64(1), e.Mismatches())
	assert.Equal(t, 1, hooked)
}

func TestDeleteByCode(t *testing.T) {
	eng := NewEngine(nil)
	msg := discover()
	msg.Append(dhcp.OptionRelayAgentInformation, dhcp.RelayAgentInfo{{Code: 2, Data: []byte("x")}})

	rs, err := NewRuleSet([]DeleteRule{{
		Priority:  1,
		Predicate: Predicate{Direction: DirectionUp, Op: OpEQ, Target: OptionTarget(dhcp.OptionRelayAgentInformation)},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply(rs, msg, DirectionUp)
	assert.False(t, out.Has(dhcp.OptionRelayAgentInformation))
	assert.Len(t, out.Options, 3)
	assert.Len(t, msg.GetAll(dhcp.OptionRelayAgentInformation), 2, "input must not be modified")

	down := eng.Apply(rs, msg, DirectionDown)
	assert.Len(t, down.GetAll(dhcp.OptionRelayAgentInformation), 2)
}

func TestDeleteRemovesOnlySatisfyingInstances(t *testing.T) {
	eng := NewEngine(nil)
	msg := &dhcp.Message{}
	msg.Append(dhcp.OptionHostName, dhcp.String("keep"))
	msg.Append(dhcp.OptionHostName, dhcp.String("drop"))
	msg.Append(dhcp.OptionHostName, dhcp.String("drop"))

	rs, err := NewRuleSet([]DeleteRule{{
		Priority:  10,
		Predicate: Predicate{Op: OpEQ, Target: OptionTarget(dhcp.OptionHostName), Literal: dhcp.String("drop")},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply(rs, msg, DirectionUp)
	require.Len(t, out.Options, 1)
	assert.Equal(t, dhcp.String("keep"), out.Options[0].Value)
}

func TestGlobDeleteRemovesEveryInstance(t *testing.T) {
	eng := NewEngine(nil)
	msg := discover()
	rs, err := NewRuleSet([]DeleteRule{{
		Priority:  1,
		Predicate: Predicate{Op: OpGLOB, Target: OptionTarget(dhcp.OptionParameterRequestList), Literal: dhcp.Uint8(200)},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply(rs, msg, DirectionDown)
	assert.False(t, out.Has(dhcp.OptionParameterRequestList))
}

func TestAddRules(t *testing.T) {
	eng := NewEngine(nil)
	rs, err := NewRuleSet(nil, []AddRule{
		{
			Priority:  20,
			Predicate: Predicate{Op: OpEQ, Target: OptionTarget(dhcp.OptionHostName)},
			Additions: []Addition{{Order: 1, Target: OptionTarget(dhcp.OptionDomainName), Value: dhcp.String("seen-host")}},
		},
		{
			Priority:  10,
			Predicate: Predicate{Direction: DirectionUp, Op: OpGLOB},
			Additions: []Addition{
				{Order: 2, Target: FieldTarget(dhcp.FieldHops), Value: dhcp.Uint8(1)},
				{Order: 1, Target: OptionTarget(dhcp.OptionHostName), Value: dhcp.String("cpe")},
				{Order: 3, Target: OptionTarget(dhcp.OptionServerIdentifier), Value: addr("10.9.9.9"), Replace: true},
			},
		},
	})
	require.NoError(t, err)

	out := eng.Apply(rs, discover(), DirectionUp)
	assert.Equal(t, uint8(1), out.Hops)

	host, ok := out.Get(dhcp.OptionHostName)
	require.True(t, ok)
	assert.Equal(t, dhcp.String("cpe"), host)

	sid := out.GetAll(dhcp.OptionServerIdentifier)
	require.Len(t, sid, 1)
	assert.Equal(t, addr("10.9.9.9"), sid[0])

	// priority 20 sees the option added by priority 10
	_, ok = out.Get(dhcp.OptionDomainName)
	assert.True(t, ok)
}

func TestApplyIsDeterministic(t *testing.T) {
	eng := NewEngine(nil)
	rs, err := NewRuleSet(
		[]DeleteRule{{Priority: 1, Predicate: Predicate{Op: OpGLOB, Target: OptionTarget(82)}}},
		[]AddRule{{
			Priority:  1,
			Predicate: Predicate{Op: OpGLOB},
			Additions: []Addition{{Order: 1, Target: OptionTarget(dhcp.OptionHostName), Value: dhcp.String("a")}},
		}},
	)
	require.NoError(t, err)

	msg := discover()
	first, err := dhcp.Encode(eng.Apply(rs, msg, DirectionUp))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := dhcp.Encode(eng.Apply(rs, msg, DirectionUp))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPriorityOrderIndependentOfDeclaration(t *testing.T) {
	a := AddRule{
		Priority:  1,
		Predicate: Predicate{Op: OpGLOB},
		Additions: []Addition{{Order: 1, Target: OptionTarget(dhcp.OptionHostName), Value: dhcp.String("first")}},
	}
	b := AddRule{
		Priority:  2,
		Predicate: Predicate{Op: OpGLOB},
		Additions: []Addition{{Order: 1, Target: OptionTarget(dhcp.OptionHostName), Value: dhcp.String("second")}},
	}
	d1 := DeleteRule{Priority: 5, Predicate: Predicate{Op: OpEQ, Target: OptionTarget(53)}}
	d2 := DeleteRule{Priority: 3, Predicate: Predicate{Op: OpEQ, Target: OptionTarget(55)}}

	rs1, err := NewRuleSet([]DeleteRule{d1, d2}, []AddRule{a, b})
	require.NoError(t, err)
	rs2, err := NewRuleSet([]DeleteRule{d2, d1}, []AddRule{b, a})
	require.NoError(t, err)

	eng := NewEngine(nil)
	out1, err := dhcp.Encode(eng.Apply(rs1, discover(), DirectionUp))
	require.NoError(t, err)
	out2, err := dhcp.Encode(eng.Apply(rs2, discover(), DirectionUp))
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestNewRuleSetValidation(t *testing.T) {
	_, err := NewRuleSet(
		[]DeleteRule{
			{Priority: 1, Predicate: Predicate{Op: OpEQ, Target: OptionTarget(53)}},
			{Priority: 1, Predicate: Predicate{Op: OpEQ, Target: OptionTarget(55)}},
			{Priority: 2, Predicate: Predicate{Op: OpEQ, Target: FieldTarget(dhcp.FieldGIAddr)}},
		},
		[]AddRule{
			{Priority: 1, Predicate: Predicate{Op: OpGLOB}},
			{
				Priority:  2,
				Predicate: Predicate{Op: OpGLOB},
				Additions: []Addition{{Order: 1, Target: OptionTarget(dhcp.OptionServerIdentifier), Value: dhcp.Uint32(1)}},
			},
			{
				Priority:  3,
				Predicate: Predicate{Op: OpAND, Target: OptionTarget(12), Literal: dhcp.String("x")},
				Additions: []Addition{{Order: 1, Target: OptionTarget(200), Value: dhcp.Binary{1}}},
			},
		},
	)
	require.Error(t, err)

	var re *RuleError
	require.True(t, errors.As(err, &re))

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 5)
}

func TestOrderingOnUnorderedLiteralIsFalse(t *testing.T) {
	e := NewEvaluator()
	eng := NewEngine(e)

	rs, err := NewRuleSet(nil, []AddRule{
		{
			Priority:  1,
			Predicate: Predicate{Op: OpGE, Target: FieldTarget(dhcp.FieldCHAddr), Literal: dhcp.Binary{0}},
			Additions: []Addition{{Order: 1, Target: OptionTarget(dhcp.OptionHostName), Value: dhcp.String("binary")}},
		},
		{
			Priority:  2,
			Predicate: Predicate{Op: OpL, Target: OptionTarget(dhcp.OptionRapidCommit), Literal: dhcp.Empty{}},
			Additions: []Addition{{Order: 1, Target: OptionTarget(dhcp.OptionDomainName), Value: dhcp.String("empty")}},
		},
	})
	require.NoError(t, err)

	msg := discover()
	msg.Append(dhcp.OptionRapidCommit, dhcp.Empty{})
	out := eng.Apply(rs, msg, DirectionUp)

	assert.False(t, out.Has(dhcp.OptionHostName))
	assert.False(t, out.Has(dhcp.OptionDomainName))
	assert.Zero(t, e.Mismatches())
}

func TestAdditionKindFollowsCatalog(t *testing.T) {
	route := dhcp.ClasslessRoutes{{
		Destination: dhcp.Prefix{Prefix: netip.MustParsePrefix("10.0.0.0/8")},
		Router:      addr("192.168.1.1"),
	}}

	tests := []struct {
		name    string
		add     Addition
		wantErr bool
	}{
		{"catalogued kind", Addition{Order: 1, Target: OptionTarget(dhcp.OptionRouter), Value: dhcp.AddressList{addr("10.0.0.1")}}, false},
		{"classless routes", Addition{Order: 1, Target: OptionTarget(dhcp.OptionClasslessStaticRoute), Value: route}, false},
		{"uncatalogued binary", Addition{Order: 1, Target: OptionTarget(200), Value: dhcp.Binary{1, 2}}, false},
		{"wrong kind", Addition{Order: 1, Target: OptionTarget(dhcp.OptionRouter), Value: dhcp.Binary{10, 0, 0, 1}}, true},
		{"uncatalogued string", Addition{Order: 1, Target: OptionTarget(200), Value: dhcp.String("x")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.add.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrefixMatchesClasslessRoutes(t *testing.T) {
	e := NewEvaluator()
	msg := discover()
	msg.Append(dhcp.OptionClasslessStaticRoute, dhcp.ClasslessRoutes{
		{Destination: dhcp.Prefix{Prefix: netip.MustParsePrefix("10.0.0.0/8")}, Router: addr("192.168.1.1")},
		{Destination: dhcp.Prefix{Prefix: netip.MustParsePrefix("0.0.0.0/0")}, Router: addr("192.168.1.254")},
	})
	target := OptionTarget(dhcp.OptionClasslessStaticRoute)
	dflt := dhcp.Prefix{Prefix: netip.MustParsePrefix("0.0.0.0/0")}

	assert.True(t, e.Evaluate(Predicate{Op: OpEQ, Target: target, Literal: dflt}, msg, DirectionDown))
	assert.False(t, e.Evaluate(Predicate{Op: OpEQ, ListOp: ListAND, Target: target, Literal: dflt}, msg, DirectionDown))
	assert.Zero(t, e.Mismatches())
}

func TestVocabulary(t *testing.T) {
	for _, s := range []string{"EQ", "ge", "LE", "G", "L", "AND", "OR", "GLOB"} {
		_, err := ParseOp(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseOp("NE")
	assert.Error(t, err)

	d, err := ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, DirectionDown, d)
}
