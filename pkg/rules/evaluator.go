package rules

import (
	"log/slog"
	"sync/atomic"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
	"github.com/veesix-networks/dhcpagent/pkg/logger"
)

// Evaluator decides predicates against messages. It holds no per-packet
// state and is safe for concurrent use.
type Evaluator struct {
	logger     *slog.Logger
	mismatches atomic.Uint64
	onMismatch func(Predicate, dhcp.Value)
}

type EvaluatorOption func(*Evaluator)

// WithMismatchHook registers a callback run whenever a literal of the wrong
// kind is compared against a value.
func WithMismatchHook(fn func(Predicate, dhcp.Value)) EvaluatorOption {
	return func(e *Evaluator) { e.onMismatch = fn }
}

func WithLogger(l *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) { e.logger = l }
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{logger: logger.Get(logger.Rules)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mismatches returns the number of type mismatches seen so far.
func (e *Evaluator) Mismatches() uint64 {
	return e.mismatches.Load()
}

// Evaluate reports whether p holds for msg travelling in direction dir. An
// option target holds when any instance of the option satisfies it.
func (e *Evaluator) Evaluate(p Predicate, msg *dhcp.Message, dir Direction) bool {
	if !p.Direction.Matches(dir) {
		return false
	}
	if p.Op == OpGLOB {
		return true
	}

	if p.Target.IsField() {
		v := msg.Field(p.Target.Field)
		if v == nil {
			return false
		}
		return e.Match(p, v)
	}

	values := msg.GetAll(p.Target.Code)
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if e.Match(p, v) {
			return true
		}
	}
	return false
}

// Match applies the comparison of p to a single resolved value. The direction
// gate is not consulted.
func (e *Evaluator) Match(p Predicate, v dhcp.Value) bool {
	if p.Op == OpGLOB || p.Literal == nil {
		return true
	}

	lit := p.Literal
	if list, ok := v.(dhcp.List); ok && lit.Kind() != v.Kind() && lit.Kind() == list.ElementKind() {
		elems := list.Elements()
		if len(elems) == 0 {
			return false
		}
		for _, el := range elems {
			r := compare(p.Op, el, lit)
			if p.ListOp == ListAND && !r {
				return false
			}
			if p.ListOp == ListOR && r {
				return true
			}
		}
		return p.ListOp == ListAND
	}

	if lit.Kind() != v.Kind() {
		e.mismatch(p, v)
		return false
	}
	return compare(p.Op, v, lit)
}

func (e *Evaluator) mismatch(p Predicate, v dhcp.Value) {
	e.mismatches.Add(1)
	e.logger.Warn("Rule literal does not match value type",
		"target", p.Target.String(),
		"op", p.Op.String(),
		"literal_kind", p.Literal.Kind().String(),
		"value_kind", v.Kind().String())
	if e.onMismatch != nil {
		e.onMismatch(p, v)
	}
}

func compare(op Op, v, lit dhcp.Value) bool {
	switch op {
	case OpEQ:
		return dhcp.Equal(v, lit)
	case OpAND, OpOR:
		vi, ok1 := v.(dhcp.Integer)
		li, ok2 := lit.(dhcp.Integer)
		if !ok1 || !ok2 {
			return false
		}
		if op == OpAND {
			return vi.Uint64()&li.Uint64() == li.Uint64()
		}
		return vi.Uint64()&li.Uint64() != 0
	}

	if !dhcp.Ordered(v.Kind()) {
		return false
	}
	c, ok := dhcp.Compare(v, lit)
	if !ok {
		return false
	}
	switch op {
	case OpGE:
		return c >= 0
	case OpLE:
		return c <= 0
	case OpG:
		return c > 0
	case OpL:
		return c < 0
	}
	return false
}
