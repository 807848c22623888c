package rules

import (
	"log/slog"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
	"github.com/veesix-networks/dhcpagent/pkg/logger"
)

// Engine applies a RuleSet to a message: delete-rules first, then add-rules,
// each in ascending priority.
type Engine struct {
	eval   *Evaluator
	logger *slog.Logger
}

func NewEngine(eval *Evaluator) *Engine {
	if eval == nil {
		eval = NewEvaluator()
	}
	return &Engine{
		eval:   eval,
		logger: logger.Get(logger.Rules),
	}
}

func (e *Engine) Evaluator() *Evaluator {
	return e.eval
}

// Apply returns the rewritten message. msg is not modified.
func (e *Engine) Apply(rs *RuleSet, msg *dhcp.Message, dir Direction) *dhcp.Message {
	out := msg.Clone()
	if rs.Empty() {
		return out
	}

	for _, r := range rs.Deletes {
		e.applyDelete(r, out, dir)
	}

	for _, r := range rs.Adds {
		if !e.eval.Evaluate(r.Predicate, out, dir) {
			continue
		}
		for _, a := range r.Additions {
			e.applyAddition(r.Priority, a, out)
		}
	}
	return out
}

func (e *Engine) applyDelete(r DeleteRule, msg *dhcp.Message, dir Direction) {
	p := r.Predicate
	if !p.Direction.Matches(dir) || !p.Target.IsOption() {
		return
	}

	removed := msg.RemoveFunc(p.Target.Code, func(v dhcp.Value) bool {
		return e.eval.Match(p, v)
	})
	if removed > 0 {
		e.logger.Debug("Deleted option",
			"priority", r.Priority,
			"code", p.Target.Code,
			"instances", removed)
	}
}

func (e *Engine) applyAddition(priority int, a Addition, msg *dhcp.Message) {
	switch {
	case a.Target.IsField():
		if err := msg.SetField(a.Target.Field, a.Value); err != nil {
			e.logger.Warn("Failed to set header field", "priority", priority, "field", a.Target.Field.String(), "error", err)
		}
	case a.Replace:
		msg.Replace(a.Target.Code, a.Value)
	default:
		msg.Append(a.Target.Code, a.Value)
	}
}
