package component

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/veesix-networks/dhcpagent/pkg/logger"
)

// Orchestrator starts components in registration order and stops them in
// reverse.
type Orchestrator struct {
	mu         sync.Mutex
	components []Component
	started    int
	logger     *slog.Logger
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{logger: logger.Get(logger.Main)}
}

func (o *Orchestrator) Register(comps ...Component) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.components = append(o.components, comps...)
}

// Start starts every component. If one fails, those already started are
// stopped again before the error is returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, comp := range o.components {
		if err := comp.Start(ctx); err != nil {
			o.started = i
			if serr := o.stopStarted(ctx); serr != nil {
				o.logger.Error("Error rolling back components", "error", serr)
			}
			return fmt.Errorf("start %s: %w", comp.Name(), err)
		}
		o.logger.Debug("Started component", "component", comp.Name())
	}
	o.started = len(o.components)
	return nil
}

// Stop stops every started component, continuing past failures.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopStarted(ctx)
}

func (o *Orchestrator) stopStarted(ctx context.Context) error {
	var errs []error
	for i := o.started - 1; i >= 0; i-- {
		comp := o.components[i]
		if err := comp.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", comp.Name(), err))
			continue
		}
		o.logger.Debug("Stopped component", "component", comp.Name())
	}
	o.started = 0
	return errors.Join(errs...)
}
