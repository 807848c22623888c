// Package component provides the lifecycle shared by the long-running parts
// of the agent.
package component

import "context"

type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
