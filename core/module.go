package core

import "context"

// Module is one piece of the service (web, actuator, api). App configures
// every module before starting any, and stops them in reverse start order.
type Module interface {
	Name() string
	DependsOn() []string
	// Configure reads shared values from c and puts its own into it.
	// Routes are registered here, never in Start.
	Configure(c Container) error
	Start(ctx context.Context, c Container) error
	// Stop must return once ctx is done.
	Stop(ctx context.Context, c Container) error
}
