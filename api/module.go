// Package api serves the stateless helpers over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skekre98/sundry/actuator"
	"github.com/skekre98/sundry/config"
	"github.com/skekre98/sundry/core"
	"github.com/skekre98/sundry/external"
	"github.com/skekre98/sundry/gpu"
	"github.com/skekre98/sundry/web"
)

const Name = "api"

// BasePath prefixes every route of the module.
const BasePath = "/v1"

type module struct{}

// Module registers the /v1 routes on the web engine. A gpu.Telemetry or
// *external.Runner placed in the container replaces the defaults.
func Module() core.Module { return &module{} }

func (m *module) Name() string        { return Name }
func (m *module) DependsOn() []string { return []string{web.Name} }

func (m *module) Configure(c core.Container) error {
	cfg := core.Get[config.Root](c)

	h := &handlers{
		cfg:    cfg,
		logger: core.Get[*slog.Logger](c),
		ops:    newOpsCounter(actuator.Registry(c)),
	}

	if t, ok := core.Lookup[gpu.Telemetry](c); ok {
		h.telemetry = t
	} else {
		h.telemetry = gpu.NVML{}
	}
	if r, ok := core.Lookup[*external.Runner](c); ok {
		h.runner = r
	} else {
		h.runner = &external.Runner{Git: cfg.Tools.Git, Inkscape: cfg.Tools.Inkscape}
	}

	h.routes(web.Engine(c).Group(BasePath))
	return nil
}

func (m *module) Start(_ context.Context, _ core.Container) error { return nil }
func (m *module) Stop(_ context.Context, _ core.Container) error  { return nil }

func newOpsCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sundry",
		Name:      "operations_total",
		Help:      "Helper invocations served over HTTP, by operation and outcome.",
	}, []string{"operation", "outcome"})

	if err := reg.Register(ops); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return ops
}
