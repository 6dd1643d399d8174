package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skekre98/sundry/config"
	"github.com/skekre98/sundry/core"
)

const Name = "web"

// Engine returns the gin engine registered by the web module.
func Engine(c core.Container) *gin.Engine {
	return core.Get[*gin.Engine](c)
}

func Module(opts ...Option) core.Module {
	var options Options
	for _, o := range opts {
		o(&options)
	}
	return &webModule{opts: options}
}

type webModule struct {
	opts   Options
	server *http.Server
}

func (m *webModule) Name() string        { return Name }
func (m *webModule) DependsOn() []string { return nil }

func (m *webModule) Configure(c core.Container) error {
	cfg := core.Get[config.Root](c)
	l := core.Get[*slog.Logger](c)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(RequestID())
	r.Use(RecoveryProblem(l))
	r.Use(AccessLog(l))
	r.Use(m.opts.Middlewares...)

	r.NoRoute(func(c *gin.Context) {
		Problem(c, http.StatusNotFound, "no route for "+c.Request.URL.Path)
	})

	for _, reg := range m.opts.Routes {
		reg(r)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	core.Put[*gin.Engine](c, r)
	core.Put[*http.Server](c, srv)
	m.server = srv
	return nil
}

// Start binds the listener synchronously so address errors surface here,
// then serves in the background.
func (m *webModule) Start(ctx context.Context, c core.Container) error {
	l := core.Get[*slog.Logger](c)

	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", m.server.Addr, err)
	}

	go func() {
		l.Info("http server starting", "addr", ln.Addr().String())
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("http server error", "error", err)
		}
	}()
	return nil
}

func (m *webModule) Stop(ctx context.Context, c core.Container) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
