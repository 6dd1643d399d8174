package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/skekre98/sundry/actuator"
	"github.com/skekre98/sundry/api"
	"github.com/skekre98/sundry/config"
	"github.com/skekre98/sundry/config/source"
	"github.com/skekre98/sundry/core"
	"github.com/skekre98/sundry/external"
	"github.com/skekre98/sundry/logging"
	"github.com/skekre98/sundry/web"
)

// serveOptions are the flags serve owns. Any other dotted flag such as
// --server.addr=:9090 is a configuration override.
type serveOptions struct {
	configDir string
	profile   string
}

func parseServe(args []string, out io.Writer) (serveOptions, error) {
	fs := flags("serve", out)
	fs.ParseErrorsWhitelist.UnknownFlags = true

	var opts serveOptions
	fs.StringVar(&opts.configDir, "config", "configs", "directory holding application.yaml")
	fs.StringVar(&opts.profile, "profile", os.Getenv("SUNDRY_PROFILE"), "overlay application.<profile>.yaml")
	return opts, fs.Parse(args)
}

// loadConfig layers defaults, files, environment and flags, in that order.
func loadConfig(opts serveOptions, args []string, logger *slog.Logger) (*config.Manager, config.Root, error) {
	var cfg config.Root
	mgr, err := config.NewManager(&cfg, config.Options{Logger: logger},
		config.DefaultsSource(),
		&source.FileSource{BasePath: opts.configDir, Profile: opts.profile, Optional: true},
		&source.EnvSource{Keys: config.Defaults(), Logger: logger},
		&source.CLISource{Args: args},
	)
	return mgr, cfg, err
}

func newApp(cfg config.Root, logger *slog.Logger) *core.App {
	app := core.NewApp(logger,
		web.Module(),
		actuator.Module(),
		api.Module(),
	)

	core.Put(app.Container, cfg)
	core.Put(app.Container, logger)
	core.Put(app.Container, &external.Runner{
		Logger:   logger,
		Git:      cfg.Tools.Git,
		Inkscape: cfg.Tools.Inkscape,
	})
	return app
}

func runServe(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseServe(args, out)
	if err != nil {
		return err
	}

	bootLog := logging.New(config.LoggingConfig{Level: "info", Format: "text"})
	mgr, cfg, err := loadConfig(opts, args, bootLog)
	if err != nil {
		return err
	}
	defer mgr.Close()

	logger := logging.New(cfg.Logging).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
	)
	return newApp(cfg, logger).Run(ctx)
}
