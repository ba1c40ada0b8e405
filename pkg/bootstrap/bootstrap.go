// Package bootstrap holds the startup steps shared by every binary in cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/procurement-backend/pkg/config"
	"github.com/angelmondragon/procurement-backend/pkg/instance"
	"github.com/angelmondragon/procurement-backend/pkg/logger"
	"github.com/angelmondragon/procurement-backend/pkg/metrics"
)

var exit = os.Exit

// Process is a started binary: its kind, loaded config and configured logger.
type Process struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger
}

// Start reads .env when present, loads configuration and builds the logger.
// A config error terminates the process.
func Start(kind string) *Process {
	ctx := context.Background()
	p := &Process{Kind: kind, Logger: logger.New(logger.Options{ServiceName: kind})}

	if err := godotenv.Load(); err != nil {
		p.Logger.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	p.Require(ctx, "config", err)
	cfg.Service.Kind = kind
	p.Config = cfg

	p.Logger = logger.New(logger.Options{
		ServiceName: kind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"instance": instance.ID()},
	})
	return p
}

// Require terminates the process when a startup dependency failed.
func (p *Process) Require(ctx context.Context, resource string, err error) {
	if err == nil {
		return
	}
	p.Logger.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	exit(1)
}

// Close is meant for defer; failures are logged, not returned.
func (p *Process) Close(ctx context.Context, resource string, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		p.Logger.Error(ctx, fmt.Sprintf("error closing %s", resource), err)
	}
}

// SignalContext is cancelled on SIGINT or SIGTERM and carries env and kind
// log fields.
func (p *Process) SignalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return p.Logger.WithFields(ctx, p.fields()), stop
}

func (p *Process) fields() map[string]any {
	fields := map[string]any{"serviceKind": p.Kind}
	if p.Config != nil {
		fields["env"] = p.Config.App.Env
	}
	return fields
}

// ServeMetrics exposes /metrics on the configured address until ctx ends.
// An empty address disables the listener.
func (p *Process) ServeMetrics(ctx context.Context) {
	if p.Config == nil {
		return
	}
	go func() {
		if err := metrics.Serve(ctx, p.Config.Service.MetricsAddr, nil); err != nil {
			p.Logger.Error(ctx, "metrics listener stopped", err)
		}
	}()
}

// Fail logs err and terminates with a non-zero status.
func (p *Process) Fail(ctx context.Context, msg string, err error) {
	p.Logger.Error(ctx, msg, err)
	exit(1)
}
