package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/querellas/casecore/internal/config"
	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/infrastructure/telemetry"
)

// CLI is the casectl command tree.
type CLI struct {
	Actor int64 `help:"Worker id recorded as the actor of changes (0 for system)." default:"0"`

	Migrate  MigrateCmd  `cmd:"" help:"Apply the database schema."`
	Catalog  CatalogCmd  `cmd:"" help:"Manage state catalogs."`
	Case     CaseCmd     `cmd:"" help:"Open cases and move them through their states."`
	Dispatch DispatchCmd `cmd:"" help:"Distribute cases among caseworkers."`
	Worker   WorkerCmd   `cmd:"" help:"Manage workers."`
	Audit    AuditCmd    `cmd:"" help:"Inspect the audit trail."`
	Demo     DemoCmd     `cmd:"" help:"Run a complaint and dispatch walkthrough on an in-memory store."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	logger := cfg.Logger(stderr)

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("casectl"),
		kong.Description("Case lifecycle operations for complaints and dispatch orders."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		fmt.Fprintf(stderr, "cli error: %v\n", err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%v", err)
		return 2
	}

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: "casectl",
		Endpoint:    cfg.OTelEndpoint,
		Enabled:     cfg.OTelEnabled,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("trace flush failed")
		}
	}()

	app := newApp(ctx, cfg, logger, stdout, cli.Actor)
	defer app.Close()

	if err := kctx.Run(app); err != nil {
		logger.Error().Err(err).Str("command", kctx.Command()).Msg("command failed")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps error kinds to process exit statuses.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case apperror.IsValidation(err):
		return 2
	case apperror.IsNotFound(err):
		return 3
	case apperror.IsState(err):
		return 4
	default:
		return 1
	}
}
