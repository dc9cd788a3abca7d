package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/flypool/flyweight"
	"github.com/jonwraymond/flypool/health"
	"github.com/jonwraymond/flypool/observe"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "FLYPOOL_"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// options holds flags shared by every subcommand.
type options struct {
	logLevel     string
	poolName     string
	warnSize     int
	criticalSize int
}

// app is the state built before a subcommand runs and torn down after it.
type app struct {
	opts        options
	newObserver func(context.Context, observe.Config) (observe.Observer, error)
	observer    observe.Observer
	mw          *observe.Middleware
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := observe.ConfigFromEnv(EnvPrefix)
	if err != nil {
		return err
	}
	cfg.Version = version
	if a.opts.logLevel != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.Level = a.opts.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	obs, err := a.newObserver(ctx, cfg)
	if err != nil {
		return err
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return err
	}

	a.observer = obs
	a.mw = mw
	return nil
}

// teardown shuts the observer down once; later calls are no-ops.
func (a *app) teardown(ctx context.Context) error {
	obs := a.observer
	if obs == nil {
		return nil
	}
	a.observer = nil
	a.mw = nil

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return obs.Shutdown(ctx)
}

// withTeardown wraps run so the observer is shut down even when run fails;
// cobra skips PersistentPostRunE in that case.
func (a *app) withTeardown(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.teardown(context.WithoutCancel(cmd.Context())))
		}()
		return run(cmd, args)
	}
}

func (a *app) newPool() (*CarPool, error) {
	return NewCarPool(flyweight.FactoryConfig{
		Name:     a.opts.poolName,
		Observer: a.mw,
	})
}

func (a *app) checker(pool *CarPool) *health.PoolChecker {
	return health.NewPoolChecker(pool, health.PoolCheckerConfig{
		Name:         a.opts.poolName,
		WarnSize:     a.opts.warnSize,
		CriticalSize: a.opts.criticalSize,
	})
}

// NewRootCommand builds the flypool command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{newObserver: observe.NewObserver})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "flypool",
		Short: "flypool - flyweight interning pool demonstrations",
		Long: `flypool shares one immutable car-model object between every car of the
same brand, model and color, and passes per-car data (plates, owner)
in on each use.

Observability is configured from the environment:
  FLYPOOL_LOG_LEVEL, FLYPOOL_TRACING_ENABLED, FLYPOOL_TRACING_EXPORTER,
  FLYPOOL_METRICS_ENABLED, FLYPOOL_METRICS_EXPORTER, FLYPOOL_SERVICE_NAME`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(context.WithoutCancel(cmd.Context()))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides FLYPOOL_LOG_LEVEL)")
	flags.StringVar(&a.opts.poolName, "pool", "cars", "Pool name used in logs, spans and metrics")
	flags.IntVar(&a.opts.warnSize, "warn-size", 0, "Pool size reported as degraded (0 disables)")
	flags.IntVar(&a.opts.criticalSize, "critical-size", 0, "Pool size reported as unhealthy (0 disables)")

	root.AddCommand(newDemoCommand(a), newLoadCommand(a))
	for _, c := range append(root.Commands(), root) {
		c.RunE = a.withTeardown(c.RunE)
	}
	return root
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCommand()
	err := root.ExecuteContext(context.Background())
	if err != nil {
		printError(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// SetVersionInfo sets the version information reported by --version.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
