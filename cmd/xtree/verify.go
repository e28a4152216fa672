package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	xruntime "github.com/benz9527/xtree/lib/runtime"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/stress"
	"github.com/benz9527/xtree/xlog"
)

type metricsOptions struct {
	exporter string
	addr     string
}

type verifyOptions struct {
	configPath string
	overrides  stress.Config
	metrics    metricsOptions
}

// config loads the file, or the defaults, then applies the flags the
// user changed explicitly.
func (opts *verifyOptions) config(cmd *cobra.Command) (stress.Config, error) {
	cfg := stress.DefaultConfig()
	if len(opts.configPath) > 0 {
		loaded, err := stress.LoadConfig(opts.configPath)
		if err != nil {
			return stress.Config{}, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = opts.overrides.Workers
	}
	if flags.Changed("trees") {
		cfg.Trees = opts.overrides.Trees
	}
	if flags.Changed("ops") {
		cfg.Ops = opts.overrides.Ops
	}
	if flags.Changed("key-space") {
		cfg.KeySpace = opts.overrides.KeySpace
	}
	if flags.Changed("erase-ratio") {
		cfg.EraseRatio = opts.overrides.EraseRatio
	}
	if flags.Changed("check-every") {
		cfg.CheckEvery = opts.overrides.CheckEvery
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.overrides.Seed
	}
	if flags.Changed("allocator") {
		cfg.Allocator = opts.overrides.Allocator
	}
	if flags.Changed("stats") {
		cfg.Stats = opts.overrides.Stats
	}
	return cfg, cfg.Validate()
}

// newMetricsExporter installs the meter provider. The prometheus exporter
// is served on addr for the lifetime of the fx app.
func newMetricsExporter(lc fx.Lifecycle, opts metricsOptions, logger xlog.XLogger) (*observability.MetricsExporter, error) {
	if opts.exporter == "" || opts.exporter == "none" {
		return nil, nil
	}
	typ, err := observability.ParseExporterType(opts.exporter)
	if err != nil {
		return nil, err
	}
	exporter, err := observability.InitMetricsExporter(typ)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	observability.InitAppStats(ctx, "verify", exporter)

	var srv *http.Server
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if typ != observability.PrometheusExporter {
				return nil
			}
			ln, err := net.Listen("tcp", opts.addr)
			if err != nil {
				return err
			}
			mux := http.NewServeMux()
			mux.Handle("/metrics", exporter.Handler())
			srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error(err, "metrics server stopped")
				}
			}()
			logger.Info("metrics served", zap.String("addr", ln.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// InitAppStats shuts the exporter down once cancelled.
			defer cancel()
			if srv == nil {
				return nil
			}
			return srv.Shutdown(ctx)
		},
	})
	return exporter, nil
}

func runVerify(ctx context.Context, cmd *cobra.Command, logger xlog.XLogger, cfg stress.Config, metrics metricsOptions) error {
	env := xruntime.LoadEnv()
	logger.Info("verify starting",
		zap.String("platform", env.Platform()),
		zap.String("containerID", env.ContainerID),
		zap.Int("trees", cfg.Trees),
		zap.Int("ops", cfg.Ops),
		zap.String("allocator", string(cfg.Allocator)),
	)

	var runner *stress.Runner
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Supply(cfg, metrics),
		fx.Provide(
			func() xlog.XLogger { return logger },
			stress.NewRunner,
			newMetricsExporter,
		),
		fx.Invoke(func(*observability.MetricsExporter) {}),
		fx.Populate(&runner),
	)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	report, err := runner.Run(ctx)
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "trees=%d ops=%d checks=%d failed=%d elapsed=%s\n",
		len(report.Tasks), report.TotalOps(), report.TotalChecks(), len(report.Failed()), report.Elapsed)
	for _, task := range report.Failed() {
		_, _ = fmt.Fprintf(out, "tree %d: %v\n", task.Tree, task.Err)
	}
	return err
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	opts := &verifyOptions{}
	defaults := stress.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run randomized insert/erase workloads and verify the red-black invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runVerify(ctx, cmd, root.logger, cfg, opts.metrics)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML workload config, flags override it")
	flags.IntVar(&opts.overrides.Workers, "workers", defaults.Workers, "worker pool size")
	flags.IntVar(&opts.overrides.Trees, "trees", defaults.Trees, "number of trees, one task each")
	flags.IntVar(&opts.overrides.Ops, "ops", defaults.Ops, "operations per tree")
	flags.Uint64Var(&opts.overrides.KeySpace, "key-space", defaults.KeySpace, "keys are drawn from [0, key-space)")
	flags.Float64Var(&opts.overrides.EraseRatio, "erase-ratio", defaults.EraseRatio, "share of erase operations")
	flags.IntVar(&opts.overrides.CheckEvery, "check-every", defaults.CheckEvery, "validate every n operations, 0 only at the end")
	flags.Uint64Var(&opts.overrides.Seed, "seed", defaults.Seed, "random seed")
	flags.StringVar((*string)(&opts.overrides.Allocator), "allocator", string(defaults.Allocator), "heap, pool or arena")
	flags.BoolVar(&opts.overrides.Stats, "stats", defaults.Stats, "record otel tree stats")
	flags.StringVar(&opts.metrics.exporter, "metrics", "none", "none, console or prometheus")
	flags.StringVar(&opts.metrics.addr, "metrics-addr", "127.0.0.1:9464", "prometheus scrape address")
	return cmd
}
