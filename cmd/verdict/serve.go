package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"strategos-hq/verdict/pkg/audit"
	"strategos-hq/verdict/pkg/cli"
	"strategos-hq/verdict/pkg/condition/engine"
	"strategos-hq/verdict/pkg/ruleset/source"
	"strategos-hq/verdict/pkg/server"
	"strategos-hq/verdict/pkg/telemetry/metrics"
	"strategos-hq/verdict/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	rules         string
	watch         bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the evaluation service",
	Long: `Start the HTTP evaluation service.

The service loads the configured rule set, reloads it when files change or
the Git branch moves, and answers evaluation requests. When audit is enabled
every pass is recorded and old records are pruned on the retention schedule.

Examples:
  # Start with ./verdict.yaml or defaults
  verdict serve

  # Serve a rules directory and reload on change
  verdict serve --rules rules/ --watch

  # Override listen address
  verdict serve --listen 0.0.0.0:8088

  # Validate config without starting the service
  verdict serve --dry-run`,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVarP(&serveFlags.rules, "rules", "r", "", "serve a rule-set file or directory instead of the configured source")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload rule-set files when they change")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the service")
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.rules != "" {
		cfg.Rules.Mode = "file"
		cfg.Rules.Path = serveFlags.rules
	}
	if serveFlags.watch {
		cfg.Rules.Watch = true
	}

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.Timeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	}

	evalOpts := []engine.Option{engine.WithTracer(tracer.Tracer())}
	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithTracer(tracer.Tracer()),
		server.WithVersion(Version, GitCommit),
	}
	if collector != nil {
		evalOpts = append(evalOpts, engine.WithObserver(collector))
		serverOpts = append(serverOpts, server.WithMetrics(collector, cfg.Telemetry.Metrics.Path))
	}

	if cfg.Audit.Enabled {
		storage, err := audit.Open(ctx, cfg.Audit)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer closeQuietly(logger, "audit storage", storage.Close)

		recorder := audit.NewRecorder(storage, &audit.RecorderConfig{
			BufferSize:   cfg.Audit.BufferSize,
			WriteTimeout: cfg.Audit.WriteTimeout,
			Logger:       logger,
		})
		defer closeQuietly(logger, "audit recorder", recorder.Close)

		scheduler := audit.NewScheduler(audit.NewPruner(storage, cfg.Audit.Retention), cfg.Audit.Retention.PruneSchedule)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewConfigError("audit.retention.prune_schedule", err.Error())
		}
		defer scheduler.Stop()

		evalOpts = append(evalOpts, engine.WithObserver(recorder))
		serverOpts = append(serverOpts, server.WithAudit(storage))
		if collector != nil {
			collector.RegisterAudit(recorder)
		}
		logger.Info("audit trail enabled", "backend", cfg.Audit.Backend)
	}

	evaluator, err := newEvaluator(cfg.Engine, logger, evalOpts...)
	if err != nil {
		return err
	}

	src, err := source.New(cfg.Rules, logger)
	if err != nil {
		return cli.NewConfigError("rules", err.Error())
	}
	managerOpts := []source.ManagerOption{source.WithLogger(logger)}
	if collector != nil {
		managerOpts = append(managerOpts, source.WithReloadObserver(collector))
	}
	manager := source.NewManager(src, managerOpts...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sourceErr := make(chan error, 1)
	go func() {
		if err := manager.Run(runCtx); err != nil {
			sourceErr <- err
			cancel()
		}
	}()

	logger.Info("starting verdict",
		"version", Version,
		"listen_address", cfg.Server.ListenAddress,
		"rules", src.String(),
		"metrics", cfg.Telemetry.Metrics.Enabled,
		"tracing", tracer.Enabled(),
	)

	srv := server.New(&cfg.Server, manager, evaluator, serverOpts...)
	serveErr := srv.ListenAndServe(runCtx)

	select {
	case err := <-sourceErr:
		return cli.NewCommandError("serve", fmt.Errorf("rule-set source failed: %w", err))
	default:
	}
	if serveErr != nil {
		return cli.NewCommandError("serve", serveErr)
	}
	return nil
}

func closeQuietly(logger *slog.Logger, what string, closeFn func() error) {
	start := time.Now()
	if err := closeFn(); err != nil {
		logger.Warn("failed to close "+what, "error", err)
		return
	}
	logger.Debug("closed "+what, "duration", time.Since(start))
}
