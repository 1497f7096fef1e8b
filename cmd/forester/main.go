// Command forester is the thin bootstrap that wires module/config into an
// engine/epoch.Manager. CLI/config parsing itself is out of scope for this
// core's specification; only the resulting Config record and the Manager it
// drives are. Concrete module/rpc, module/pubsub, module/indexer, and
// module/signer implementations are a deployment's own responsibility
// (spec.md §1 treats ledger transport and key custody as given) — this
// binary fails fast and clearly if none are registered.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/foresterd/forester/engine/epoch"
	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/config"
	"github.com/foresterd/forester/module/counter"
	"github.com/foresterd/forester/module/drainer"
	"github.com/foresterd/forester/module/eligibility"
	"github.com/foresterd/forester/module/indexer"
	"github.com/foresterd/forester/module/metrics"
	"github.com/foresterd/forester/module/proofs"
	"github.com/foresterd/forester/module/pubsub"
	"github.com/foresterd/forester/module/queuefeed"
	"github.com/foresterd/forester/module/rollover"
	"github.com/foresterd/forester/module/rpc"
	"github.com/foresterd/forester/module/signer"
	"github.com/foresterd/forester/module/slottracker"
	"github.com/foresterd/forester/module/txrunner"
)

// clientFactory builds the transport collaborators this core is handed
// (never constructs). A real deployment links a build that sets these
// before calling Execute; left nil, Execute reports the gap instead of
// starting with a half-wired core.
type clientFactory struct {
	RPC     func(cfg *config.Config) (rpc.Client, error)
	PubSub  func(cfg *config.Config) (pubsub.Client, error)
	Indexer func(cfg *config.Config) (indexer.Indexer, error)
	Signer  func(cfg *config.Config) (signer.Signer, error)
}

var clients clientFactory

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "forester",
		Short: "runs the forester epoch lifecycle against a configured ledger deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a forester config file (env FORESTER_* always applies)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9100", "address to serve Prometheus metrics on")
	return cmd
}

func run(ctx context.Context, configPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logLevel, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	logger := zerolog.New(os.Stderr).Level(logLevel).With().Timestamp().Logger()

	if clients.RPC == nil || clients.PubSub == nil || clients.Indexer == nil || clients.Signer == nil {
		return fmt.Errorf("forester: no transport implementation registered; this build only wires config and the epoch-management core")
	}

	rpcClient, err := clients.RPC(cfg)
	if err != nil {
		return fmt.Errorf("forester: rpc client: %w", err)
	}
	pubsubClient, err := clients.PubSub(cfg)
	if err != nil {
		return fmt.Errorf("forester: pubsub client: %w", err)
	}
	idx, err := clients.Indexer(cfg)
	if err != nil {
		return fmt.Errorf("forester: indexer client: %w", err)
	}
	s, err := clients.Signer(cfg)
	if err != nil {
		return fmt.Errorf("forester: signer: %w", err)
	}

	programID, err := cfg.DecodedProgramID()
	if err != nil {
		return err
	}
	systemProgramID, err := cfg.DecodedSystemProgramID()
	if err != nil {
		return err
	}
	trees, err := cfg.DecodedTrees()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	go serveMetrics(metricsAddr, reg, logger)

	slotDuration := forester.SolanaSlotDuration
	tracker := slottracker.New(rpcClient, slotDuration)
	go tracker.Run(ctx, slottracker.DefaultPollInterval)

	processedCounter := counter.New()
	feed := queuefeed.New(rpcClient, pubsubClient, nil)
	builder := proofs.New(idx, programID)
	oracle := eligibility.New(cfg.Protocol)
	runner := txrunner.New(txrunner.Config{
		RPCClient:  rpcClient,
		Signer:     s,
		Indexer:    idx,
		Oracle:     oracle,
		Counter:    processedCounter,
		SlotSource: tracker,
		Metrics:    collector,
		ProgramID:  programID,
		CULimit:    cfg.CULimit,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	rolloverTrigger := rollover.New(rpcClient, s, idx, cfg.Protocol, programID, systemProgramID, logger, collector)

	drainerCfg := drainer.Config{
		IndexerBatchSize:                cfg.IndexerBatchSize,
		IndexerMaxConcurrentBatches:     cfg.IndexerMaxConcurrentBatches,
		TransactionBatchSize:            cfg.TransactionBatchSize,
		TransactionMaxConcurrentBatches: cfg.TransactionMaxConcurrentBatches,
	}

	reportCh := make(chan forester.WorkReport, 16)
	go logReports(reportCh, logger)

	factory := func(epochNumber uint64) *epoch.Controller {
		return epoch.NewController(epoch.ControllerDeps{
			RPCClient:   rpcClient,
			Signer:      s,
			Feed:        feed,
			Builder:     builder,
			Runner:      runner,
			Rollover:    rolloverTrigger,
			SlotTracker: tracker,
			Protocol:    cfg.Protocol,
			ProgramID:   programID,
			DrainerCfg:  drainerCfg,
			Trees:       trees,
			ReportCh:    reportCh,
			Counter:     processedCounter,
			Logger:      logger,
		}, epochNumber)
	}

	manager, err := epoch.NewManagerWithRetry(ctx, rpcClient, tracker, cfg.Protocol, factory, logger, cfg.BootstrapRetryBase, cfg.BootstrapRetryMax)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return manager.Run(ctx)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn().Err(err).Msg("metrics server stopped")
	}
}

func logReports(reportCh <-chan forester.WorkReport, logger zerolog.Logger) {
	for report := range reportCh {
		logger.Info().Uint64("epoch", report.Epoch).Uint64("processed_items", report.ProcessedItemsCount).Msg("work report published")
	}
}
