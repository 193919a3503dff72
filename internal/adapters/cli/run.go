package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajvierra/quartermaster/internal/adapters/discovery"
	"github.com/ajvierra/quartermaster/internal/adapters/metrics"
	"github.com/ajvierra/quartermaster/internal/adapters/persistence"
	"github.com/ajvierra/quartermaster/internal/adapters/simworld"
	"github.com/ajvierra/quartermaster/internal/application/common"
	"github.com/ajvierra/quartermaster/internal/application/orchestrator"
	"github.com/ajvierra/quartermaster/internal/infrastructure/config"
	"github.com/ajvierra/quartermaster/internal/infrastructure/database"
	"github.com/ajvierra/quartermaster/internal/infrastructure/pidfile"
)

// NewRunCommand creates the run command that starts the daemon
func NewRunCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the orchestration daemon",
		Long: `Start the orchestration daemon in the foreground.

The daemon discovers the container topology from configuration, then
runs the dispatch, reload and stuck-state detector loops until it
receives SIGINT or SIGTERM.

Examples:
  quartermaster run
  quartermaster run --force
  quartermaster run --config /etc/quartermaster/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			pf := pidfile.New(cfg.Daemon.PIDFile)
			if err := pf.Acquire(); err != nil {
				if !force {
					return fmt.Errorf("%w\nUse --force to kill the existing daemon", err)
				}
				fmt.Println("Force mode enabled - killing existing daemon...")
				if killErr := pf.KillExisting(); killErr != nil {
					return fmt.Errorf("failed to kill existing daemon: %w", killErr)
				}
				if err := pf.Acquire(); err != nil {
					return fmt.Errorf("failed to acquire PID file lock: %w", err)
				}
			}
			defer func() {
				if err := pf.Release(); err != nil {
					log.Printf("[daemon] failed to release PID file: %v", err)
				}
			}()

			return runDaemon(cfg)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"Kill any existing daemon and start a new one")

	return cmd
}

func runDaemon(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if verbose {
		ctx = common.WithLogger(ctx, common.NewStdLogger())
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	world := simworld.NewWorld(cfg.World.TransferRate, cfg.World.TransferBurst)
	topologyRepo := persistence.NewGormTopologyRepository(db, nil)
	provider := discovery.NewSimProvider(world, cfg.World.Containers, topologyRepo)

	bus := common.NewBus()
	orch, err := orchestrator.New(ctx, provider, bus, nil, orchestrator.Config{
		PoolSize:         cfg.Daemon.PoolSize,
		TickInterval:     cfg.Daemon.TickInterval,
		DetectorInterval: cfg.Daemon.DetectorInterval,
		ReloadInterval:   cfg.Daemon.ReloadInterval,
		RecalcInterval:   cfg.Daemon.RecalcInterval,
		StuckThreshold:   cfg.Storage.StuckThreshold,
		MaxPasses:        cfg.Storage.MaxPasses,
		OrderBuffer:      cfg.Storage.OrderBuffer,
	})
	if err != nil {
		return fmt.Errorf("failed to build orchestrator: %w", err)
	}

	recorder := persistence.NewRecorder(persistence.NewGormJobHistoryRepository(db, nil))
	go recorder.Run(ctx, bus)

	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		go collector.Run(ctx, bus, orch, cfg.Daemon.RecalcInterval)

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			log.Printf("[daemon] metrics listening on %s", cfg.Metrics.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("[daemon] metrics server error: %v", err)
			}
		}()
		defer server.Close()
	}

	// Translate signals into context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[daemon] received %s, shutting down", sig)
		cancel()
	}()

	log.Printf("[daemon] starting with %d containers", len(orch.Containers()))
	if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
