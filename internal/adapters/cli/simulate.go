package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajvierra/quartermaster/internal/adapters/discovery"
	"github.com/ajvierra/quartermaster/internal/adapters/simworld"
	"github.com/ajvierra/quartermaster/internal/application/common"
	"github.com/ajvierra/quartermaster/internal/application/orchestrator"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/internal/infrastructure/config"
)

// NewSimulateCommand creates the simulate command
func NewSimulateCommand() *cobra.Command {
	var (
		duration time.Duration
		items    int
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a short self-contained depot simulation",
		Long: `Run the orchestrator against an in-memory world for a fixed duration.

The input container is seeded with sample items, a deposit cycle and a
sort cycle are requested, and the resulting storage index is printed
when the run ends. Nothing is persisted.

Examples:
  quartermaster simulate
  quartermaster simulate --duration 10s --items 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runSimulation(cfg, duration, items)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second,
		"How long to run the simulation")
	cmd.Flags().IntVar(&items, "items", 120,
		"Number of sample items seeded into the input container")

	return cmd
}

func runSimulation(cfg *config.Config, duration time.Duration, items int) error {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	if verbose {
		ctx = common.WithLogger(ctx, common.NewStdLogger())
	}

	world := simworld.NewWorld(cfg.World.TransferRate, cfg.World.TransferBurst)
	provider := discovery.NewSimProvider(world, cfg.World.Containers, nil)

	orch, err := orchestrator.New(ctx, provider, common.NewBus(), nil, orchestrator.Config{
		PoolSize:       cfg.Daemon.PoolSize,
		TickInterval:   50 * time.Millisecond,
		StuckThreshold: cfg.Storage.StuckThreshold,
		MaxPasses:      cfg.Storage.MaxPasses,
	})
	if err != nil {
		return fmt.Errorf("failed to build orchestrator: %w", err)
	}

	input := orch.Input()
	if input == nil {
		return &inventory.ErrNoInputConfigured{}
	}
	if err := seedInput(world, input.Name(), input.Capacity(), items); err != nil {
		return err
	}
	fmt.Printf("Seeded %d items into %s\n", items, input.Name())

	orch.RequestDeposit()
	orch.RequestSort(true)

	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()
	if err := <-done; err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}

	printSummary(orch)
	return nil
}

// seedInput fills the input chest with a rotating set of sample items
func seedInput(world *simworld.World, name string, capacity, items int) error {
	chest, ok := world.Chest(name)
	if !ok {
		return fmt.Errorf("input chest %s not found in world", name)
	}

	samples := []struct {
		id       string
		display  string
		maxStack int
	}{
		{"stone", "Stone", 64},
		{"iron_ingot", "Iron Ingot", 64},
		{"oak_log", "Oak Log", 64},
		{"bucket", "Bucket", 1},
	}

	remaining := items
	for slot := 1; slot <= capacity && remaining > 0; slot++ {
		sample := samples[(slot-1)%len(samples)]
		count := sample.maxStack
		if count > remaining {
			count = remaining
		}
		stack, err := inventory.NewItemStack(sample.id, sample.display, count, sample.maxStack, "")
		if err != nil {
			return err
		}
		if err := chest.SetStack(slot, stack); err != nil {
			return err
		}
		remaining -= count
	}
	return nil
}

func printSummary(orch *orchestrator.Orchestrator) {
	space := orch.Space()
	fmt.Printf("\nStorage space: %d empty slots, %d full containers, %d partial containers\n",
		space.EmptySlots, space.FullContainers, space.PartContainers)

	records := orch.Aggregates()
	if len(records) == 0 {
		fmt.Println("Storage index is empty")
		return
	}

	fmt.Println("\nStorage index:")
	for _, rec := range records {
		tag := rec.Tag
		if tag == "" {
			tag = "-"
		}
		fmt.Printf("  %-20s %-20s tag=%-10s count=%-6d stacks=%d\n",
			rec.ItemID, rec.DisplayName, tag, rec.Count, rec.Stacks)
	}
}
