package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajvierra/quartermaster/internal/adapters/persistence"
	"github.com/ajvierra/quartermaster/internal/infrastructure/config"
	"github.com/ajvierra/quartermaster/internal/infrastructure/database"
)

// NewTopologyCommand creates the topology command
func NewTopologyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Show the last discovered container topology",
		Long: `Show the container topology snapshot persisted by the daemon's most
recent discovery pass.

Example:
  quartermaster topology`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close(db)

			repo := persistence.NewGormTopologyRepository(db, nil)
			entries, err := repo.Load(context.Background())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No topology snapshot recorded yet. Has the daemon run?")
				return nil
			}

			fmt.Printf("%-24s %-10s %-10s %s\n", "NAME", "ROLE", "CAPACITY", "DISCOVERED")
			for _, e := range entries {
				fmt.Printf("%-24s %-10s %-10d %s\n",
					e.Name, e.Role, e.Capacity, e.DiscoveredAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
