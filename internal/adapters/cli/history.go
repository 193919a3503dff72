package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajvierra/quartermaster/internal/adapters/persistence"
	"github.com/ajvierra/quartermaster/internal/infrastructure/config"
	"github.com/ajvierra/quartermaster/internal/infrastructure/database"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently finished jobs",
		Long: `Show the most recently finished jobs recorded by the daemon, newest
first.

Examples:
  quartermaster history
  quartermaster history --limit 100`,
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

			repo := persistence.NewGormJobHistoryRepository(db, nil)
			records, err := repo.Recent(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No job history recorded yet")
				return nil
			}

			fmt.Printf("%-20s %-10s %-24s %-6s %-10s %s\n",
				"FINISHED", "KIND", "CONTAINER", "SLOT", "DURATION", "RESULT")
			for _, rec := range records {
				result := "ok"
				if rec.Error != "" {
					result = rec.Error
				}
				container := rec.Container
				if container == "" {
					container = "-"
				}
				fmt.Printf("%-20s %-10s %-24s %-6d %-10s %s\n",
					rec.FinishedAt.Format("2006-01-02 15:04:05"),
					rec.Kind, container, rec.Slot, rec.Duration, result)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of jobs to show")

	return cmd
}
