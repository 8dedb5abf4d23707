package chainstore

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/liftedinit/chainstore/internal/config"
	"github.com/liftedinit/chainstore/internal/db"
	"github.com/liftedinit/chainstore/internal/harness"
)

// newHarness builds a harness from the database flags.
func newHarness() (*harness.Harness, config.DatabaseConfig, error) {
	cfg := config.LoadDatabaseConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, cfg, fmt.Errorf("invalid database configuration: %w", err)
	}

	slog.Debug("Command-line arguments", "db-name", cfg.Name)

	h, err := harness.New(cfg)
	if err != nil {
		return nil, cfg, err
	}
	return h, cfg, nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the chain database and its tables",
	Long:  `Create the chain database and its tables. An existing database is left untouched.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, cfg, err := newHarness()
		if err != nil {
			return err
		}
		defer h.Close()

		admin, err := h.Admin()
		if err != nil {
			return err
		}

		target, err := cfg.TargetConnString()
		if err != nil {
			return err
		}

		if err := db.InitDatabase(cmd.Context(), admin, cfg.Name, target); err != nil {
			if !db.IsAlreadyExists(err) {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			slog.Info("Database already exists", "name", cfg.Name)
		}

		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the chain database if present and create it again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, _, err := newHarness()
		if err != nil {
			return err
		}
		defer h.Close()

		return h.Setup(cmd.Context())
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the chain database",
	Long:  `Drop the chain database. Dropping a database that does not exist is not an error.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, _, err := newHarness()
		if err != nil {
			return err
		}
		defer h.Close()

		return h.Teardown(cmd.Context())
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every block, backlog transaction and vote, keeping the schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, _, err := newHarness()
		if err != nil {
			return err
		}
		defer h.Close()

		return h.ClearTables(cmd.Context())
	},
}
