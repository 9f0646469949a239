package cmd

import (
	"fmt"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/iocache"
	"github.com/spf13/cobra"
)

// stateCmd focused on the key-value state store.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage the key-value state store (holds the triage queue)",
	Long: `Manage the flat key-value store that keeps the triage session between runs.

Subcommands:
  status - Show entry counts and connection info
  clear  - Remove all saved state

Examples:
  groomer state status
  GROOMER_STATE_BACKEND=mysql GROOMER_STATE_DB_CONNECT="..." groomer state clear`,
}

var stateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display state store statistics and connection details",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return stateSetup()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		store := iocache.Manager.GetStateStore()
		if store == nil {
			return fmt.Errorf("state store is not initialized")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get state status: %w", err)
		}
		iocache.PrintStateStatus(status)
		return nil
	},
}

var stateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all saved state, including the triage queue",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := loadConfigFile(); err != nil {
			return err
		}
		backend, connStr, err := backendFromViper("state-backend", "state-db-connect")
		if err != nil {
			return err
		}
		cfg.StateBackend = backend
		cfg.StateDBConnect = connStr
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := sqliteFile(cfg.StateDBConnect, contract.GetStateDBFilePath())
		if err := iocache.ClearState(cfg.StateBackend, path, cfg.StateDBConnect); err != nil {
			return fmt.Errorf("failed to clear state: %w", err)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "State cleared successfully.")
		return err
	},
}
