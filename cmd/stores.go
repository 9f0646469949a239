package cmd

import (
	"fmt"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/iocache"
	"github.com/huangsam/groomer/schema"
	"github.com/spf13/viper"
)

// backendFromViper reads and validates one backend pair without the full setup.
func backendFromViper(backendKey, connKey string) (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(viper.GetString(backendKey))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid %s '%s'. must be sqlite, mysql, postgresql, none", backendKey, backend)
	}
	connStr := viper.GetString(connKey)
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// sqliteFile returns the file a SQLite store lives in.
func sqliteFile(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// stateSetup loads minimal configuration needed for state store operations.
// This skips token and label validation for simple maintenance commands.
func stateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("state-backend", "state-db-connect")
	if err != nil {
		return err
	}
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize state store: %w", err)
	}
	cfg.StateBackend = backend
	cfg.StateDBConnect = connStr
	return nil
}

// historySetup loads minimal configuration needed for history store operations.
func historySetup(initStores bool) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("history-backend", "history-db-connect")
	if err != nil {
		return err
	}
	if initStores {
		if err := iocache.InitStores("", "", backend, connStr); err != nil {
			return fmt.Errorf("failed to initialize history store: %w", err)
		}
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}
