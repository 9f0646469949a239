package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/parquet"
)

// ExecuteHistoryExport exports health history to Parquet files named
// <prefix>.<table>.parquet.
func ExecuteHistoryExport(store contract.HistoryStore, prefix string) error {
	if prefix == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no health history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total health runs: %d\n", status.TotalRuns)
	fmt.Printf("Total snapshots: %d\n", status.TableSizes[healthSnapshotsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve health runs: %w", err)
	}
	snapshots, err := store.GetAllSnapshots()
	if err != nil {
		return fmt.Errorf("failed to retrieve health snapshots: %w", err)
	}
	problems, err := store.GetAllProblems()
	if err != nil {
		return fmt.Errorf("failed to retrieve health problems: %w", err)
	}

	runsFile := prefix + "." + healthRunsTable + ".parquet"
	if err := parquet.WriteHealthRunsParquet(parquet.ConvertHealthRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write health runs: %w", err)
	}
	fmt.Printf("Exported %d health runs to: %s\n", len(runs), runsFile)

	snapshotsFile := prefix + "." + healthSnapshotsTable + ".parquet"
	if err := parquet.WriteHealthSnapshotsParquet(parquet.ConvertHealthSnapshotRecords(snapshots), snapshotsFile); err != nil {
		return fmt.Errorf("failed to write health snapshots: %w", err)
	}
	fmt.Printf("Exported %d snapshots to: %s\n", len(snapshots), snapshotsFile)

	problemsFile := prefix + "." + healthProblemsTable + ".parquet"
	if err := parquet.WriteHealthProblemsParquet(parquet.ConvertHealthProblemRecords(problems), problemsFile); err != nil {
		return fmt.Errorf("failed to write health problems: %w", err)
	}
	fmt.Printf("Exported %d problems to: %s\n", len(problems), problemsFile)

	fmt.Println("\nExport complete! The Parquet files can be read with DuckDB, Pandas (via pyarrow) or Apache Spark.")
	return nil
}
