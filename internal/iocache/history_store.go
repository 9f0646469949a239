package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/schema"
)

// Table names for health history tracking.
const (
	healthRunsTable      = "groomer_health_runs"
	healthSnapshotsTable = "groomer_health_snapshots"
	healthProblemsTable  = "groomer_health_problems"
)

const snapshotColumns = `run_id, repo, snapshot_time, fresh, recent, aging, stale, ancient,
	high, medium, low, ungroomed, created_in_window, groomed_in_window, avg_age_to_groom,
	age_health, priority_health, velocity_health, score, rating`

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend, connStr: connStr}, nil
}

// createHistoryTables creates the history tracking tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{healthRunsTable, getCreateHealthRunsQuery(backend)},
		{healthSnapshotsTable, getCreateHealthSnapshotsQuery(backend)},
		{healthProblemsTable, getCreateHealthProblemsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateHealthRunsQuery returns the CREATE TABLE query for groomer_health_runs.
func getCreateHealthRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(healthRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL UNIQUE,
				repo VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_issues INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL UNIQUE,
				repo TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_issues INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL UNIQUE,
				repo TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_issues INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateHealthSnapshotsQuery returns the CREATE TABLE query for groomer_health_snapshots.
func getCreateHealthSnapshotsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(healthSnapshotsTable, backend)

	var repoType, timeType, intType, floatType, textType string
	switch backend {
	case schema.MySQLBackend:
		repoType, timeType, intType, floatType, textType = "VARCHAR(255)", "DATETIME(6)", "INT", "DOUBLE", "VARCHAR(50)"
	case schema.PostgreSQLBackend:
		repoType, timeType, intType, floatType, textType = "TEXT", "TIMESTAMPTZ", "INT", "DOUBLE PRECISION", "TEXT"
	default: // SQLite
		repoType, timeType, intType, floatType, textType = "TEXT", "TEXT", "INTEGER", "REAL", "TEXT"
	}

	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			run_id BIGINT NOT NULL PRIMARY KEY,
			repo %[2]s NOT NULL,
			snapshot_time %[3]s NOT NULL,
			fresh %[4]s NOT NULL,
			recent %[4]s NOT NULL,
			aging %[4]s NOT NULL,
			stale %[4]s NOT NULL,
			ancient %[4]s NOT NULL,
			high %[4]s NOT NULL,
			medium %[4]s NOT NULL,
			low %[4]s NOT NULL,
			ungroomed %[4]s NOT NULL,
			created_in_window %[4]s NOT NULL,
			groomed_in_window %[4]s NOT NULL,
			avg_age_to_groom %[5]s NOT NULL,
			age_health %[4]s NOT NULL,
			priority_health %[4]s NOT NULL,
			velocity_health %[4]s NOT NULL,
			score %[4]s NOT NULL,
			rating %[6]s NOT NULL
		);
	`, quotedTableName, repoType, timeType, intType, floatType, textType)
}

// getCreateHealthProblemsQuery returns the CREATE TABLE query for groomer_health_problems.
func getCreateHealthProblemsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(healthProblemsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				position INT NOT NULL,
				problem_type VARCHAR(50) NOT NULL,
				severity VARCHAR(20) NOT NULL,
				message TEXT NOT NULL,
				problem_count INT NOT NULL,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				position INT NOT NULL,
				problem_type TEXT NOT NULL,
				severity TEXT NOT NULL,
				message TEXT NOT NULL,
				problem_count INT NOT NULL,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				position INTEGER NOT NULL,
				problem_type TEXT NOT NULL,
				severity TEXT NOT NULL,
				message TEXT NOT NULL,
				problem_count INTEGER NOT NULL,
				PRIMARY KEY (run_id, position)
			);
		`, quotedTableName)
	}
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// BeginRun creates a new health run and returns its ID and UUID.
func (hs *HistoryStoreImpl) BeginRun(repo string, startTime time.Time, configParams map[string]any) (int64, string, error) {
	if hs.disabled() {
		return 0, "", nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	runUUID := uuid.NewString()
	quotedTableName := quoteTableName(healthRunsTable, hs.backend)

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, repo, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = hs.db.QueryRow(query, runUUID, repo, formatTime(startTime, hs.backend), string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, repo, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = hs.db.Exec(query, runUUID, repo, formatTime(startTime, hs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to insert health run: %w", err)
	}

	return runID, runUUID, nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalIssues int) error {
	if hs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(healthRunsTable, hs.backend)
	start := timeScanner{backend: hs.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(hs.backend, 1))
	if err := hs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}

	var durationMs int64
	if startTime != nil {
		durationMs = endTime.Sub(*startTime).Milliseconds()
	}

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_issues = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(hs.backend, 1), placeholder(hs.backend, 2), placeholder(hs.backend, 3), placeholder(hs.backend, 4))
	if _, err := hs.db.Exec(updateQuery, formatTime(endTime, hs.backend), durationMs, totalIssues, runID); err != nil {
		return fmt.Errorf("failed to update health run: %w", err)
	}
	return nil
}

// RecordReport stores the snapshot and problems of a report in one transaction.
func (hs *HistoryStoreImpl) RecordReport(runID int64, repo string, at time.Time, report schema.MetricsReport) error {
	if hs.disabled() {
		return nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap := schema.SnapshotFromReport(runID, repo, at, report)
	snapQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(healthSnapshotsTable, hs.backend), snapshotColumns, placeholders(hs.backend, 20))
	if _, err := tx.Exec(snapQuery,
		snap.RunID, snap.Repo, formatTime(snap.SnapshotTime, hs.backend),
		snap.Fresh, snap.Recent, snap.Aging, snap.Stale, snap.Ancient,
		snap.High, snap.Medium, snap.Low, snap.Ungroomed,
		snap.CreatedInWindow, snap.GroomedInWindow, snap.AvgAgeToGroom,
		snap.AgeHealth, snap.PriorityHealth, snap.VelocityHealth, snap.Score, snap.Rating,
	); err != nil {
		return fmt.Errorf("failed to insert health snapshot: %w", err)
	}

	problemQuery := fmt.Sprintf(`INSERT INTO %s (run_id, position, problem_type, severity, message, problem_count) VALUES (%s)`,
		quoteTableName(healthProblemsTable, hs.backend), placeholders(hs.backend, 6))
	for i, p := range report.Problems {
		if _, err := tx.Exec(problemQuery, runID, i, string(p.Type), string(p.Severity), p.Message, p.Count); err != nil {
			return fmt.Errorf("failed to insert health problem %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit health report: %w", err)
	}
	return nil
}

// GetRecentSnapshots returns up to limit snapshots for repo, newest first.
func (hs *HistoryStoreImpl) GetRecentSnapshots(repo string, limit int) ([]schema.HealthSnapshotRecord, error) {
	if hs.disabled() {
		return nil, nil
	}
	if limit <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE repo = %s ORDER BY run_id DESC LIMIT %d`,
		snapshotColumns, quoteTableName(healthSnapshotsTable, hs.backend), placeholder(hs.backend, 1), limit)
	return hs.querySnapshots(query, repo)
}

// GetAllSnapshots retrieves every snapshot, oldest first.
func (hs *HistoryStoreImpl) GetAllSnapshots() ([]schema.HealthSnapshotRecord, error) {
	if hs.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY run_id`, snapshotColumns, quoteTableName(healthSnapshotsTable, hs.backend))
	return hs.querySnapshots(query)
}

func (hs *HistoryStoreImpl) querySnapshots(query string, args ...any) ([]schema.HealthSnapshotRecord, error) {
	rows, err := hs.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query health snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HealthSnapshotRecord
	for rows.Next() {
		var r schema.HealthSnapshotRecord
		at := timeScanner{backend: hs.backend}
		if err := rows.Scan(&r.RunID, &r.Repo, at.dest(),
			&r.Fresh, &r.Recent, &r.Aging, &r.Stale, &r.Ancient,
			&r.High, &r.Medium, &r.Low, &r.Ungroomed,
			&r.CreatedInWindow, &r.GroomedInWindow, &r.AvgAgeToGroom,
			&r.AgeHealth, &r.PriorityHealth, &r.VelocityHealth, &r.Score, &r.Rating,
		); err != nil {
			return nil, fmt.Errorf("failed to scan health snapshot: %w", err)
		}
		t, err := at.value()
		if err != nil {
			return nil, err
		}
		if t != nil {
			r.SnapshotTime = *t
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating health snapshots: %w", err)
	}
	return results, nil
}

// GetAllRuns retrieves every health run, oldest first.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.HealthRunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, repo, start_time, end_time, run_duration_ms, total_issues, config_params FROM %s ORDER BY run_id`,
		quoteTableName(healthRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query health runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HealthRunRecord
	for rows.Next() {
		var r schema.HealthRunRecord
		start := timeScanner{backend: hs.backend}
		end := timeScanner{backend: hs.backend}
		if err := rows.Scan(&r.RunID, &r.RunUUID, &r.Repo, start.dest(), end.dest(), &r.RunDurationMs, &r.TotalIssues, &r.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan health run: %w", err)
		}
		st, err := start.value()
		if err != nil {
			return nil, err
		}
		if st != nil {
			r.StartTime = *st
		}
		if r.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating health runs: %w", err)
	}
	return results, nil
}

// GetAllProblems retrieves every recorded problem ordered by run and position.
func (hs *HistoryStoreImpl) GetAllProblems() ([]schema.HealthProblemRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, position, problem_type, severity, message, problem_count FROM %s ORDER BY run_id, position`,
		quoteTableName(healthProblemsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query health problems: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HealthProblemRecord
	for rows.Next() {
		var r schema.HealthProblemRecord
		if err := rows.Scan(&r.RunID, &r.Position, &r.ProblemType, &r.Severity, &r.Message, &r.ProblemCount); err != nil {
			return nil, fmt.Errorf("failed to scan health problem: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating health problems: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	runsTable := quoteTableName(healthRunsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: hs.backend}
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable))
		if err := row.Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if t, err := last.value(); err != nil {
			return status, err
		} else if t != nil {
			status.LastRunTime = *t
		}

		oldest := timeScanner{backend: hs.backend}
		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable))
		if err := row.Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if t, err := oldest.value(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestRunTime = *t
		}

		row = hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_issues), 0) FROM %s", runsTable))
		if err := row.Scan(&status.TotalIssues); err != nil {
			return status, fmt.Errorf("failed to get total issues: %w", err)
		}
	}

	for _, table := range []string{healthRunsTable, healthSnapshotsTable, healthProblemsTable} {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}
