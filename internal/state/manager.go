package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ajnelson-nist/dfxml/internal/core/summary"
	"github.com/ajnelson-nist/dfxml/internal/domain"
	"github.com/ajnelson-nist/dfxml/internal/lock"
)

// Manager persists run history. It holds a run lock on the data directory
// for its lifetime so concurrent invocations do not interleave writes.
type Manager struct {
	db      *sql.DB
	runLock *lock.RunLock
}

// RunRecord represents one differential analysis run
type RunRecord struct {
	ID               int64
	RunID            string
	Sources          []string
	SnapshotCount    int
	StartTime        time.Time
	EndTime          time.Time
	Status           string // "success" or "failed"
	RecordsTotal     int
	Created          int
	Deleted          int
	Renamed          int
	Reallocated      int
	ContentModified  int
	MetadataModified int
	Unchanged        int
	AmbiguousSkips   int
	Error            string
}

// NewRunRecord builds a run record from a finished run's summary
func NewRunRecord(sources []string, start, end time.Time, s *summary.Summary) RunRecord {
	return RunRecord{
		RunID:            uuid.NewString(),
		Sources:          sources,
		SnapshotCount:    s.SnapshotCount,
		StartTime:        start,
		EndTime:          end,
		Status:           "success",
		RecordsTotal:     s.TotalRecords,
		Created:          s.Totals[domain.ChangeCreated],
		Deleted:          s.Totals[domain.ChangeDeleted],
		Renamed:          s.Totals[domain.ChangeRenamed],
		Reallocated:      s.Totals[domain.ChangeReallocated],
		ContentModified:  s.Totals[domain.ChangeContentModified],
		MetadataModified: s.Totals[domain.ChangeMetadataModified],
		Unchanged:        s.Totals[domain.ChangeUnchanged],
		AmbiguousSkips:   s.AmbiguousSkips,
	}
}

// NewManager creates a new state manager
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	runLock, err := lock.New(dataDir)
	if err != nil {
		return nil, err
	}
	if err := runLock.Acquire("state"); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "idiff.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		runLock.Release()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Limit connection pool to prevent "database is locked" errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable WAL mode for better concurrency and set busy timeout
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		runLock.Release()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db, runLock: runLock}

	if err := manager.initSchema(); err != nil {
		db.Close()
		runLock.Release()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

// initSchema creates the database schema
func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		sources TEXT NOT NULL,
		snapshot_count INTEGER NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		records_total INTEGER DEFAULT 0,
		created INTEGER DEFAULT 0,
		deleted INTEGER DEFAULT 0,
		renamed INTEGER DEFAULT 0,
		reallocated INTEGER DEFAULT 0,
		content_modified INTEGER DEFAULT 0,
		metadata_modified INTEGER DEFAULT 0,
		unchanged INTEGER DEFAULT 0,
		ambiguous_skips INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs(start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveRun records one differential analysis run
func (m *Manager) SaveRun(record RunRecord) error {
	if record.Status != "success" && record.Status != "failed" {
		return fmt.Errorf("invalid status: %s (must be 'success' or 'failed')", record.Status)
	}

	query := `
		INSERT INTO runs (run_id, sources, snapshot_count, start_time, end_time, status,
			records_total, created, deleted, renamed, reallocated,
			content_modified, metadata_modified, unchanged, ambiguous_skips, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		record.RunID,
		strings.Join(record.Sources, "\n"),
		record.SnapshotCount,
		record.StartTime,
		record.EndTime,
		record.Status,
		record.RecordsTotal,
		record.Created,
		record.Deleted,
		record.Renamed,
		record.Reallocated,
		record.ContentModified,
		record.MetadataModified,
		record.Unchanged,
		record.AmbiguousSkips,
		record.Error,
	)

	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}

	return nil
}

const selectColumns = `id, run_id, sources, snapshot_count, start_time, end_time, status,
	records_total, created, deleted, renamed, reallocated,
	content_modified, metadata_modified, unchanged, ambiguous_skips, error`

func scanRun(scan func(...any) error) (RunRecord, error) {
	var record RunRecord
	var sources string
	err := scan(
		&record.ID,
		&record.RunID,
		&sources,
		&record.SnapshotCount,
		&record.StartTime,
		&record.EndTime,
		&record.Status,
		&record.RecordsTotal,
		&record.Created,
		&record.Deleted,
		&record.Renamed,
		&record.Reallocated,
		&record.ContentModified,
		&record.MetadataModified,
		&record.Unchanged,
		&record.AmbiguousSkips,
		&record.Error,
	)
	if err != nil {
		return record, err
	}
	if sources != "" {
		record.Sources = strings.Split(sources, "\n")
	}
	return record, nil
}

// GetHistory retrieves the most recent runs, newest first
func (m *Manager) GetHistory(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT ` + selectColumns + `
		FROM runs
		ORDER BY start_time DESC
		LIMIT ?
	`

	rows, err := m.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		record, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// GetRun retrieves one run by its run ID
func (m *Manager) GetRun(runID string) (*RunRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM runs
		WHERE run_id = ?
	`

	record, err := scanRun(m.db.QueryRow(query, runID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return &record, nil
}

// Close closes the database connection and releases the run lock
func (m *Manager) Close() error {
	var err error
	if m.db != nil {
		err = m.db.Close()
	}
	if m.runLock != nil {
		if lockErr := m.runLock.Release(); err == nil {
			err = lockErr
		}
	}
	return err
}
