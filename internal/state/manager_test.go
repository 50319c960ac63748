package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ajnelson-nist/dfxml/internal/lock"
)

func testRecord(start time.Time) RunRecord {
	return RunRecord{
		RunID:         "run-" + start.Format("150405.000000000"),
		Sources:       []string{"pre.xml", "post.xml"},
		SnapshotCount: 2,
		StartTime:     start,
		EndTime:       start.Add(time.Minute),
		Status:        "success",
		RecordsTotal:  12,
		Created:       3,
		Deleted:       2,
		Renamed:       1,
		Unchanged:     6,
	}
}

func TestNewManager(t *testing.T) {
	tmpDir := t.TempDir()

	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	if manager.db == nil {
		t.Error("Database connection is nil")
	}

	// Verify database file was created
	dbPath := filepath.Join(tmpDir, "idiff.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewManager_EmptyDir(t *testing.T) {
	_, err := NewManager("")
	if err == nil {
		t.Error("Expected error for empty directory, got nil")
	}
}

func TestSaveAndGetHistory(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	record := testRecord(time.Now().Add(-10 * time.Minute))
	if err := manager.SaveRun(record); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	history, err := manager.GetHistory(10)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}

	if len(history) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(history))
	}

	retrieved := history[0]
	if retrieved.RunID != record.RunID {
		t.Errorf("Expected run ID %s, got %s", record.RunID, retrieved.RunID)
	}

	if retrieved.Status != record.Status {
		t.Errorf("Expected status %s, got %s", record.Status, retrieved.Status)
	}

	if retrieved.RecordsTotal != record.RecordsTotal {
		t.Errorf("Expected %d total records, got %d", record.RecordsTotal, retrieved.RecordsTotal)
	}

	if len(retrieved.Sources) != 2 || retrieved.Sources[0] != "pre.xml" {
		t.Errorf("Expected sources to round-trip, got %v", retrieved.Sources)
	}
}

func TestGetRun(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	record := testRecord(time.Now().Add(-5 * time.Minute))
	if err := manager.SaveRun(record); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	retrieved, err := manager.GetRun(record.RunID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected a run record, got nil")
	}
	if retrieved.Created != record.Created {
		t.Errorf("Expected %d created, got %d", record.Created, retrieved.Created)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	retrieved, err := manager.GetRun("no-such-run")
	if err != nil {
		t.Fatalf("Failed to query run: %v", err)
	}
	if retrieved != nil {
		t.Error("Expected nil for unknown run ID, got a record")
	}
}

func TestGetHistory_Limit(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	// Save 5 records
	for i := 0; i < 5; i++ {
		record := testRecord(time.Now().Add(time.Duration(-i*10) * time.Minute))
		record.RecordsTotal = i
		if err := manager.SaveRun(record); err != nil {
			t.Fatalf("Failed to save run: %v", err)
		}
	}

	// Get only 3 most recent
	history, err := manager.GetHistory(3)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}

	if len(history) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(history))
	}

	// Verify we got the most recent ones (DESC by start_time)
	if history[0].RecordsTotal != 0 {
		t.Errorf("Expected most recent record first, got records_total=%d", history[0].RecordsTotal)
	}
}

func TestSaveRun_InvalidStatus(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	record := testRecord(time.Now())
	record.Status = "invalid_status"

	if err := manager.SaveRun(record); err == nil {
		t.Error("Expected error for invalid status, got nil")
	}
}

func TestNewManager_DirLocked(t *testing.T) {
	tmpDir := t.TempDir()
	first, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer first.Close()

	second, err := NewManager(tmpDir)
	if err == nil {
		second.Close()
		t.Fatal("Expected second manager on the same directory to fail")
	}
	if !lock.IsLockError(err) {
		t.Errorf("Expected lock error, got %v", err)
	}
}

func TestGetHistory_InvalidLimit(t *testing.T) {
	tmpDir := t.TempDir()
	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	if _, err := manager.GetHistory(0); err == nil {
		t.Error("Expected error for limit=0, got nil")
	}

	if _, err := manager.GetHistory(-1); err == nil {
		t.Error("Expected error for limit=-1, got nil")
	}
}
