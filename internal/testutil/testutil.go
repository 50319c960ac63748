package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ajnelson-nist/dfxml/internal/domain"
)

// BaseTime is the reference instant used for fixture timestamps
var BaseTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// NewObject builds an allocated regular-file object with an md5 digest and
// an mtime of BaseTime
func NewObject(volumeID string, address int64, path string, size int64, md5 string) domain.FileSystemObject {
	obj := domain.FileSystemObject{
		VolumeID:       volumeID,
		StorageAddress: address,
		Allocated:      true,
		SizeBytes:      size,
		ContentHashes:  map[string]string{},
		Timestamps: map[domain.TimestampKind]time.Time{
			domain.TimeModified: BaseTime,
		},
	}
	if path != "" {
		obj.Path = strings.Split(strings.Trim(path, "/"), "/")
	}
	if md5 != "" {
		obj.ContentHashes["md5"] = md5
	}
	return obj
}

// NewDirectory builds an allocated directory object
func NewDirectory(volumeID string, address int64, path string) domain.FileSystemObject {
	obj := NewObject(volumeID, address, path, 0, "")
	obj.IsDirectory = true
	return obj
}

// NewVolume builds a volume snapshot holding the given objects
func NewVolume(volumeID string, objects ...domain.FileSystemObject) domain.VolumeSnapshot {
	return domain.VolumeSnapshot{
		VolumeID:   volumeID,
		SectorSize: 512,
		BlockSize:  4096,
		Objects:    objects,
	}
}

// NewSnapshot builds a snapshot holding the given volumes
func NewSnapshot(index int, volumes ...domain.VolumeSnapshot) domain.Snapshot {
	return domain.Snapshot{
		Index:   index,
		Volumes: volumes,
	}
}

// SingleVolumeSnapshots builds a two-snapshot sequence where each snapshot
// has one volume with the given ID
func SingleVolumeSnapshots(volumeID string, oldObjects, newObjects []domain.FileSystemObject) []domain.Snapshot {
	return []domain.Snapshot{
		NewSnapshot(0, NewVolume(volumeID, oldObjects...)),
		NewSnapshot(1, NewVolume(volumeID, newObjects...)),
	}
}

// WriteTestFile creates a file with the given content under dir
func WriteTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	return path
}
