package domain

import (
	"strings"
	"time"
)

// TimestampKind identifies one of the timestamp fields a filesystem records
// for an object. Not every filesystem reports every kind.
type TimestampKind string

const (
	// TimeModified is the last content modification time (mtime)
	TimeModified TimestampKind = "mtime"

	// TimeAccessed is the last access time (atime)
	TimeAccessed TimestampKind = "atime"

	// TimeChanged is the last metadata change time (ctime)
	TimeChanged TimestampKind = "ctime"

	// TimeCreated is the creation time (crtime)
	TimeCreated TimestampKind = "crtime"
)

// FileSystemObject is one filesystem entry (file, directory, or deleted
// entry) within one volume at one snapshot instant. Objects are immutable
// once constructed and owned by the snapshot that produced them.
type FileSystemObject struct {
	// VolumeID identifies the volume this object belongs to.
	// It must reference a VolumeSnapshot in the same Snapshot.
	VolumeID string

	// Path is the ordered sequence of path components from the volume root
	Path []string

	// StorageAddress is the volume-scoped metadata address (inode number)
	StorageAddress int64

	// Allocated reports whether the entry is currently allocated.
	// Deleted-but-recoverable entries appear with Allocated == false.
	Allocated bool

	// SizeBytes is the content length (0 for directories)
	SizeBytes int64

	// ContentHashes maps hash algorithm name (md5, sha1, sha256) to the
	// hex digest. Algorithms not computed by the capture are absent.
	ContentHashes map[string]string

	// Timestamps maps timestamp kind to its value. Kinds the capture
	// could not determine are absent.
	Timestamps map[TimestampKind]time.Time

	// IsDirectory reports whether the entry is a directory
	IsDirectory bool
}

// IdentityKey is the strongest identity signal for an object: the volume it
// lives on plus its storage address.
type IdentityKey struct {
	VolumeID       string
	StorageAddress int64
}

// IdentityKey returns the (volume, storage address) key for this object.
// Computed on demand; objects are matched at most once per snapshot pair.
func (o *FileSystemObject) IdentityKey() IdentityKey {
	return IdentityKey{VolumeID: o.VolumeID, StorageAddress: o.StorageAddress}
}

// PathString returns the path components joined with "/"
func (o *FileSystemObject) PathString() string {
	return strings.Join(o.Path, "/")
}

// Name returns the final path component, or "" for an empty path
func (o *FileSystemObject) Name() string {
	if len(o.Path) == 0 {
		return ""
	}
	return o.Path[len(o.Path)-1]
}

// SamePath reports whether two objects have identical path components
func (o *FileSystemObject) SamePath(other *FileSystemObject) bool {
	if len(o.Path) != len(other.Path) {
		return false
	}
	for i := range o.Path {
		if o.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}

// CommonPrefixLen returns the number of leading path components shared with
// the other object's path. Used only for content-match tie-breaking.
func (o *FileSystemObject) CommonPrefixLen(other *FileSystemObject) int {
	n := 0
	for n < len(o.Path) && n < len(other.Path) && o.Path[n] == other.Path[n] {
		n++
	}
	return n
}

// ContentEquals compares the content keys of two objects. The second return
// reports whether content equality could be established at all: it is false
// when the objects live on different volumes or share no hash algorithm, in
// which case the first return is meaningless and must not be trusted.
func (o *FileSystemObject) ContentEquals(other *FileSystemObject) (equal, comparable bool) {
	if o.VolumeID != other.VolumeID {
		return false, false
	}
	if o.SizeBytes != other.SizeBytes {
		return false, true
	}
	shared := false
	for algo, digest := range o.ContentHashes {
		otherDigest, ok := other.ContentHashes[algo]
		if !ok {
			continue
		}
		shared = true
		if digest != otherDigest {
			return false, true
		}
	}
	if !shared {
		// No algorithm in common: content identity cannot be asserted
		return false, false
	}
	return true, true
}
