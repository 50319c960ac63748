package domain

// Classification is the dominant label assigned to one object's change
// between two consecutive snapshots.
type Classification string

const (
	// ChangeCreated - new object, no old counterpart
	ChangeCreated Classification = "created"

	// ChangeDeleted - old object, no new counterpart
	ChangeDeleted Classification = "deleted"

	// ChangeReallocated - the storage address was reused by an unrelated
	// object between the snapshots
	ChangeReallocated Classification = "reallocated"

	// ChangeRenamed - same content at a different path
	ChangeRenamed Classification = "renamed"

	// ChangeContentModified - size or a shared content hash differs
	ChangeContentModified Classification = "content-modified"

	// ChangeMetadataModified - content identical but timestamps,
	// allocation status, or path differ
	ChangeMetadataModified Classification = "metadata-modified"

	// ChangeUnchanged - no tracked attribute differs
	ChangeUnchanged Classification = "unchanged"
)

// IsValid checks if the classification is a known value
func (c Classification) IsValid() bool {
	switch c {
	case ChangeCreated, ChangeDeleted, ChangeReallocated, ChangeRenamed,
		ChangeContentModified, ChangeMetadataModified, ChangeUnchanged:
		return true
	}
	return false
}

// Classifications lists all classifications in report order
func Classifications() []Classification {
	return []Classification{
		ChangeCreated,
		ChangeDeleted,
		ChangeRenamed,
		ChangeReallocated,
		ChangeContentModified,
		ChangeMetadataModified,
		ChangeUnchanged,
	}
}

// Attribute names reported in ChangeRecord.ChangedAttributes. Timestamp
// changes are reported per kind using the TimestampKind values.
const (
	AttrPath          = "path"
	AttrSizeBytes     = "size_bytes"
	AttrContentHashes = "content_hashes"
	AttrAllocated     = "allocated"
)

// ChangeRecord is the durable output unit: what happened to one object
// between two consecutive snapshots.
type ChangeRecord struct {
	// Classification is the dominant change label
	Classification Classification

	// Old references the object in the earlier snapshot
	// (nil for ChangeCreated)
	Old *ObjectRef

	// New references the object in the later snapshot
	// (nil for ChangeDeleted)
	New *ObjectRef

	// Basis is the match evidence behind this record
	Basis MatchBasis

	// ChangedAttributes lists every differing attribute name, sorted.
	// Empty exactly when Classification is ChangeUnchanged; it is the
	// authoritative detail, Classification only picks the dominant label.
	ChangedAttributes []string

	// SnapshotPairIndex identifies which consecutive snapshot pair
	// produced this record (0 = snapshots[0] vs snapshots[1])
	SnapshotPairIndex int
}

// VolumeID returns the volume the record belongs to
func (r *ChangeRecord) VolumeID() string {
	if r.New != nil {
		return r.New.VolumeID
	}
	if r.Old != nil {
		return r.Old.VolumeID
	}
	return ""
}

// HasChangedAttribute reports whether the named attribute differs
func (r *ChangeRecord) HasChangedAttribute(name string) bool {
	for _, a := range r.ChangedAttributes {
		if a == name {
			return true
		}
	}
	return false
}

// DifferentialResult is the assembled change set across all consecutive
// snapshot pairs in a run. Built once by the assembler, never mutated after.
type DifferentialResult struct {
	// Records ordered by snapshot pair index, then volume ID
	Records []ChangeRecord

	// SnapshotCount is the number of snapshots that were compared
	SnapshotCount int

	// AmbiguousSkips is the total count of content-pass ties that were
	// conservatively left unmatched across all pairs
	AmbiguousSkips int

	// UnchangedTotal counts matches classified as unchanged across all
	// pairs, including records omitted under DropUnchanged
	UnchangedTotal int
}

// PairCount returns the number of consecutive snapshot pairs covered
func (d *DifferentialResult) PairCount() int {
	if d.SnapshotCount < 2 {
		return 0
	}
	return d.SnapshotCount - 1
}
