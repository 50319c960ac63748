package classify

import (
	"sort"

	"github.com/ajnelson-nist/dfxml/internal/domain"
)

// Classifier turns one matched (or unmatched) object pair into a change
// record. Classification picks the single dominant label; ChangedAttributes
// carries the authoritative per-attribute detail.
type Classifier struct {
	ignore map[string]bool
}

// NewClassifier creates a Classifier. ignoreProperties names object
// attributes excluded from all difference operations (the user's way to
// ignore, say, atime noise or inode renumbering).
func NewClassifier(ignoreProperties []string) *Classifier {
	ignore := make(map[string]bool, len(ignoreProperties))
	for _, p := range ignoreProperties {
		ignore[p] = true
	}
	return &Classifier{ignore: ignore}
}

// Classify builds the change record for one pairing. Exactly one of old/new
// is nil for created/deleted; both are present otherwise.
func (c *Classifier) Classify(old, new *domain.FileSystemObject, basis domain.MatchBasis, pairIndex int) domain.ChangeRecord {
	rec := domain.ChangeRecord{
		Basis:             basis,
		SnapshotPairIndex: pairIndex,
	}
	if old != nil {
		ref := domain.RefOf(old)
		rec.Old = &ref
	}
	if new != nil {
		ref := domain.RefOf(new)
		rec.New = &ref
	}

	switch {
	case old == nil:
		rec.Classification = domain.ChangeCreated
		return rec
	case new == nil:
		rec.Classification = domain.ChangeDeleted
		return rec
	}

	diffs := c.changedAttributes(old, new)
	rec.ChangedAttributes = diffs

	contentChanged := contains(diffs, domain.AttrSizeBytes) || contains(diffs, domain.AttrContentHashes)

	// First matching rule wins, top to bottom
	switch {
	case basis == domain.BasisReusedAddress:
		// A different entity reuses the address; path and content
		// equality are irrelevant
		rec.Classification = domain.ChangeReallocated
	case basis == domain.BasisContentHash && contains(diffs, domain.AttrPath):
		rec.Classification = domain.ChangeRenamed
	case contentChanged:
		rec.Classification = domain.ChangeContentModified
	case len(diffs) > 0:
		rec.Classification = domain.ChangeMetadataModified
	default:
		rec.Classification = domain.ChangeUnchanged
	}
	return rec
}

// changedAttributes lists every tracked attribute whose value differs between
// the two objects, minus the ignored set, sorted. A hash algorithm or
// timestamp kind present on only one side cannot be compared and is not
// reported as a difference.
func (c *Classifier) changedAttributes(old, new *domain.FileSystemObject) []string {
	var diffs []string
	add := func(name string) {
		if !c.ignore[name] {
			diffs = append(diffs, name)
		}
	}

	if !old.SamePath(new) {
		add(domain.AttrPath)
	}
	if old.SizeBytes != new.SizeBytes {
		add(domain.AttrSizeBytes)
	}
	if old.Allocated != new.Allocated {
		add(domain.AttrAllocated)
	}

	for algo, oldDigest := range old.ContentHashes {
		if newDigest, ok := new.ContentHashes[algo]; ok && oldDigest != newDigest {
			add(domain.AttrContentHashes)
			break
		}
	}

	kinds := []domain.TimestampKind{
		domain.TimeModified,
		domain.TimeAccessed,
		domain.TimeChanged,
		domain.TimeCreated,
	}
	for _, kind := range kinds {
		oldT, oldOK := old.Timestamps[kind]
		newT, newOK := new.Timestamps[kind]
		if oldOK && newOK && !oldT.Equal(newT) {
			add(string(kind))
		}
	}

	sort.Strings(diffs)
	return diffs
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
