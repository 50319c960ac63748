package domain

// MatchBasis is the evidence category that produced a pairing
type MatchBasis string

const (
	// BasisExactIdentity means the pair shares storage address and path
	BasisExactIdentity MatchBasis = "exact-identity"

	// BasisContentHash means the pair was matched by identical content
	BasisContentHash MatchBasis = "content-hash"

	// BasisReusedAddress means only the storage address agrees: the old
	// object was deleted and an unrelated object reuses its address
	BasisReusedAddress MatchBasis = "reused-address"

	// BasisUnmatched means no counterpart was found
	BasisUnmatched MatchBasis = "unmatched"
)

// ObjectRef is a non-owning reference to a filesystem object, keyed by the
// attributes that identify it within its snapshot. References never alias the
// object they point at; holders resolve them through a VolumeIndex.
type ObjectRef struct {
	// VolumeID of the referenced object
	VolumeID string

	// StorageAddress of the referenced object
	StorageAddress int64

	// Path of the referenced object, joined with "/"
	Path string
}

// RefOf builds the reference key for an object
func RefOf(o *FileSystemObject) ObjectRef {
	return ObjectRef{
		VolumeID:       o.VolumeID,
		StorageAddress: o.StorageAddress,
		Path:           o.PathString(),
	}
}

// Match pairs one old-snapshot object with zero-or-one new-snapshot object
// (or vice versa). Exactly one side is nil when Basis is BasisUnmatched.
type Match struct {
	// Old references the object in the earlier snapshot (nil: created)
	Old *ObjectRef

	// New references the object in the later snapshot (nil: deleted)
	New *ObjectRef

	// Basis is the evidence category that produced this pairing
	Basis MatchBasis
}

// MatchResult is the one-to-one correspondence between the objects of one
// volume across one snapshot pair. Every object appears in exactly one entry.
type MatchResult struct {
	// VolumeID scopes the result; matching never crosses volumes
	VolumeID string

	// Matches in deterministic order: paired entries first (new-object
	// input order), then unmatched-old, then unmatched-new
	Matches []Match

	// AmbiguousSkips counts content-pass ties that were left unmatched
	// rather than guessed. A diagnostic, not an error.
	AmbiguousSkips int
}
