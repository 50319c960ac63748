package domain

import "sort"

// VolumeSnapshot is the state of one volume at one snapshot instant: its
// volume-level metadata plus an ordered sequence of filesystem objects.
type VolumeSnapshot struct {
	// VolumeID uniquely identifies the volume within its snapshot
	VolumeID string

	// SectorSize in bytes, as reported by the capture
	SectorSize int64

	// BlockSize in bytes, as reported by the capture
	BlockSize int64

	// PartitionOffset is the volume's byte offset within the disk image
	PartitionOffset int64

	// Objects in capture order
	Objects []FileSystemObject
}

// Snapshot is one full capture: the volumes of one or more filesystems at a
// single point in time, plus the capture's position in the input sequence.
type Snapshot struct {
	// Index is the snapshot's position in the ordered input list
	Index int

	// Sources names the inputs this snapshot was loaded from (diagnostic)
	Sources []string

	// Volumes captured, in input order
	Volumes []VolumeSnapshot
}

// Volume returns the volume with the given ID, if present
func (s *Snapshot) Volume(id string) (*VolumeSnapshot, bool) {
	for i := range s.Volumes {
		if s.Volumes[i].VolumeID == id {
			return &s.Volumes[i], true
		}
	}
	return nil, false
}

// VolumeIDs returns the snapshot's volume IDs in sorted order
func (s *Snapshot) VolumeIDs() []string {
	ids := make([]string, 0, len(s.Volumes))
	for i := range s.Volumes {
		ids = append(ids, s.Volumes[i].VolumeID)
	}
	sort.Strings(ids)
	return ids
}

// ObjectCount returns the total object count across all volumes
func (s *Snapshot) ObjectCount() int {
	n := 0
	for i := range s.Volumes {
		n += len(s.Volumes[i].Objects)
	}
	return n
}

// VolumeIndex provides non-owning lookup of a volume's objects by reference.
// Matching and classification never alias objects across components; they
// resolve references through an index instead.
type VolumeIndex struct {
	volume *VolumeSnapshot
	byRef  map[ObjectRef]*FileSystemObject
}

// NewVolumeIndex builds a lookup index over one volume's objects.
// When two objects share a reference key (duplicate paths violate a capture
// assumption), the first occurrence wins.
func NewVolumeIndex(vs *VolumeSnapshot) *VolumeIndex {
	ix := &VolumeIndex{
		volume: vs,
		byRef:  make(map[ObjectRef]*FileSystemObject, len(vs.Objects)),
	}
	for i := range vs.Objects {
		ref := RefOf(&vs.Objects[i])
		if _, exists := ix.byRef[ref]; !exists {
			ix.byRef[ref] = &vs.Objects[i]
		}
	}
	return ix
}

// Resolve returns the object a reference points at, if it exists
func (ix *VolumeIndex) Resolve(ref ObjectRef) (*FileSystemObject, bool) {
	o, ok := ix.byRef[ref]
	return o, ok
}
