package dfxmlio

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ajnelson-nist/dfxml/internal/domain"
	"github.com/ajnelson-nist/dfxml/internal/logger"
)

// pseudoNames are entry names synthesized by filesystem drivers rather than
// recorded on disk; the original differencing tooling skips them too.
var pseudoNames = map[string]bool{
	".":            true,
	"..":           true,
	"$FAT1":        true,
	"$FAT2":        true,
	"$OrphanFiles": true,
}

// UnpartitionedVolumeID is the synthetic volume ID assigned to file objects
// that appear outside any volume element.
const UnpartitionedVolumeID = "unpartitioned"

// Loader parses DFXML-shaped snapshot documents into domain snapshots.
// The loader owns schema concerns; the core receives fully materialized,
// validated snapshots.
type Loader struct {
	ignoreNames map[string]bool
}

// NewLoader creates a Loader. extraIgnoreNames adds file names to skip on
// top of the built-in pseudo-file names.
func NewLoader(extraIgnoreNames []string) *Loader {
	ignore := make(map[string]bool, len(pseudoNames)+len(extraIgnoreNames))
	for name := range pseudoNames {
		ignore[name] = true
	}
	for _, name := range extraIgnoreNames {
		ignore[name] = true
	}
	return &Loader{ignoreNames: ignore}
}

// LoadSequence loads one snapshot per path, assigning sequence indexes in
// input order.
func (l *Loader) LoadSequence(paths []string) ([]domain.Snapshot, error) {
	snapshots := make([]domain.Snapshot, 0, len(paths))
	for i, p := range paths {
		s, err := l.LoadFile(p, i)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, nil
}

// LoadFile loads one snapshot from a file
func (l *Loader) LoadFile(filePath string, index int) (*domain.Snapshot, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.Load(f, filePath, index)
}

// xmlVolume mirrors the DFXML volume element
type xmlVolume struct {
	Offset          *int64          `xml:"offset,attr"`
	PartitionOffset *int64          `xml:"partition_offset"`
	SectorSize      int64           `xml:"sector_size"`
	BlockSize       int64           `xml:"block_size"`
	FtypeStr        string          `xml:"ftype_str"`
	FileObjects     []xmlFileObject `xml:"fileobject"`
}

// xmlFileObject mirrors the DFXML fileobject element
type xmlFileObject struct {
	Filename string    `xml:"filename"`
	Inode    *int64    `xml:"inode"`
	NameType string    `xml:"name_type"`
	Alloc    *int      `xml:"alloc"`
	Unalloc  *int      `xml:"unalloc"`
	Filesize int64     `xml:"filesize"`
	Mtime    string    `xml:"mtime"`
	Atime    string    `xml:"atime"`
	Ctime    string    `xml:"ctime"`
	Crtime   string    `xml:"crtime"`
	Hashes   []xmlHash `xml:"hashdigest"`
}

type xmlHash struct {
	Type   string `xml:"type,attr"`
	Digest string `xml:",chardata"`
}

// Load parses one snapshot document from a reader. Volumes are identified by
// (partition offset, filesystem type), the same signature the original
// differencing tooling keys volumes on.
func (l *Loader) Load(r io.Reader, source string, index int) (*domain.Snapshot, error) {
	log := logger.With("component", "loader", "source", source)

	snapshot := &domain.Snapshot{
		Index:   index,
		Sources: []string{source},
	}
	var unpartitioned []domain.FileSystemObject

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "volume":
			var xv xmlVolume
			if err := dec.DecodeElement(&xv, &start); err != nil {
				return nil, fmt.Errorf("%w: volume: %v", domain.ErrInvalidSnapshot, err)
			}
			vs, err := l.convertVolume(&xv)
			if err != nil {
				return nil, err
			}
			if _, dup := snapshot.Volume(vs.VolumeID); dup {
				log.Warn("duplicate volume signature; partition mappings may be unreliable",
					"volume", vs.VolumeID)
			}
			snapshot.Volumes = append(snapshot.Volumes, *vs)
		case "fileobject":
			// A fileobject outside any volume element
			var xf xmlFileObject
			if err := dec.DecodeElement(&xf, &start); err != nil {
				return nil, fmt.Errorf("%w: fileobject: %v", domain.ErrInvalidSnapshot, err)
			}
			obj, keep, err := l.convertFileObject(&xf, UnpartitionedVolumeID)
			if err != nil {
				return nil, err
			}
			if keep {
				unpartitioned = append(unpartitioned, *obj)
			}
		}
	}

	if len(unpartitioned) > 0 {
		snapshot.Volumes = append(snapshot.Volumes, domain.VolumeSnapshot{
			VolumeID: UnpartitionedVolumeID,
			Objects:  unpartitioned,
		})
	}

	log.Debug("snapshot loaded",
		"index", index,
		"volumes", len(snapshot.Volumes),
		"objects", snapshot.ObjectCount())
	return snapshot, nil
}

// convertVolume turns one parsed volume element into a VolumeSnapshot
func (l *Loader) convertVolume(xv *xmlVolume) (*domain.VolumeSnapshot, error) {
	offset := xv.PartitionOffset
	if offset == nil {
		offset = xv.Offset
	}
	if offset == nil {
		return nil, fmt.Errorf("%w: volume element lacks a partition offset", domain.ErrInvalidSnapshot)
	}

	// Filesystem type labels can differ only by casing between captures
	ftype := strings.ToLower(xv.FtypeStr)
	volumeID := fmt.Sprintf("%d/%s", *offset, ftype)

	vs := &domain.VolumeSnapshot{
		VolumeID:        volumeID,
		SectorSize:      xv.SectorSize,
		BlockSize:       xv.BlockSize,
		PartitionOffset: *offset,
	}

	for i := range xv.FileObjects {
		obj, keep, err := l.convertFileObject(&xv.FileObjects[i], volumeID)
		if err != nil {
			return nil, err
		}
		if keep {
			vs.Objects = append(vs.Objects, *obj)
		}
	}
	return vs, nil
}

// convertFileObject turns one parsed fileobject element into a
// FileSystemObject. keep == false means the entry is an ignorable
// pseudo-file.
func (l *Loader) convertFileObject(xf *xmlFileObject, volumeID string) (obj *domain.FileSystemObject, keep bool, err error) {
	if l.ignoreNames[path.Base(xf.Filename)] {
		return nil, false, nil
	}

	var address int64
	if xf.Inode != nil {
		address = *xf.Inode
	}

	allocated := true
	if xf.Alloc != nil {
		allocated = *xf.Alloc != 0
	} else if xf.Unalloc != nil {
		allocated = *xf.Unalloc == 0
	}

	hashes := make(map[string]string, len(xf.Hashes))
	for _, h := range xf.Hashes {
		algo := strings.ToLower(strings.TrimSpace(h.Type))
		digest := strings.ToLower(strings.TrimSpace(h.Digest))
		if algo != "" && digest != "" {
			hashes[algo] = digest
		}
	}

	timestamps := make(map[domain.TimestampKind]time.Time, 4)
	for kind, raw := range map[domain.TimestampKind]string{
		domain.TimeModified: xf.Mtime,
		domain.TimeAccessed: xf.Atime,
		domain.TimeChanged:  xf.Ctime,
		domain.TimeCreated:  xf.Crtime,
	} {
		if raw == "" {
			continue
		}
		t, perr := time.Parse(time.RFC3339, strings.TrimSpace(raw))
		if perr != nil {
			return nil, false, fmt.Errorf("%w: bad %s value %q: %v", domain.ErrInvalidSnapshot, kind, raw, perr)
		}
		timestamps[kind] = t
	}

	var components []string
	if xf.Filename != "" {
		components = strings.Split(strings.Trim(xf.Filename, "/"), "/")
	}

	return &domain.FileSystemObject{
		VolumeID:       volumeID,
		Path:           components,
		StorageAddress: address,
		Allocated:      allocated,
		SizeBytes:      xf.Filesize,
		ContentHashes:  hashes,
		Timestamps:     timestamps,
		IsDirectory:    xf.NameType == "d",
	}, true, nil
}
