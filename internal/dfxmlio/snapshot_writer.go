package dfxmlio

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ajnelson-nist/dfxml/internal/domain"
)

// xmlSnapshotDoc is the serialized shape of a whole snapshot
type xmlSnapshotDoc struct {
	XMLName     xml.Name           `xml:"dfxml"`
	Version     string             `xml:"version,attr"`
	Volumes     []xmlVolumeOut     `xml:"volume,omitempty"`
	FileObjects []xmlFileObjectOut `xml:"fileobject,omitempty"`
}

type xmlVolumeOut struct {
	Offset          int64              `xml:"offset,attr"`
	PartitionOffset int64              `xml:"partition_offset"`
	SectorSize      int64              `xml:"sector_size,omitempty"`
	BlockSize       int64              `xml:"block_size,omitempty"`
	FtypeStr        string             `xml:"ftype_str,omitempty"`
	FileObjects     []xmlFileObjectOut `xml:"fileobject"`
}

type xmlFileObjectOut struct {
	Filename string       `xml:"filename"`
	Inode    int64        `xml:"inode"`
	NameType string       `xml:"name_type,omitempty"`
	Alloc    int          `xml:"alloc"`
	Filesize int64        `xml:"filesize"`
	Mtime    string       `xml:"mtime,omitempty"`
	Atime    string       `xml:"atime,omitempty"`
	Ctime    string       `xml:"ctime,omitempty"`
	Crtime   string       `xml:"crtime,omitempty"`
	Hashes   []xmlHashOut `xml:"hashdigest"`
}

type xmlHashOut struct {
	Type   string `xml:"type,attr"`
	Digest string `xml:",chardata"`
}

// WriteSnapshotXML serializes a snapshot as a DFXML document that snapshot
// loading can read back
func WriteSnapshotXML(w io.Writer, s *domain.Snapshot) error {
	doc := xmlSnapshotDoc{Version: "1.2.0"}

	for vi := range s.Volumes {
		vol := &s.Volumes[vi]
		objects := make([]xmlFileObjectOut, 0, len(vol.Objects))
		for oi := range vol.Objects {
			objects = append(objects, toXMLFileObject(&vol.Objects[oi]))
		}

		if vol.VolumeID == UnpartitionedVolumeID {
			doc.FileObjects = append(doc.FileObjects, objects...)
			continue
		}

		// The filesystem type is the second half of the volume signature
		ftype := ""
		if _, rest, found := strings.Cut(vol.VolumeID, "/"); found {
			ftype = rest
		}
		doc.Volumes = append(doc.Volumes, xmlVolumeOut{
			Offset:          vol.PartitionOffset,
			PartitionOffset: vol.PartitionOffset,
			SectorSize:      vol.SectorSize,
			BlockSize:       vol.BlockSize,
			FtypeStr:        ftype,
			FileObjects:     objects,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func toXMLFileObject(obj *domain.FileSystemObject) xmlFileObjectOut {
	out := xmlFileObjectOut{
		Filename: obj.PathString(),
		Inode:    obj.StorageAddress,
		NameType: "r",
		Filesize: obj.SizeBytes,
	}
	if obj.IsDirectory {
		out.NameType = "d"
	}
	if obj.Allocated {
		out.Alloc = 1
	}

	out.Mtime = formatTimestamp(obj, domain.TimeModified)
	out.Atime = formatTimestamp(obj, domain.TimeAccessed)
	out.Ctime = formatTimestamp(obj, domain.TimeChanged)
	out.Crtime = formatTimestamp(obj, domain.TimeCreated)

	algorithms := make([]string, 0, len(obj.ContentHashes))
	for algo := range obj.ContentHashes {
		algorithms = append(algorithms, algo)
	}
	sort.Strings(algorithms)
	for _, algo := range algorithms {
		out.Hashes = append(out.Hashes, xmlHashOut{
			Type:   algo,
			Digest: obj.ContentHashes[algo],
		})
	}

	return out
}

func formatTimestamp(obj *domain.FileSystemObject, kind domain.TimestampKind) string {
	t, ok := obj.Timestamps[kind]
	if !ok {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
