package dfxmlio

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ajnelson-nist/dfxml/internal/domain"
)

// xmlDifferential is the serialized shape of a DifferentialResult
type xmlDifferential struct {
	XMLName        xml.Name    `xml:"differential"`
	SnapshotCount  int         `xml:"snapshot_count,attr"`
	AmbiguousSkips int         `xml:"ambiguous_skips,attr"`
	UnchangedTotal int         `xml:"unchanged_total,attr"`
	Records        []xmlRecord `xml:"record"`
}

type xmlRecord struct {
	Pair              int           `xml:"pair,attr"`
	Classification    string        `xml:"classification,attr"`
	Basis             string        `xml:"basis,attr,omitempty"`
	Old               *xmlObjectRef `xml:"old,omitempty"`
	New               *xmlObjectRef `xml:"new,omitempty"`
	ChangedAttributes []string      `xml:"changed_attribute,omitempty"`
}

type xmlObjectRef struct {
	Volume  string `xml:"volume,attr"`
	Address int64  `xml:"address,attr"`
	Path    string `xml:"path,attr"`
}

func toXMLRef(ref *domain.ObjectRef) *xmlObjectRef {
	if ref == nil {
		return nil
	}
	return &xmlObjectRef{
		Volume:  ref.VolumeID,
		Address: ref.StorageAddress,
		Path:    ref.Path,
	}
}

// WriteXML serializes a differential result as an annotated XML document
func WriteXML(w io.Writer, result *domain.DifferentialResult) error {
	doc := xmlDifferential{
		SnapshotCount:  result.SnapshotCount,
		AmbiguousSkips: result.AmbiguousSkips,
		UnchangedTotal: result.UnchangedTotal,
		Records:        make([]xmlRecord, 0, len(result.Records)),
	}
	for i := range result.Records {
		rec := &result.Records[i]
		doc.Records = append(doc.Records, xmlRecord{
			Pair:              rec.SnapshotPairIndex,
			Classification:    string(rec.Classification),
			Basis:             string(rec.Basis),
			Old:               toXMLRef(rec.Old),
			New:               toXMLRef(rec.New),
			ChangedAttributes: rec.ChangedAttributes,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding differential: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// jsonDifferential is the machine-consumption shape of a DifferentialResult
type jsonDifferential struct {
	SnapshotCount  int          `json:"snapshot_count"`
	AmbiguousSkips int          `json:"ambiguous_skips"`
	UnchangedTotal int          `json:"unchanged_total"`
	Records        []jsonRecord `json:"records"`
}

type jsonRecord struct {
	Pair              int            `json:"pair"`
	Classification    string         `json:"classification"`
	Basis             string         `json:"basis,omitempty"`
	Old               *jsonObjectRef `json:"old,omitempty"`
	New               *jsonObjectRef `json:"new,omitempty"`
	ChangedAttributes []string       `json:"changed_attributes,omitempty"`
}

type jsonObjectRef struct {
	Volume  string `json:"volume"`
	Address int64  `json:"address"`
	Path    string `json:"path"`
}

func toJSONRef(ref *domain.ObjectRef) *jsonObjectRef {
	if ref == nil {
		return nil
	}
	return &jsonObjectRef{
		Volume:  ref.VolumeID,
		Address: ref.StorageAddress,
		Path:    ref.Path,
	}
}

// WriteJSON serializes a differential result as JSON
func WriteJSON(w io.Writer, result *domain.DifferentialResult) error {
	doc := jsonDifferential{
		SnapshotCount:  result.SnapshotCount,
		AmbiguousSkips: result.AmbiguousSkips,
		UnchangedTotal: result.UnchangedTotal,
		Records:        make([]jsonRecord, 0, len(result.Records)),
	}
	for i := range result.Records {
		rec := &result.Records[i]
		doc.Records = append(doc.Records, jsonRecord{
			Pair:              rec.SnapshotPairIndex,
			Classification:    string(rec.Classification),
			Basis:             string(rec.Basis),
			Old:               toJSONRef(rec.Old),
			New:               toJSONRef(rec.New),
			ChangedAttributes: rec.ChangedAttributes,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding differential: %w", err)
	}
	return nil
}
