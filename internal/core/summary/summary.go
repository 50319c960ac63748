package summary

import "github.com/ajnelson-nist/dfxml/internal/domain"

// PairKey addresses one classification count within one snapshot pair
type PairKey struct {
	PairIndex      int
	Classification domain.Classification
}

// Summary is the aggregated view of a differential result: counts per
// (pair, classification), grand totals per classification, and per-volume
// totals. Pure aggregation, no matching logic.
type Summary struct {
	// ByPair maps (pair index, classification) to object count
	ByPair map[PairKey]int

	// Totals maps classification to its count across all pairs
	Totals map[domain.Classification]int

	// ByVolume maps volume ID to per-classification counts
	ByVolume map[string]map[domain.Classification]int

	// TotalRecords is the overall record count
	TotalRecords int

	// SnapshotCount carried over from the differential result
	SnapshotCount int

	// AmbiguousSkips carried over from the differential result
	AmbiguousSkips int
}

// Summarize aggregates a differential result in a single pass. An empty
// result is valid input and yields all-zero counts.
func Summarize(result *domain.DifferentialResult) *Summary {
	s := &Summary{
		ByPair:         make(map[PairKey]int),
		Totals:         make(map[domain.Classification]int),
		ByVolume:       make(map[string]map[domain.Classification]int),
		SnapshotCount:  result.SnapshotCount,
		AmbiguousSkips: result.AmbiguousSkips,
	}

	for i := range result.Records {
		rec := &result.Records[i]
		s.TotalRecords++
		s.ByPair[PairKey{PairIndex: rec.SnapshotPairIndex, Classification: rec.Classification}]++
		s.Totals[rec.Classification]++

		vid := rec.VolumeID()
		if s.ByVolume[vid] == nil {
			s.ByVolume[vid] = make(map[domain.Classification]int)
		}
		s.ByVolume[vid][rec.Classification]++
	}
	return s
}

// PairTotal returns the record count for one pair across all classifications
func (s *Summary) PairTotal(pairIndex int) int {
	n := 0
	for _, c := range domain.Classifications() {
		n += s.ByPair[PairKey{PairIndex: pairIndex, Classification: c}]
	}
	return n
}
