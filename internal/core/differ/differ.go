package differ

import (
	"fmt"
	"sync"

	"github.com/ajnelson-nist/dfxml/internal/core/classify"
	"github.com/ajnelson-nist/dfxml/internal/core/match"
	"github.com/ajnelson-nist/dfxml/internal/domain"
	"github.com/ajnelson-nist/dfxml/internal/logger"
)

// Options configures the assembler
type Options struct {
	// DropUnchanged removes unchanged records from the assembled result.
	// They are retained by default so that summary counts cover the full
	// object population.
	DropUnchanged bool

	// IgnoreProperties names object attributes excluded from all
	// difference operations
	IgnoreProperties []string

	// Parallelism is the number of snapshot pairs diffed concurrently.
	// Values below 2 mean sequential. Results are merged back in pair
	// order either way; output is deterministic.
	Parallelism int
}

// Differ assembles the differential record set across a snapshot sequence.
// It runs the matcher and classifier once per consecutive snapshot pair,
// scoped per shared volume. Each pair computation is independent; no state
// is shared across pairs.
type Differ struct {
	matcher    match.Matcher
	classifier *classify.Classifier
	opts       Options
}

// New creates a Differ with the default greedy matcher
func New(opts Options) *Differ {
	return &Differ{
		matcher:    match.NewGreedyMatcher(),
		classifier: classify.NewClassifier(opts.IgnoreProperties),
		opts:       opts,
	}
}

// pairOutput is one pair's contribution, merged by pair index afterward
type pairOutput struct {
	records        []domain.ChangeRecord
	ambiguousSkips int
	unchanged      int
}

// Diff compares each snapshot against its immediate successor and
// concatenates the per-pair change records into one DifferentialResult.
func (d *Differ) Diff(snapshots []domain.Snapshot) (*domain.DifferentialResult, error) {
	if len(snapshots) < 2 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInsufficientSnapshots, len(snapshots))
	}
	for i := range snapshots {
		if err := validateSnapshot(&snapshots[i]); err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", i, err)
		}
	}

	log := logger.With("component", "differ")

	pairCount := len(snapshots) - 1
	outputs := make([]pairOutput, pairCount)

	if d.opts.Parallelism > 1 && pairCount > 1 {
		workers := d.opts.Parallelism
		if workers > pairCount {
			workers = pairCount
		}
		var wg sync.WaitGroup
		pairs := make(chan int)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for p := range pairs {
					outputs[p] = d.diffPair(p, &snapshots[p], &snapshots[p+1])
				}
			}()
		}
		for p := 0; p < pairCount; p++ {
			pairs <- p
		}
		close(pairs)
		wg.Wait()
	} else {
		for p := 0; p < pairCount; p++ {
			outputs[p] = d.diffPair(p, &snapshots[p], &snapshots[p+1])
		}
	}

	result := &domain.DifferentialResult{SnapshotCount: len(snapshots)}
	for p := range outputs {
		result.Records = append(result.Records, outputs[p].records...)
		result.AmbiguousSkips += outputs[p].ambiguousSkips
		result.UnchangedTotal += outputs[p].unchanged
		if outputs[p].ambiguousSkips > 0 {
			log.Warn("ambiguous content matches skipped",
				"pair", p, "count", outputs[p].ambiguousSkips)
		}
	}
	log.Info("differential assembled",
		"snapshots", len(snapshots),
		"records", len(result.Records),
		"unchanged", result.UnchangedTotal,
		"ambiguous_skips", result.AmbiguousSkips)
	return result, nil
}

// diffPair computes one consecutive pair's records, volume by volume.
// A volume present on only one side contributes pure deletions or creations.
func (d *Differ) diffPair(pairIndex int, oldSnap, newSnap *domain.Snapshot) pairOutput {
	var out pairOutput

	seen := make(map[string]bool)
	volumeIDs := append(oldSnap.VolumeIDs(), newSnap.VolumeIDs()...)
	for _, id := range volumeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		oldVol, oldOK := oldSnap.Volume(id)
		newVol, newOK := newSnap.Volume(id)

		switch {
		case oldOK && newOK:
			d.diffVolume(pairIndex, oldVol, newVol, &out)
		case oldOK:
			// Volume disappeared: every object is a deletion
			for i := range oldVol.Objects {
				rec := d.classifier.Classify(&oldVol.Objects[i], nil, domain.BasisUnmatched, pairIndex)
				out.records = append(out.records, rec)
			}
		case newOK:
			// Volume appeared: every object is a creation
			for i := range newVol.Objects {
				rec := d.classifier.Classify(nil, &newVol.Objects[i], domain.BasisUnmatched, pairIndex)
				out.records = append(out.records, rec)
			}
		}
	}
	return out
}

// diffVolume matches one shared volume's objects and classifies every entry
func (d *Differ) diffVolume(pairIndex int, oldVol, newVol *domain.VolumeSnapshot, out *pairOutput) {
	mr := d.matcher.Match(oldVol.VolumeID, oldVol.Objects, newVol.Objects)
	out.ambiguousSkips += mr.AmbiguousSkips

	oldIndex := domain.NewVolumeIndex(oldVol)
	newIndex := domain.NewVolumeIndex(newVol)

	for _, m := range mr.Matches {
		var oldObj, newObj *domain.FileSystemObject
		if m.Old != nil {
			oldObj, _ = oldIndex.Resolve(*m.Old)
		}
		if m.New != nil {
			newObj, _ = newIndex.Resolve(*m.New)
		}
		rec := d.classifier.Classify(oldObj, newObj, m.Basis, pairIndex)
		if rec.Classification == domain.ChangeUnchanged {
			out.unchanged++
			if d.opts.DropUnchanged {
				continue
			}
		}
		out.records = append(out.records, rec)
	}
}

// validateSnapshot checks that every object's volume ID references a volume
// present in the object's own snapshot
func validateSnapshot(s *domain.Snapshot) error {
	ids := make(map[string]bool, len(s.Volumes))
	for i := range s.Volumes {
		ids[s.Volumes[i].VolumeID] = true
	}
	for i := range s.Volumes {
		for j := range s.Volumes[i].Objects {
			if vid := s.Volumes[i].Objects[j].VolumeID; !ids[vid] {
				return fmt.Errorf("%w: %q (object %s)",
					domain.ErrUnknownVolume, vid, s.Volumes[i].Objects[j].PathString())
			}
		}
	}
	return nil
}
