package match

import (
	"sort"

	"github.com/ajnelson-nist/dfxml/internal/domain"
)

// Matcher pairs the objects of one volume across two consecutive snapshots
type Matcher interface {
	// Match produces a one-to-one correspondence between oldObjects and
	// newObjects. Both sequences must be scoped to the same volume;
	// matching never crosses volumes.
	Match(volumeID string, oldObjects, newObjects []domain.FileSystemObject) *domain.MatchResult
}

// GreedyMatcher implements three greedy passes in strict priority order:
// exact identity (address + path), content hash, reused address. Greedy
// priority passes are deliberate: an optimal assignment solver would change
// observable output on ambiguous inputs.
type GreedyMatcher struct{}

// NewGreedyMatcher creates a new GreedyMatcher
func NewGreedyMatcher() *GreedyMatcher {
	return &GreedyMatcher{}
}

// hashKey buckets objects by one content signal. Two objects sharing any
// hashKey are candidates; full agreement is verified with ContentEquals.
type hashKey struct {
	size      int64
	algorithm string
	digest    string
}

func hashKeysOf(o *domain.FileSystemObject) []hashKey {
	keys := make([]hashKey, 0, len(o.ContentHashes))
	for algo, digest := range o.ContentHashes {
		keys = append(keys, hashKey{size: o.SizeBytes, algorithm: algo, digest: digest})
	}
	return keys
}

// exactKey identifies an object by storage address plus path
type exactKey struct {
	identity domain.IdentityKey
	path     string
}

// Match implements the Matcher interface
func (m *GreedyMatcher) Match(volumeID string, oldObjects, newObjects []domain.FileSystemObject) *domain.MatchResult {
	result := &domain.MatchResult{
		VolumeID: volumeID,
		Matches:  make([]domain.Match, 0, max(len(oldObjects), len(newObjects))),
	}

	oldMatched := make([]bool, len(oldObjects))
	newMatched := make([]bool, len(newObjects))

	pair := func(oi, ni int, basis domain.MatchBasis) {
		oldRef := domain.RefOf(&oldObjects[oi])
		newRef := domain.RefOf(&newObjects[ni])
		result.Matches = append(result.Matches, domain.Match{
			Old:   &oldRef,
			New:   &newRef,
			Basis: basis,
		})
		oldMatched[oi] = true
		newMatched[ni] = true
	}

	// Pass 1: exact identity - same storage address and same path.
	// The common case: an unmoved, possibly-modified file.
	byExact := make(map[exactKey]int, len(oldObjects))
	for i := range oldObjects {
		k := exactKey{identity: oldObjects[i].IdentityKey(), path: oldObjects[i].PathString()}
		if _, dup := byExact[k]; !dup {
			byExact[k] = i
		}
	}
	for ni := range newObjects {
		k := exactKey{identity: newObjects[ni].IdentityKey(), path: newObjects[ni].PathString()}
		if oi, ok := byExact[k]; ok && !oldMatched[oi] {
			pair(oi, ni, domain.BasisExactIdentity)
		}
	}

	// Pass 2: content - identical content keys catch renames and moves.
	// Ambiguous ties are skipped, never guessed.
	oldByHash := make(map[hashKey][]int)
	newByHash := make(map[hashKey][]int)
	for i := range oldObjects {
		if oldMatched[i] {
			continue
		}
		for _, k := range hashKeysOf(&oldObjects[i]) {
			oldByHash[k] = append(oldByHash[k], i)
		}
	}
	for i := range newObjects {
		if newMatched[i] {
			continue
		}
		for _, k := range hashKeysOf(&newObjects[i]) {
			newByHash[k] = append(newByHash[k], i)
		}
	}

	// Old objects ruled out of the content pass after an unresolvable tie
	oldAmbiguous := make([]bool, len(oldObjects))

	for ni := range newObjects {
		if newMatched[ni] {
			continue
		}
		cands := contentCandidates(&newObjects[ni], oldObjects, oldMatched, oldAmbiguous, oldByHash)
		if len(cands) == 0 {
			continue
		}

		oi, ok := pickCounterpart(cands, func(i int) *domain.FileSystemObject { return &oldObjects[i] }, &newObjects[ni])
		if !ok {
			result.AmbiguousSkips++
			continue
		}

		// The chosen old object may itself have several content-equal
		// candidates on the new side; honor its preference too.
		revCands := contentCandidates(&oldObjects[oi], newObjects, newMatched, nil, newByHash)
		if len(revCands) > 1 {
			best, ok := pickCounterpart(revCands, func(i int) *domain.FileSystemObject { return &newObjects[i] }, &oldObjects[oi])
			if !ok {
				oldAmbiguous[oi] = true
				result.AmbiguousSkips++
				continue
			}
			if best != ni {
				// The old object pairs better with a later new object;
				// this one falls through to created.
				continue
			}
		}

		pair(oi, ni, domain.BasisContentHash)
	}

	// Pass 3: reused address - only the storage address agrees. Models the
	// old object being deleted and an unrelated one allocated in its place.
	byIdentity := make(map[domain.IdentityKey]int, len(oldObjects))
	for i := range oldObjects {
		if oldMatched[i] {
			continue
		}
		k := oldObjects[i].IdentityKey()
		if _, dup := byIdentity[k]; !dup {
			byIdentity[k] = i
		}
	}
	for ni := range newObjects {
		if newMatched[ni] {
			continue
		}
		if oi, ok := byIdentity[newObjects[ni].IdentityKey()]; ok && !oldMatched[oi] {
			pair(oi, ni, domain.BasisReusedAddress)
		}
	}

	// Leftovers: unmatched old objects surface as deletions, unmatched new
	// objects as creations.
	for i := range oldObjects {
		if oldMatched[i] {
			continue
		}
		ref := domain.RefOf(&oldObjects[i])
		result.Matches = append(result.Matches, domain.Match{Old: &ref, Basis: domain.BasisUnmatched})
	}
	for i := range newObjects {
		if newMatched[i] {
			continue
		}
		ref := domain.RefOf(&newObjects[i])
		result.Matches = append(result.Matches, domain.Match{New: &ref, Basis: domain.BasisUnmatched})
	}

	return result
}

// contentCandidates returns the unmatched indexes in pool whose content keys
// agree with obj, in input order.
func contentCandidates(obj *domain.FileSystemObject, pool []domain.FileSystemObject, matched, disabled []bool, byHash map[hashKey][]int) []int {
	seen := make(map[int]bool)
	var cands []int
	for _, k := range hashKeysOf(obj) {
		for _, i := range byHash[k] {
			if matched[i] || seen[i] || (disabled != nil && disabled[i]) {
				continue
			}
			seen[i] = true
			if equal, comparable := obj.ContentEquals(&pool[i]); comparable && equal {
				cands = append(cands, i)
			}
		}
	}
	// Bucket iteration over a map is unordered; restore input order
	sort.Ints(cands)
	return cands
}

// pickCounterpart applies the content-pass tie-break to a candidate list:
// (a) prefer a candidate sharing the storage address; (b) otherwise prefer
// the unique candidate with the longest common path-component prefix;
// (c) otherwise report ambiguity.
func pickCounterpart(cands []int, at func(int) *domain.FileSystemObject, obj *domain.FileSystemObject) (int, bool) {
	if len(cands) == 1 {
		return cands[0], true
	}

	for _, i := range cands {
		if at(i).IdentityKey() == obj.IdentityKey() {
			return i, true
		}
	}

	bestLen := -1
	bestIdx := -1
	tied := false
	for _, i := range cands {
		n := at(i).CommonPrefixLen(obj)
		switch {
		case n > bestLen:
			bestLen = n
			bestIdx = i
			tied = false
		case n == bestLen:
			tied = true
		}
	}
	if tied {
		return -1, false
	}
	return bestIdx, true
}
