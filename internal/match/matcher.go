// Package match implements spec.md §4.5: joining a query's hash set
// against the store and reducing the result to per-track hit counts and
// raw (track, offset-difference) tuples for the aligner.
package match

import (
	"time"

	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/fingerprint"
)

// Entry is one (track, offset-difference) observation: offset-difference
// = stored-offset - query-offset, per spec.md §4.5.
type Entry struct {
	TrackID    int64
	OffsetDiff int
}

// Result is find_matches' output: the raw match list, per-track hit
// counts (distinct stored rows returned, not multiplied by repeated
// query hashes), and the time the store query took.
type Result struct {
	Entries   []Entry
	HitCounts map[int64]int64
	QueryTime time.Duration
}

// Find builds a hash -> query-offsets multimap from the query's
// fingerprints, queries the store in batches, and emits one Entry per
// (returned row, query-offset) pair, per spec.md §4.5's algorithm.
func Find(store database.Store, query []fingerprint.Fingerprint, batchSize int) (Result, error) {
	start := time.Now()

	offsetsByHash := make(map[string][]int, len(query))
	hashes := make([]string, 0, len(query))
	for _, fp := range query {
		if _, exists := offsetsByHash[fp.Hash]; !exists {
			hashes = append(hashes, fp.Hash)
		}
		offsetsByHash[fp.Hash] = append(offsetsByHash[fp.Hash], fp.Offset)
	}

	if len(hashes) == 0 {
		return Result{QueryTime: time.Since(start)}, nil
	}

	rows, hitCounts, err := store.ReturnMatches(hashes, batchSize)
	if err != nil {
		return Result{}, err
	}

	var entries []Entry
	for _, row := range rows {
		for _, q := range offsetsByHash[row.Hash] {
			entries = append(entries, Entry{
				TrackID:    row.TrackID,
				OffsetDiff: row.Offset - q,
			})
		}
	}

	return Result{
		Entries:   entries,
		HitCounts: hitCounts,
		QueryTime: time.Since(start),
	}, nil
}
