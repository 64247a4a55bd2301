// Package align implements spec.md §4.6: turning a raw (track,
// offset-difference) match list into a ranked, confidence-scored
// identification by histogramming offset-differences per track.
package align

import (
	"sort"

	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/match"
)

// Candidate is one track's best-aligned bucket before track metadata is
// attached: the (offset-difference, count) pair with the highest count,
// ties broken by the smaller offset-difference.
type Candidate struct {
	TrackID       int64
	OffsetDiff    int
	HashesMatched int64
}

// TopCandidates groups entries by (track, offset-difference), keeps
// each track's best bucket, and returns the topN tracks by count
// descending, per spec.md §4.6 steps 1-4. Never returns an error: an
// empty input yields an empty result (spec.md §4.6's failure semantics).
func TopCandidates(entries []match.Entry, topN int) []Candidate {
	if len(entries) == 0 {
		return nil
	}

	sorted := make([]match.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TrackID != sorted[j].TrackID {
			return sorted[i].TrackID < sorted[j].TrackID
		}
		return sorted[i].OffsetDiff < sorted[j].OffsetDiff
	})

	type bucket struct {
		offsetDiff int
		count      int64
	}
	best := make(map[int64]bucket)

	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j].TrackID == sorted[i].TrackID {
			j++
		}
		track := sorted[i].TrackID

		k := i
		for k < j {
			l := k
			for l < j && sorted[l].OffsetDiff == sorted[k].OffsetDiff {
				l++
			}
			count := int64(l - k)
			cur, ok := best[track]
			if !ok || count > cur.count || (count == cur.count && sorted[k].OffsetDiff < cur.offsetDiff) {
				best[track] = bucket{offsetDiff: sorted[k].OffsetDiff, count: count}
			}
			k = l
		}
		i = j
	}

	candidates := make([]Candidate, 0, len(best))
	for track, b := range best {
		candidates = append(candidates, Candidate{TrackID: track, OffsetDiff: b.offsetDiff, HashesMatched: b.count})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].HashesMatched != candidates[j].HashesMatched {
			return candidates[i].HashesMatched > candidates[j].HashesMatched
		}
		return candidates[i].TrackID < candidates[j].TrackID
	})

	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// Result is one ranked identification, with the fields spec.md §6 lists
// for the recognition result object.
type Result struct {
	TrackID                 int64
	TrackName               string
	FileSHA1                string
	InputTotalHashes        int64
	FingerprintedHashesInDB int64
	HashesMatchedInInput    int64
	InputConfidence         float64
	FingerprintedConfidence float64
	Offset                  int
	OffsetSeconds           float64
}

// Align is the full spec.md §4.6 operation: histogram the match list,
// take the top candidates, look up their track metadata, and compute
// offset/confidence fields. queryHashCount is Q, the total number of
// hashes in the query (input_confidence's denominator).
func Align(store database.Store, entries []match.Entry, queryHashCount int64, windowSize int, overlapRatio float64, sampleRate int, topN int) ([]Result, error) {
	candidates := TopCandidates(entries, topN)
	if len(candidates) == 0 {
		return nil, nil
	}

	hopSeconds := float64(windowSize) * overlapRatio / float64(sampleRate)

	var results []Result
	for _, c := range candidates {
		track, ok, err := store.GetTrack(c.TrackID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		var inputConfidence float64
		if queryHashCount > 0 {
			inputConfidence = float64(c.HashesMatched) / float64(queryHashCount)
		}
		var fpConfidence float64
		if track.TotalHashes > 0 {
			fpConfidence = float64(c.HashesMatched) / float64(track.TotalHashes)
		}

		results = append(results, Result{
			TrackID:                 track.ID,
			TrackName:               track.Name,
			FileSHA1:                track.ContentSHA1,
			InputTotalHashes:        queryHashCount,
			FingerprintedHashesInDB: track.TotalHashes,
			HashesMatchedInInput:    c.HashesMatched,
			InputConfidence:         inputConfidence,
			FingerprintedConfidence: fpConfidence,
			Offset:                  c.OffsetDiff,
			OffsetSeconds:           round5(float64(c.OffsetDiff) * hopSeconds),
		})
	}
	return results, nil
}

func round5(x float64) float64 {
	const scale = 1e5
	if x >= 0 {
		return float64(int64(x*scale+0.5)) / scale
	}
	return float64(int64(x*scale-0.5)) / scale
}
