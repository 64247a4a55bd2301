// Package database defines the store contract of spec.md §4.7: the
// abstract persistence collaborator that the ingestion pipeline and
// matcher depend on, plus the encode/decode helpers for its 10-byte
// binary hash representation.
package database

import (
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultBatchSize is B in spec.md §4.4/§4.5: the batch size used for
// both bulk hash inserts and batched IN-queries.
const DefaultBatchSize = 1000

// Track is spec.md §3's track record.
type Track struct {
	ID            int64
	Name          string
	ContentSHA1   string
	Fingerprinted bool
	TotalHashes   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HashOffset is one (hash, offset) tuple to be inserted for a track.
type HashOffset struct {
	Hash   string
	Offset int
}

// MatchRow is one row returned by ReturnMatches: a stored hash that
// matched a query hash, with the track it belongs to and its stored
// offset.
type MatchRow struct {
	Hash    string
	TrackID int64
	Offset  int
}

// Counts is the result of Store.Counts.
type Counts struct {
	Tracks int64
	Hashes int64
}

// Store is the persistence contract of spec.md §4.7. Any implementation
// satisfying it — relational, key-value, document — is acceptable; the
// reference implementations in this repo are internal/database/mysql
// and internal/database/postgres.
type Store interface {
	// Setup ensures the schema exists and purges partial (unfingerprinted)
	// tracks left over from a previous, incomplete run.
	Setup() error

	// Empty drops and recreates the schema, discarding all data.
	Empty() error

	// Close releases the store's connection(s).
	Close() error

	// InsertTrack creates a new track row and returns its id.
	InsertTrack(name, contentSHA1 string, totalHashes int64) (int64, error)

	// SetTrackFingerprinted flips the fingerprinted flag and records the
	// final hash count for trackID.
	SetTrackFingerprinted(trackID int64, totalHashes int64) error

	// InsertHashes bulk-inserts hashes for trackID in batches of
	// batchSize, silently suppressing duplicates on (track_id, offset, hash).
	InsertHashes(trackID int64, hashes []HashOffset, batchSize int) error

	// GetTrack returns the track row for id, or (Track{}, false, nil) if
	// it does not exist.
	GetTrack(id int64) (Track, bool, error)

	// GetTracks returns every fingerprinted track.
	GetTracks() ([]Track, error)

	// ContentExists reports whether any track (fingerprinted or not) was
	// already ingested with this content-sha1.
	ContentExists(contentSHA1 string) (bool, error)

	// DeleteTracks deletes the given track ids; hash rows cascade.
	DeleteTracks(ids []int64) error

	// DeleteUnfingerprinted purges every track whose fingerprinted flag
	// was never set, i.e. partial tracks from a crashed or timed-out
	// ingest.
	DeleteUnfingerprinted() error

	// ReturnMatches looks up every row whose hash is in hashes, processed
	// in batches of batchSize, and returns them alongside a per-track hit
	// count (the number of distinct stored rows returned for that
	// track).
	ReturnMatches(hashes []string, batchSize int) ([]MatchRow, map[int64]int64, error)

	// Counts reports the total number of fingerprinted tracks and hash
	// rows currently stored.
	Counts() (Counts, error)
}

// EncodeHash converts a hex fingerprint hash to its compact binary form
// for storage (spec.md §6: "hashes are stored as fixed-width binary to
// save space; the reference encoding is unhex/hex at the boundary").
func EncodeHash(hexHash string) ([]byte, error) {
	b, err := hex.DecodeString(hexHash)
	if err != nil {
		return nil, fmt.Errorf("decoding hash %q: %w", hexHash, err)
	}
	return b, nil
}

// DecodeHash converts a stored binary hash back to its hex form.
func DecodeHash(raw []byte) string {
	return hex.EncodeToString(raw)
}

// BatchHashes splits hashes into chunks of at most size for batched
// store operations. size <= 0 returns a single batch.
func BatchHashes[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) <= size {
		return [][]T{items}
	}
	var batches [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
