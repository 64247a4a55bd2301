// Package memstore is an in-memory Store implementation used only by
// tests, so internal/match and internal/ingest can be exercised without a
// live MySQL or Postgres instance. It is not a configurable database_type;
// production store selection is between internal/database/mysql and
// internal/database/postgres.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/landmarked/landmarked/internal/database"
)

type hashKey struct {
	trackID int64
	offset  int
	hash    string
}

// Store is a mutex-guarded, in-memory implementation of database.Store.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	tracks    map[int64]*database.Track
	hashes    map[string][]hashKey // hash -> rows
	seenPairs map[hashKey]bool
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		tracks:    make(map[int64]*database.Track),
		hashes:    make(map[string][]hashKey),
		seenPairs: make(map[hashKey]bool),
	}
}

func (s *Store) Setup() error { return s.DeleteUnfingerprinted() }

func (s *Store) Empty() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = make(map[int64]*database.Track)
	s.hashes = make(map[string][]hashKey)
	s.seenPairs = make(map[hashKey]bool)
	s.nextID = 0
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) InsertTrack(name, contentSHA1 string, totalHashes int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	now := time.Now()
	s.tracks[id] = &database.Track{
		ID:          id,
		Name:        name,
		ContentSHA1: contentSHA1,
		TotalHashes: totalHashes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return id, nil
}

func (s *Store) SetTrackFingerprinted(trackID int64, totalHashes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[trackID]
	if !ok {
		return nil
	}
	t.Fingerprinted = true
	t.TotalHashes = totalHashes
	t.UpdatedAt = time.Now()
	return nil
}

func (s *Store) InsertHashes(trackID int64, rows []database.HashOffset, batchSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		key := hashKey{trackID: trackID, offset: r.Offset, hash: r.Hash}
		if s.seenPairs[key] {
			continue
		}
		s.seenPairs[key] = true
		s.hashes[r.Hash] = append(s.hashes[r.Hash], key)
	}
	return nil
}

func (s *Store) GetTrack(id int64) (database.Track, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[id]
	if !ok {
		return database.Track{}, false, nil
	}
	return *t, true, nil
}

func (s *Store) GetTracks() ([]database.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []database.Track
	for _, t := range s.tracks {
		if t.Fingerprinted {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ContentExists(contentSHA1 string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tracks {
		if t.ContentSHA1 == contentSHA1 {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteTracks(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idSet := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
		delete(s.tracks, id)
	}
	for hash, rows := range s.hashes {
		var kept []hashKey
		for _, r := range rows {
			if idSet[r.trackID] {
				delete(s.seenPairs, r)
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(s.hashes, hash)
		} else {
			s.hashes[hash] = kept
		}
	}
	return nil
}

func (s *Store) DeleteUnfingerprinted() error {
	s.mu.Lock()
	var toDelete []int64
	for id, t := range s.tracks {
		if !t.Fingerprinted {
			toDelete = append(toDelete, id)
		}
	}
	s.mu.Unlock()
	return s.DeleteTracks(toDelete)
}

func (s *Store) ReturnMatches(queryHashes []string, batchSize int) ([]database.MatchRow, map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []database.MatchRow
	counts := make(map[int64]int64)
	for _, batch := range database.BatchHashes(queryHashes, batchSize) {
		for _, h := range batch {
			for _, key := range s.hashes[h] {
				rows = append(rows, database.MatchRow{Hash: h, TrackID: key.trackID, Offset: key.offset})
				counts[key.trackID]++
			}
		}
	}
	return rows, counts, nil
}

func (s *Store) Counts() (database.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c database.Counts
	for _, t := range s.tracks {
		if t.Fingerprinted {
			c.Tracks++
		}
	}
	for _, rows := range s.hashes {
		c.Hashes += int64(len(rows))
	}
	return c, nil
}
