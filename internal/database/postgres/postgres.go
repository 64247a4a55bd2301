// Package postgres implements database.Store against spec.md §6's
// reference relational schema using github.com/lib/pq, the teacher's
// second store backend.
package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/landmarked/landmarked/internal/config"
	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/landmarkerr"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS songs (
	song_id BIGSERIAL PRIMARY KEY,
	song_name VARCHAR(512) NOT NULL,
	fingerprinted BOOLEAN NOT NULL DEFAULT FALSE,
	file_sha1 BYTEA NOT NULL UNIQUE,
	total_hashes BIGINT NOT NULL DEFAULT 0,
	date_created TIMESTAMP NOT NULL DEFAULT NOW(),
	date_modified TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS fingerprints (
	hash BYTEA NOT NULL,
	song_id BIGINT NOT NULL REFERENCES songs(song_id) ON DELETE CASCADE,
	offset_frames INTEGER NOT NULL,
	UNIQUE (song_id, offset_frames, hash)
);

CREATE INDEX IF NOT EXISTS idx_fingerprints_hash ON fingerprints (hash);
`

// Store is a PostgreSQL-backed database.Store.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL using the given configuration.
func Open(cfg config.Database) (*Store, error) {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, landmarkerr.NewFatalStoreFault("open", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Setup() error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return landmarkerr.NewFatalStoreFault("setup", err)
		}
	}
	return s.DeleteUnfingerprinted()
}

func (s *Store) Empty() error {
	if _, err := s.db.Exec("DROP TABLE IF EXISTS fingerprints"); err != nil {
		return landmarkerr.NewFatalStoreFault("empty", err)
	}
	if _, err := s.db.Exec("DROP TABLE IF EXISTS songs"); err != nil {
		return landmarkerr.NewFatalStoreFault("empty", err)
	}
	return s.Setup()
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) InsertTrack(name, contentSHA1 string, totalHashes int64) (int64, error) {
	sha, err := database.EncodeHash(contentSHA1)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(
		"INSERT INTO songs (song_name, file_sha1, total_hashes) VALUES ($1, $2, $3) RETURNING song_id",
		name, sha, totalHashes,
	).Scan(&id)
	if err != nil {
		return 0, landmarkerr.NewStoreTransientFault("insert_track", err)
	}
	return id, nil
}

func (s *Store) SetTrackFingerprinted(trackID int64, totalHashes int64) error {
	_, err := s.db.Exec(
		"UPDATE songs SET fingerprinted = TRUE, total_hashes = $1, date_modified = NOW() WHERE song_id = $2",
		totalHashes, trackID,
	)
	if err != nil {
		return landmarkerr.NewStoreTransientFault("set_fingerprinted", err)
	}
	return nil
}

func (s *Store) InsertHashes(trackID int64, hashes []database.HashOffset, batchSize int) error {
	for _, batch := range database.BatchHashes(hashes, batchSize) {
		if err := s.insertHashBatch(trackID, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertHashBatch(trackID int64, batch []database.HashOffset) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return landmarkerr.NewStoreTransientFault("insert_hashes.begin", err)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO fingerprints (hash, song_id, offset_frames) VALUES ")
	args := make([]any, 0, len(batch)*3)
	for i, h := range batch {
		raw, err := database.EncodeHash(h.Hash)
		if err != nil {
			tx.Rollback()
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 3
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", base+1, base+2, base+3)
		args = append(args, raw, trackID, h.Offset)
	}
	sb.WriteString(" ON CONFLICT (song_id, offset_frames, hash) DO NOTHING")

	if _, err := tx.Exec(sb.String(), args...); err != nil {
		tx.Rollback()
		return landmarkerr.NewStoreTransientFault("insert_hashes", err)
	}
	if err := tx.Commit(); err != nil {
		return landmarkerr.NewStoreTransientFault("insert_hashes.commit", err)
	}
	return nil
}

func (s *Store) GetTrack(id int64) (database.Track, bool, error) {
	row := s.db.QueryRow(
		"SELECT song_id, song_name, file_sha1, fingerprinted, total_hashes, date_created, date_modified FROM songs WHERE song_id = $1",
		id,
	)
	return scanTrack(row)
}

func scanTrack(row *sql.Row) (database.Track, bool, error) {
	var t database.Track
	var sha []byte
	if err := row.Scan(&t.ID, &t.Name, &sha, &t.Fingerprinted, &t.TotalHashes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Track{}, false, nil
		}
		return database.Track{}, false, landmarkerr.NewStoreTransientFault("get_track", err)
	}
	t.ContentSHA1 = database.DecodeHash(sha)
	return t, true, nil
}

func (s *Store) GetTracks() ([]database.Track, error) {
	rows, err := s.db.Query(
		"SELECT song_id, song_name, file_sha1, fingerprinted, total_hashes, date_created, date_modified FROM songs WHERE fingerprinted = TRUE",
	)
	if err != nil {
		return nil, landmarkerr.NewStoreTransientFault("get_tracks", err)
	}
	defer rows.Close()

	var out []database.Track
	for rows.Next() {
		var t database.Track
		var sha []byte
		if err := rows.Scan(&t.ID, &t.Name, &sha, &t.Fingerprinted, &t.TotalHashes, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, landmarkerr.NewStoreTransientFault("get_tracks.scan", err)
		}
		t.ContentSHA1 = database.DecodeHash(sha)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ContentExists(contentSHA1 string) (bool, error) {
	sha, err := database.EncodeHash(contentSHA1)
	if err != nil {
		return false, err
	}
	var count int
	err = s.db.QueryRow("SELECT COUNT(*) FROM songs WHERE file_sha1 = $1", sha).Scan(&count)
	if err != nil {
		return false, landmarkerr.NewStoreTransientFault("content_exists", err)
	}
	return count > 0, nil
}

func (s *Store) DeleteTracks(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	_, err := s.db.Exec(fmt.Sprintf("DELETE FROM songs WHERE song_id IN (%s)", strings.Join(placeholders, ",")), args...)
	if err != nil {
		return landmarkerr.NewStoreTransientFault("delete_tracks", err)
	}
	return nil
}

func (s *Store) DeleteUnfingerprinted() error {
	_, err := s.db.Exec("DELETE FROM songs WHERE fingerprinted = FALSE")
	if err != nil {
		return landmarkerr.NewStoreTransientFault("delete_unfingerprinted", err)
	}
	return nil
}

func (s *Store) ReturnMatches(hashes []string, batchSize int) ([]database.MatchRow, map[int64]int64, error) {
	var rows []database.MatchRow
	counts := make(map[int64]int64)

	for _, batch := range database.BatchHashes(hashes, batchSize) {
		if err := s.queryMatchBatch(batch, &rows, counts); err != nil {
			return nil, nil, err
		}
	}
	return rows, counts, nil
}

func (s *Store) queryMatchBatch(batch []string, rows *[]database.MatchRow, counts map[int64]int64) error {
	if len(batch) == 0 {
		return nil
	}
	placeholders := make([]string, len(batch))
	args := make([]any, len(batch))
	for i, h := range batch {
		raw, err := database.EncodeHash(h)
		if err != nil {
			return err
		}
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = raw
	}

	result, err := s.db.Query(
		fmt.Sprintf("SELECT hash, song_id, offset_frames FROM fingerprints WHERE hash IN (%s)", strings.Join(placeholders, ",")),
		args...,
	)
	if err != nil {
		return landmarkerr.NewStoreTransientFault("return_matches", err)
	}
	defer result.Close()

	for result.Next() {
		var raw []byte
		var m database.MatchRow
		if err := result.Scan(&raw, &m.TrackID, &m.Offset); err != nil {
			return landmarkerr.NewStoreTransientFault("return_matches.scan", err)
		}
		m.Hash = database.DecodeHash(raw)
		*rows = append(*rows, m)
		counts[m.TrackID]++
	}
	return result.Err()
}

func (s *Store) Counts() (database.Counts, error) {
	var c database.Counts
	if err := s.db.QueryRow("SELECT COUNT(*) FROM songs WHERE fingerprinted = TRUE").Scan(&c.Tracks); err != nil {
		return database.Counts{}, landmarkerr.NewStoreTransientFault("counts.tracks", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM fingerprints").Scan(&c.Hashes); err != nil {
		return database.Counts{}, landmarkerr.NewStoreTransientFault("counts.hashes", err)
	}
	return c, nil
}
