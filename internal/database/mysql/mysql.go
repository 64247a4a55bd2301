// Package mysql implements database.Store against spec.md §6's reference
// relational schema using github.com/go-sql-driver/mysql, the teacher's
// original store backend.
package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/landmarked/landmarked/internal/config"
	"github.com/landmarked/landmarked/internal/database"
	"github.com/landmarked/landmarked/internal/landmarkerr"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS songs (
	song_id BIGINT AUTO_INCREMENT PRIMARY KEY,
	song_name VARCHAR(512) NOT NULL,
	fingerprinted BOOLEAN NOT NULL DEFAULT FALSE,
	file_sha1 BINARY(20) NOT NULL,
	total_hashes BIGINT NOT NULL DEFAULT 0,
	date_created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	date_modified DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uq_file_sha1 (file_sha1)
);

CREATE TABLE IF NOT EXISTS fingerprints (
	hash BINARY(10) NOT NULL,
	song_id BIGINT NOT NULL,
	offset INT NOT NULL,
	UNIQUE KEY uq_song_offset_hash (song_id, offset, hash),
	KEY idx_hash (hash),
	FOREIGN KEY (song_id) REFERENCES songs(song_id) ON DELETE CASCADE
);
`

// Store is a MySQL-backed database.Store.
type Store struct {
	db *sql.DB
}

// Open connects to MySQL using the given configuration.
func Open(cfg config.Database) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	db, err := sql.Open("mysql", dsn)
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
	res, err := s.db.Exec(
		"INSERT INTO songs (song_name, file_sha1, total_hashes) VALUES (?, ?, ?)",
		name, sha, totalHashes,
	)
	if err != nil {
		return 0, landmarkerr.NewStoreTransientFault("insert_track", err)
	}
	return res.LastInsertId()
}

func (s *Store) SetTrackFingerprinted(trackID int64, totalHashes int64) error {
	_, err := s.db.Exec(
		"UPDATE songs SET fingerprinted = TRUE, total_hashes = ? WHERE song_id = ?",
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
	sb.WriteString("INSERT IGNORE INTO fingerprints (hash, song_id, offset) VALUES ")
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
		sb.WriteString("(?, ?, ?)")
		args = append(args, raw, trackID, h.Offset)
	}

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
		"SELECT song_id, song_name, file_sha1, fingerprinted, total_hashes, date_created, date_modified FROM songs WHERE song_id = ?",
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
	err = s.db.QueryRow("SELECT COUNT(*) FROM songs WHERE file_sha1 = ?", sha).Scan(&count)
	if err != nil {
		return false, landmarkerr.NewStoreTransientFault("content_exists", err)
	}
	return count > 0, nil
}

func (s *Store) DeleteTracks(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.Exec(fmt.Sprintf("DELETE FROM songs WHERE song_id IN (%s)", placeholders), args...)
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
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
	args := make([]any, len(batch))
	for i, h := range batch {
		raw, err := database.EncodeHash(h)
		if err != nil {
			return err
		}
		args[i] = raw
	}

	result, err := s.db.Query(
		fmt.Sprintf("SELECT hash, song_id, offset FROM fingerprints WHERE hash IN (%s)", placeholders),
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
