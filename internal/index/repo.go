package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/tubenotes/internal/apperr"
)

// Record is one row of the records table.
type Record struct {
	VideoID       string
	Path          string
	Title         string
	Checksum      string
	SynthesizedAt time.Time
}

// UpsertRecord inserts or replaces the record for r.VideoID.
func (db *DB) UpsertRecord(r Record) error {
	_, err := db.conn.Exec(`
		INSERT INTO records (video_id, path, title, checksum, synthesized_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			path           = excluded.path,
			title          = excluded.title,
			checksum       = excluded.checksum,
			synthesized_at = excluded.synthesized_at
	`, r.VideoID, r.Path, r.Title, r.Checksum, r.SynthesizedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record for videoID. Deleting an absent record is not an error.
func (db *DB) DeleteRecord(videoID string) error {
	if _, err := db.conn.Exec(`DELETE FROM records WHERE video_id = ?`, videoID); err != nil {
		return fmt.Errorf("index: delete record: %w", err)
	}
	return nil
}

// GetRecord returns the record for videoID or apperr.ErrNotFound.
func (db *DB) GetRecord(videoID string) (*Record, error) {
	var r Record
	err := db.conn.QueryRow(`
		SELECT video_id, path, title, checksum, synthesized_at
		FROM records WHERE video_id = ?`, videoID).
		Scan(&r.VideoID, &r.Path, &r.Title, &r.Checksum, &r.SynthesizedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: record %s: %w", videoID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get record: %w", err)
	}
	return &r, nil
}

// ListRecords returns a page of records ordered by path and the total count.
// A non-positive limit returns every record.
func (db *DB) ListRecords(limit, offset int) ([]Record, int, error) {
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count records: %w", err)
	}
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.conn.Query(`
		SELECT video_id, path, title, checksum, synthesized_at
		FROM records ORDER BY path LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.VideoID, &r.Path, &r.Title, &r.Checksum, &r.SynthesizedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllRecords returns every record keyed by video ID.
func (db *DB) AllRecords() (map[string]Record, error) {
	rows, err := db.conn.Query(`SELECT video_id, path, title, checksum, synthesized_at FROM records`)
	if err != nil {
		return nil, fmt.Errorf("index: all records: %w", err)
	}
	defer rows.Close()
	out := make(map[string]Record)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.VideoID, &r.Path, &r.Title, &r.Checksum, &r.SynthesizedAt); err != nil {
			return nil, err
		}
		out[r.VideoID] = r
	}
	return out, rows.Err()
}
