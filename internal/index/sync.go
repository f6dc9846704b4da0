package index

import (
	"log/slog"

	"github.com/starford/tubenotes/internal/parser"
	"github.com/starford/tubenotes/internal/storage"
)

// Change kinds reported by Sync.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Change describes one ledger mutation made by Sync.
type Change struct {
	Kind    string
	VideoID string
	Path    string
}

type candidate struct {
	path     string
	title    string
	checksum string
	info     storage.FileInfo
}

// Sync walks the notes directory and brings the ledger up to date:
//   - notes whose frontmatter carries an id are recorded under that id
//   - records whose file is gone are removed
//
// Files without an id (index notes, user notes) are ignored. When two files
// claim the same id the one already on record wins, otherwise the first in
// path order.
func Sync(db Ledger, store storage.Provider, logger *slog.Logger) ([]Change, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, err
	}
	records, err := db.AllRecords()
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]Record, len(records))
	for _, r := range records {
		byPath[r.Path] = r
	}

	found := make(map[string][]candidate)
	var order []string
	for _, m := range metas {
		var c candidate
		var id string
		if r, ok := byPath[m.Path]; ok && r.Checksum == m.Checksum {
			id, c = r.VideoID, candidate{path: m.Path, title: r.Title, checksum: m.Checksum, info: m}
		} else {
			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			res, err := parser.Parse(data)
			if err != nil || res.ID == "" {
				continue
			}
			id, c = res.ID, candidate{path: m.Path, title: res.Title, checksum: m.Checksum, info: m}
		}
		if _, seen := found[id]; !seen {
			order = append(order, id)
		}
		found[id] = append(found[id], c)
	}

	var changes []Change
	for _, id := range order {
		cands := found[id]
		chosen := cands[0]
		prev, had := records[id]
		if had {
			for _, c := range cands {
				if c.path == prev.Path {
					chosen = c
					break
				}
			}
		}
		if len(cands) > 1 {
			logger.Warn("sync: duplicate note id", slog.String("id", id), slog.String("kept", chosen.path))
		}
		if had && prev.Path == chosen.path && prev.Checksum == chosen.checksum {
			continue
		}

		rec := Record{
			VideoID:       id,
			Path:          chosen.path,
			Title:         chosen.title,
			Checksum:      chosen.checksum,
			SynthesizedAt: chosen.info.UpdatedAt,
		}
		if err := db.UpsertRecord(rec); err != nil {
			logger.Warn("sync: upsert failed", slog.String("path", chosen.path), slog.String("error", err.Error()))
			continue
		}
		kind := ChangeUpdated
		if !had {
			kind = ChangeCreated
		}
		logger.Debug("sync: recorded", slog.String("id", id), slog.String("path", chosen.path), slog.String("op", kind))
		changes = append(changes, Change{Kind: kind, VideoID: id, Path: chosen.path})
	}

	for id, r := range records {
		if _, ok := found[id]; ok {
			continue
		}
		if err := db.DeleteRecord(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("id", id), slog.String("path", r.Path))
		changes = append(changes, Change{Kind: ChangeDeleted, VideoID: id, Path: r.Path})
	}

	return changes, nil
}
