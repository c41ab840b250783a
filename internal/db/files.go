package db

import (
	"database/sql"

	"avatar-chat/internal/models"
	"avatar-chat/internal/store"
)

const (
	kindDocument = "document"
	kindImage    = "image"
)

type fileSet struct {
	documents []models.FileRef
	images    []models.FileRef
}

// AttachFiles inserts a picked batch. Either every file is stored or none is.
func (d *DB) AttachFiles(avatarID string, files []models.FileDescriptor) (*store.AttachResult, error) {
	documents, images, err := d.opts.NewFileRefs(files)
	if err != nil {
		return nil, err
	}

	return withTx(d, func(tx *sql.Tx) (*store.AttachResult, error) {
		// Checked first so a missing avatar is NotFound, not a foreign key failure
		if _, err := getAvatar(tx, avatarID); err != nil {
			return nil, err
		}

		// Insert in input order so seq reproduces it within each kind
		byID := make(map[string]string, len(documents)+len(images))
		for _, f := range documents {
			byID[f.ID] = kindDocument
		}
		for _, f := range images {
			byID[f.ID] = kindImage
		}
		for _, f := range mergeInputOrder(files, documents, images) {
			_, err := tx.Exec(
				`INSERT INTO files (id, avatar_id, kind, name, mime_type, size_bytes, content_ref, uploaded_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				f.ID, avatarID, byID[f.ID], f.Name, f.MimeType, f.SizeBytes, f.ContentRef, f.UploadedAt,
			)
			if err != nil {
				d.log.Error().Err(err).Str("op", "AttachFiles").Str("avatar_id", avatarID).Msg("insert file failed")
				return nil, err
			}
		}

		updated, err := getAvatar(tx, avatarID)
		if err != nil {
			return nil, err
		}

		d.log.Debug().Str("op", "AttachFiles").Str("avatar_id", avatarID).
			Int("documents", len(documents)).Int("images", len(images)).Msg("completed")

		return &store.AttachResult{
			Documents: documents,
			Images:    images,
			Avatar:    updated,
		}, nil
	})
}

// mergeInputOrder interleaves the two partitions back into the picked order
func mergeInputOrder(files []models.FileDescriptor, documents, images []models.FileRef) []models.FileRef {
	merged := make([]models.FileRef, 0, len(files))
	var di, ii int
	for _, f := range files {
		if models.IsImage(f.MimeType) {
			merged = append(merged, images[ii])
			ii++
		} else {
			merged = append(merged, documents[di])
			di++
		}
	}
	return merged
}

// listFiles loads files matching where, grouped by avatar and split by kind
func listFiles(q queryer, where string, args ...any) (map[string]fileSet, error) {
	rows, err := q.Query(
		`SELECT avatar_id, kind, id, name, mime_type, size_bytes, content_ref, uploaded_at
		FROM files `+where+` ORDER BY seq ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := make(map[string]fileSet)
	for rows.Next() {
		var avatarID, kind string
		var f models.FileRef
		if err := rows.Scan(&avatarID, &kind, &f.ID, &f.Name, &f.MimeType, &f.SizeBytes, &f.ContentRef, &f.UploadedAt); err != nil {
			return nil, err
		}

		set := sets[avatarID]
		if kind == kindImage {
			set.images = append(set.images, f)
		} else {
			set.documents = append(set.documents, f)
		}
		sets[avatarID] = set
	}
	return sets, rows.Err()
}

// normalized replaces nil slices so empty lists encode as [] rather than null
func (s fileSet) normalized() fileSet {
	if s.documents == nil {
		s.documents = []models.FileRef{}
	}
	if s.images == nil {
		s.images = []models.FileRef{}
	}
	return s
}
