package db

import (
	"database/sql"
	"errors"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
	"avatar-chat/internal/store"
)

const avatarColumns = `id, name, description, portrait_ref, created_at`

// CreateAvatar inserts a new avatar and its empty thread in one transaction
func (d *DB) CreateAvatar(name, description, portraitRef string) (*models.Avatar, error) {
	avatar, err := d.opts.NewAvatar(name, description, portraitRef)
	if err != nil {
		d.log.Debug().Err(err).Str("op", "CreateAvatar").Msg("rejected")
		return nil, err
	}

	return withTx(d, func(tx *sql.Tx) (*models.Avatar, error) {
		_, err := tx.Exec(
			`INSERT INTO avatars (id, name, description, portrait_ref, created_at) VALUES (?, ?, ?, ?, ?)`,
			avatar.ID, avatar.Name, avatar.Description, avatar.PortraitRef, avatar.CreatedAt,
		)
		if err != nil {
			d.log.Error().Err(err).Str("op", "CreateAvatar").Msg("insert avatar failed")
			return nil, err
		}

		if _, err := tx.Exec(`INSERT INTO threads (avatar_id) VALUES (?)`, avatar.ID); err != nil {
			d.log.Error().Err(err).Str("op", "CreateAvatar").Msg("insert thread failed")
			return nil, err
		}

		d.log.Debug().Str("op", "CreateAvatar").Str("avatar_id", avatar.ID).Str("name", avatar.Name).Msg("completed")
		return &avatar, nil
	})
}

// GetAvatar retrieves an avatar by ID together with its files
func (d *DB) GetAvatar(id string) (*models.Avatar, error) {
	return WithLockResult(d, func() (*models.Avatar, error) {
		return getAvatar(d.db, id)
	})
}

func getAvatar(q queryer, id string) (*models.Avatar, error) {
	row := q.QueryRow(`SELECT `+avatarColumns+` FROM avatars WHERE id = ?`, id)

	var avatar models.Avatar
	err := row.Scan(&avatar.ID, &avatar.Name, &avatar.Description, &avatar.PortraitRef, &avatar.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.AvatarNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	files, err := listFiles(q, `WHERE avatar_id = ?`, id)
	if err != nil {
		return nil, err
	}
	set := files[id].normalized()
	avatar.Documents, avatar.Images = set.documents, set.images
	return &avatar, nil
}

// ListAvatars retrieves all avatars in creation order
func (d *DB) ListAvatars() ([]models.Avatar, error) {
	return WithLockResult(d, func() ([]models.Avatar, error) {
		rows, err := d.db.Query(`SELECT ` + avatarColumns + ` FROM avatars ORDER BY seq ASC`)
		if err != nil {
			return nil, err
		}

		avatars := []models.Avatar{}
		for rows.Next() {
			var avatar models.Avatar
			if err := rows.Scan(&avatar.ID, &avatar.Name, &avatar.Description, &avatar.PortraitRef, &avatar.CreatedAt); err != nil {
				rows.Close()
				return nil, err
			}
			avatars = append(avatars, avatar)
		}
		// The pool has one connection; rows must be released before the next query
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		files, err := listFiles(d.db, ``)
		if err != nil {
			return nil, err
		}
		for i := range avatars {
			set := files[avatars[i].ID].normalized()
			avatars[i].Documents, avatars[i].Images = set.documents, set.images
		}

		return avatars, nil
	})
}

// DeleteAvatar deletes an avatar by ID. The schema cascades to its thread,
// messages and files. Unknown IDs are a no-op.
func (d *DB) DeleteAvatar(id string) error {
	_, err := withTx(d, func(tx *sql.Tx) (int64, error) {
		result, err := tx.Exec(`DELETE FROM avatars WHERE id = ?`, id)
		if err != nil {
			d.log.Error().Err(err).Str("op", "DeleteAvatar").Str("avatar_id", id).Msg("delete failed")
			return 0, err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}

		if rows == 0 {
			d.log.Debug().Str("op", "DeleteAvatar").Str("avatar_id", id).Msg("no such avatar, nothing to delete")
		} else {
			d.log.Debug().Str("op", "DeleteAvatar").Str("avatar_id", id).Msg("completed")
		}
		return rows, nil
	})
	return err
}

// Stats counts avatars and threads
func (d *DB) Stats() (store.Stats, error) {
	return WithLockResult(d, func() (store.Stats, error) {
		var stats store.Stats
		err := d.db.QueryRow(
			`SELECT (SELECT COUNT(*) FROM avatars), (SELECT COUNT(*) FROM threads)`,
		).Scan(&stats.Avatars, &stats.Threads)
		return stats, err
	})
}
