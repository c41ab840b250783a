package db

import (
	"database/sql"
	"errors"

	"avatar-chat/internal/domain"
	"avatar-chat/internal/models"
)

// AppendMessage adds msg to the end of the avatar's thread and returns the thread
func (d *DB) AppendMessage(avatarID string, msg models.Message) ([]models.Message, error) {
	msg, err := d.opts.NewMessage(msg)
	if err != nil {
		return nil, err
	}

	return withTx(d, func(tx *sql.Tx) ([]models.Message, error) {
		if err := threadExists(tx, avatarID); err != nil {
			return nil, err
		}

		_, err := tx.Exec(
			`INSERT INTO messages (id, avatar_id, sender, content, is_voice, audio_ref, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, avatarID, string(msg.Sender), msg.Content, msg.IsVoice, msg.AudioRef, msg.Timestamp,
		)
		if err != nil {
			d.log.Error().Err(err).Str("op", "AppendMessage").Str("avatar_id", avatarID).Msg("insert failed")
			return nil, err
		}

		thread, err := listMessages(tx, avatarID)
		if err != nil {
			return nil, err
		}

		d.log.Debug().Str("op", "AppendMessage").Str("avatar_id", avatarID).
			Str("message_id", msg.ID).Str("sender", string(msg.Sender)).Int("length", len(thread)).Msg("completed")
		return thread, nil
	})
}

// GetThread retrieves the avatar's messages in insertion order
func (d *DB) GetThread(avatarID string) ([]models.Message, error) {
	return WithLockResult(d, func() ([]models.Message, error) {
		if err := threadExists(d.db, avatarID); err != nil {
			return nil, err
		}
		return listMessages(d.db, avatarID)
	})
}

func threadExists(q queryer, avatarID string) error {
	var id string
	err := q.QueryRow(`SELECT avatar_id FROM threads WHERE avatar_id = ?`, avatarID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AvatarNotFound(avatarID)
	}
	return err
}

func listMessages(q queryer, avatarID string) ([]models.Message, error) {
	rows, err := q.Query(
		`SELECT id, sender, content, is_voice, audio_ref, created_at
		FROM messages WHERE avatar_id = ? ORDER BY seq ASC`,
		avatarID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		var sender string
		if err := rows.Scan(&msg.ID, &sender, &msg.Content, &msg.IsVoice, &msg.AudioRef, &msg.Timestamp); err != nil {
			return nil, err
		}
		msg.Sender = models.SenderType(sender)
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
