package db

// Migrate creates the schema. Deleting an avatar cascades to its thread,
// files and messages, so one statement removes everything it owns.
func (d *DB) Migrate() error {
	return d.WithLock(func() error {
		// seq keeps insertion order independent of the UUID primary keys
		_, err := d.db.Exec(`
			CREATE TABLE IF NOT EXISTS avatars (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				portrait_ref TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL
			)
		`)
		if err != nil {
			return err
		}

		_, err = d.db.Exec(`
			CREATE TABLE IF NOT EXISTS threads (
				avatar_id TEXT PRIMARY KEY,
				FOREIGN KEY (avatar_id) REFERENCES avatars(id) ON DELETE CASCADE
			)
		`)
		if err != nil {
			return err
		}

		_, err = d.db.Exec(`
			CREATE TABLE IF NOT EXISTS files (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				avatar_id TEXT NOT NULL,
				kind TEXT NOT NULL CHECK(kind IN ('document', 'image')),
				name TEXT NOT NULL,
				mime_type TEXT NOT NULL DEFAULT '',
				size_bytes INTEGER NOT NULL DEFAULT 0,
				content_ref TEXT NOT NULL DEFAULT '',
				uploaded_at DATETIME NOT NULL,
				FOREIGN KEY (avatar_id) REFERENCES avatars(id) ON DELETE CASCADE
			)
		`)
		if err != nil {
			return err
		}

		_, err = d.db.Exec(`
			CREATE TABLE IF NOT EXISTS messages (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				avatar_id TEXT NOT NULL,
				sender TEXT NOT NULL CHECK(sender IN ('user', 'avatar', 'system')),
				content TEXT NOT NULL,
				is_voice INTEGER NOT NULL DEFAULT 0,
				audio_ref TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL,
				FOREIGN KEY (avatar_id) REFERENCES threads(avatar_id) ON DELETE CASCADE
			)
		`)
		if err != nil {
			return err
		}

		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_files_avatar ON files(avatar_id, seq)",
			"CREATE INDEX IF NOT EXISTS idx_messages_avatar ON messages(avatar_id, seq)",
		}

		for _, idx := range indexes {
			if _, err := d.db.Exec(idx); err != nil {
				return err
			}
		}

		return nil
	})
}
