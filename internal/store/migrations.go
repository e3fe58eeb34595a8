package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Datasets table - one row per indexed dataset root
		`CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			sample_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Samples table - enumerated rgb/mask pairs of a dataset
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			name TEXT NOT NULL,
			image_path TEXT NOT NULL,
			mask_path TEXT NOT NULL,
			instance_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL CHECK(status IN ('ok', 'empty', 'failed')),
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(dataset_id, sample_index)
		)`,

		// Instances table - decoded instances of a sample, no pixels
		`CREATE TABLE IF NOT EXISTS instances (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sample_id INTEGER NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
			label_index INTEGER NOT NULL,
			class_id INTEGER NOT NULL,
			area INTEGER NOT NULL,
			min_x INTEGER NOT NULL,
			min_y INTEGER NOT NULL,
			max_x INTEGER NOT NULL,
			max_y INTEGER NOT NULL
		)`,

		// Settings table - key/value pairs such as the active trainer config
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_samples_dataset_id ON samples(dataset_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_sample_id ON instances(sample_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
