package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Dataset is an indexed dataset root.
type Dataset struct {
	ID          string    `json:"id"`
	Root        string    `json:"root"`
	Source      string    `json:"source"`
	SampleCount int       `json:"sample_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DatasetRepository provides CRUD operations for datasets.
type DatasetRepository struct {
	db *sql.DB
}

// Datasets returns the dataset repository for this store.
func (s *Store) Datasets() *DatasetRepository {
	return &DatasetRepository{db: s.db}
}

// Create inserts a new dataset. An empty ID is replaced by a random UUID.
func (r *DatasetRepository) Create(d *Dataset) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO datasets (id, root, source, sample_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Root, d.Source, d.SampleCount, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

// GetByID retrieves a dataset by its ID.
func (r *DatasetRepository) GetByID(id string) (*Dataset, error) {
	return r.get(`WHERE id = ?`, id)
}

// GetByRoot retrieves a dataset by its root directory.
func (r *DatasetRepository) GetByRoot(root string) (*Dataset, error) {
	return r.get(`WHERE root = ?`, root)
}

func (r *DatasetRepository) get(where string, arg any) (*Dataset, error) {
	d := &Dataset{}
	err := r.db.QueryRow(
		`SELECT id, root, source, sample_count, created_at, updated_at
		 FROM datasets `+where,
		arg,
	).Scan(&d.ID, &d.Root, &d.Source, &d.SampleCount, &d.CreatedAt, &d.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List retrieves all datasets, most recently created first.
func (r *DatasetRepository) List() ([]*Dataset, error) {
	rows, err := r.db.Query(
		`SELECT id, root, source, sample_count, created_at, updated_at
		 FROM datasets ORDER BY created_at DESC, root`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	datasets := []*Dataset{}
	for rows.Next() {
		d := &Dataset{}
		if err := rows.Scan(&d.ID, &d.Root, &d.Source, &d.SampleCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return datasets, nil
}

// Delete removes a dataset and, by cascade, its samples and instances.
func (r *DatasetRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Replace records d with its samples, removing any earlier dataset of the
// same root, all in one transaction. It returns the ID of the removed
// dataset, or "" when there was none. On error the catalog is unchanged.
func (r *DatasetRepository) Replace(d *Dataset, samples []*Sample) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var replaced string
	err = tx.QueryRow(`SELECT id FROM datasets WHERE root = ?`, d.Root).Scan(&replaced)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return "", err
	default:
		if _, err := tx.Exec(`DELETE FROM datasets WHERE id = ?`, replaced); err != nil {
			return "", err
		}
	}

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err = tx.Exec(
		`INSERT INTO datasets (id, root, source, sample_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Root, d.Source, 0, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return "", err
	}

	if err := insertSamples(tx, d.ID, samples); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	d.SampleCount = len(samples)
	return replaced, nil
}
