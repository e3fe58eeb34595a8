package store

import (
	"database/sql"
	"errors"
	"time"
)

// SampleStatus records the outcome of decoding a sample during indexing.
type SampleStatus string

const (
	// StatusOK means at least one instance survived decoding.
	StatusOK SampleStatus = "ok"
	// StatusEmpty means every instance was below the area threshold.
	StatusEmpty SampleStatus = "empty"
	// StatusFailed means the sample could not be read or decoded.
	StatusFailed SampleStatus = "failed"
)

// Sample is the catalog record of one enumerated sample.
type Sample struct {
	ID            int64        `json:"id"`
	DatasetID     string       `json:"dataset_id"`
	Index         int          `json:"index"`
	Name          string       `json:"name"`
	ImagePath     string       `json:"image_path"`
	MaskPath      string       `json:"mask_path"`
	InstanceCount int          `json:"instance_count"`
	Status        SampleStatus `json:"status"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`

	// Instances are written together with the sample by Create.
	Instances []Instance `json:"instances,omitempty"`
}

// SampleRepository provides operations for dataset samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create inserts samples and their instances for a dataset in a single
// transaction. It also updates the sample count on the dataset.
func (r *SampleRepository) Create(datasetID string, samples []*Sample) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertSamples(tx, datasetID, samples); err != nil {
		return err
	}
	return tx.Commit()
}

// insertSamples writes samples and instances within tx and refreshes the
// dataset's sample count.
func insertSamples(tx *sql.Tx, datasetID string, samples []*Sample) error {
	sampleStmt, err := tx.Prepare(
		`INSERT INTO samples (dataset_id, sample_index, name, image_path, mask_path, instance_count, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer sampleStmt.Close()

	instStmt, err := tx.Prepare(
		`INSERT INTO instances (sample_id, label_index, class_id, area, min_x, min_y, max_x, max_y)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer instStmt.Close()

	now := time.Now()
	for _, s := range samples {
		s.DatasetID = datasetID
		s.InstanceCount = len(s.Instances)
		s.CreatedAt = now

		result, err := sampleStmt.Exec(datasetID, s.Index, s.Name, s.ImagePath, s.MaskPath,
			s.InstanceCount, string(s.Status), s.Error, s.CreatedAt)
		if err != nil {
			return err
		}
		if s.ID, err = result.LastInsertId(); err != nil {
			return err
		}

		for i := range s.Instances {
			inst := &s.Instances[i]
			inst.SampleID = s.ID
			result, err := instStmt.Exec(s.ID, inst.LabelIndex, inst.ClassID, inst.Area,
				inst.MinX, inst.MinY, inst.MaxX, inst.MaxY)
			if err != nil {
				return err
			}
			if inst.ID, err = result.LastInsertId(); err != nil {
				return err
			}
		}
	}

	result, err := tx.Exec(
		`UPDATE datasets SET sample_count = (SELECT COUNT(*) FROM samples WHERE dataset_id = ?), updated_at = ?
		 WHERE id = ?`,
		datasetID, now, datasetID,
	)
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

// ListByDataset retrieves the samples of a dataset in index order.
// Instances are not loaded.
func (r *SampleRepository) ListByDataset(datasetID string) ([]*Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, dataset_id, sample_index, name, image_path, mask_path, instance_count, status, error, created_at
		 FROM samples
		 WHERE dataset_id = ?
		 ORDER BY sample_index`,
		datasetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []*Sample{}
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// GetByIndex retrieves one sample of a dataset by its enumeration index.
func (r *SampleRepository) GetByIndex(datasetID string, index int) (*Sample, error) {
	row := r.db.QueryRow(
		`SELECT id, dataset_id, sample_index, name, image_path, mask_path, instance_count, status, error, created_at
		 FROM samples
		 WHERE dataset_id = ? AND sample_index = ?`,
		datasetID, index,
	)

	s, err := scanSample(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(row scanner) (*Sample, error) {
	s := &Sample{}
	var status string
	err := row.Scan(&s.ID, &s.DatasetID, &s.Index, &s.Name, &s.ImagePath, &s.MaskPath,
		&s.InstanceCount, &status, &s.Error, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = SampleStatus(status)
	return s, nil
}
