package store

import (
	"database/sql"
	"image"
)

// Instance is the catalog record of one decoded instance.
type Instance struct {
	ID         int64 `json:"id"`
	SampleID   int64 `json:"sample_id"`
	LabelIndex int   `json:"label_index"`
	ClassID    int   `json:"class_id"`
	Area       int   `json:"area"`
	MinX       int   `json:"min_x"`
	MinY       int   `json:"min_y"`
	MaxX       int   `json:"max_x"`
	MaxY       int   `json:"max_y"`
}

// Bounds returns the bounding box of the instance.
func (i Instance) Bounds() image.Rectangle {
	return image.Rect(i.MinX, i.MinY, i.MaxX, i.MaxY)
}

// SetBounds stores r as the bounding box of the instance.
func (i *Instance) SetBounds(r image.Rectangle) {
	i.MinX, i.MinY, i.MaxX, i.MaxY = r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
}

// ClassCount is the number of instances of one class in a dataset.
type ClassCount struct {
	ClassID   int `json:"class_id"`
	Instances int `json:"instances"`
	TotalArea int `json:"total_area"`
}

// InstanceRepository provides read operations for instances.
type InstanceRepository struct {
	db *sql.DB
}

// Instances returns the instance repository for this store.
func (s *Store) Instances() *InstanceRepository {
	return &InstanceRepository{db: s.db}
}

// ListBySample retrieves the instances of a sample in insertion order.
func (r *InstanceRepository) ListBySample(sampleID int64) ([]Instance, error) {
	rows, err := r.db.Query(
		`SELECT id, sample_id, label_index, class_id, area, min_x, min_y, max_x, max_y
		 FROM instances
		 WHERE sample_id = ?
		 ORDER BY id`,
		sampleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := []Instance{}
	for rows.Next() {
		var i Instance
		if err := rows.Scan(&i.ID, &i.SampleID, &i.LabelIndex, &i.ClassID, &i.Area,
			&i.MinX, &i.MinY, &i.MaxX, &i.MaxY); err != nil {
			return nil, err
		}
		instances = append(instances, i)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return instances, nil
}

// ClassCounts aggregates instances per class across a dataset, ordered by
// class id.
func (r *InstanceRepository) ClassCounts(datasetID string) ([]ClassCount, error) {
	rows, err := r.db.Query(
		`SELECT i.class_id, COUNT(*), SUM(i.area)
		 FROM instances i
		 JOIN samples s ON s.id = i.sample_id
		 WHERE s.dataset_id = ?
		 GROUP BY i.class_id
		 ORDER BY i.class_id`,
		datasetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []ClassCount{}
	for rows.Next() {
		var c ClassCount
		if err := rows.Scan(&c.ClassID, &c.Instances, &c.TotalArea); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
