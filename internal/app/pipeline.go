package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/overlay3d/internal/dataset"
	"github.com/ayusman/overlay3d/internal/store"
)

// Index decodes every sample and records the dataset, its samples and their
// instances in the catalog, replacing any earlier index of the same root.
// A sample that fails to decode is recorded with its status and does not
// stop indexing. The trainer config is saved alongside.
func (a *App) Index(ctx context.Context) (*store.Dataset, error) {
	s := a.config.Store
	if s == nil {
		return nil, ErrNoStore
	}

	records, err := a.decodeAll(ctx)
	if err != nil {
		return nil, err
	}

	root := a.dataset.Root()
	d := &store.Dataset{Root: root, Source: dataset.Source}
	replaced, err := s.Datasets().Replace(d, records)
	if err != nil {
		return nil, fmt.Errorf("failed to record index of %s: %w", root, err)
	}
	if replaced != "" {
		log.Printf("Replaced previous index %s of %s", replaced, root)
	}

	trainer, err := json.Marshal(a.trainer)
	if err != nil {
		return nil, err
	}
	if err := s.Settings().Set(TrainerConfigKey, string(trainer)); err != nil {
		return nil, fmt.Errorf("failed to save trainer config: %w", err)
	}

	counts := make(map[store.SampleStatus]int)
	for _, r := range records {
		counts[r.Status]++
	}
	log.Printf("Indexed %s as %s: %d ok, %d empty, %d failed",
		root, d.ID, counts[store.StatusOK], counts[store.StatusEmpty], counts[store.StatusFailed])

	return d, nil
}

// decodeAll decodes samples on a bounded pool of workers and returns one
// record per sample in index order.
func (a *App) decodeAll(ctx context.Context) ([]*store.Sample, error) {
	samples := a.dataset.Samples()
	records := make([]*store.Sample, len(samples))

	jobs := make(chan dataset.Sample)
	var wg sync.WaitGroup
	for w := 0; w < min(a.config.Workers, max(len(samples), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				records[s.Index] = a.decodeSample(s)
			}
		}()
	}

	var err error
feed:
	for _, s := range samples {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- s:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return records, nil
}

// decodeSample decodes one sample into its catalog record.
func (a *App) decodeSample(s dataset.Sample) *store.Sample {
	rec := &store.Sample{
		Index:     s.Index,
		Name:      s.ID,
		ImagePath: s.ImagePath,
		MaskPath:  s.MaskPath,
		Status:    store.StatusOK,
	}

	set, err := a.dataset.Masks(s.Index)
	switch {
	case errors.Is(err, dataset.ErrNoInstances):
		rec.Status = store.StatusEmpty
		return rec
	case err != nil:
		log.Printf("Failed to decode sample %s: %v", s.ID, err)
		rec.Status = store.StatusFailed
		rec.Error = err.Error()
		return rec
	}

	rec.Instances = make([]store.Instance, 0, set.Count())
	for k, inst := range set.Instances {
		r := store.Instance{
			LabelIndex: inst.LabelIndex,
			ClassID:    inst.ClassID,
			Area:       inst.Area,
		}
		r.SetBounds(set.Bounds(k))
		rec.Instances = append(rec.Instances, r)
	}
	return rec
}
