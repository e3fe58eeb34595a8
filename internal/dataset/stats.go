package dataset

import (
	"errors"
	"math"
)

// ClassStats aggregates the instances of one class across a dataset.
type ClassStats struct {
	ClassID   int    `json:"class_id"`
	Name      string `json:"name"`
	Instances int    `json:"instances"`
	TotalArea int    `json:"total_area"`
	MinArea   int    `json:"min_area"`
	MaxArea   int    `json:"max_area"`
}

// MeanArea returns the average instance area, 0 when there are none.
func (c ClassStats) MeanArea() float64 {
	if c.Instances == 0 {
		return 0
	}
	return float64(c.TotalArea) / float64(c.Instances)
}

// Summary is the result of decoding every sample of a dataset once.
type Summary struct {
	Samples int `json:"samples"`
	Decoded int `json:"decoded"`

	// Empty lists the image paths of samples whose instances were all below
	// the area filter.
	Empty []string `json:"empty"`

	// Failed maps image paths to the error that stopped their decoding.
	Failed map[string]string `json:"failed"`

	Classes []ClassStats `json:"classes"`
}

// Summarize decodes the masks of every sample and aggregates instance
// counts and areas per class. A failing sample is recorded and skipped.
func Summarize(p Provider, classes []ClassRange) *Summary {
	samples := p.Samples()
	s := &Summary{
		Samples: len(samples),
		Empty:   []string{},
		Failed:  make(map[string]string),
		Classes: make([]ClassStats, len(classes)),
	}

	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		s.Classes[i] = ClassStats{ClassID: c.ID, Name: c.Name, MinArea: math.MaxInt}
		pos[c.ID] = i
	}

	for _, sample := range samples {
		set, err := p.Masks(sample.Index)
		if err != nil {
			if errors.Is(err, ErrNoInstances) {
				s.Empty = append(s.Empty, sample.ImagePath)
			} else {
				s.Failed[sample.ImagePath] = err.Error()
			}
			continue
		}

		s.Decoded++
		for _, inst := range set.Instances {
			i, ok := pos[inst.ClassID]
			if !ok {
				continue
			}
			c := &s.Classes[i]
			c.Instances++
			c.TotalArea += inst.Area
			c.MinArea = min(c.MinArea, inst.Area)
			c.MaxArea = max(c.MaxArea, inst.Area)
		}
	}

	for i := range s.Classes {
		if s.Classes[i].Instances == 0 {
			s.Classes[i].MinArea = 0
		}
	}

	return s
}
