// Package config holds the hyperparameters handed to the external
// instance-segmentation trainer.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalid is returned when a Config fails validation.
var ErrInvalid = errors.New("invalid config")

// Default trainer settings.
const (
	DefaultName              = "overlay3d"
	DefaultGPUCount          = 1
	DefaultImagesPerGPU      = 2
	DefaultNumClasses        = 1 + 2 // background + cup + carton
	DefaultImageMinDim       = 480
	DefaultImageMaxDim       = 640
	DefaultTrainROIsPerImage = 64
	DefaultStepsPerEpoch     = 300
	DefaultValidationSteps   = 30
)

// Config is the static hyperparameter record consumed by the trainer.
// It has no behavior beyond defaults and validation.
type Config struct {
	Name string `json:"name"`

	GPUCount     int `json:"gpu_count"`
	ImagesPerGPU int `json:"images_per_gpu"`

	// NumClasses counts foreground classes plus one for background.
	NumClasses int `json:"num_classes"`

	// Resize bounds applied by the trainer, not by the dataset.
	ImageMinDim int `json:"image_min_dim"`
	ImageMaxDim int `json:"image_max_dim"`

	// RPNAnchorScales are anchor side lengths in pixels. Small objects
	// need small anchors.
	RPNAnchorScales []int `json:"rpn_anchor_scales"`

	TrainROIsPerImage int `json:"train_rois_per_image"`

	StepsPerEpoch   int `json:"steps_per_epoch"`
	ValidationSteps int `json:"validation_steps"`
}

// Default returns the Config used when no file is given.
func Default() Config {
	return Config{
		Name:              DefaultName,
		GPUCount:          DefaultGPUCount,
		ImagesPerGPU:      DefaultImagesPerGPU,
		NumClasses:        DefaultNumClasses,
		ImageMinDim:       DefaultImageMinDim,
		ImageMaxDim:       DefaultImageMaxDim,
		RPNAnchorScales:   []int{16, 32, 64, 128, 256},
		TrainROIsPerImage: DefaultTrainROIsPerImage,
		StepsPerEpoch:     DefaultStepsPerEpoch,
		ValidationSteps:   DefaultValidationSteps,
	}
}

// Load reads a JSON file and overlays it on Default. Keys absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// BatchSize is the number of images the trainer processes per step.
func (c Config) BatchSize() int {
	return c.GPUCount * c.ImagesPerGPU
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"gpu_count", c.GPUCount},
		{"images_per_gpu", c.ImagesPerGPU},
		{"image_min_dim", c.ImageMinDim},
		{"image_max_dim", c.ImageMaxDim},
		{"train_rois_per_image", c.TrainROIsPerImage},
		{"steps_per_epoch", c.StepsPerEpoch},
		{"validation_steps", c.ValidationSteps},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalid, p.name, p.value)
		}
	}

	if c.NumClasses < 2 {
		return fmt.Errorf("%w: num_classes must include background and at least one class, got %d", ErrInvalid, c.NumClasses)
	}

	if c.ImageMinDim > c.ImageMaxDim {
		return fmt.Errorf("%w: image_min_dim %d exceeds image_max_dim %d", ErrInvalid, c.ImageMinDim, c.ImageMaxDim)
	}

	if len(c.RPNAnchorScales) == 0 {
		return fmt.Errorf("%w: rpn_anchor_scales is empty", ErrInvalid)
	}
	for i, s := range c.RPNAnchorScales {
		if s <= 0 {
			return fmt.Errorf("%w: rpn_anchor_scales[%d] must be positive, got %d", ErrInvalid, i, s)
		}
		if i > 0 && s <= c.RPNAnchorScales[i-1] {
			return fmt.Errorf("%w: rpn_anchor_scales must be increasing", ErrInvalid)
		}
	}

	return nil
}

// Save writes the config as indented JSON.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
