// Package app wires the overlay3d dataset, trainer config, catalog store and
// HTTP server together.
package app

import (
	"errors"
	"fmt"
	"log"
	"runtime"

	"github.com/ayusman/overlay3d/internal/config"
	"github.com/ayusman/overlay3d/internal/dataset"
	"github.com/ayusman/overlay3d/internal/imageio"
	"github.com/ayusman/overlay3d/internal/server"
	"github.com/ayusman/overlay3d/internal/store"
)

// ErrNoStore is returned by operations that need a catalog store when none
// was configured.
var ErrNoStore = errors.New("no catalog store configured")

// TrainerConfigKey is the settings key the active trainer config is saved
// under when a dataset is indexed.
const TrainerConfigKey = "trainer_config"

// Config holds configuration options for the application.
type Config struct {
	// DatasetRoot is the directory scanned for rgb/*.png samples.
	DatasetRoot string

	// ConfigPath is an optional JSON trainer config overlaid on the defaults.
	ConfigPath string

	// Store is optional; indexing requires it.
	Store *store.Store

	// Classes defaults to dataset.DefaultClasses.
	Classes []dataset.ClassRange

	// MinArea defaults to dataset.MinInstanceArea.
	MinArea int

	// Workers bounds concurrent decoding during indexing. Defaults to
	// the number of CPUs.
	Workers int

	// Reader overrides the image reader, for tests.
	Reader imageio.Reader
}

// App is the loaded dataset together with its trainer configuration.
type App struct {
	config  Config
	trainer config.Config
	dataset *dataset.Dataset
}

// New loads the trainer config and enumerates the dataset. The trainer's
// class count must equal the class table size plus background.
func New(cfg Config) (*App, error) {
	if len(cfg.Classes) == 0 {
		cfg.Classes = dataset.DefaultClasses
	}
	if cfg.MinArea <= 0 {
		cfg.MinArea = dataset.MinInstanceArea
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	trainer := config.Default()
	if cfg.ConfigPath != "" {
		var err error
		if trainer, err = config.Load(cfg.ConfigPath); err != nil {
			return nil, err
		}
	}
	if trainer.NumClasses != len(cfg.Classes)+1 {
		return nil, fmt.Errorf("%w: num_classes is %d but the class table has %d classes plus background",
			config.ErrInvalid, trainer.NumClasses, len(cfg.Classes))
	}

	dec, err := dataset.NewDecoder(cfg.Classes, cfg.MinArea)
	if err != nil {
		return nil, err
	}

	opts := []dataset.Option{dataset.WithDecoder(dec)}
	if cfg.Reader != nil {
		opts = append(opts, dataset.WithReader(cfg.Reader))
	}

	ds, err := dataset.Load(cfg.DatasetRoot, opts...)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d samples from %s", ds.Len(), cfg.DatasetRoot)

	return &App{
		config:  cfg,
		trainer: trainer,
		dataset: ds,
	}, nil
}

// Dataset returns the loaded dataset.
func (a *App) Dataset() *dataset.Dataset {
	return a.dataset
}

// Trainer returns the trainer configuration.
func (a *App) Trainer() config.Config {
	return a.trainer
}

// Store returns the catalog store, nil when none is configured.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Stats decodes every sample once and aggregates per-class statistics.
func (a *App) Stats() *dataset.Summary {
	return dataset.Summarize(a.dataset, a.dataset.Classes())
}

// Server returns an HTTP server over the app's dataset, trainer config and
// store.
func (a *App) Server(staticDir string) *server.Server {
	trainer := a.trainer
	return server.New(server.Config{
		StaticDir: staticDir,
		Store:     a.config.Store,
		Dataset:   a.dataset,
		Trainer:   &trainer,
	})
}
