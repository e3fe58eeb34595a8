package api

import (
	"path/filepath"
	"testing"

	"github.com/ayusman/overlay3d/internal/dataset"
	"github.com/ayusman/overlay3d/internal/fixture"
	"github.com/ayusman/overlay3d/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// newTestDataset writes three samples: one with a cup and a carton, one
// whose only instance is too small, and one without a mask file.
func newTestDataset(t *testing.T) *dataset.Dataset {
	t.Helper()

	root := t.TempDir()
	fixture.WriteT(t, root, fixture.Sample{Scene: "scene", ID: "0001", Width: 64, Height: 48, Regions: []fixture.Region{
		fixture.Rect(45, 0, 0, 25, 20),
		fixture.Rect(90, 30, 20, 30, 20),
	}})
	fixture.WriteT(t, root, fixture.Sample{Scene: "scene", ID: "0002", Width: 64, Height: 48, Regions: []fixture.Region{
		fixture.Square(50, 0, 0, 10),
	}})
	fixture.WriteT(t, root, fixture.Sample{Scene: "scene", ID: "0003", Width: 64, Height: 48, NoMask: true})

	d, err := dataset.Load(root)
	if err != nil {
		t.Fatalf("failed to load dataset: %v", err)
	}
	return d
}
