package imageio

import (
	"fmt"
	"os"
	"sync"
)

// MockReader serves in-memory images keyed by path, for tests.
type MockReader struct {
	mu     sync.Mutex
	rgb    map[string]*RGB
	labels map[string]*Labels
	reads  map[string]int
}

// NewMockReader creates an empty MockReader.
func NewMockReader() *MockReader {
	return &MockReader{
		rgb:    make(map[string]*RGB),
		labels: make(map[string]*Labels),
		reads:  make(map[string]int),
	}
}

// SetRGB registers the image returned for path.
func (m *MockReader) SetRGB(path string, im *RGB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rgb[path] = im
}

// SetLabels registers the label image returned for path.
func (m *MockReader) SetLabels(path string, l *Labels) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[path] = l
}

// Reads returns how many times path has been read.
func (m *MockReader) Reads(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[path]
}

// ReadRGB returns a copy of the registered image.
func (m *MockReader) ReadRGB(path string) (*RGB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads[path]++
	im, ok := m.rgb[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}

	pix := make([]uint8, len(im.Pix))
	copy(pix, im.Pix)
	return &RGB{Width: im.Width, Height: im.Height, Pix: pix}, nil
}

// ReadLabels returns a copy of the registered label image.
func (m *MockReader) ReadLabels(path string) (*Labels, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads[path]++
	l, ok := m.labels[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}

	values := make([]uint16, len(l.Values))
	copy(values, l.Values)
	return &Labels{Width: l.Width, Height: l.Height, Values: values}, nil
}
