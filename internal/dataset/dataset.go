// Package dataset maps a directory of rendered RGB images and label images
// into image and instance-mask samples for a segmentation trainer.
//
// Layout on disk:
//
//	<root>/**/rgb/<id>.png   RGB sample images
//	<root>/**/mask/<id>.png  label images, sibling of the rgb directory
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ayusman/overlay3d/internal/imageio"
)

// Directory names of the on-disk layout.
const (
	RGBDir   = "rgb"
	MaskDir  = "mask"
	ImageExt = ".png"
)

var (
	// ErrRootNotFound is returned when the dataset root does not exist.
	ErrRootNotFound = errors.New("dataset root not found")

	// ErrRootNotDir is returned when the dataset root is not a directory.
	ErrRootNotDir = errors.New("dataset root is not a directory")

	// ErrIndexOutOfRange is returned for a sample index outside the dataset.
	ErrIndexOutOfRange = errors.New("sample index out of range")
)

// Sample is one registered image. Pixels are not loaded at registration.
type Sample struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	ImagePath string `json:"image_path"`
	MaskPath  string `json:"mask_path"`
}

// Provider is the capability set a trainer needs from a dataset plugin.
type Provider interface {
	// Samples returns every sample in stable index order.
	Samples() []Sample

	// Image returns the RGB pixels of the sample at index.
	Image(index int) (*imageio.RGB, error)

	// Masks returns the decoded instance masks of the sample at index.
	Masks(index int) (*MaskSet, error)
}

// Dataset is a Provider backed by a directory scan. The sample table is
// built once by Load and never mutated, so a Dataset is safe for
// concurrent use.
type Dataset struct {
	root    string
	samples []Sample
	byID    map[string]int
	reader  imageio.Reader
	decoder *Decoder
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithReader overrides the image reader.
func WithReader(r imageio.Reader) Option {
	return func(d *Dataset) {
		d.reader = r
	}
}

// WithDecoder overrides the mask decoder.
func WithDecoder(dec *Decoder) Option {
	return func(d *Dataset) {
		d.decoder = dec
	}
}

// Load scans root for rgb/*.png files at any depth and registers one sample
// per file in sorted path order. A relative root is made absolute against
// the working directory.
func Load(root string, opts ...Option) (*Dataset, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}

	paths, err := findImages(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	d := &Dataset{
		root:    root,
		samples: make([]Sample, 0, len(paths)),
		byID:    make(map[string]int, len(paths)),
		reader:  imageio.NewReader(),
		decoder: DefaultDecoder(),
	}
	for _, opt := range opts {
		opt(d)
	}

	for i, p := range paths {
		id := SampleID(p)
		d.samples = append(d.samples, Sample{
			Index:     i,
			ID:        id,
			ImagePath: p,
			MaskPath:  MaskPath(p),
		})
		// Ids can repeat across scenes; the first one wins for lookup.
		if _, ok := d.byID[id]; !ok {
			d.byID[id] = i
		}
	}

	return d, nil
}

// findImages returns every <dir>/rgb/*.png under root, sorted.
func findImages(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) != RGBDir {
			return nil
		}
		if ok, _ := filepath.Match("*"+ImageExt, entry.Name()); !ok {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(paths, comparePaths)
	return paths, nil
}

// comparePaths orders paths component by component, so "a/b" sorts before
// "a-c" even though '/' > '-'.
func comparePaths(a, b string) int {
	return slices.Compare(
		strings.Split(filepath.ToSlash(a), "/"),
		strings.Split(filepath.ToSlash(b), "/"),
	)
}

// SampleID derives the sample id from an image path: the file name without
// its extension.
func SampleID(imagePath string) string {
	name := filepath.Base(imagePath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// MaskPath derives the label image path for an RGB image path:
// <dir>/rgb/<id>.png maps to <dir>/mask/<id>.png.
func MaskPath(imagePath string) string {
	scene := filepath.Dir(filepath.Dir(imagePath))
	return filepath.Join(scene, MaskDir, SampleID(imagePath)+ImageExt)
}

// Root returns the directory the dataset was loaded from.
func (d *Dataset) Root() string {
	return d.root
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.samples)
}

// Samples returns a copy of the sample table.
func (d *Dataset) Samples() []Sample {
	return slices.Clone(d.samples)
}

// Sample returns the sample at index.
func (d *Dataset) Sample(index int) (Sample, error) {
	if index < 0 || index >= len(d.samples) {
		return Sample{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(d.samples))
	}
	return d.samples[index], nil
}

// Lookup returns the index of the sample with the given id.
func (d *Dataset) Lookup(id string) (int, bool) {
	i, ok := d.byID[id]
	return i, ok
}

// Reference returns a human-readable reference for the sample at index.
func (d *Dataset) Reference(index int) (string, error) {
	s, err := d.Sample(index)
	if err != nil {
		return "", err
	}
	return s.ImagePath, nil
}

// Classes returns the class table used for mask decoding.
func (d *Dataset) Classes() []ClassRange {
	return d.decoder.Classes()
}

// Image loads the RGB pixels of the sample at index.
func (d *Dataset) Image(index int) (*imageio.RGB, error) {
	s, err := d.Sample(index)
	if err != nil {
		return nil, err
	}

	im, err := d.reader.ReadRGB(s.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", s.ID, err)
	}
	return im, nil
}

// Masks loads and decodes the label image of the sample at index.
// Returns an error wrapping ErrNoInstances when every instance is below
// the area threshold.
func (d *Dataset) Masks(index int) (*MaskSet, error) {
	s, err := d.Sample(index)
	if err != nil {
		return nil, err
	}

	labels, err := d.reader.ReadLabels(s.MaskPath)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", s.ID, err)
	}

	set, err := d.decoder.Decode(labels)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", s.ID, err)
	}
	return set, nil
}
