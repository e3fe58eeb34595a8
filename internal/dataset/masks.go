package dataset

import (
	"errors"
	"image"

	"github.com/ayusman/overlay3d/internal/imageio"
)

// MinInstanceArea is the pixel count an instance must exceed to be kept.
// Smaller fragments are rendering noise.
const MinInstanceArea = 20 * 20

// ErrNoInstances is returned when no instance survives the area filter.
// A mask set always holds at least one instance.
var ErrNoInstances = errors.New("no instances above minimum area")

// Instance describes one decoded instance.
type Instance struct {
	LabelIndex int `json:"label_index"`
	ClassID    int `json:"class_id"`
	Area       int `json:"area"`
}

// MaskSet is a stack of boolean instance masks with shape (H, W, N).
// The instance axis is the innermost one.
type MaskSet struct {
	Height int
	Width  int

	// Data holds H*W*N values; pixel (y, x) of instance k is at
	// (y*Width+x)*N + k.
	Data []bool

	// ClassIDs has one entry per instance, parallel to the instance axis.
	ClassIDs []int

	Instances []Instance
}

// Count returns the number of instances.
func (m *MaskSet) Count() int {
	return len(m.ClassIDs)
}

// Shape returns (H, W, N).
func (m *MaskSet) Shape() [3]int {
	return [3]int{m.Height, m.Width, m.Count()}
}

// At reports whether pixel (y, x) belongs to instance k.
func (m *MaskSet) At(y, x, k int) bool {
	return m.Data[(y*m.Width+x)*m.Count()+k]
}

// Mask returns the row-major H*W plane of instance k.
func (m *MaskSet) Mask(k int) []bool {
	n := m.Count()
	out := make([]bool, m.Height*m.Width)
	for p := range out {
		out[p] = m.Data[p*n+k]
	}
	return out
}

// Bounds returns the tight bounding box of instance k.
func (m *MaskSet) Bounds(k int) image.Rectangle {
	n := m.Count()
	r := image.Rectangle{Min: image.Pt(m.Width, m.Height)}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.Data[(y*m.Width+x)*n+k] {
				continue
			}
			r.Min.X = min(r.Min.X, x)
			r.Min.Y = min(r.Min.Y, y)
			r.Max.X = max(r.Max.X, x+1)
			r.Max.Y = max(r.Max.Y, y+1)
		}
	}
	if r.Empty() {
		return image.Rectangle{}
	}
	return r
}

// Decoder turns label images into mask sets.
type Decoder struct {
	classes []ClassRange
	minArea int
}

// NewDecoder creates a Decoder over the given class table. Instances must
// have strictly more than minArea pixels to be kept.
func NewDecoder(classes []ClassRange, minArea int) (*Decoder, error) {
	if err := ValidateClasses(classes); err != nil {
		return nil, err
	}
	cp := make([]ClassRange, len(classes))
	copy(cp, classes)
	return &Decoder{classes: cp, minArea: minArea}, nil
}

// DefaultDecoder decodes with DefaultClasses and MinInstanceArea.
func DefaultDecoder() *Decoder {
	d, err := NewDecoder(DefaultClasses, MinInstanceArea)
	if err != nil {
		panic(err)
	}
	return d
}

// Classes returns a copy of the decoder's class table.
func (d *Decoder) Classes() []ClassRange {
	cp := make([]ClassRange, len(d.classes))
	copy(cp, d.classes)
	return cp
}

// Decode extracts one mask per label index in the class ranges whose area
// exceeds the minimum. Instances are ordered by class table order, then by
// ascending label index. Returns ErrNoInstances when nothing survives.
func (d *Decoder) Decode(labels *imageio.Labels) (*MaskSet, error) {
	hi := 0
	for _, c := range d.classes {
		hi = max(hi, c.Hi)
	}

	// One pass to count pixels per label value.
	counts := make([]int, hi)
	for _, v := range labels.Values {
		if int(v) < hi {
			counts[v]++
		}
	}

	// slot[v] is 1 + the instance position of label value v, 0 if dropped.
	slot := make([]int, hi)
	set := &MaskSet{Height: labels.Height, Width: labels.Width}
	for _, c := range d.classes {
		for v := c.Lo; v < c.Hi; v++ {
			if counts[v] <= d.minArea {
				continue
			}
			set.ClassIDs = append(set.ClassIDs, c.ID)
			set.Instances = append(set.Instances, Instance{
				LabelIndex: v,
				ClassID:    c.ID,
				Area:       counts[v],
			})
			slot[v] = len(set.ClassIDs)
		}
	}

	n := set.Count()
	if n == 0 {
		return nil, ErrNoInstances
	}

	set.Data = make([]bool, len(labels.Values)*n)
	for p, v := range labels.Values {
		if int(v) >= hi {
			continue
		}
		if s := slot[v]; s > 0 {
			set.Data[p*n+s-1] = true
		}
	}

	return set, nil
}
