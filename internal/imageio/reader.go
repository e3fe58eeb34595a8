// Package imageio decodes sample images and label images from disk.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"gocv.io/x/gocv"
)

var (
	// ErrDecode is returned when a file exists but cannot be decoded.
	ErrDecode = errors.New("failed to decode image")

	// ErrUnsupportedLabels is returned when a label image is not single channel.
	ErrUnsupportedLabels = errors.New("unsupported label image format")
)

// RGB is an 8-bit image in row-major (H, W, 3) order with channels R, G, B.
type RGB struct {
	Width  int
	Height int
	Pix    []uint8
}

// At returns the channels of the pixel at column x, row y.
func (im *RGB) At(x, y int) (r, g, b uint8) {
	i := (y*im.Width + x) * 3
	return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
}

// ToImage copies the pixels into an opaque *image.RGBA.
func (im *RGB) ToImage() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	for p := 0; p < im.Width*im.Height; p++ {
		copy(out.Pix[p*4:p*4+3], im.Pix[p*3:p*3+3])
		out.Pix[p*4+3] = 0xff
	}
	return out
}

// Labels is a single-channel label image. Each value is an instance index.
type Labels struct {
	Width  int
	Height int
	Values []uint16
}

// At returns the label value at column x, row y.
func (l *Labels) At(x, y int) uint16 {
	return l.Values[y*l.Width+x]
}

// Reader loads images from paths. Implementations must be safe for
// concurrent use.
type Reader interface {
	// ReadRGB loads a color image converted to RGB channel order.
	ReadRGB(path string) (*RGB, error)

	// ReadLabels loads a single-channel label image.
	ReadLabels(path string) (*Labels, error)
}

// gocvReader reads color images through OpenCV and label images through
// image/png, which keeps palette indices intact.
type gocvReader struct{}

// NewReader returns the default file-backed Reader.
func NewReader() Reader {
	return gocvReader{}
}

// ReadRGB decodes the file as 8-bit BGR and converts it to RGB.
func (gocvReader) ReadRGB(path string) (*RGB, error) {
	// IMRead reports a missing file as an empty Mat, so check first to
	// surface the OS error.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrDecode, path)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)

	return &RGB{
		Width:  rgb.Cols(),
		Height: rgb.Rows(),
		Pix:    rgb.ToBytes(),
	}, nil
}

// ReadLabels decodes a PNG label image.
func (gocvReader) ReadLabels(path string) (*Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	labels, err := LabelsFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}

// LabelsFromImage extracts label values from a grayscale or paletted image.
// For paletted images the palette index is the label value.
func LabelsFromImage(img image.Image) (*Labels, error) {
	b := img.Bounds()
	l := &Labels{
		Width:  b.Dx(),
		Height: b.Dy(),
		Values: make([]uint16, b.Dx()*b.Dy()),
	}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < l.Height; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < l.Width; x++ {
				l.Values[y*l.Width+x] = uint16(row[x])
			}
		}
	case *image.Gray16:
		for y := 0; y < l.Height; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < l.Width; x++ {
				l.Values[y*l.Width+x] = uint16(row[2*x])<<8 | uint16(row[2*x+1])
			}
		}
	case *image.Paletted:
		for y := 0; y < l.Height; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < l.Width; x++ {
				l.Values[y*l.Width+x] = uint16(row[x])
			}
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedLabels, img)
	}

	return l, nil
}
