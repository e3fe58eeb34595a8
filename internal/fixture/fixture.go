// Package fixture writes small synthetic overlay3d datasets for tests.
package fixture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/overlay3d/internal/imageio"
)

// Region fills a rectangle of the label image with one value.
type Region struct {
	Value uint8
	Rect  image.Rectangle
}

// Rect returns a w x h region with its top-left corner at (x, y).
func Rect(value uint8, x, y, w, h int) Region {
	return Region{Value: value, Rect: image.Rect(x, y, x+w, y+h)}
}

// Square returns a side x side region with its top-left corner at (x, y).
func Square(value uint8, x, y, side int) Region {
	return Region{Value: value, Rect: image.Rect(x, y, x+side, y+side)}
}

// Sample describes one rgb/mask pair.
type Sample struct {
	Scene   string // directory under the root holding rgb/ and mask/
	ID      string
	Width   int
	Height  int
	Regions []Region

	// Paletted writes the label image as a paletted PNG instead of gray.
	Paletted bool

	// NoMask skips writing the label image.
	NoMask bool
}

// Background is the RGB color outside every region.
var Background = color.RGBA{R: 200, G: 100, B: 50, A: 255}

// RegionColor is the RGB color painted for a label value. Channels differ
// so a swapped channel order is detectable.
func RegionColor(value uint8) color.RGBA {
	return color.RGBA{R: value, G: 255 - value, B: 10, A: 255}
}

// Labels renders the label image of s in memory.
func Labels(s Sample) *imageio.Labels {
	l := &imageio.Labels{
		Width:  s.Width,
		Height: s.Height,
		Values: make([]uint16, s.Width*s.Height),
	}
	for _, r := range s.Regions {
		rect := r.Rect.Intersect(image.Rect(0, 0, s.Width, s.Height))
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				l.Values[y*s.Width+x] = uint16(r.Value)
			}
		}
	}
	return l
}

// RGB renders the color image of s in memory.
func RGB(s Sample) *imageio.RGB {
	labels := Labels(s)
	im := &imageio.RGB{Width: s.Width, Height: s.Height, Pix: make([]uint8, s.Width*s.Height*3)}
	for p, v := range labels.Values {
		c := Background
		if v != 0 {
			c = RegionColor(uint8(v))
		}
		im.Pix[p*3], im.Pix[p*3+1], im.Pix[p*3+2] = c.R, c.G, c.B
	}
	return im
}

// Paths returns where s is written under root.
func Paths(root string, s Sample) (imagePath, maskPath string) {
	dir := filepath.Join(root, s.Scene)
	return filepath.Join(dir, "rgb", s.ID+".png"), filepath.Join(dir, "mask", s.ID+".png")
}

// Write writes the rgb and mask PNGs of s under root.
func Write(root string, s Sample) (imagePath, maskPath string, err error) {
	imagePath, maskPath = Paths(root, s)

	if err := os.MkdirAll(filepath.Dir(imagePath), 0755); err != nil {
		return "", "", err
	}
	if err := writePNG(imagePath, RGB(s).ToImage()); err != nil {
		return "", "", err
	}

	if s.NoMask {
		return imagePath, maskPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(maskPath), 0755); err != nil {
		return "", "", err
	}
	if err := writePNG(maskPath, labelImage(s)); err != nil {
		return "", "", err
	}

	return imagePath, maskPath, nil
}

// WriteT is Write for tests; it fails the test on error.
func WriteT(t testing.TB, root string, s Sample) (imagePath, maskPath string) {
	t.Helper()

	imagePath, maskPath, err := Write(root, s)
	if err != nil {
		t.Fatalf("failed to write fixture %s/%s: %v", s.Scene, s.ID, err)
	}
	return imagePath, maskPath
}

func labelImage(s Sample) image.Image {
	labels := Labels(s)
	rect := image.Rect(0, 0, s.Width, s.Height)

	if s.Paletted {
		palette := make(color.Palette, 256)
		for i := range palette {
			// Colors unrelated to the index, as in real label renders.
			palette[i] = color.RGBA{R: uint8(i * 37), G: uint8(i * 91), B: uint8(255 - i), A: 255}
		}
		img := image.NewPaletted(rect, palette)
		for p, v := range labels.Values {
			img.Pix[p] = uint8(v)
		}
		return img
	}

	img := image.NewGray(rect)
	for p, v := range labels.Values {
		img.Pix[p] = uint8(v)
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
