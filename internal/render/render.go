// Package render draws sample previews: the RGB image next to its
// colourised class map, with a labelled box around every instance.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/overlay3d/internal/dataset"
	"github.com/ayusman/overlay3d/internal/imageio"
)

var (
	boxColor  = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	textColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// palette holds class colours in RGB; class id c uses palette[c % len].
// Entry 0 is background.
var palette = []color.RGBA{
	{R: 0, G: 0, B: 0, A: 255},
	{R: 230, G: 25, B: 75, A: 255},
	{R: 60, G: 180, B: 75, A: 255},
	{R: 0, G: 130, B: 200, A: 255},
	{R: 245, G: 130, B: 48, A: 255},
	{R: 145, G: 30, B: 180, A: 255},
	{R: 70, G: 240, B: 240, A: 255},
	{R: 240, G: 50, B: 230, A: 255},
}

// ClassColor returns the colour used for a class id.
func ClassColor(classID int) color.RGBA {
	if classID <= 0 {
		return palette[0]
	}
	return palette[1+(classID-1)%(len(palette)-1)]
}

// Colorize turns a row-major class map into an RGB image.
func Colorize(classMap []int, width, height int) (*imageio.RGB, error) {
	if len(classMap) != width*height {
		return nil, fmt.Errorf("class map has %d pixels, expected %dx%d", len(classMap), width, height)
	}

	im := &imageio.RGB{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
	for p, id := range classMap {
		c := ClassColor(id)
		im.Pix[p*3], im.Pix[p*3+1], im.Pix[p*3+2] = c.R, c.G, c.B
	}
	return im, nil
}

// Preview composes rgb and the class map of set side by side and draws the
// bounding box and class name of every instance on both halves. A nil set
// renders an all-background class map. The caller must close the returned
// Mat.
func Preview(rgb *imageio.RGB, set *dataset.MaskSet, classes []dataset.ClassRange) (gocv.Mat, error) {
	classMap := make([]int, rgb.Width*rgb.Height)
	if set != nil {
		if set.Width != rgb.Width || set.Height != rgb.Height {
			return gocv.NewMat(), fmt.Errorf("mask set is %dx%d, image is %dx%d",
				set.Width, set.Height, rgb.Width, rgb.Height)
		}
		classMap = dataset.ClassMap(set)
	}

	colored, err := Colorize(classMap, rgb.Width, rgb.Height)
	if err != nil {
		return gocv.NewMat(), err
	}

	left, err := rgb.Mat()
	if err != nil {
		return gocv.NewMat(), err
	}
	defer left.Close()

	right, err := colored.Mat()
	if err != nil {
		return gocv.NewMat(), err
	}
	defer right.Close()

	out := gocv.NewMat()
	gocv.Hconcat(left, right, &out)

	if set == nil {
		return out, nil
	}

	for k, inst := range set.Instances {
		box := set.Bounds(k)
		name := dataset.ClassName(classes, inst.ClassID)
		for _, dx := range []int{0, rgb.Width} {
			shifted := box.Add(image.Pt(dx, 0))
			gocv.Rectangle(&out, shifted, boxColor, 1)
			gocv.PutText(&out, name, shifted.Max, gocv.FontHersheyComplex, 0.5, textColor, 1)
		}
	}

	return out, nil
}

// Sample renders the preview of the sample at index. A sample whose
// instances were all filtered out renders with an empty class map.
func Sample(p dataset.Provider, classes []dataset.ClassRange, index int) (gocv.Mat, error) {
	rgb, err := p.Image(index)
	if err != nil {
		return gocv.NewMat(), err
	}

	set, err := p.Masks(index)
	if err != nil && !errors.Is(err, dataset.ErrNoInstances) {
		return gocv.NewMat(), err
	}

	return Preview(rgb, set, classes)
}
