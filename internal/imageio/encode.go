package imageio

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Mat converts the image into a BGR Mat for OpenCV drawing.
// The caller is responsible for closing the returned Mat.
func (im *RGB) Mat() (gocv.Mat, error) {
	src, err := gocv.NewMatFromBytes(im.Height, im.Width, gocv.MatTypeCV8UC3, im.Pix)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer src.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(src, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}

// EncodePNG encodes the image as PNG.
func EncodePNG(im *RGB) ([]byte, error) {
	mat, err := im.Mat()
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return EncodeMat(mat)
}

// EncodeMaskPNG encodes a row-major boolean mask as an 8-bit PNG with
// 255 for set pixels and 0 elsewhere.
func EncodeMaskPNG(width, height int, mask []bool) ([]byte, error) {
	if len(mask) != width*height {
		return nil, fmt.Errorf("mask has %d pixels, expected %dx%d", len(mask), width, height)
	}

	pix := make([]byte, len(mask))
	for i, v := range mask {
		if v {
			pix[i] = 255
		}
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return EncodeMat(mat)
}

// EncodeMat encodes an OpenCV Mat as PNG.
func EncodeMat(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// WritePNG writes a Mat to a PNG file.
func WritePNG(path string, mat gocv.Mat) error {
	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}
