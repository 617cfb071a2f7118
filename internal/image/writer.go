package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/disintegration/imaging"

	"github.com/jmylchreest/basin/internal/security"
	"github.com/jmylchreest/basin/pkg/imgproc"
	"github.com/jmylchreest/basin/pkg/raster"
)

// ErrTooManyLabels is returned when a label does not fit a 16-bit PNG.
var ErrTooManyLabels = errors.New("image: label exceeds 16-bit range")

// LabelsToGray16 stores each label as a 16-bit gray value.
func LabelsToGray16(labels *raster.Labels) (*image.Gray16, error) {
	img := image.NewGray16(image.Rect(0, 0, labels.Width, labels.Height))
	for y := 0; y < labels.Height; y++ {
		for x := 0; x < labels.Width; x++ {
			v := labels.At(x, y)
			if v < 0 || v > 0xffff {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrTooManyLabels, v, x, y)
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	return img, nil
}

// ChannelToGray wraps an 8-bit raster as a gray image.
func ChannelToGray(c *raster.Channel8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, c.Width, c.Height))
	copy(img.Pix, c.Pix)
	return img
}

// RegionPreview paints every region of labels with the mean color of its
// pixels in img. img and labels must have the same size.
func RegionPreview(img image.Image, labels *raster.Labels) (*image.NRGBA, error) {
	src := imgproc.ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if err := raster.CheckSize("labels", labels.Width, labels.Height, w, h); err != nil {
		return nil, err
	}

	n := labels.Max() + 1
	sums := make([][3]int, max(n, 0))
	counts := make([]int, max(n, 0))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			l := labels.At(x, y)
			if l < 0 {
				continue
			}
			o := x * 4
			sums[l][0] += int(row[o])
			sums[l][1] += int(row[o+1])
			sums[l][2] += int(row[o+2])
			counts[l]++
		}
	}

	palette := make([]color.NRGBA, len(sums))
	for i, s := range sums {
		c := counts[i]
		if c == 0 {
			continue
		}
		palette[i] = color.NRGBA{
			R: security.SafeUint8((s[0] + c/2) / c),
			G: security.SafeUint8((s[1] + c/2) / c),
			B: security.SafeUint8((s[2] + c/2) / c),
			A: 255,
		}
	}

	out := imaging.New(w, h, color.NRGBA{})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if l := labels.At(x, y); l >= 0 {
				out.SetNRGBA(x, y, palette[l])
			}
		}
	}
	return out, nil
}

// WritePNG encodes img as PNG, keeping 16-bit gray images at full depth.
func WritePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	writeErr := WritePNG(f, img)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	return nil
}
