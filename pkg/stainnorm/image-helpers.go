package stainnorm

// A few helper routines for golang's image libraries

import(
	"fmt"
	"image"
	"image/png"
	"os"
)

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// MeanChannelError averages the absolute per-channel difference of
// two same-sized images, on the 16-bit scale. Used by the round-trip
// self check: normalizing a slide against itself should score near
// zero.
func MeanChannelError(a, b image.Image) float64 {
	bounds := a.Bounds()
	n := bounds.Dx() * bounds.Dy() * 3
	if n == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ar, ag, ab, _ := a.At(x, y).RGBA()
			br, bg, bb, _ := b.At(x, y).RGBA()
			total += absDiff(ar, br) + absDiff(ag, bg) + absDiff(ab, bb)
		}
	}
	return total / float64(n)
}

func absDiff(a, b uint32) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
