package stainsep

import(
	"image"

	"gonum.org/v1/gonum/mat"
)

// NumColors is the channel count of the sample matrices built from
// go images: one row each for R, G, B. Alpha carries no stain
// information and is dropped.
const NumColors = 3

// Values are kept on the 16-bit scale that color.Color.RGBA() reports,
// so "white" background sits near ColorScale.
const ColorScale = 0xffff

// ImageToMatrix scans a rectangular region of img and packs it into a
// sample matrix: NumColors rows, one column per pixel, visited in the
// usual y-then-x raster order. Returns nil for an empty region -
// callers treat that as a no-op, not an error.
func ImageToMatrix(img image.Image, region image.Rectangle) *mat.Dense {
	region = region.Intersect(img.Bounds())
	n := region.Dx() * region.Dy()
	if n <= 0 {
		return nil
	}

	V := mat.NewDense(NumColors, n, nil)
	raw := V.RawMatrix()

	j := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			raw.Data[j] = float64(r)
			raw.Data[raw.Stride+j] = float64(g)
			raw.Data[2*raw.Stride+j] = float64(b)
			j++
		}
	}

	return V
}

// BrightPart filters out the columns of V that are too dim to be
// useful for distinguisher search: sensor noise, slide dust, pixels
// outside the illuminated area. A column survives if its largest
// channel value is at least epsilon0 of the largest value anywhere in
// the matrix. The result is an order-preserving column subset of V,
// and may have zero columns when nothing clears the bar.
func BrightPart(V *mat.Dense) *mat.Dense {
	rows, cols := V.Dims()

	maxMag := 0.0
	raw := V.RawMatrix()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := abs(raw.Data[i*raw.Stride+j]); v > maxMag {
				maxMag = v
			}
		}
	}

	floor := epsilon0 * maxMag
	keep := make([]int, 0, cols)
	for j := 0; j < cols; j++ {
		colMax := 0.0
		for i := 0; i < rows; i++ {
			if v := abs(raw.Data[i*raw.Stride+j]); v > colMax {
				colMax = v
			}
		}
		if colMax >= floor && colMax > 0 {
			keep = append(keep, j)
		}
	}

	if len(keep) == 0 {
		// Can't make a 0-col Dense; nil is how callers spot "no
		// usable tissue".
		return nil
	}

	out := mat.NewDense(rows, len(keep), nil)
	outRaw := out.RawMatrix()
	for k, j := range keep {
		for i := 0; i < rows; i++ {
			outRaw.Data[i*outRaw.Stride+k] = raw.Data[i*raw.Stride+j]
		}
	}

	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// col copies column j of m into dst, allocating when dst is nil.
func col(dst []float64, m *mat.Dense, j int) []float64 {
	rows, _ := m.Dims()
	if dst == nil {
		dst = make([]float64, rows)
	}
	raw := m.RawMatrix()
	for i := 0; i < rows; i++ {
		dst[i] = raw.Data[i*raw.Stride+j]
	}
	return dst
}
