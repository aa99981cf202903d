package stainnorm

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"stain-normalizer/pkg/stainsep"
)

// A DensityGrid is a per-pixel map of one stain's concentration, with
// some operations for QC output.
type DensityGrid struct {
	stride int
	values []float64
}

func NewDensityGrid(w, h int) *DensityGrid {
	return &DensityGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (dg *DensityGrid)Set(x, y int, v float64) { dg.values[dg.stride*y+x] = v }
func (dg *DensityGrid)Get(x, y int) float64    { return dg.values[dg.stride*y+x] }
func (dg *DensityGrid)Dx() int                 { return dg.stride }
func (dg *DensityGrid)Dy() int                 { return len(dg.values) / dg.stride }

func (dg *DensityGrid)Stats() string {
	min, max := math.MaxFloat64, -math.MaxFloat64
	for i := 0; i < len(dg.values); i++ {
		if dg.values[i] > max { max = dg.values[i] }
		if dg.values[i] < min { min = dg.values[i] }
	}
	return fmt.Sprintf("dg[%dx%d, vals{%f,%f}]", dg.Dx(), dg.Dy(), min, max)
}

// ToImg saves the grid as a labeled grayscale PNG, scaled to the
// range of values present and gamma-corrected for human vision.
func (dg *DensityGrid)ToImg(title, filename string) error {
	min, max := math.MaxFloat64, -math.MaxFloat64
	for i := 0; i < len(dg.values); i++ {
		if dg.values[i] > max { max = dg.values[i] }
		if dg.values[i] < min { min = dg.values[i] }
	}
	if max <= min {
		max = min + 1
	}

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{dg.Dx(), dg.Dy()}})
	for x := 0; x < dg.Dx(); x++ {
		for y := 0; y < dg.Dy(); y++ {
			gray := gammaExpand((dg.Get(x, y) - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 0, 0)
	dc.DrawString(title, 20, 20)
	return dc.SavePNG(filename)
}

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
func gammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

// ConcentrationMaps solves every pixel of the slide against its own
// factorization and returns one density grid per stain. These are the
// "structure" half of the normalization, rendered on their own.
func ConcentrationMaps(s *Slide, fact *stainsep.Factorization) (*DensityGrid, *DensityGrid) {
	bounds := s.Image.Bounds()
	hema := NewDensityGrid(bounds.Dx(), bounds.Dy())
	eosin := NewDensityGrid(bounds.Dx(), bounds.Dy())

	channels := fact.Channels()
	a := make([]float64, channels)
	h := make([]float64, stainsep.NumStains)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := s.Image.At(x, y).RGBA()
			v := [stainsep.NumColors]float64{float64(r), float64(g), float64(b)}
			for i := 0; i < channels; i++ {
				a[i] = fact.Unstained[i] - v[i]
				if a[i] < 0 {
					a[i] = 0
				}
			}
			stainsep.SolveConcentration(fact.W, a, h)
			hema.Set(x-bounds.Min.X, y-bounds.Min.Y, h[0])
			eosin.Set(x-bounds.Min.X, y-bounds.Min.Y, h[1])
		}
	}

	return hema, eosin
}
