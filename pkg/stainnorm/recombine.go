package stainnorm

import(
	"image"
	"image/color"
	"runtime"
	"sync"

	"stain-normalizer/pkg/stainsep"
)

// recombine writes the normalized image: each pixel keeps the input
// slide's stain concentrations but is re-rendered with the reference
// slide's stain colors and background. Structure travels from the
// input, appearance from the reference.
//
// Both factorizations are read-only here and every pixel is
// independent, so the work fans out over horizontal bands, one per
// CPU.
func recombine(input image.Image, factIn, factRefer *stainsep.Factorization, out *image.RGBA64) {
	bounds := out.Bounds()

	workers := runtime.NumCPU()
	if workers > bounds.Dy() {
		workers = bounds.Dy()
	}
	if workers < 1 {
		workers = 1
	}

	rowsPer := (bounds.Dy() + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		y0 := bounds.Min.Y + w*rowsPer
		y1 := y0 + rowsPer
		if y1 > bounds.Max.Y {
			y1 = bounds.Max.Y
		}
		if y0 >= y1 {
			break
		}

		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			recombineBand(input, factIn, factRefer, out, y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}

func recombineBand(input image.Image, factIn, factRefer *stainsep.Factorization, out *image.RGBA64, y0, y1 int) {
	bounds := out.Bounds()
	channels := factIn.Channels()

	a := make([]float64, channels)
	h := make([]float64, stainsep.NumStains)

	for y := y0; y < y1; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := input.At(x, y).RGBA()
			v := [stainsep.NumColors]float64{float64(r), float64(g), float64(b)}

			// How much stain does the input think is here?
			for i := 0; i < channels; i++ {
				a[i] = factIn.Unstained[i] - v[i]
				if a[i] < 0 {
					a[i] = 0
				}
			}
			stainsep.SolveConcentration(factIn.W, a, h)

			// Re-render those concentrations in the reference's colors.
			out.SetRGBA64(x, y, color.RGBA64{
				R: renderChannel(factRefer, h, 0),
				G: renderChannel(factRefer, h, 1),
				B: renderChannel(factRefer, h, 2),
				A: 0xffff,
			})
		}
	}
}

// renderChannel computes one channel of (unstained - W*h), clamped to
// the valid 16-bit pixel range.
func renderChannel(fact *stainsep.Factorization, h []float64, ch int) uint16 {
	v := fact.Unstained[ch]
	for s := 0; s < stainsep.NumStains; s++ {
		v -= fact.W.At(ch, s) * h[s]
	}
	if v < 0 {
		v = 0
	}
	if v > stainsep.ColorScale {
		v = stainsep.ColorScale
	}
	return uint16(v)
}
