package stainnorm

import(
	"log"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/skypies/util/histogram"
	"gonum.org/v1/gonum/mat"

	"stain-normalizer/pkg/stainsep"
)

// logStainSummary prints the extracted palette in human terms: the
// background color and the rendered color of each pure stain at unit
// concentration.
func logStainSummary(role string, s *Slide, fact *stainsep.Factorization) {
	u := fact.Unstained
	log.Printf("%s slide %s: unstained %s, hematoxylin %s, eosin %s",
		role, s.Name,
		hexColor(u[0], u[1], u[2]),
		hexColor(u[0]-fact.W.At(0, 0), u[1]-fact.W.At(1, 0), u[2]-fact.W.At(2, 0)),
		hexColor(u[0]-fact.W.At(0, 1), u[1]-fact.W.At(1, 1), u[2]-fact.W.At(2, 1)))
}

func hexColor(r, g, b float64) string {
	c := colorful.Color{
		R: clampUnit(r / stainsep.ColorScale),
		G: clampUnit(g / stainsep.ColorScale),
		B: clampUnit(b / stainsep.ColorScale),
	}
	return c.Hex()
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// logConcentrationStats histograms the per-pixel concentration of
// each stain across the whole sample matrix. Useful for spotting a
// separation that dumped everything into one stain.
func logConcentrationStats(role string, V *mat.Dense, fact *stainsep.Factorization) {
	hists := []histogram.Histogram{
		histogram.Histogram{NumBuckets: 100, ValMin: 0, ValMax: 200},
		histogram.Histogram{NumBuckets: 100, ValMin: 0, ValMax: 200},
	}

	rows, cols := V.Dims()
	raw := V.RawMatrix()
	a := make([]float64, rows)
	h := make([]float64, stainsep.NumStains)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			a[i] = fact.Unstained[i] - raw.Data[i*raw.Stride+j]
			if a[i] < 0 {
				a[i] = 0
			}
		}
		stainsep.SolveConcentration(fact.W, a, h)
		// Concentrations land in roughly [0,2]; spread them over the
		// histogram's integer buckets.
		hists[0].Add(histogram.ScalarVal(int(h[0] * 100)))
		hists[1].Add(histogram.ScalarVal(int(h[1] * 100)))
	}

	log.Printf("%s hematoxylin concentration (x100): %s", role, hists[0])
	log.Printf("%s eosin concentration (x100): %s", role, hists[1])
}
