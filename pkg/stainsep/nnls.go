package stainsep

import(
	"gonum.org/v1/gonum/mat"
)

// SolveConcentration solves min ||a - W*h|| subject to h >= 0 for the
// two-stain case, writing the result into h (length NumStains).
//
// With only two variables the active-set method collapses to: solve
// the unconstrained 2x2 normal equations; if both weights come out
// non-negative we're done, otherwise the optimum lies on an axis, so
// re-fit each single stain alone (clamped at zero) and keep the
// better one. This runs once per output pixel during recombination,
// so it stays allocation-free.
func SolveConcentration(W *mat.Dense, a []float64, h []float64) {
	rows, _ := W.Dims()
	raw := W.RawMatrix()

	// Normal equation terms: G = W'W (2x2 symmetric), c = W'a.
	var g00, g01, g11, c0, c1 float64
	for i := 0; i < rows; i++ {
		w0 := raw.Data[i*raw.Stride]
		w1 := raw.Data[i*raw.Stride+1]
		g00 += w0 * w0
		g01 += w0 * w1
		g11 += w1 * w1
		c0 += w0 * a[i]
		c1 += w1 * a[i]
	}

	det := g00*g11 - g01*g01
	if det > epsilon1 {
		h0 := (g11*c0 - g01*c1) / det
		h1 := (g00*c1 - g01*c0) / det
		if h0 >= 0 && h1 >= 0 {
			h[0], h[1] = h0, h1
			return
		}
	}

	// Degenerate or negative: best single-stain fits along each axis.
	h0 := 0.0
	if g00 > epsilon1 {
		h0 = posPart(c0 / g00)
	}
	h1 := 0.0
	if g11 > epsilon1 {
		h1 = posPart(c1 / g11)
	}

	// Residual reduction of fitting stain s alone is c_s^2/g_ss;
	// compare via the already-computed fits.
	if h0*c0 >= h1*c1 {
		h[0], h[1] = h0, 0
	} else {
		h[0], h[1] = 0, h1
	}
}
