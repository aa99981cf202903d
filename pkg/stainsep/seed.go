package stainsep

import(
	"gonum.org/v1/gonum/mat"
)

// SeedFactorization turns labeled distinguishers into the initial
// state for the solver.
//
// Colors move to absorbance space first: a stain's absorbance is how
// much it darkens each channel relative to the unstained color,
// clamped at zero so a stain can never "emit" light. Those two
// absorbance vectors become the columns of W0. The initial
// concentration matrix H0 then comes from solving, per pixel, the
// two-variable non-negative least squares fit of the pixel's own
// absorbance against W0, so a zero-iteration solve already yields
// usable concentrations.
//
// V is the full unfiltered sample matrix; the returned H0 has one
// column per V column.
func SeedFactorization(V, distinguishers *mat.Dense, roles Roles) (*Factorization, *mat.Dense) {
	rows, cols := V.Dims()

	unstained := col(nil, distinguishers, roles.Unstained)

	W := mat.NewDense(rows, NumStains, nil)
	for i := 0; i < rows; i++ {
		W.Set(i, 0, posPart(unstained[i]-distinguishers.At(i, roles.StainA)))
		W.Set(i, 1, posPart(unstained[i]-distinguishers.At(i, roles.StainB)))
	}

	fact := &Factorization{W: W, Unstained: unstained}

	H := mat.NewDense(NumStains, cols, nil)
	a := make([]float64, rows)
	h := make([]float64, NumStains)
	vraw := V.RawMatrix()
	hraw := H.RawMatrix()
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			a[i] = posPart(unstained[i] - vraw.Data[i*vraw.Stride+j])
		}
		SolveConcentration(W, a, h)
		for s := 0; s < NumStains; s++ {
			hraw.Data[s*hraw.Stride+j] = h[s]
		}
	}

	return fact, H
}

// Absorbances converts the sample matrix V into absorbance space
// relative to the unstained color: A = max(unstained - V, 0),
// column-wise. This is the matrix the solver factorizes.
func Absorbances(V *mat.Dense, unstained []float64) *mat.Dense {
	rows, cols := V.Dims()
	A := mat.NewDense(rows, cols, nil)
	vraw := V.RawMatrix()
	araw := A.RawMatrix()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			araw.Data[i*araw.Stride+j] = posPart(unstained[i] - vraw.Data[i*vraw.Stride+j])
		}
	}
	return A
}

func posPart(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
