package stainsep

import(
	"math"

	"gonum.org/v1/gonum/mat"
)

// An UpdateRule runs one multiplicative-update round over the
// factorization A ~= W*H, mutating W and H in place. Both rules keep
// every entry non-negative: denominators are floored at epsilon1 and
// results clamped at zero, so numerical wobble is absorbed silently
// rather than surfaced as an error.
type UpdateRule func(A, W, H *mat.Dense)

// FactorizeEuclidean refines (W, H) against A for exactly iters
// rounds of Virtanen's squared-error multiplicative updates, with an
// L1 lasso of weight lambda on H. iters 0 leaves the seed untouched,
// a deliberate fast path. There is no early-convergence test: the
// loop runs the configured count, full stop.
func FactorizeEuclidean(A, W, H *mat.Dense, iters int) {
	for n := 0; n < iters; n++ {
		UpdateEuclidean(A, W, H)
	}
}

// FactorizeKLDivergence is FactorizeEuclidean under the
// KL-divergence objective instead of squared error.
func FactorizeKLDivergence(A, W, H *mat.Dense, iters int) {
	for n := 0; n < iters; n++ {
		UpdateKLDivergence(A, W, H)
	}
}

// UpdateEuclidean applies one round of the classical squared-error
// multiplicative updates:
//
//	H <- H .* (W'A) ./ (W'WH + lambda)
//	W <- W .* (AH') ./ (WHH')
//
// which never increases ||A - WH||^2 for non-negative factors.
func UpdateEuclidean(A, W, H *mat.Dense) {
	var num, den, tmp mat.Dense

	// H update.
	num.Mul(W.T(), A)
	tmp.Mul(W.T(), W)
	den.Mul(&tmp, H)
	mulElemRatio(H, &num, &den, lambda)

	// W update, against the fresh H.
	num.Reset()
	den.Reset()
	tmp.Reset()
	num.Mul(A, H.T())
	tmp.Mul(H, H.T())
	den.Mul(W, &tmp)
	mulElemRatio(W, &num, &den, 0)
}

// UpdateKLDivergence applies one round of the divergence-objective
// updates:
//
//	H <- H .* (W'(A./WH)) ./ (W'1 + lambda)
//	W <- W .* ((A./WH)H') ./ (1H')
func UpdateKLDivergence(A, W, H *mat.Dense) {
	rows, cols := A.Dims()
	_, stains := W.Dims()

	// R = A ./ (W*H), with the reconstruction floored so an
	// all-zero-explained pixel can't blow the ratio up.
	var recon mat.Dense
	recon.Mul(W, H)
	R := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			R.Set(i, j, A.At(i, j)/math.Max(recon.At(i, j), epsilon1))
		}
	}

	// H update: denominator is the column sums of W, one per stain.
	var num mat.Dense
	num.Mul(W.T(), R)
	for s := 0; s < stains; s++ {
		colSum := 0.0
		for i := 0; i < rows; i++ {
			colSum += W.At(i, s)
		}
		colSum = math.Max(colSum, epsilon1) + lambda
		for j := 0; j < cols; j++ {
			H.Set(s, j, posPart(H.At(s, j)*num.At(s, j)/colSum))
		}
	}

	// Rebuild the ratio against the fresh H before touching W.
	recon.Reset()
	recon.Mul(W, H)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			R.Set(i, j, A.At(i, j)/math.Max(recon.At(i, j), epsilon1))
		}
	}

	// W update: denominator is the row sums of H, one per stain.
	num.Reset()
	num.Mul(R, H.T())
	for s := 0; s < stains; s++ {
		rowSum := 0.0
		for j := 0; j < cols; j++ {
			rowSum += H.At(s, j)
		}
		rowSum = math.Max(rowSum, epsilon1)
		for i := 0; i < rows; i++ {
			W.Set(i, s, posPart(W.At(i, s)*num.At(i, s)/rowSum))
		}
	}
}

// mulElemRatio performs X <- X .* num ./ (den + reg) element-wise,
// flooring denominators at epsilon1 and clamping results at zero.
func mulElemRatio(X, num, den *mat.Dense, reg float64) {
	rows, cols := X.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := den.At(i, j) + reg
			if d < epsilon1 {
				d = epsilon1
			}
			X.Set(i, j, posPart(X.At(i, j)*num.At(i, j)/d))
		}
	}
}

// ReconstructionError is the Frobenius norm of A - W*H, mostly for
// tests and verbose reporting.
func ReconstructionError(A, W, H *mat.Dense) float64 {
	var recon, diff mat.Dense
	recon.Mul(W, H)
	diff.Sub(A, &recon)
	return mat.Norm(&diff, 2)
}
