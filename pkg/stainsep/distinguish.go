package stainsep

import(
	"gonum.org/v1/gonum/mat"
)

// A DistinguisherFunc extracts up to NumTargets representative
// extreme colors from a bright-filtered sample matrix, one column per
// color. Strategies are selected by name in the filter configuration;
// the default is ProjectionDistinguishers.
type DistinguisherFunc func(brightV *mat.Dense) (*mat.Dense, error)

// ProjectionDistinguishers runs the two-pass simplex-corner search.
//
// The first pass picks NumTargets sample columns, each the point
// farthest out along a direction the previous picks haven't already
// explained: project every column onto a running reference direction
// (all-ones to start), take the column with the largest absolute
// projection, recenter the cloud about it, project its direction out,
// repeat. Each round's pick therefore differs from all earlier picks
// by construction.
//
// The second pass replaces each raw pick with a local average of its
// neighborhood in the bright matrix, which is much more stable than
// trusting a single noisy sample. Returns ErrNotNormalizable when
// fewer than NumTargets corners exist (a flat or empty cloud).
func ProjectionDistinguishers(brightV *mat.Dense) (*mat.Dense, error) {
	if brightV == nil {
		return nil, ErrNotNormalizable
	}

	indices, found := firstPassDistinguishers(brightV)
	if found < NumTargets {
		return nil, ErrNotNormalizable
	}

	return secondPassDistinguishers(brightV, indices[:found]), nil
}

// firstPassDistinguishers returns the column indices of the extreme
// points, and how many were actually found. Fewer than NumTargets
// means the cloud degenerated (e.g. all samples on a line) before the
// search finished.
func firstPassDistinguishers(brightV *mat.Dense) ([NumTargets]int, int) {
	var indices [NumTargets]int

	rows, cols := brightV.Dims()

	// work is destroyed by the recenter/project rounds; brightV is
	// left alone so the second pass can read the original colors.
	work := mat.NewDense(rows, cols, nil)
	work.Copy(brightV)

	ones := make([]float64, rows)
	for i := range ones {
		ones[i] = 1
	}

	found := 0
	dir := make([]float64, rows)
	for pass := 0; pass < NumTargets; pass++ {
		j := matrixToOneDistinguisher(work, ones)
		if j < 0 {
			break
		}
		indices[pass] = j
		found++

		if pass == NumTargets-1 {
			break
		}

		dir = col(dir, work, j)
		recenterMatrix(work, j)
		if !projectMatrix(work, dir) {
			// The chosen direction had no usable magnitude left; any
			// further pick would just re-find an earlier corner.
			break
		}
	}

	return indices, found
}

// matrixToOneDistinguisher projects every column of m onto ref and
// returns the index of the column with the largest absolute
// projection, with ties going to the first such column. Returns -1
// if no column projects meaningfully.
func matrixToOneDistinguisher(m *mat.Dense, ref []float64) int {
	rows, cols := m.Dims()
	raw := m.RawMatrix()

	best := -1
	bestMag := 0.0
	for j := 0; j < cols; j++ {
		proj := 0.0
		for i := 0; i < rows; i++ {
			proj += raw.Data[i*raw.Stride+j] * ref[i]
		}
		if mag := abs(proj); mag > bestMag {
			bestMag = mag
			best = j
		}
	}

	if best >= 0 && bestMag*bestMag < epsilon2 {
		return -1
	}
	return best
}

// recenterMatrix subtracts column j from every column, putting the
// chosen point at the origin.
func recenterMatrix(m *mat.Dense, j int) {
	rows, cols := m.Dims()
	raw := m.RawMatrix()

	for i := 0; i < rows; i++ {
		pivot := raw.Data[i*raw.Stride+j]
		for k := 0; k < cols; k++ {
			raw.Data[i*raw.Stride+k] -= pivot
		}
	}
}

// projectMatrix removes the component of every column along dir,
// leaving the orthogonal complement, so the next search round cannot
// pick the same direction again. Reports false when dir is too small
// to define a direction at all.
func projectMatrix(m *mat.Dense, dir []float64) bool {
	rows, cols := m.Dims()
	raw := m.RawMatrix()

	mag2 := 0.0
	for i := 0; i < rows; i++ {
		mag2 += dir[i] * dir[i]
	}
	if mag2 < epsilon2 {
		return false
	}

	for j := 0; j < cols; j++ {
		dot := 0.0
		for i := 0; i < rows; i++ {
			dot += raw.Data[i*raw.Stride+j] * dir[i]
		}
		scale := dot / mag2
		for i := 0; i < rows; i++ {
			raw.Data[i*raw.Stride+j] -= scale * dir[i]
		}
	}

	return true
}

// secondPassDistinguishers refines each first-pass pick into the mean
// of its neighborhood: every bright column within a radius of the
// pick, the radius being a small fraction (epsilon0) of the cloud's
// squared diameter as seen from that pick. The pick itself is always
// in its own neighborhood, so the average is well defined.
func secondPassDistinguishers(brightV *mat.Dense, indices []int) *mat.Dense {
	rows, cols := brightV.Dims()
	raw := brightV.RawMatrix()

	out := mat.NewDense(rows, len(indices), nil)
	pick := make([]float64, rows)
	sum := make([]float64, rows)

	for k, jPick := range indices {
		pick = col(pick, brightV, jPick)

		// Farthest squared distance from this pick, to scale the
		// neighborhood radius.
		maxD2 := 0.0
		for j := 0; j < cols; j++ {
			d2 := 0.0
			for i := 0; i < rows; i++ {
				d := raw.Data[i*raw.Stride+j] - pick[i]
				d2 += d * d
			}
			if d2 > maxD2 {
				maxD2 = d2
			}
		}

		radius2 := epsilon0 * maxD2
		for i := range sum {
			sum[i] = 0
		}
		n := 0
		for j := 0; j < cols; j++ {
			d2 := 0.0
			for i := 0; i < rows; i++ {
				d := raw.Data[i*raw.Stride+j] - pick[i]
				d2 += d * d
			}
			if d2 <= radius2 {
				for i := 0; i < rows; i++ {
					sum[i] += raw.Data[i*raw.Stride+j]
				}
				n++
			}
		}

		for i := 0; i < rows; i++ {
			out.Set(i, k, sum[i]/float64(n))
		}
	}

	return out
}
