package stainsep

import(
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
)

// Roles names which distinguisher column plays which part. Values are
// column indices into the distinguisher matrix.
type Roles struct {
	Unstained int
	StainA    int // e.g. Hematoxylin: suppresses the configured channel A
	StainB    int // e.g. Eosin: suppresses the configured channel B
}

// AssignRoles labels the distinguisher columns. The unstained color
// is the perceptually brightest one - background outshines any
// stained tissue in brightfield. Of the other two, the stain-A label
// goes to the distinguisher that suppresses the configured channel
// suppressedByA hardest relative to the unstained baseline, and
// likewise for stain B.
//
// Fails with ErrNotNormalizable if fewer than NumTargets
// distinguishers arrive, or if the suppression tests disagree with
// each other (both point at the same distinguisher, or one of them
// ties), since mislabeling the stains would swap their colors in
// every output pixel.
func AssignRoles(d *mat.Dense, suppressedByA, suppressedByB int) (Roles, error) {
	rows, cols := d.Dims()
	if cols < NumTargets {
		return Roles{}, fmt.Errorf("%w: only %d of %d distinguishers found", ErrNotNormalizable, cols, NumTargets)
	}
	if suppressedByA < 0 || suppressedByA >= rows || suppressedByB < 0 || suppressedByB >= rows {
		return Roles{}, fmt.Errorf("suppressed channel indices (%d,%d) out of range for %d channels", suppressedByA, suppressedByB, rows)
	}

	unstained := brightestColumn(d)

	// The two non-background columns.
	others := make([]int, 0, NumStains)
	for j := 0; j < cols && len(others) < NumStains; j++ {
		if j != unstained {
			others = append(others, j)
		}
	}

	a := moreSuppressed(d, others, unstained, suppressedByA)
	b := moreSuppressed(d, others, unstained, suppressedByB)
	if a < 0 || b < 0 || a == b {
		return Roles{}, fmt.Errorf("%w: stain roles ambiguous on channels (%d,%d)", ErrNotNormalizable, suppressedByA, suppressedByB)
	}

	return Roles{Unstained: unstained, StainA: a, StainB: b}, nil
}

// brightestColumn finds the column with the highest perceptual
// luminance (CIE Lab L*), which is the unstained background in any
// brightfield image.
func brightestColumn(d *mat.Dense) int {
	rows, cols := d.Dims()

	best, bestL := 0, -1.0
	buf := make([]float64, rows)
	for j := 0; j < cols; j++ {
		col(buf, d, j)
		l, _, _ := columnColor(buf).Lab()
		if l > bestL {
			bestL = l
			best = j
		}
	}
	return best
}

// moreSuppressed picks, from the candidate columns, the one whose
// value in channel ch drops furthest below the unstained baseline.
// Returns -1 on a tie - the caller treats that as unresolvable.
func moreSuppressed(d *mat.Dense, candidates []int, unstained, ch int) int {
	base := d.At(ch, unstained)
	if base < epsilon1 {
		base = epsilon1
	}

	best, bestDrop := -1, 0.0
	tied := false
	for _, j := range candidates {
		drop := (base - d.At(ch, j)) / base
		if best < 0 || drop > bestDrop {
			best, bestDrop, tied = j, drop, false
		} else if drop == bestDrop {
			tied = true
		}
	}
	if tied {
		return -1
	}
	return best
}

// columnColor views a channel vector on the 16-bit sample scale as a
// colorful.Color. Only meaningful for 3-channel data; extra channels
// are ignored for the brightness test.
func columnColor(v []float64) colorful.Color {
	c := colorful.Color{}
	if len(v) > 0 {
		c.R = clamp01(v[0] / ColorScale)
	}
	if len(v) > 1 {
		c.G = clamp01(v[1] / ColorScale)
	}
	if len(v) > 2 {
		c.B = clamp01(v[2] / ColorScale)
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
