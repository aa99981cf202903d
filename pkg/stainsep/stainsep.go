// Package stainsep blindly separates a two-stain brightfield image
// (classically Hematoxylin & Eosin) into per-stain absorbance colors
// and per-pixel concentrations.
//
// Pixel colors are treated as points in channel space. The engine
// finds the extreme corners of that point cloud (the "distinguishers":
// unstained tissue plus one corner per stain), converts them into an
// absorbance-space seed, and refines the seed with Virtanen's
// multiplicative-update non-negative matrix factorization. The result
// is a Factorization: a stain absorbance matrix W plus the unstained
// color, from which any pixel's stain concentrations can be recovered
// by a tiny non-negative least squares solve.
package stainsep

import(
	"errors"

	"gonum.org/v1/gonum/mat"
)

const (
	// NumStains is fixed: the separation is specialized to two
	// foreground stains plus unstained background.
	NumStains = 2

	// NumTargets is how many distinguishers a full separation needs:
	// one per stain, plus the unstained color.
	NumTargets = NumStains + 1

	epsilon0 = 1e-3  // relative floor for a column to count as tissue
	epsilon1 = 1e-6  // smallest allowed denominator in the solver
	epsilon2 = 1e-12 // smallest usable squared magnitude for a direction

	// lambda is the L1 (lasso) weight on the concentration factor. It
	// nudges each pixel to be explained by as few stains as possible,
	// which suppresses cross-talk between the two stains.
	lambda = 0.02

	// DefaultIterations is how many multiplicative-update rounds the
	// solver runs after seeding. Zero means the seed is used as-is,
	// which is fast and usually good enough in practice.
	DefaultIterations = 0
)

// ErrNotNormalizable is reported when an image cannot be separated:
// no usable tissue after background filtering, fewer than three
// distinct color corners, or an ambiguous stain assignment. It is
// fatal for that image only.
var ErrNotNormalizable = errors.New("image is not normalizable")

// Factorization is the per-image result of a separation, and all the
// recombination step ever needs: the unstained (background) color and
// one absorbance color per stain. Read-only once computed.
type Factorization struct {
	// W has one column per stain; entry (i,j) is how strongly stain j
	// absorbs channel i, on the same scale as the pixel values.
	// All entries are non-negative.
	W *mat.Dense

	// Unstained is the color of tissue-free background, one value per
	// channel.
	Unstained []float64
}

// Channels returns the number of color channels the factorization
// was computed over.
func (f *Factorization)Channels() int {
	r, _ := f.W.Dims()
	return r
}
