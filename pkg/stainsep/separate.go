package stainsep

import(
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// A FactorizeFunc refines a seeded factorization in place for the
// given number of rounds. FactorizeEuclidean and
// FactorizeKLDivergence are the two on offer.
type FactorizeFunc func(A, W, H *mat.Dense, iters int)

// Options bundles the knobs a Separate call needs. The numerical
// thresholds are fixed constants of the algorithm and deliberately
// not here.
type Options struct {
	// SuppressedByA / SuppressedByB are the channel indices each
	// stain most strongly suppresses; for H&E on RGB data that is
	// red (0) for Hematoxylin and green (1) for Eosin.
	SuppressedByA int
	SuppressedByB int

	Extract    DistinguisherFunc // nil means ProjectionDistinguishers
	Factorize  FactorizeFunc     // nil means FactorizeEuclidean
	Iterations int               // multiplicative-update rounds; 0 = seed only
}

// Separate runs the whole engine over a sample matrix: bright-part
// filtering, distinguisher extraction, role assignment, seeding, and
// multiplicative refinement. V is left unmodified. A nil V (empty
// region) or a matrix with no usable tissue yields
// ErrNotNormalizable.
func Separate(V *mat.Dense, opt Options) (*Factorization, error) {
	if V == nil {
		return nil, fmt.Errorf("%w: empty sample matrix", ErrNotNormalizable)
	}

	extract := opt.Extract
	if extract == nil {
		extract = ProjectionDistinguishers
	}
	factorize := opt.Factorize
	if factorize == nil {
		factorize = FactorizeEuclidean
	}

	bright := BrightPart(V)
	if bright == nil {
		return nil, fmt.Errorf("%w: no tissue above background threshold", ErrNotNormalizable)
	}

	distinguishers, err := extract(bright)
	if err != nil {
		return nil, err
	}

	roles, err := AssignRoles(distinguishers, opt.SuppressedByA, opt.SuppressedByB)
	if err != nil {
		return nil, err
	}

	fact, H := SeedFactorization(V, distinguishers, roles)
	if opt.Iterations > 0 {
		A := Absorbances(V, fact.Unstained)
		factorize(A, fact.W, H, opt.Iterations)
	}

	return fact, nil
}
