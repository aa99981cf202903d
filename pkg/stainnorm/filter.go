package stainnorm

import(
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"

	"stain-normalizer/pkg/stainsep"
)

// Filter normalizes the stain appearance of an input slide to match a
// reference slide, preserving the input's tissue structure. It owns
// one factorization cache per slide role, so repeated calls with
// unchanged slides skip the expensive separation entirely.
//
// A Filter is not safe for concurrent Normalize calls (the caches are
// plain fields), but a single call parallelizes internally: the two
// slide factorizations run concurrently, and recombination fans out
// across row bands.
type Filter struct {
	Config

	input factCache
	refer factCache

	// separations counts actual engine runs, i.e. cache misses.
	separations int64
}

func NewFilter(cfg Config) *Filter {
	return &Filter{Config: cfg}
}

// Separations reports how many times the filter has had to run the
// full separation engine. Two fresh slides cost two; cache hits cost
// zero.
func (f *Filter)Separations() int {
	return int(atomic.LoadInt64(&f.separations))
}

// Normalize renders the input slide as if it had been stained and
// imaged like the reference slide. An input with an empty region is a
// no-op and yields an empty image. A slide that cannot be separated
// (no tissue, degenerate colors) fails with
// stainsep.ErrNotNormalizable, leaving the output unwritten; the
// caller decides the fallback.
func (f *Filter)Normalize(input, refer *Slide) (*image.RGBA64, error) {
	bounds := input.Image.Bounds()
	out := image.NewRGBA64(bounds)
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return out, nil
	}

	// The two factorizations share no state, so warm the caches
	// concurrently.
	var wg sync.WaitGroup
	var inFact, referFact *stainsep.Factorization
	var inErr, referErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		inFact, inErr = f.factorizationFor(input, &f.input, "input")
	}()
	go func() {
		defer wg.Done()
		referFact, referErr = f.factorizationFor(refer, &f.refer, "reference")
	}()
	wg.Wait()

	if inErr != nil {
		return nil, fmt.Errorf("input %s: %w", input.Name, inErr)
	}
	if referErr != nil {
		return nil, fmt.Errorf("reference %s: %w", refer.Name, referErr)
	}

	recombine(input.Image, inFact, referFact, out)

	return out, nil
}

// InputFactorization exposes the cached input-slide factorization,
// for callers that want the raw stain colors or concentration maps
// after a Normalize call.
func (f *Filter)InputFactorization() (*stainsep.Factorization, error) {
	if !f.input.warm {
		return nil, fmt.Errorf("no input slide has been factorized yet")
	}
	return f.input.fact, nil
}

// factorizationFor returns the slide's factorization, recomputing it
// only when the cache entry no longer describes this slide.
func (f *Filter)factorizationFor(s *Slide, cache *factCache, role string) (*stainsep.Factorization, error) {
	if cache.matches(s) {
		if f.Verbosity > 0 {
			log.Printf("Factorization cache hit for %s slide %s", role, s.Name)
		}
		return cache.fact, nil
	}

	if f.Verbosity > 0 {
		log.Printf("Separating %s slide %s", role, s)
	}
	atomic.AddInt64(&f.separations, 1)

	V := stainsep.ImageToMatrix(s.Image, s.Image.Bounds())
	fact, err := stainsep.Separate(V, stainsep.Options{
		SuppressedByA: f.SuppressedByHematoxylin,
		SuppressedByB: f.SuppressedByEosin,
		Extract:       f.GetDistinguisher(),
		Factorize:     f.GetFactorizer(),
		Iterations:    stainsep.DefaultIterations,
	})
	if err != nil {
		return nil, err
	}

	if f.Verbosity > 0 {
		logStainSummary(role, s, fact)
	}
	if f.Verbosity > 1 {
		logConcentrationStats(role, V, fact)
	}

	cache.store(s, fact)
	return fact, nil
}
