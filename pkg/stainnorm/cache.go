package stainnorm

import(
	"time"

	"stain-normalizer/pkg/stainsep"
)

// factCache holds the last factorization computed for one slide role
// (input or reference). It is owned by a single Filter and lives as
// long as the Filter does; there is no global state. An entry stays
// valid until a slide with a different name or mod time shows up in
// that role, at which point it is recomputed wholesale.
type factCache struct {
	warm    bool
	name    string
	modTime time.Time
	fact    *stainsep.Factorization
}

func (c *factCache)matches(s *Slide) bool {
	return c.warm && c.name == s.Name && c.modTime.Equal(s.ModTime)
}

func (c *factCache)store(s *Slide, fact *stainsep.Factorization) {
	c.warm = true
	c.name = s.Name
	c.modTime = s.ModTime
	c.fact = fact
}
