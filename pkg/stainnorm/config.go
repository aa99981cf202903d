package stainnorm

import(
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"stain-normalizer/pkg/stainsep"
)

/* Example config file ...

verbosity: 1
suppressedbyhematoxylin: 0
suppressedbyeosin: 1
solver: euclidean
distinguisher: projection

*/

type Config struct {
	Verbosity               int

	// Which color channel each stain most strongly suppresses. For
	// H&E in RGB: Hematoxylin (blue-purple) suppresses red,
	// Eosin (pink) suppresses green. These are the only two knobs the
	// algorithm exposes; the numerical thresholds are fixed constants
	// of pkg/stainsep.
	SuppressedByHematoxylin int
	SuppressedByEosin       int

	Solver        string // loss for the NMF refinement
	Distinguisher string // extreme-color search strategy
}

func NewConfig() Config {
	return Config{
		SuppressedByHematoxylin: 0,
		SuppressedByEosin:       1,
		Solver:                  "euclidean",
		Distinguisher:           "projection",
	}
}

func LoadConfig(filename string) (Config, error) {
	c := NewConfig()

	contents, err := ioutil.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("config read '%s': %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("config parse '%s': %v", filename, err)
	}

	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func (c Config)GetFactorizer() stainsep.FactorizeFunc {
	switch c.Solver {
	case "", "euclidean":  return stainsep.FactorizeEuclidean
	case "divergence":     return stainsep.FactorizeKLDivergence
	default:
		log.Fatalf("no Solver strategy named '%s'", c.Solver)
		return nil
	}
}

func (c Config)GetDistinguisher() stainsep.DistinguisherFunc {
	switch c.Distinguisher {
	case "", "projection": return stainsep.ProjectionDistinguishers
	case "kmeans":         return stainsep.KMeansDistinguishers
	default:
		log.Fatalf("no Distinguisher strategy named '%s'", c.Distinguisher)
		return nil
	}
}
