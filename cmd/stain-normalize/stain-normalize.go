package main

import(
	"flag"
	"log"

	"stain-normalizer/pkg/stainnorm"
)

var(
	fInput         string
	fRefer         string
	fOutput        string
	fConfig        string
	fVerbosity     int
	fHemaChannel   int
	fEosinChannel  int
	fSolver        string
	fDistinguisher string
	fSelfCheck     bool
	fDensityMaps   bool
)

func init() {
	flag.StringVar(&fInput, "input", "", "the slide to normalize")
	flag.StringVar(&fRefer, "refer", "", "the slide whose staining to match")
	flag.StringVar(&fOutput, "out", "normalized.png", "output filename")
	flag.StringVar(&fConfig, "config", "", "optional YAML config file; flags override it")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.IntVar(&fHemaChannel, "hemachannel", 0, "channel index suppressed by hematoxylin")
	flag.IntVar(&fEosinChannel, "eosinchannel", 1, "channel index suppressed by eosin")
	flag.StringVar(&fSolver, "solver", "euclidean", "NMF refinement loss: euclidean|divergence")
	flag.StringVar(&fDistinguisher, "distinguisher", "projection", "extreme-color search: projection|kmeans")
	flag.BoolVar(&fSelfCheck, "selfcheck", false, "normalize the input against itself and report the round-trip error")
	flag.BoolVar(&fDensityMaps, "densitymaps", false, "also write per-stain concentration maps")
	flag.Parse()

	log.Printf("stain-normalize starting\n")
}

func main() {
	if fInput == "" {
		log.Fatal("need -input")
	}
	if fRefer == "" && !fSelfCheck {
		log.Fatal("need -refer (or -selfcheck)")
	}

	cfg := stainnorm.NewConfig()
	if fConfig != "" {
		var err error
		if cfg, err = stainnorm.LoadConfig(fConfig); err != nil {
			log.Fatal(err)
		}
	}
	cfg.Verbosity = fVerbosity
	cfg.SuppressedByHematoxylin = fHemaChannel
	cfg.SuppressedByEosin = fEosinChannel
	cfg.Solver = fSolver
	cfg.Distinguisher = fDistinguisher

	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	input, err := stainnorm.LoadSlide(fInput)
	if err != nil {
		log.Fatal(err)
	}

	refer := input
	if !fSelfCheck {
		if refer, err = stainnorm.LoadSlide(fRefer); err != nil {
			log.Fatal(err)
		}
	}

	filter := stainnorm.NewFilter(cfg)
	out, err := filter.Normalize(input, refer)
	if err != nil {
		log.Fatal(err)
	}

	if fSelfCheck {
		log.Printf("Round-trip mean channel error: %.2f (of %d)", stainnorm.MeanChannelError(input.Image, out), 0xffff)
	}

	if err := stainnorm.WritePNG(out, fOutput); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s", fOutput)

	if fDensityMaps {
		writeDensityMaps(filter, input)
	}
}

func writeDensityMaps(filter *stainnorm.Filter, input *stainnorm.Slide) {
	fact, err := filter.InputFactorization()
	if err != nil {
		log.Fatal(err)
	}

	hema, eosin := stainnorm.ConcentrationMaps(input, fact)
	if err := hema.ToImg("hematoxylin", "density-hematoxylin.png"); err != nil {
		log.Fatal(err)
	}
	if err := eosin.ToImg("eosin", "density-eosin.png"); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote density-hematoxylin.png, density-eosin.png (%s, %s)", hema.Stats(), eosin.Stats())
}
