// stain-palette is a QC tool: it runs the separation engine over a
// slide and renders the extracted palette (background + both stains)
// as a labeled swatch sheet, next to the slide's plain dominant color
// for comparison. Handy when a normalization looks off and you want
// to see what the engine actually extracted.
package main

import(
	"flag"
	"fmt"
	"log"

	"github.com/cenkalti/dominantcolor"
	"github.com/fogleman/gg"

	"stain-normalizer/pkg/stainnorm"
	"stain-normalizer/pkg/stainsep"
)

var(
	fOutput        string
	fVerbosity     int
	fHemaChannel   int
	fEosinChannel  int
	fDistinguisher string
)

func init() {
	flag.StringVar(&fOutput, "out", "palette.png", "output filename for the swatch sheet")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.IntVar(&fHemaChannel, "hemachannel", 0, "channel index suppressed by hematoxylin")
	flag.IntVar(&fEosinChannel, "eosinchannel", 1, "channel index suppressed by eosin")
	flag.StringVar(&fDistinguisher, "distinguisher", "projection", "extreme-color search: projection|kmeans")
	flag.Parse()
}

const (
	swatchSize = 96
	labelBand  = 20
)

func main() {
	if flag.NArg() != 1 {
		log.Fatal("usage: stain-palette [flags] slide.tif")
	}

	slide, err := stainnorm.LoadSlide(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	cfg := stainnorm.NewConfig()
	cfg.Verbosity = fVerbosity
	cfg.SuppressedByHematoxylin = fHemaChannel
	cfg.SuppressedByEosin = fEosinChannel
	cfg.Distinguisher = fDistinguisher

	V := stainsep.ImageToMatrix(slide.Image, slide.Image.Bounds())
	fact, err := stainsep.Separate(V, stainsep.Options{
		SuppressedByA: cfg.SuppressedByHematoxylin,
		SuppressedByB: cfg.SuppressedByEosin,
		Extract:       cfg.GetDistinguisher(),
	})
	if err != nil {
		log.Fatal(err)
	}

	dom := dominantcolor.Find(slide.Image)

	u := fact.Unstained
	swatches := []struct {
		label   string
		r, g, b float64
	}{
		{"unstained", u[0], u[1], u[2]},
		{"hematoxylin", u[0] - fact.W.At(0, 0), u[1] - fact.W.At(1, 0), u[2] - fact.W.At(2, 0)},
		{"eosin", u[0] - fact.W.At(0, 1), u[1] - fact.W.At(1, 1), u[2] - fact.W.At(2, 1)},
		{"dominant", float64(dom.R) * 257, float64(dom.G) * 257, float64(dom.B) * 257},
	}

	dc := gg.NewContext(swatchSize*len(swatches), swatchSize+labelBand)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, sw := range swatches {
		dc.SetRGB(clamp01(sw.r/0xffff), clamp01(sw.g/0xffff), clamp01(sw.b/0xffff))
		dc.DrawRectangle(float64(i*swatchSize), 0, swatchSize, swatchSize)
		dc.Fill()

		dc.SetRGB(0, 0, 0)
		dc.DrawString(sw.label, float64(i*swatchSize)+4, swatchSize+labelBand-6)

		log.Printf("%-12s [%5.0f, %5.0f, %5.0f]", sw.label, sw.r, sw.g, sw.b)
	}

	if err := dc.SavePNG(fOutput); err != nil {
		log.Fatal(fmt.Errorf("save '%s': %v", fOutput, err))
	}
	log.Printf("Wrote %s", fOutput)
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
