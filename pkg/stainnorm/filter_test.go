package stainnorm

import(
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"stain-normalizer/pkg/stainsep"
)

// Two synthetic H&E palettes on the 16-bit scale. Both have a
// slightly off-gray background (the projection search needs one), a
// hematoxylin corner suppressing red, and an eosin corner suppressing
// green; the numbers differ so appearance transfer is observable.
var (
	inWhite = []float64{62000, 60000, 58000}
	inHema  = []float64{18000, 22000, 52000}
	inEosin = []float64{60000, 20000, 35000}

	refWhite = []float64{63000, 61000, 57000}
	refHema  = []float64{20000, 26000, 50000}
	refEosin = []float64{58000, 24000, 33000}
)

// stained returns the pixel color for the given concentrations of
// the two stains, over the given palette.
func stained(white, hema, eosin []float64, a, b float64) color.RGBA64 {
	var px [3]uint16
	for i := range px {
		v := white[i] - a*(white[i]-hema[i]) - b*(white[i]-eosin[i])
		px[i] = uint16(v + 0.5)
	}
	return color.RGBA64{R: px[0], G: px[1], B: px[2], A: 0xffff}
}

// paletteSlide builds a one-row slide whose pixels are the palette
// corners plus the given (hema, eosin) mixtures.
func paletteSlide(name string, white, hema, eosin []float64, mixes ...[2]float64) *Slide {
	img := image.NewRGBA64(image.Rect(0, 0, 3+len(mixes), 1))
	img.SetRGBA64(0, 0, stained(white, hema, eosin, 0, 0))
	img.SetRGBA64(1, 0, stained(white, hema, eosin, 1, 0))
	img.SetRGBA64(2, 0, stained(white, hema, eosin, 0, 1))
	for i, m := range mixes {
		img.SetRGBA64(3+i, 0, stained(white, hema, eosin, m[0], m[1]))
	}
	return NewSlide(img, name)
}

func TestNormalizeTransfersAppearance(t *testing.T) {
	input := paletteSlide("in", inWhite, inHema, inEosin, [2]float64{0.3, 0.2}, [2]float64{0.1, 0.6})
	refer := paletteSlide("ref", refWhite, refHema, refEosin, [2]float64{0.3, 0.2}, [2]float64{0.1, 0.6})

	f := NewFilter(NewConfig())
	out, err := f.Normalize(input, refer)
	if err != nil {
		t.Fatal(err)
	}

	// Each input pixel keeps its concentrations but renders in the
	// reference palette.
	wants := []color.RGBA64{
		stained(refWhite, refHema, refEosin, 0, 0),
		stained(refWhite, refHema, refEosin, 1, 0),
		stained(refWhite, refHema, refEosin, 0, 1),
		stained(refWhite, refHema, refEosin, 0.3, 0.2),
		stained(refWhite, refHema, refEosin, 0.1, 0.6),
	}
	for x, want := range wants {
		got := out.RGBA64At(x, 0)
		if chDiff(got.R, want.R) > 1 || chDiff(got.G, want.G) > 1 || chDiff(got.B, want.B) > 1 {
			t.Errorf("pixel %d = %v, want %v", x, got, want)
		}
	}
}

func TestNormalizeAgainstSelf(t *testing.T) {
	slide := paletteSlide("self", inWhite, inHema, inEosin,
		[2]float64{0.3, 0.2}, [2]float64{0.1, 0.6}, [2]float64{0.5, 0.1})

	f := NewFilter(NewConfig())
	out, err := f.Normalize(slide, slide)
	if err != nil {
		t.Fatal(err)
	}

	if mce := MeanChannelError(slide.Image, out); mce > 1.5 {
		t.Errorf("self-normalization mean channel error = %g, want ~0", mce)
	}
}

func TestNormalizeCachesFactorizations(t *testing.T) {
	input := paletteSlide("in", inWhite, inHema, inEosin, [2]float64{0.3, 0.2})
	refer := paletteSlide("ref", refWhite, refHema, refEosin, [2]float64{0.1, 0.6})

	f := NewFilter(NewConfig())

	first, err := f.Normalize(input, refer)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Separations(); got != 2 {
		t.Fatalf("after first call, separations = %d, want 2", got)
	}

	second, err := f.Normalize(input, refer)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Separations(); got != 2 {
		t.Errorf("after repeat call, separations = %d, want 2 (cache hit)", got)
	}
	if len(first.Pix) != len(second.Pix) {
		t.Fatal("repeat call changed output size")
	}
	for i := range first.Pix {
		if first.Pix[i] != second.Pix[i] {
			t.Fatal("cache hit produced a different image")
		}
	}

	// Same name, newer mod time: the input entry is stale, the
	// reference entry is not.
	input.ModTime = time.Now()
	if _, err := f.Normalize(input, refer); err != nil {
		t.Fatal(err)
	}
	if got := f.Separations(); got != 3 {
		t.Errorf("after touching the input slide, separations = %d, want 3", got)
	}
}

func TestNormalizeRejectsBlankSlide(t *testing.T) {
	blank := image.NewRGBA64(image.Rect(0, 0, 2, 2))
	px := stained(inWhite, inHema, inEosin, 0, 0)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			blank.SetRGBA64(x, y, px)
		}
	}
	input := NewSlide(blank, "blank")
	refer := paletteSlide("ref", refWhite, refHema, refEosin, [2]float64{0.3, 0.2})

	f := NewFilter(NewConfig())
	if _, err := f.Normalize(input, refer); !errors.Is(err, stainsep.ErrNotNormalizable) {
		t.Errorf("err = %v, want ErrNotNormalizable", err)
	}
}

func TestNormalizeEmptyRegion(t *testing.T) {
	input := NewSlide(image.NewRGBA64(image.Rectangle{}), "empty")
	refer := paletteSlide("ref", refWhite, refHema, refEosin, [2]float64{0.3, 0.2})

	f := NewFilter(NewConfig())
	out, err := f.Normalize(input, refer)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Bounds().Empty() {
		t.Errorf("output bounds = %v, want empty", out.Bounds())
	}
	if got := f.Separations(); got != 0 {
		t.Errorf("empty input still ran %d separations", got)
	}
}

func TestInputFactorization(t *testing.T) {
	f := NewFilter(NewConfig())
	if _, err := f.InputFactorization(); err == nil {
		t.Error("want an error before any Normalize call")
	}

	input := paletteSlide("in", inWhite, inHema, inEosin, [2]float64{0.3, 0.2})
	refer := paletteSlide("ref", refWhite, refHema, refEosin, [2]float64{0.1, 0.6})
	if _, err := f.Normalize(input, refer); err != nil {
		t.Fatal(err)
	}

	fact, err := f.InputFactorization()
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range inWhite {
		if math.Abs(fact.Unstained[i]-want) > 1.0 {
			t.Errorf("unstained[%d] = %g, want %g", i, fact.Unstained[i], want)
		}
	}
}

func chDiff(a, b uint16) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
