package stainnorm

import(
	"math"
	"path/filepath"
	"testing"
)

func TestDensityGridSetGet(t *testing.T) {
	dg := NewDensityGrid(4, 3)
	if dg.Dx() != 4 || dg.Dy() != 3 {
		t.Fatalf("dims = %dx%d, want 4x3", dg.Dx(), dg.Dy())
	}

	dg.Set(2, 1, 0.75)
	if got := dg.Get(2, 1); got != 0.75 {
		t.Errorf("Get(2,1) = %g, want 0.75", got)
	}
	if got := dg.Get(1, 2); got != 0 {
		t.Errorf("Get(1,2) = %g, want 0", got)
	}
}

func TestConcentrationMaps(t *testing.T) {
	slide := paletteSlide("maps", inWhite, inHema, inEosin, [2]float64{0.3, 0.2})

	f := NewFilter(NewConfig())
	if _, err := f.Normalize(slide, slide); err != nil {
		t.Fatal(err)
	}
	fact, err := f.InputFactorization()
	if err != nil {
		t.Fatal(err)
	}

	hema, eosin := ConcentrationMaps(slide, fact)
	if hema.Dx() != 4 || hema.Dy() != 1 {
		t.Fatalf("grid dims = %dx%d, want 4x1", hema.Dx(), hema.Dy())
	}

	// Pixel layout: white, pure hema, pure eosin, mix(0.3, 0.2).
	wants := []struct{ h, e float64 }{
		{0, 0}, {1, 0}, {0, 1}, {0.3, 0.2},
	}
	for x, w := range wants {
		if got := hema.Get(x, 0); math.Abs(got-w.h) > 1e-3 {
			t.Errorf("hema density at %d = %g, want %g", x, got, w.h)
		}
		if got := eosin.Get(x, 0); math.Abs(got-w.e) > 1e-3 {
			t.Errorf("eosin density at %d = %g, want %g", x, got, w.e)
		}
	}
}

func TestDensityGridToImg(t *testing.T) {
	dg := NewDensityGrid(32, 32)
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			dg.Set(x, y, float64(x)/31.0)
		}
	}

	filename := filepath.Join(t.TempDir(), "density.png")
	if err := dg.ToImg("test ramp", filename); err != nil {
		t.Fatal(err)
	}
}
