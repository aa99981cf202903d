package stainsep

import(
	"math"
	"testing"
)

func TestSeedFactorization(t *testing.T) {
	distinguishers := cloudMatrix(testHema, testWhite, testEosin)
	roles := Roles{Unstained: 1, StainA: 0, StainB: 2}

	V := cloudMatrix(mix(1, 0), mix(0, 1), mix(0, 0), mix(0.25, 0.5))
	fact, H := SeedFactorization(V, distinguishers, roles)

	for i := 0; i < NumColors; i++ {
		if fact.Unstained[i] != testWhite[i] {
			t.Errorf("unstained[%d] = %g, want %g", i, fact.Unstained[i], testWhite[i])
		}
		wantA := testWhite[i] - testHema[i]
		wantB := testWhite[i] - testEosin[i]
		if fact.W.At(i, 0) != wantA || fact.W.At(i, 1) != wantB {
			t.Errorf("W row %d = (%g, %g), want (%g, %g)",
				i, fact.W.At(i, 0), fact.W.At(i, 1), wantA, wantB)
		}
	}

	// Every V column was synthesized as unstained - a*W0 - b*W1 with
	// a, b >= 0, so the NNLS seed recovers the concentrations exactly.
	want := [][2]float64{{1, 0}, {0, 1}, {0, 0}, {0.25, 0.5}}
	for j, w := range want {
		for s := 0; s < NumStains; s++ {
			if math.Abs(H.At(s, j)-w[s]) > 1e-9 {
				t.Errorf("H(%d,%d) = %g, want %g", s, j, H.At(s, j), w[s])
			}
		}
	}
}

func TestAbsorbancesClampedAtZero(t *testing.T) {
	// One column is brighter than the unstained color; its absorbance
	// must clamp to zero, not go negative.
	V := cloudMatrix(testHema, []float64{65000, 65000, 65000})
	A := Absorbances(V, testWhite)

	for i := 0; i < NumColors; i++ {
		if want := testWhite[i] - testHema[i]; A.At(i, 0) != want {
			t.Errorf("A(%d,0) = %g, want %g", i, A.At(i, 0), want)
		}
		if A.At(i, 1) != 0 {
			t.Errorf("A(%d,1) = %g, want 0", i, A.At(i, 1))
		}
	}
}
