package stainsep

import(
	"errors"
	"testing"
)

func TestAssignRoles(t *testing.T) {
	// Distinguishers arrive in arbitrary column order; roles must not
	// depend on it.
	tests := []struct {
		name    string
		cols    [][]float64
		wantU   int
		wantA   int
		wantB   int
	}{
		{"white first", [][]float64{testWhite, testHema, testEosin}, 0, 1, 2},
		{"white last", [][]float64{testHema, testEosin, testWhite}, 2, 0, 1},
		{"stains swapped", [][]float64{testEosin, testWhite, testHema}, 1, 2, 0},
	}

	for _, tc := range tests {
		d := cloudMatrix(tc.cols...)
		roles, err := AssignRoles(d, 0, 1) // hema suppresses red, eosin green
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if roles.Unstained != tc.wantU || roles.StainA != tc.wantA || roles.StainB != tc.wantB {
			t.Errorf("%s: got %+v, want unstained=%d stainA=%d stainB=%d",
				tc.name, roles, tc.wantU, tc.wantA, tc.wantB)
		}
	}
}

func TestAssignRolesTooFew(t *testing.T) {
	d := cloudMatrix(testWhite, testHema)
	if _, err := AssignRoles(d, 0, 1); !errors.Is(err, ErrNotNormalizable) {
		t.Errorf("two distinguishers should be ErrNotNormalizable, got %v", err)
	}
}

func TestAssignRolesAmbiguous(t *testing.T) {
	// Two identical stain colors: both suppression tests pick the
	// same column (ties), so the roles can't be resolved.
	d := cloudMatrix(testWhite, testHema, testHema)
	if _, err := AssignRoles(d, 0, 1); !errors.Is(err, ErrNotNormalizable) {
		t.Errorf("identical stains should be ErrNotNormalizable, got %v", err)
	}
}

func TestAssignRolesBadChannel(t *testing.T) {
	d := cloudMatrix(testWhite, testHema, testEosin)
	if _, err := AssignRoles(d, 0, 7); err == nil {
		t.Error("out-of-range channel index should fail")
	}
}
