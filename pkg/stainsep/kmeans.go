package stainsep

import(
	"fmt"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/mat"
)

// KMeansDistinguishers is an alternative extraction strategy: cluster
// the bright column cloud into NumTargets groups and take the sample
// column nearest each cluster center. It is less principled than the
// projection search (centers sit inside the cloud, not at its
// corners) but is handy for cross-checking what the default strategy
// finds on a difficult slide.
//
// Like the projection search, every returned color is a genuine
// sample from the matrix, and the result has exactly NumTargets
// columns or the slide is declared not normalizable.
func KMeansDistinguishers(brightV *mat.Dense) (*mat.Dense, error) {
	if brightV == nil {
		return nil, ErrNotNormalizable
	}

	rows, cols := brightV.Dims()
	if cols < NumTargets {
		return nil, fmt.Errorf("%w: only %d bright samples", ErrNotNormalizable, cols)
	}

	raw := brightV.RawMatrix()
	obs := make(clusters.Observations, cols)
	for j := 0; j < cols; j++ {
		coords := make(clusters.Coordinates, rows)
		for i := 0; i < rows; i++ {
			// Cluster on a unit scale; kmeans convergence thresholds
			// assume roughly normalized data.
			coords[i] = raw.Data[i*raw.Stride+j] / ColorScale
		}
		obs[j] = coords
	}

	km := kmeans.New()
	cl, err := km.Partition(obs, NumTargets)
	if err != nil {
		return nil, fmt.Errorf("%w: kmeans: %v", ErrNotNormalizable, err)
	}
	if len(cl) < NumTargets {
		return nil, fmt.Errorf("%w: kmeans found %d clusters", ErrNotNormalizable, len(cl))
	}

	out := mat.NewDense(rows, NumTargets, nil)
	for k := 0; k < NumTargets; k++ {
		center := cl[k].Center

		// Snap the center back to the closest actual sample.
		best, bestD2 := 0, -1.0
		for j := 0; j < cols; j++ {
			d2 := 0.0
			for i := 0; i < rows; i++ {
				d := raw.Data[i*raw.Stride+j]/ColorScale - center[i]
				d2 += d * d
			}
			if bestD2 < 0 || d2 < bestD2 {
				best, bestD2 = j, d2
			}
		}
		for i := 0; i < rows; i++ {
			out.Set(i, k, raw.Data[i*raw.Stride+best])
		}
	}

	return out, nil
}
