package nn

import (
	"math"
	"sort"
)

// RBFMMD computes the squared maximum mean discrepancy between scalar
// samples x and y under an RBF kernel, and its gradient with respect to x.
//
// The kernel bandwidth follows the median heuristic over the pooled
// pairwise distances and is treated as a constant in the gradient. With
// biased set, the estimator keeps the diagonal kernel terms; otherwise the
// U-statistic (unbiased) estimator is used, which requires at least two
// samples per side.
func RBFMMD(x, y []float64, biased bool) (float64, []float64) {
	m := len(x)
	n := len(y)
	gamma := rbfGamma(x, y)

	gradX := make([]float64, m)
	var xx, yy, xy float64

	if biased {
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				k := rbf(x[i], y[j], gamma)
				xy += k
				gradX[i] += (4 * gamma / float64(m*n)) * (x[i] - y[j]) * k
			}
			for j := 0; j < m; j++ {
				k := rbf(x[i], x[j], gamma)
				xx += k
				gradX[i] -= (4 * gamma / float64(m*m)) * (x[i] - x[j]) * k
			}
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				yy += rbf(y[i], y[j], gamma)
			}
		}
		v := xx/float64(m*m) + yy/float64(n*n) - 2*xy/float64(m*n)
		return v, gradX
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			k := rbf(x[i], y[j], gamma)
			xy += k
			gradX[i] += (4 * gamma / float64(m*n)) * (x[i] - y[j]) * k
		}
		for j := 0; j < m; j++ {
			if j == i {
				continue
			}
			k := rbf(x[i], x[j], gamma)
			xx += k
			gradX[i] -= (4 * gamma / float64(m*(m-1))) * (x[i] - x[j]) * k
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j != i {
				yy += rbf(y[i], y[j], gamma)
			}
		}
	}
	v := xx/float64(m*(m-1)) + yy/float64(n*(n-1)) - 2*xy/float64(m*n)
	return v, gradX
}

func rbf(a, b, gamma float64) float64 {
	d := a - b
	return math.Exp(-gamma * d * d)
}

// maxBandwidthSamples caps the pooled sample count used by the median
// heuristic; pairwise distances are quadratic in it.
const maxBandwidthSamples = 256

// rbfGamma returns 1/(2 h^2) with h the median pairwise distance of the
// pooled samples. Falls back to 1 when the samples are degenerate.
func rbfGamma(x, y []float64) float64 {
	pooled := make([]float64, 0, len(x)+len(y))
	pooled = append(pooled, subsample(x, maxBandwidthSamples/2)...)
	pooled = append(pooled, subsample(y, maxBandwidthSamples/2)...)

	var dists []float64
	for i := 0; i < len(pooled); i++ {
		for j := i + 1; j < len(pooled); j++ {
			dists = append(dists, math.Abs(pooled[i]-pooled[j]))
		}
	}
	if len(dists) == 0 {
		return 1
	}
	sort.Float64s(dists)
	h := dists[len(dists)/2]
	if h <= 0 {
		return 1
	}
	return 1 / (2 * h * h)
}

// subsample takes at most max evenly strided elements.
func subsample(xs []float64, max int) []float64 {
	if len(xs) <= max {
		return xs
	}
	out := make([]float64, 0, max)
	stride := len(xs) / max
	for i := 0; i < len(xs) && len(out) < max; i += stride {
		out = append(out, xs[i])
	}
	return out
}
