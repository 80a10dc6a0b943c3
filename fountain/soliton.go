package fountain

import (
	"math"
	"math/rand"
)

// idealSoliton returns the ideal soliton distribution rho over degrees
// 1..k; index 0 is unused.
func idealSoliton(k int) []float64 {
	rho := make([]float64, k+1)
	if k <= 0 {
		return rho
	}
	rho[1] = 1 / float64(k)
	for i := 2; i <= k; i++ {
		rho[i] = 1 / float64(i*(i-1))
	}
	return rho
}

// robustSoliton returns the robust soliton distribution mu over degrees
// 1..k with parameters c and delta.
func robustSoliton(k int, c, delta float64) []float64 {
	if k <= 1 {
		return []float64{0, 1}
	}
	rho := idealSoliton(k)
	tau := make([]float64, k+1)
	r := c * math.Log(float64(k)/delta) * math.Sqrt(float64(k))
	if r > 0 {
		kOverR := int(float64(k) / r)
		if kOverR < 1 {
			kOverR = 1
		}
		if kOverR > k {
			kOverR = k
		}
		for i := 1; i < kOverR; i++ {
			tau[i] = r / (float64(i) * float64(k))
		}
		tauVal := r * math.Log(r/delta) / float64(k)
		if tauVal < 0 || math.IsNaN(tauVal) {
			tauVal = 0
		}
		tau[kOverR] = tauVal
	}

	var z float64
	for i := 1; i <= k; i++ {
		z += rho[i] + tau[i]
	}
	mu := make([]float64, k+1)
	if z > 0 {
		for i := 1; i <= k; i++ {
			mu[i] = (rho[i] + tau[i]) / z
		}
	}
	return mu
}

// degreeCDF returns the cumulative robust soliton distribution; cdf[i-1] is
// the probability of degree <= i, and cdf[k-1] is pinned to 1.
func degreeCDF(k int, c, delta float64) []float64 {
	mu := robustSoliton(k, c, delta)
	cdf := make([]float64, 0, k)
	acc := 0.0
	for i := 1; i <= k; i++ {
		acc += mu[i]
		cdf = append(cdf, acc)
	}
	if len(cdf) > 0 {
		cdf[len(cdf)-1] = 1
	}
	return cdf
}

// sampleDegree draws a degree from the CDF using rng.
func sampleDegree(rng *rand.Rand, cdf []float64) int {
	if len(cdf) == 0 {
		return 1
	}
	r := rng.Float64()
	for i, p := range cdf {
		if r <= p {
			return i + 1
		}
	}
	return len(cdf)
}
