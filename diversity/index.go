package diversity

import (
	"math"
	"sort"

	splicingfactory "github.com/SU-CompBio/SplicingFactory"
)

// index applies the selected formula to one gene's transcript values within
// one sample. Diversity is undefined for fewer than two transcripts (NaN)
// and missing when the gene is entirely unexpressed in the sample (NA).
func index(x []float64, method Method, pseudocount float64, norm bool) float64 {
	if len(x) < 2 {
		return math.NaN()
	}

	sum := 0.0
	for _, v := range x {
		sum += v
	}
	if sum == 0 {
		return splicingfactory.NA()
	}

	switch method {
	case NaiveEntropy, LaplaceEntropy:
		return ShannonEntropy(x, pseudocount, norm)
	case Gini:
		return GiniIndex(x)
	case Simpson:
		return SimpsonIndex(x)
	case InverseSimpson:
		return InverseSimpsonIndex(x)
	}

	return math.NaN()
}

// ShannonEntropy returns the Shannon entropy (log2) of x after adding
// pseudocount to every value and renormalizing. Zero-probability terms
// contribute zero. With norm, the entropy is divided by log2(len(x)), its
// maximum, giving a value in [0, 1].
func ShannonEntropy(x []float64, pseudocount float64, norm bool) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v + pseudocount
	}
	if sum == 0 {
		return splicingfactory.NA()
	}

	h := 0.0
	for _, v := range x {
		p := (v + pseudocount) / sum
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}

	if norm {
		h /= math.Log2(float64(len(x)))
	}

	return h
}

// GiniIndex returns the Gini coefficient of x with the small-sample (n-1)
// correction, so that total concentration in one transcript scores 1
// regardless of transcript count. Values must be non-negative.
func GiniIndex(x []float64) float64 {
	sorted := append([]float64{}, x...)
	sort.Float64s(sorted)

	n := len(sorted)
	sum := 0.0
	weighted := 0.0
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return splicingfactory.NA()
	}

	return (2*weighted/sum - float64(n+1)) / float64(n-1)
}

// SimpsonIndex returns the Gini-Simpson index 1 - sum(p^2), the probability
// that two reads drawn at random come from different isoforms.
func SimpsonIndex(x []float64) float64 {
	return 1 - simpsonConcentration(x)
}

// InverseSimpsonIndex returns 1 / sum(p^2), the effective number of
// isoforms.
func InverseSimpsonIndex(x []float64) float64 {
	return 1 / simpsonConcentration(x)
}

func simpsonConcentration(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	if sum == 0 {
		return splicingfactory.NA()
	}

	c := 0.0
	for _, v := range x {
		p := v / sum
		c += p * p
	}

	return c
}
