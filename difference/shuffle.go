package difference

import (
	"math"
	"math/rand"
)

// shuffleP estimates a two-sided p-value by label permutation: the pooled
// values are repeatedly repartitioned at random into groups of the observed
// sizes, and the p-value is the add-one-smoothed fraction of permutations
// whose absolute summary difference meets or exceeds the observed one.
func shuffleP(ctrl, other []float64, method SummaryMethod, randomizations int, rng *rand.Rand) float64 {
	observed := math.Abs(summarize(other, method) - summarize(ctrl, method))

	pooled := make([]float64, 0, len(ctrl)+len(other))
	pooled = append(pooled, ctrl...)
	pooled = append(pooled, other...)

	hits := 0
	for i := 0; i < randomizations; i++ {
		rng.Shuffle(len(pooled), func(a, b int) {
			pooled[a], pooled[b] = pooled[b], pooled[a]
		})

		permuted := math.Abs(summarize(pooled[len(ctrl):], method) - summarize(pooled[:len(ctrl)], method))
		if permuted >= observed {
			hits++
		}
	}

	// Add-one smoothing keeps the estimate away from zero: the observed
	// labeling counts as one more permutation.
	return float64(hits+1) / float64(randomizations+1)
}
