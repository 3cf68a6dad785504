package difference

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactSizeLimit mirrors the conventional cutoff for the exact rank-sum
// distribution: exact p-values when both groups are smaller and the pooled
// values carry no ties, the normal approximation otherwise.
const exactSizeLimit = 50

// RankSumP returns the two-sided p-value of the two-sample Wilcoxon
// rank-sum (Mann-Whitney U) test on x and y. With small tie-free samples
// the p-value comes from the exact null distribution of U; otherwise from
// the normal approximation with tie correction and continuity correction.
func RankSumP(x, y []float64) float64 {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return 1
	}

	u, ties, tieSum := uStatistic(x, y)

	if !ties && n1 < exactSizeLimit && n2 < exactSizeLimit {
		return exactRankSumP(int(math.Round(u)), n1, n2)
	}

	return normalRankSumP(u, n1, n2, tieSum)
}

// uStatistic pools x and y, midranks ties, and returns the Mann-Whitney U
// of x along with tie information: whether any ties occurred and the tie
// correction term sum(t^3 - t) over tie groups.
func uStatistic(x, y []float64) (u float64, ties bool, tieSum float64) {
	type tagged struct {
		v     float64
		fromX bool
	}

	pooled := make([]tagged, 0, len(x)+len(y))
	for _, v := range x {
		pooled = append(pooled, tagged{v: v, fromX: true})
	}
	for _, v := range y {
		pooled = append(pooled, tagged{v: v})
	}

	sort.Slice(pooled, func(i, j int) bool { return pooled[i].v < pooled[j].v })

	rankSumX := 0.0
	for i := 0; i < len(pooled); {
		j := i
		for j < len(pooled) && pooled[j].v == pooled[i].v {
			j++
		}

		// Midrank of positions i..j-1, 1-based.
		rank := float64(i+j+1) / 2

		if t := float64(j - i); t > 1 {
			ties = true
			tieSum += t*t*t - t
		}

		for k := i; k < j; k++ {
			if pooled[k].fromX {
				rankSumX += rank
			}
		}

		i = j
	}

	n1 := float64(len(x))
	u = rankSumX - n1*(n1+1)/2

	return u, ties, tieSum
}

// normalRankSumP computes the two-sided p-value from the normal
// approximation to the U distribution, with tie-corrected variance and 0.5
// continuity correction toward the mean.
func normalRankSumP(u float64, n1, n2 int, tieSum float64) float64 {
	f1, f2 := float64(n1), float64(n2)
	n := f1 + f2

	mu := f1 * f2 / 2
	sigma := math.Sqrt(f1 * f2 / 12 * ((n + 1) - tieSum/(n*(n-1))))
	if sigma == 0 {
		return 1
	}

	z := u - mu
	switch {
	case z > 0:
		z -= 0.5
	case z < 0:
		z += 0.5
	}
	z /= sigma

	lower := distuv.UnitNormal.CDF(z)
	p := 2 * math.Min(lower, 1-lower)
	if p > 1 {
		p = 1
	}

	return p
}

// exactRankSumP computes the two-sided p-value from the exact null
// distribution of U, counting the subsets of ranks 1..n1+n2 assignable to
// the first group. Valid only without ties, where U is integral.
func exactRankSumP(u, n1, n2 int) float64 {
	counts := rankSumCounts(n1, n2)

	total := 0.0
	for _, c := range counts {
		total += c
	}

	maxU := n1 * n2
	var tail float64
	if float64(u) > float64(maxU)/2 {
		// Upper tail: P(U >= u).
		for s := u; s <= maxU; s++ {
			tail += counts[s]
		}
	} else {
		// Lower tail: P(U <= u).
		for s := 0; s <= u; s++ {
			tail += counts[s]
		}
	}

	p := 2 * tail / total
	if p > 1 {
		p = 1
	}

	return p
}

// rankSumCounts returns, for each possible U in 0..n1*n2, the number of
// ways to choose n1 of the ranks 1..n1+n2 yielding that U. Counts are
// float64: they can exceed 2^53 for the largest allowed groups, which
// costs only relative rounding error far below p-value tolerance.
func rankSumCounts(n1, n2 int) []float64 {
	n := n1 + n2
	maxU := n1 * n2

	// ways[k][s]: subsets of size k of the ranks seen so far whose rank sum
	// is s + k(k+1)/2, i.e. s is the U contribution.
	ways := make([][]float64, n1+1)
	for k := range ways {
		ways[k] = make([]float64, maxU+1)
	}
	ways[0][0] = 1

	for r := 1; r <= n; r++ {
		for k := min(r, n1); k >= 1; k-- {
			// Adding rank r as the k'th smallest element contributes r-k
			// to U.
			shift := r - k
			for s := maxU; s >= shift; s-- {
				ways[k][s] += ways[k-1][s-shift]
			}
		}
	}

	return ways[n1]
}

func min(a, b int) int {
	if a < b {
		return a
	}

	return b
}
