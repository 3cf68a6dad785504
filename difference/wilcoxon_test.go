package difference

import (
	"math"
	"testing"
)

// Truth values from R's wilcox.test (exact cases verified against the
// closed-form count of rank configurations).
func TestRankSumPExact(t *testing.T) {
	for _, v := range []struct {
		name string
		x    []float64
		y    []float64
		p    float64
	}{
		{"fully separated 4v4", []float64{1, 2, 3, 4}, []float64{5, 6, 7, 8}, 2.0 / 70},
		{"nearly separated 4v4", []float64{1, 2, 3, 5}, []float64{4, 6, 7, 8}, 4.0 / 70},
		{"fully separated 5v5", []float64{1, 2, 3, 4, 5}, []float64{6, 7, 8, 9, 10}, 2.0 / 252},
		{"interleaved 4v4", []float64{1, 3, 5, 7}, []float64{2, 4, 6, 8}, 48.0 / 70},
	} {
		if got := RankSumP(v.x, v.y); math.Abs(got-v.p) > 1e-9 {
			t.Errorf("%s: got %.12f, expected %.12f", v.name, got, v.p)
		}

		// Two-sided, so symmetric in the group order.
		if got, rev := RankSumP(v.x, v.y), RankSumP(v.y, v.x); math.Abs(got-rev) > 1e-12 {
			t.Errorf("%s: asymmetric p-values %.12f vs %.12f", v.name, got, rev)
		}
	}
}

func TestRankSumPTies(t *testing.T) {
	// Ties force the normal approximation with tie-corrected variance and
	// continuity correction, matching R's wilcox.test default.
	x := []float64{1, 1, 2, 2, 3}
	y := []float64{4, 4, 5, 5, 6}

	if got, expected := RankSumP(x, y), 0.011159425282914803; math.Abs(got-expected) > 1e-9 {
		t.Errorf("tied groups: got %.12f, expected %.12f", got, expected)
	}

	// All values identical: zero variance, maximal p.
	same := []float64{3, 3, 3, 3, 3}
	if got := RankSumP(same, same); got != 1 {
		t.Errorf("identical constant groups: got %v, expected 1", got)
	}
}

func TestRankSumPIdenticalGroups(t *testing.T) {
	x := []float64{0.2, 0.4, 0.6, 0.8}

	if got := RankSumP(x, x); got != 1 {
		t.Errorf("identical groups: got %v, expected 1", got)
	}
}

func TestRankSumCounts(t *testing.T) {
	// For two groups of 4 the U distribution over 4-subsets of ranks 1..8
	// has the closed-form counts below (70 configurations overall).
	expected := []float64{1, 1, 2, 3, 5, 5, 7, 7, 8, 7, 7, 5, 5, 3, 2, 1, 1}

	counts := rankSumCounts(4, 4)
	if len(counts) != len(expected) {
		t.Fatalf("got %d counts, expected %d", len(counts), len(expected))
	}

	total := 0.0
	for u, c := range counts {
		if c != expected[u] {
			t.Errorf("count at U=%d: got %v, expected %v", u, c, expected[u])
		}
		total += c
	}

	if total != 70 {
		t.Errorf("total configurations: got %v, expected 70", total)
	}
}

func TestUStatistic(t *testing.T) {
	u, ties, tieSum := uStatistic([]float64{1, 2, 3, 4}, []float64{5, 6, 7, 8})
	if u != 0 || ties || tieSum != 0 {
		t.Errorf("separated groups: got u=%v ties=%v tieSum=%v, expected 0,false,0", u, ties, tieSum)
	}

	u, ties, tieSum = uStatistic([]float64{1, 1, 2}, []float64{2, 3, 3})
	// Ranks: 1,1 -> 1.5; 2,2 -> 3.5; 3,3 -> 5.5. Rank sum of x = 6.5.
	if expected := 6.5 - 6; u != expected {
		t.Errorf("tied groups: got u=%v, expected %v", u, expected)
	}
	if !ties || tieSum != 18 {
		t.Errorf("tied groups: got ties=%v tieSum=%v, expected true, 18", ties, tieSum)
	}
}
