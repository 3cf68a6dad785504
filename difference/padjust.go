package difference

import (
	"fmt"
	"sort"
	"strings"
)

// Correction selects the multiple-testing correction applied across the raw
// p-values of the surviving genes.
type Correction int

const (
	// BenjaminiHochberg controls the false discovery rate.
	BenjaminiHochberg Correction = iota

	Bonferroni
	Holm
	Hochberg

	// BenjaminiYekutieli controls the FDR under arbitrary dependence.
	BenjaminiYekutieli

	// None leaves the raw p-values unadjusted.
	None
)

// ParseCorrection maps a correction name to its Correction. The names
// follow R's p.adjust: BH (or fdr), bonferroni, holm, hochberg, BY, none.
func ParseCorrection(name string) (Correction, error) {
	switch strings.ToLower(name) {
	case "bh", "fdr":
		return BenjaminiHochberg, nil
	case "bonferroni":
		return Bonferroni, nil
	case "holm":
		return Holm, nil
	case "hochberg":
		return Hochberg, nil
	case "by":
		return BenjaminiYekutieli, nil
	case "none":
		return None, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownCorrection, name)
}

func (c Correction) String() string {
	switch c {
	case BenjaminiHochberg:
		return "BH"
	case Bonferroni:
		return "bonferroni"
	case Holm:
		return "holm"
	case Hochberg:
		return "hochberg"
	case BenjaminiYekutieli:
		return "BY"
	case None:
		return "none"
	}

	return fmt.Sprintf("Correction(%d)", int(c))
}

func checkCorrection(c Correction) error {
	switch c {
	case BenjaminiHochberg, Bonferroni, Holm, Hochberg, BenjaminiYekutieli, None:
		return nil
	}

	return fmt.Errorf("%w: %v", ErrUnknownCorrection, c)
}

// Adjust corrects the p-values in p for multiple testing, following the
// semantics of R's p.adjust. The input is not modified; the output keeps
// the input order.
func Adjust(p []float64, c Correction) ([]float64, error) {
	if err := checkCorrection(c); err != nil {
		return nil, err
	}

	n := len(p)
	out := make([]float64, n)

	if n == 0 {
		return out, nil
	}

	if c == None {
		copy(out, p)
		return out, nil
	}

	if c == Bonferroni {
		for i, v := range p {
			out[i] = clampUnit(v * float64(n))
		}
		return out, nil
	}

	// Ascending rank order of the raw p-values.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })

	switch c {
	case Holm:
		// Step-down: running maximum of (n-i)·p over ascending ranks.
		running := 0.0
		for i, idx := range order {
			v := float64(n-i) * p[idx]
			if v > running {
				running = v
			}
			out[idx] = clampUnit(running)
		}

	case Hochberg, BenjaminiHochberg, BenjaminiYekutieli:
		// Step-up: running minimum over descending ranks.
		factor := func(i int) float64 {
			if c == Hochberg {
				return float64(n - i)
			}
			return float64(n) / float64(i+1)
		}

		scale := 1.0
		if c == BenjaminiYekutieli {
			scale = 0
			for k := 1; k <= n; k++ {
				scale += 1 / float64(k)
			}
		}

		running := 1.0
		for i := n - 1; i >= 0; i-- {
			idx := order[i]
			v := scale * factor(i) * p[idx]
			if v < running {
				running = v
			}
			out[idx] = clampUnit(running)
		}
	}

	return out, nil
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}

	return v
}
