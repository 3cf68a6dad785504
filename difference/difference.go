// Package difference tests whether per-gene splicing diversity differs
// between two sample conditions. For every gene of a diversity matrix it
// summarizes the two condition groups, computes the difference and log2
// fold change, derives a raw p-value by rank-sum or label-permutation
// testing, and corrects the p-values for multiple testing.
package difference

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	splicingfactory "github.com/SU-CompBio/SplicingFactory"
	"github.com/montanaflynn/stats"
)

var (
	// ErrInvalidCondition indicates a malformed condition assignment: not
	// exactly two distinct labels, an unknown control label, or a sample
	// count that does not match the diversity matrix.
	ErrInvalidCondition = errors.New("invalid condition assignment")

	// ErrUnknownMethod indicates an unrecognized group summary method.
	ErrUnknownMethod = errors.New("unknown summary method")

	// ErrUnknownTest indicates an unrecognized significance test.
	ErrUnknownTest = errors.New("unknown significance test")

	// ErrUnknownCorrection indicates an unrecognized multiple-testing
	// correction method.
	ErrUnknownCorrection = errors.New("unknown correction method")

	// ErrInsufficientData indicates an empty diversity matrix.
	ErrInsufficientData = errors.New("no genes in the diversity matrix")
)

// SummaryMethod selects how each condition group is reduced to one value.
type SummaryMethod int

const (
	Mean SummaryMethod = iota
	Median
)

// ParseSummaryMethod maps "mean" or "median" to its SummaryMethod.
func ParseSummaryMethod(name string) (SummaryMethod, error) {
	switch strings.ToLower(name) {
	case "mean":
		return Mean, nil
	case "median":
		return Median, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

func (m SummaryMethod) String() string {
	switch m {
	case Mean:
		return "mean"
	case Median:
		return "median"
	}

	return fmt.Sprintf("SummaryMethod(%d)", int(m))
}

// Test selects the significance test.
type Test int

const (
	// Wilcoxon is the two-sample Wilcoxon rank-sum (Mann-Whitney U) test.
	Wilcoxon Test = iota

	// Shuffle is a label-permutation test on the group summary difference.
	Shuffle
)

// ParseTest maps "wilcoxon" or "shuffle" to its Test.
func ParseTest(name string) (Test, error) {
	switch strings.ToLower(name) {
	case "wilcoxon":
		return Wilcoxon, nil
	case "shuffle":
		return Shuffle, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownTest, name)
}

func (t Test) String() string {
	switch t {
	case Wilcoxon:
		return "wilcoxon"
	case Shuffle:
		return "shuffle"
	}

	return fmt.Sprintf("Test(%d)", int(t))
}

// Options configures Calculate.
type Options struct {
	Summary SummaryMethod
	Test    Test

	// Randomizations is the number of label permutations for the Shuffle
	// test. Zero or negative means the default of 100.
	Randomizations int

	Correction Correction

	// Rand supplies the randomness for the Shuffle test. It must be set when
	// Test is Shuffle; seeding it makes results reproducible. The Wilcoxon
	// test ignores it.
	Rand *rand.Rand

	// Logf, when non-nil, receives advisory diagnostics such as the number
	// of genes excluded for insufficient sample size.
	Logf func(format string, v ...interface{})
}

// DefaultOptions returns Options matching the defaults of the R package:
// mean summaries, Wilcoxon test, 100 randomizations, Benjamini-Hochberg
// correction.
func DefaultOptions() Options {
	return Options{Summary: Mean, Test: Wilcoxon, Randomizations: 100, Correction: BenjaminiHochberg}
}

// Row is the per-gene output of Calculate.
type Row struct {
	Gene           string  `csv:"genes"`
	ControlSummary float64 `csv:"control"`
	OtherSummary   float64 `csv:"other"`
	Difference     float64 `csv:"difference"`
	Log2FoldChange float64 `csv:"log2_fold_change"`
	P              float64 `csv:"raw_p_values"`
	PAdjusted      float64 `csv:"adjusted_p_values"`
}

// Result holds the surviving genes in input row order plus the genes
// excluded for insufficient non-missing sample sizes.
type Result struct {
	Control string
	Other   string
	Rows    []Row

	// Excluded lists the genes omitted from Rows because a condition group
	// had too few non-missing diversity values for the chosen test.
	Excluded []string
}

// Calculate runs the differential diversity analysis. conditions assigns a
// condition label to each column of div, in column order; control names the
// reference condition.
func Calculate(div *splicingfactory.Matrix, conditions []string, control string, opts Options) (*Result, error) {
	if err := div.CheckRectangular(); err != nil {
		return nil, err
	}

	if len(conditions) != div.NCols() {
		return nil, fmt.Errorf("%w: %d condition labels for %d samples", ErrInvalidCondition, len(conditions), div.NCols())
	}

	other, err := otherLabel(conditions, control)
	if err != nil {
		return nil, err
	}

	switch opts.Summary {
	case Mean, Median:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, opts.Summary)
	}

	switch opts.Test {
	case Wilcoxon:
	case Shuffle:
		if opts.Rand == nil {
			return nil, fmt.Errorf("shuffle test requires an explicit random source in Options.Rand")
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownTest, opts.Test)
	}

	if err := checkCorrection(opts.Correction); err != nil {
		return nil, err
	}

	if div.NRows() == 0 {
		return nil, ErrInsufficientData
	}

	randomizations := opts.Randomizations
	if randomizations <= 0 {
		randomizations = 100
	}

	result := &Result{Control: control, Other: other}

	for i := 0; i < div.NRows(); i++ {
		ctrlVals, otherVals := partition(div.Row(i), conditions, control)

		if !minSampleSizes(opts.Test, len(ctrlVals), len(otherVals)) {
			result.Excluded = append(result.Excluded, div.RowNames[i])
			continue
		}

		ctrlSummary := summarize(ctrlVals, opts.Summary)
		otherSummary := summarize(otherVals, opts.Summary)

		var p float64
		switch opts.Test {
		case Wilcoxon:
			p = RankSumP(ctrlVals, otherVals)
		case Shuffle:
			p = shuffleP(ctrlVals, otherVals, opts.Summary, randomizations, opts.Rand)
		}

		result.Rows = append(result.Rows, Row{
			Gene:           div.RowNames[i],
			ControlSummary: ctrlSummary,
			OtherSummary:   otherSummary,
			Difference:     otherSummary - ctrlSummary,
			// A zero control summary propagates as +Inf or NaN, by the usual
			// floating-point rules.
			Log2FoldChange: math.Log2(otherSummary / ctrlSummary),
			P:              p,
		})
	}

	if len(result.Excluded) > 0 && opts.Logf != nil {
		opts.Logf("excluding %d genes with too few non-missing values for the %v test", len(result.Excluded), opts.Test)
	}

	raw := make([]float64, len(result.Rows))
	for i, row := range result.Rows {
		raw[i] = row.P
	}

	adjusted, err := Adjust(raw, opts.Correction)
	if err != nil {
		return nil, err
	}
	for i := range result.Rows {
		result.Rows[i].PAdjusted = adjusted[i]
	}

	return result, nil
}

// otherLabel confirms that conditions carries exactly two distinct labels,
// control among them, and returns the non-control label.
func otherLabel(conditions []string, control string) (string, error) {
	distinct := make([]string, 0, 2)
	for _, c := range conditions {
		seen := false
		for _, d := range distinct {
			if c == d {
				seen = true
				break
			}
		}
		if !seen {
			distinct = append(distinct, c)
		}
	}

	if len(distinct) != 2 {
		return "", fmt.Errorf("%w: need exactly 2 distinct condition labels, got %d", ErrInvalidCondition, len(distinct))
	}

	switch control {
	case distinct[0]:
		return distinct[1], nil
	case distinct[1]:
		return distinct[0], nil
	}

	return "", fmt.Errorf("%w: control label %q not among the conditions", ErrInvalidCondition, control)
}

// partition splits one gene's non-missing values into the control group and
// the other group.
func partition(row []float64, conditions []string, control string) (ctrl, other []float64) {
	for j, v := range row {
		if splicingfactory.IsNA(v) {
			continue
		}
		if conditions[j] == control {
			ctrl = append(ctrl, v)
		} else {
			other = append(other, v)
		}
	}

	return ctrl, other
}

// minSampleSizes reports whether the non-missing group sizes satisfy the
// test's minimum: the Wilcoxon test needs 3 per group and 8 total, the
// shuffle test 5 per group.
func minSampleSizes(test Test, nCtrl, nOther int) bool {
	switch test {
	case Wilcoxon:
		return nCtrl >= 3 && nOther >= 3 && nCtrl+nOther >= 8
	case Shuffle:
		return nCtrl >= 5 && nOther >= 5
	}

	return false
}

func summarize(vals []float64, method SummaryMethod) float64 {
	var v float64
	var err error

	switch method {
	case Median:
		v, err = stats.Median(vals)
	default:
		v, err = stats.Mean(vals)
	}

	// stats only errors on empty input, which the minimum sample sizes rule
	// out.
	if err != nil {
		return math.NaN()
	}

	return v
}
