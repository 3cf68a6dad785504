package difference

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	splicingfactory "github.com/SU-CompBio/SplicingFactory"
)

// identicalGroupsMatrix has the same diversity values in both conditions
// for every gene.
func identicalGroupsMatrix() (*splicingfactory.Matrix, []string) {
	m := &splicingfactory.Matrix{
		RowNames: []string{"GeneA", "GeneB"},
		ColNames: []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10"},
		Values: [][]float64{
			{0.5, 0.6, 0.7, 0.8, 0.9, 0.5, 0.6, 0.7, 0.8, 0.9},
			{0.2, 0.25, 0.3, 0.35, 0.4, 0.2, 0.25, 0.3, 0.35, 0.4},
		},
	}

	conditions := []string{"Normal", "Normal", "Normal", "Normal", "Normal", "Tumor", "Tumor", "Tumor", "Tumor", "Tumor"}

	return m, conditions
}

func TestCalculateIdenticalGroups(t *testing.T) {
	div, conditions := identicalGroupsMatrix()

	for _, test := range []Test{Wilcoxon, Shuffle} {
		opts := DefaultOptions()
		opts.Test = test
		opts.Rand = rand.New(rand.NewSource(1))

		result, err := Calculate(div, conditions, "Normal", opts)
		if err != nil {
			t.Fatalf("%v: %v", test, err)
		}

		if len(result.Rows) != 2 || len(result.Excluded) != 0 {
			t.Fatalf("%v: got %d rows and %d excluded, expected 2 and 0", test, len(result.Rows), len(result.Excluded))
		}
		if result.Other != "Tumor" {
			t.Errorf("%v: other label %q, expected Tumor", test, result.Other)
		}

		for _, row := range result.Rows {
			if row.Difference != 0 {
				t.Errorf("%v %s: difference %v, expected 0", test, row.Gene, row.Difference)
			}
			if row.Log2FoldChange != 0 {
				t.Errorf("%v %s: log2 fold change %v, expected 0", test, row.Gene, row.Log2FoldChange)
			}
			if row.P != 1 || row.PAdjusted != 1 {
				t.Errorf("%v %s: p %v adjusted %v, expected 1 and 1", test, row.Gene, row.P, row.PAdjusted)
			}
		}
	}
}

func TestCalculateShiftedGroups(t *testing.T) {
	div := &splicingfactory.Matrix{
		RowNames: []string{"GeneA"},
		ColNames: []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"},
		Values:   [][]float64{{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}},
	}
	conditions := []string{"Normal", "Normal", "Normal", "Normal", "Tumor", "Tumor", "Tumor", "Tumor"}

	result, err := Calculate(div, conditions, "Normal", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	row := result.Rows[0]
	if expected := 0.4; math.Abs(row.Difference-expected) > 1e-12 {
		t.Errorf("difference: got %v, expected %v", row.Difference, expected)
	}
	if expected := math.Log2(0.65 / 0.25); math.Abs(row.Log2FoldChange-expected) > 1e-12 {
		t.Errorf("log2 fold change: got %v, expected %v", row.Log2FoldChange, expected)
	}
	// Fully separated 4-vs-4 groups: exact two-sided p is 2/70.
	if expected := 2.0 / 70; math.Abs(row.P-expected) > 1e-9 {
		t.Errorf("p: got %v, expected %v", row.P, expected)
	}
}

func TestCalculateExclusion(t *testing.T) {
	na := splicingfactory.NA()
	div := &splicingfactory.Matrix{
		RowNames: []string{"GeneA", "GeneB"},
		ColNames: []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"},
		Values: [][]float64{
			// Only two non-missing control values: below the Wilcoxon
			// minimum of three per group.
			{0.1, 0.2, na, na, 0.5, 0.6, 0.7, 0.8},
			{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
		},
	}
	conditions := []string{"Normal", "Normal", "Normal", "Normal", "Tumor", "Tumor", "Tumor", "Tumor"}

	excludedLogged := false
	opts := DefaultOptions()
	opts.Logf = func(format string, v ...interface{}) {
		excludedLogged = true
	}

	result, err := Calculate(div, conditions, "Normal", opts)
	if err != nil {
		t.Fatal(err)
	}

	if expected := []string{"GeneA"}; !reflect.DeepEqual(result.Excluded, expected) {
		t.Errorf("excluded: got %v, expected %v", result.Excluded, expected)
	}
	if len(result.Rows) != 1 || result.Rows[0].Gene != "GeneB" {
		t.Errorf("rows: got %+v, expected only GeneB", result.Rows)
	}
	if !excludedLogged {
		t.Error("expected an advisory log line about the excluded gene")
	}

	// The shuffle test requires five per group, so GeneB (4 vs 4) is
	// excluded too and the result is empty but well-formed.
	opts.Test = Shuffle
	opts.Rand = rand.New(rand.NewSource(1))
	result, err = Calculate(div, conditions, "Normal", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rows) != 0 || len(result.Excluded) != 2 {
		t.Errorf("shuffle: got %d rows and %d excluded, expected 0 and 2", len(result.Rows), len(result.Excluded))
	}
}

func TestCalculateShuffleReproducible(t *testing.T) {
	div := &splicingfactory.Matrix{
		RowNames: []string{"GeneA", "GeneB"},
		ColNames: []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10"},
		Values: [][]float64{
			{0.1, 0.15, 0.2, 0.25, 0.3, 0.7, 0.75, 0.8, 0.85, 0.9},
			{0.4, 0.5, 0.45, 0.55, 0.5, 0.45, 0.55, 0.5, 0.4, 0.6},
		},
	}
	conditions := []string{"Normal", "Normal", "Normal", "Normal", "Normal", "Tumor", "Tumor", "Tumor", "Tumor", "Tumor"}

	run := func() *Result {
		opts := DefaultOptions()
		opts.Test = Shuffle
		opts.Randomizations = 199
		opts.Rand = rand.New(rand.NewSource(7))

		result, err := Calculate(div, conditions, "Normal", opts)
		if err != nil {
			t.Fatal(err)
		}
		return result
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed, different results:\n%+v\n%+v", first, second)
	}

	for _, row := range first.Rows {
		if row.P < 1.0/200 || row.P > 1 {
			t.Errorf("%s: shuffle p %v outside [1/200, 1]", row.Gene, row.P)
		}
	}

	// GeneA's groups are fully separated; almost no permutation reaches the
	// observed difference.
	if p := first.Rows[0].P; p > 0.25 {
		t.Errorf("GeneA: shuffle p %v, expected a small value", p)
	}
}

func TestCalculateErrors(t *testing.T) {
	div, conditions := identicalGroupsMatrix()

	oneLabel := make([]string, len(conditions))
	for i := range oneLabel {
		oneLabel[i] = "Normal"
	}
	if _, err := Calculate(div, oneLabel, "Normal", DefaultOptions()); !errors.Is(err, ErrInvalidCondition) {
		t.Errorf("one condition label: got %v, expected ErrInvalidCondition", err)
	}

	if _, err := Calculate(div, conditions, "Healthy", DefaultOptions()); !errors.Is(err, ErrInvalidCondition) {
		t.Errorf("unknown control: got %v, expected ErrInvalidCondition", err)
	}

	if _, err := Calculate(div, conditions[:4], "Normal", DefaultOptions()); !errors.Is(err, ErrInvalidCondition) {
		t.Errorf("condition count mismatch: got %v, expected ErrInvalidCondition", err)
	}

	opts := DefaultOptions()
	opts.Summary = SummaryMethod(99)
	if _, err := Calculate(div, conditions, "Normal", opts); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("invalid summary: got %v, expected ErrUnknownMethod", err)
	}

	opts = DefaultOptions()
	opts.Test = Test(99)
	if _, err := Calculate(div, conditions, "Normal", opts); !errors.Is(err, ErrUnknownTest) {
		t.Errorf("invalid test: got %v, expected ErrUnknownTest", err)
	}

	opts = DefaultOptions()
	opts.Correction = Correction(99)
	if _, err := Calculate(div, conditions, "Normal", opts); !errors.Is(err, ErrUnknownCorrection) {
		t.Errorf("invalid correction: got %v, expected ErrUnknownCorrection", err)
	}

	opts = DefaultOptions()
	opts.Test = Shuffle
	if _, err := Calculate(div, conditions, "Normal", opts); err == nil {
		t.Error("shuffle without a random source: expected an error")
	}

	empty := splicingfactory.NewMatrix(nil, div.ColNames)
	if _, err := Calculate(empty, conditions, "Normal", DefaultOptions()); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty matrix: got %v, expected ErrInsufficientData", err)
	}
}

func TestCalculateMedianSummary(t *testing.T) {
	div := &splicingfactory.Matrix{
		RowNames: []string{"GeneA"},
		ColNames: []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"},
		Values:   [][]float64{{0.1, 0.2, 0.3, 10, 0.5, 0.6, 0.7, 0.8}},
	}
	conditions := []string{"Normal", "Normal", "Normal", "Normal", "Tumor", "Tumor", "Tumor", "Tumor"}

	opts := DefaultOptions()
	opts.Summary = Median

	result, err := Calculate(div, conditions, "Normal", opts)
	if err != nil {
		t.Fatal(err)
	}

	// The outlier control value moves the mean but not the median.
	row := result.Rows[0]
	if expected := 0.25; math.Abs(row.ControlSummary-expected) > 1e-12 {
		t.Errorf("control median: got %v, expected %v", row.ControlSummary, expected)
	}
	if expected := 0.65; math.Abs(row.OtherSummary-expected) > 1e-12 {
		t.Errorf("other median: got %v, expected %v", row.OtherSummary, expected)
	}
}

func TestParseSummaryMethodAndTest(t *testing.T) {
	if m, err := ParseSummaryMethod("median"); err != nil || m != Median {
		t.Errorf("ParseSummaryMethod(median): got %v, %v", m, err)
	}
	if _, err := ParseSummaryMethod("mode"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("ParseSummaryMethod(mode): got %v, expected ErrUnknownMethod", err)
	}

	if tt, err := ParseTest("shuffle"); err != nil || tt != Shuffle {
		t.Errorf("ParseTest(shuffle): got %v, %v", tt, err)
	}
	if _, err := ParseTest("ttest"); !errors.Is(err, ErrUnknownTest) {
		t.Errorf("ParseTest(ttest): got %v, expected ErrUnknownTest", err)
	}
}
