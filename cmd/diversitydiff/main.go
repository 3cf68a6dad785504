// diversitydiff tests per-gene splicing diversity for differences between
// two sample conditions. It consumes the gene-by-sample diversity table
// produced by genediversity plus a two-column sample-to-condition
// assignment, and writes one row per gene with group summaries, log2 fold
// change, and raw and adjusted p-values.
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"sort"

	splicingfactory "github.com/SU-CompBio/SplicingFactory"
	_ "github.com/SU-CompBio/SplicingFactory/compileinfoprint"
	"github.com/SU-CompBio/SplicingFactory/difference"
	"github.com/gocarina/gocsv"
)

type sampleCondition struct {
	Sample    string `csv:"sample"`
	Condition string `csv:"condition"`
}

func main() {
	var diversityFile, conditionsFile, control, summaryName, testName, correctionName, outFile string
	var randomizations int
	var seed int64

	flag.StringVar(&diversityFile, "diversity", "", "Gene-by-sample diversity table, as written by genediversity.")
	flag.StringVar(&conditionsFile, "conditions", "", "Two-column file with a 'sample' and a 'condition' column.")
	flag.StringVar(&control, "control", "", "Condition label to use as the reference group.")
	flag.StringVar(&summaryName, "summary", "mean", "Group summary statistic: mean or median.")
	flag.StringVar(&testName, "test", "wilcoxon", "Significance test: wilcoxon or shuffle.")
	flag.IntVar(&randomizations, "randomizations", 100, "Number of label permutations for the shuffle test.")
	flag.StringVar(&correctionName, "pcorrection", "BH", "Multiple-testing correction: BH, bonferroni, holm, hochberg, BY, or none.")
	flag.Int64Var(&seed, "seed", 1, "Random seed for the shuffle test.")
	flag.StringVar(&outFile, "output", "", "Output file. If not specified, writes to stdout.")
	flag.Parse()

	if diversityFile == "" || conditionsFile == "" || control == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	summary, err := difference.ParseSummaryMethod(summaryName)
	if err != nil {
		log.Fatalln(err)
	}

	test, err := difference.ParseTest(testName)
	if err != nil {
		log.Fatalln(err)
	}

	correction, err := difference.ParseCorrection(correctionName)
	if err != nil {
		log.Fatalln(err)
	}

	div, err := readTable(diversityFile)
	if err != nil {
		log.Fatalln(err)
	}

	conditions, err := conditionAssignment(conditionsFile, div.ColNames)
	if err != nil {
		log.Fatalln(err)
	}

	opts := difference.Options{
		Summary:        summary,
		Test:           test,
		Randomizations: randomizations,
		Correction:     correction,
		Logf:           log.Printf,
	}
	if test == difference.Shuffle {
		opts.Rand = rand.New(rand.NewSource(seed))
	}

	result, err := difference.Calculate(div, conditions, control, opts)
	if err != nil {
		log.Fatalln(err)
	}

	// Most significant first; presentation only, the library does not sort.
	sort.SliceStable(result.Rows, func(i, j int) bool {
		if result.Rows[i].PAdjusted != result.Rows[j].PAdjusted {
			return result.Rows[i].PAdjusted < result.Rows[j].PAdjusted
		}
		return math.Abs(result.Rows[i].Log2FoldChange) > math.Abs(result.Rows[j].Log2FoldChange)
	})

	var out io.WriteCloser = os.Stdout
	if outFile != "" {
		out, err = os.Create(outFile)
		if err != nil {
			log.Fatalln(err)
		}
	}

	gocsv.SetCSVWriter(func(w io.Writer) *gocsv.SafeCSVWriter {
		cw := csv.NewWriter(w)
		cw.Comma = '\t'
		return gocsv.NewSafeCSVWriter(cw)
	})

	if err := gocsv.Marshal(&result.Rows, out); err != nil {
		log.Fatalln(err)
	}

	if outFile != "" {
		if err := out.Close(); err != nil {
			log.Fatalln(err)
		}
	}

	log.Printf("Tested %d genes (%s vs %s control), excluded %d for insufficient sample size\n",
		len(result.Rows), result.Other, result.Control, len(result.Excluded))
}

// readTable loads a labeled numeric table, sniffing its delimiter.
func readTable(path string) (*splicingfactory.Matrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	delim := splicingfactory.DetermineDelimiter(bytes.NewReader(raw))

	return splicingfactory.ReadMatrix(bytes.NewReader(raw), delim)
}

// conditionAssignment reads the sample-to-condition map and orders it to
// match the diversity table columns.
func conditionAssignment(path string, samples []string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	delim := splicingfactory.DetermineDelimiter(bytes.NewReader(raw))

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delim
		r.LazyQuotes = true
		return r
	})

	records := []*sampleCondition{}
	if err := gocsv.UnmarshalBytes(raw, &records); err != nil {
		return nil, err
	}

	bySample := make(map[string]string, len(records))
	for _, record := range records {
		bySample[record.Sample] = record.Condition
	}

	conditions := make([]string, len(samples))
	for i, sample := range samples {
		condition, ok := bySample[sample]
		if !ok {
			log.Fatalf("Sample %q from the diversity table has no condition assignment in %s\n", sample, path)
		}
		conditions[i] = condition
	}

	return conditions, nil
}
