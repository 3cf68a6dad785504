// genediversity computes per-gene splicing isoform diversity from a
// transcript-level expression table. The expression table is CSV- or
// TSV-formatted with transcript row labels and sample column labels; a
// separate two-column file assigns each transcript to a gene.
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"

	splicingfactory "github.com/SU-CompBio/SplicingFactory"
	_ "github.com/SU-CompBio/SplicingFactory/compileinfoprint"
	"github.com/SU-CompBio/SplicingFactory/diversity"
	"github.com/gocarina/gocsv"
)

type transcriptGene struct {
	Transcript string `csv:"transcript"`
	Gene       string `csv:"gene"`
}

func main() {
	var expressionFile, genesFile, methodName, outFile string
	var norm bool
	var pseudocount float64
	var workers int
	var what string

	flag.StringVar(&expressionFile, "expression", "", "Transcript-level expression table. First column transcript IDs, remaining columns one sample each.")
	flag.StringVar(&genesFile, "genes", "", "Two-column file with a 'transcript' and a 'gene' column, assigning each expression row to a gene.")
	flag.StringVar(&methodName, "method", "laplace", "Diversity index: naive, laplace, gini, simpson, or invsimpson.")
	flag.BoolVar(&norm, "norm", true, "Normalize entropy values by the maximum entropy of the gene (log2 of its transcript count).")
	flag.Float64Var(&pseudocount, "pseudocount", -1, "Smoothing constant added to every transcript value. Negative means the method default.")
	flag.IntVar(&workers, "workers", 1, "Number of goroutines computing genes in parallel.")
	flag.StringVar(&what, "what", "counts", "Label describing the expression values (e.g., counts or tpm). Informational only.")
	flag.StringVar(&outFile, "output", "", "Output file for the gene-by-sample diversity table. If not specified, writes to stdout.")
	flag.Parse()

	if expressionFile == "" || genesFile == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	method, err := diversity.ParseMethod(methodName)
	if err != nil {
		log.Fatalln(err)
	}

	expr, err := readTable(expressionFile)
	if err != nil {
		log.Fatalln(err)
	}

	genes, err := geneAssignment(genesFile, expr.RowNames)
	if err != nil {
		log.Fatalln(err)
	}

	log.Printf("Computing %s diversity for %d transcripts (%s) across %d samples\n", method, expr.NRows(), what, expr.NCols())

	div, err := diversity.Calculate(expr, genes, diversity.Options{
		Method:      method,
		Norm:        norm,
		Pseudocount: pseudocount,
		Workers:     workers,
		Logf:        log.Printf,
	})
	if err != nil {
		log.Fatalln(err)
	}

	var out io.WriteCloser = os.Stdout
	if outFile != "" {
		out, err = os.Create(outFile)
		if err != nil {
			log.Fatalln(err)
		}
	}

	if err := splicingfactory.WriteMatrix(out, div, '\t'); err != nil {
		log.Fatalln(err)
	}

	if outFile != "" {
		if err := out.Close(); err != nil {
			log.Fatalln(err)
		}
	}

	log.Printf("Wrote diversity values for %d genes\n", div.NRows())
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

// geneAssignment reads the transcript-to-gene map and orders it to match
// the expression table rows.
func geneAssignment(path string, transcripts []string) ([]string, error) {
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

	records := []*transcriptGene{}
	if err := gocsv.UnmarshalBytes(raw, &records); err != nil {
		return nil, err
	}

	byTranscript := make(map[string]string, len(records))
	for _, record := range records {
		byTranscript[record.Transcript] = record.Gene
	}

	genes := make([]string, len(transcripts))
	for i, tx := range transcripts {
		gene, ok := byTranscript[tx]
		if !ok {
			log.Fatalf("Transcript %q from the expression table has no gene assignment in %s\n", tx, path)
		}
		genes[i] = gene
	}

	return genes, nil
}
