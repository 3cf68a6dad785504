// Package diversity computes per-gene splicing isoform diversity from
// transcript-level expression. Each gene's transcript values within one
// sample are reduced to a single scalar index describing how evenly
// expression is spread across the gene's isoforms.
package diversity

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	splicingfactory "github.com/SU-CompBio/SplicingFactory"
)

var (
	// ErrShapeMismatch indicates that the gene assignment does not line up
	// with the expression matrix rows.
	ErrShapeMismatch = errors.New("gene assignment length does not match expression row count")

	// ErrUnknownMethod indicates an unrecognized diversity method name.
	ErrUnknownMethod = errors.New("unknown diversity method")

	// ErrInvalidInput indicates a negative or non-finite expression value.
	ErrInvalidInput = errors.New("invalid expression value")
)

// Method selects the diversity index formula.
type Method int

const (
	// NaiveEntropy is Shannon entropy (log2) of the transcript proportions.
	NaiveEntropy Method = iota

	// LaplaceEntropy is Shannon entropy after Laplace smoothing: a
	// pseudocount is added to every transcript before normalizing.
	LaplaceEntropy

	// Gini is the Gini coefficient of the transcript values.
	Gini

	// Simpson is the Gini-Simpson index, 1 - sum(p^2).
	Simpson

	// InverseSimpson is 1 / sum(p^2).
	InverseSimpson
)

var methodNames = map[string]Method{
	"naive":      NaiveEntropy,
	"laplace":    LaplaceEntropy,
	"gini":       Gini,
	"simpson":    Simpson,
	"invsimpson": InverseSimpson,
}

// ParseMethod maps an option string ("naive", "laplace", "gini", "simpson",
// or "invsimpson") to its Method.
func ParseMethod(name string) (Method, error) {
	m, ok := methodNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}

	return m, nil
}

func (m Method) String() string {
	switch m {
	case NaiveEntropy:
		return "naive"
	case LaplaceEntropy:
		return "laplace"
	case Gini:
		return "gini"
	case Simpson:
		return "simpson"
	case InverseSimpson:
		return "invsimpson"
	}

	return fmt.Sprintf("Method(%d)", int(m))
}

// defaultPseudocount is the smoothing constant implied by the method.
func (m Method) defaultPseudocount() float64 {
	if m == LaplaceEntropy {
		return 1
	}

	return 0
}

// Options configures Calculate.
type Options struct {
	Method Method

	// Norm rescales entropy by its maximum (log2 of the isoform count) so
	// that genes with different transcript counts become comparable. It has
	// no effect on the Gini, Simpson, or inverse Simpson indices, which are
	// already bounded independently of transcript count.
	Norm bool

	// Pseudocount overrides the method's smoothing constant when
	// non-negative. Leave negative to use the method default (1 for the
	// Laplace entropy, 0 otherwise).
	Pseudocount float64

	// Workers > 1 spreads the per-gene computation over a fixed pool of
	// goroutines. Results are identical to the sequential computation.
	Workers int

	// Logf, when non-nil, receives advisory diagnostics such as the number
	// of single-isoform genes excluded. It never affects the result.
	Logf func(format string, v ...interface{})
}

// DefaultOptions returns Options matching the defaults of the R package:
// Laplace entropy, normalized, method-default pseudocount, sequential.
func DefaultOptions() Options {
	return Options{Method: LaplaceEntropy, Norm: true, Pseudocount: -1}
}

// geneGroup collects the expression-matrix row indices of one gene, in
// first-appearance order.
type geneGroup struct {
	gene string
	rows []int
}

// Calculate computes one diversity value per gene per sample. genes assigns
// a gene label to each row of expr, in row order. Genes with a single
// transcript have no defined diversity and are excluded from the output
// entirely. Genes whose transcripts sum to zero within a sample get a
// missing (NA) cell for that sample.
func Calculate(expr *splicingfactory.Matrix, genes []string, opts Options) (*splicingfactory.Matrix, error) {
	if err := expr.CheckRectangular(); err != nil {
		return nil, err
	}

	if len(genes) != expr.NRows() {
		return nil, fmt.Errorf("%w: %d gene labels for %d transcript rows", ErrShapeMismatch, len(genes), expr.NRows())
	}

	switch opts.Method {
	case NaiveEntropy, LaplaceEntropy, Gini, Simpson, InverseSimpson:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, opts.Method)
	}

	for i := 0; i < expr.NRows(); i++ {
		for j, v := range expr.Row(i) {
			if splicingfactory.IsNA(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("%w: transcript %q, sample %q: %v", ErrInvalidInput, expr.RowNames[i], expr.ColNames[j], v)
			}
		}
	}

	pseudocount := opts.Pseudocount
	if pseudocount < 0 {
		pseudocount = opts.Method.defaultPseudocount()
	}

	groups, singles := groupByGene(genes)
	if singles > 0 && opts.Logf != nil {
		opts.Logf("excluding %d single-isoform genes: diversity is undefined for genes with one transcript", singles)
	}

	geneNames := make([]string, len(groups))
	for i, g := range groups {
		geneNames[i] = g.gene
	}

	out := splicingfactory.NewMatrix(geneNames, expr.ColNames)

	compute := func(i int) {
		g := groups[i]
		x := make([]float64, len(g.rows))
		for j := 0; j < expr.NCols(); j++ {
			for k, row := range g.rows {
				x[k] = expr.Values[row][j]
			}
			out.Values[i][j] = index(x, opts.Method, pseudocount, opts.Norm)
		}
	}

	if opts.Workers > 1 {
		// Each worker writes to disjoint output rows, so no locking is
		// needed.
		var wg sync.WaitGroup
		work := make(chan int)

		for w := 0; w < opts.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range work {
					compute(i)
				}
			}()
		}

		for i := range groups {
			work <- i
		}
		close(work)
		wg.Wait()
	} else {
		for i := range groups {
			compute(i)
		}
	}

	return out, nil
}

// groupByGene splits row indices by gene label, preserving first-appearance
// order, and drops single-transcript genes. It returns the surviving groups
// and the number of genes dropped.
func groupByGene(genes []string) ([]geneGroup, int) {
	order := make([]string, 0, len(genes))
	byGene := make(map[string][]int, len(genes))

	for i, gene := range genes {
		if _, seen := byGene[gene]; !seen {
			order = append(order, gene)
		}
		byGene[gene] = append(byGene[gene], i)
	}

	groups := make([]geneGroup, 0, len(order))
	singles := 0
	for _, gene := range order {
		rows := byGene[gene]
		if len(rows) < 2 {
			singles++
			continue
		}
		groups = append(groups, geneGroup{gene: gene, rows: rows})
	}

	return groups, singles
}
