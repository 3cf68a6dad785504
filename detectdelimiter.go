package splicingfactory

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter sniffs the most likely field delimiter of a CSV-like
// expression or diversity table. Falls back to tab, since the tables this
// module consumes are most often tab-delimited quantification output.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return '\t'
}
