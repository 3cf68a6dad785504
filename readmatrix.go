package splicingfactory

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
)

// ReadMatrix parses a labeled numeric table from r. The first record is a
// header whose first field (usually empty or a caption) is ignored and whose
// remaining fields become the column labels. Every following record starts
// with a row label and continues with one numeric field per column. Empty
// fields and the literal strings NA and NaN parse as missing values.
func ReadMatrix(r io.Reader, delim rune) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, pfx.Err(fmt.Errorf("no header record"))
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	if len(header) < 2 {
		return nil, pfx.Err(fmt.Errorf("header has %d fields; expected a row-label column plus at least one sample column", len(header)))
	}

	out := &Matrix{
		ColNames: header[1:],
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		if len(record) != len(header) {
			return nil, pfx.Err(fmt.Errorf("line %d has %d fields but the header has %d", line, len(record), len(header)))
		}

		row := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			switch field {
			case "", "NA", "NaN":
				row = append(row, NA())
				continue
			}

			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("line %d: parsing %q: %w", line, field, err))
			}
			row = append(row, v)
		}

		out.RowNames = append(out.RowNames, record[0])
		out.Values = append(out.Values, row)
	}

	return out, nil
}

// WriteMatrix writes m in the format read by ReadMatrix. Missing cells are
// written as NA.
func WriteMatrix(w io.Writer, m *Matrix, delim rune) error {
	if err := m.CheckRectangular(); err != nil {
		return pfx.Err(err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = delim

	header := append([]string{""}, m.ColNames...)
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	record := make([]string, len(m.ColNames)+1)
	for i, row := range m.Values {
		record[0] = m.RowNames[i]
		for j, v := range row {
			if IsNA(v) {
				record[j+1] = "NA"
				continue
			}
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}

		if err := cw.Write(record); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()

	return pfx.Err(cw.Error())
}
