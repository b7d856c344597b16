package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-usage-stats/internal/model"
	"go-usage-stats/pkg/utils"
)

// ErrMalformedCSV is wrapped by every CSV parse failure.
var ErrMalformedCSV = errors.New("malformed CSV")

// CSVToDocument parses a CSV table into a column-oriented Document. The
// first column is kept as the string key; all others must be numeric.
func CSVToDocument(text string) (model.Document, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return model.Document{}, fmt.Errorf("%w: no header line", ErrMalformedCSV)
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		// Clean header: trim whitespace and quotes
		h = strings.Trim(strings.TrimSpace(h), `"`)
		if h == "" {
			return model.Document{}, fmt.Errorf("%w: empty column name at position %d", ErrMalformedCSV, i)
		}
		if seen[h] {
			return model.Document{}, fmt.Errorf("%w: duplicate column %q", ErrMalformedCSV, h)
		}
		seen[h] = true
		headers[i] = h
	}

	doc := model.NewDocument(headers...)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ParseError carries the line number, including ragged rows.
			return model.Document{}, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		line, _ := reader.FieldPos(0)

		row := make([]any, len(record))
		row[0] = strings.TrimSpace(record[0])
		for i := 1; i < len(record); i++ {
			switch v := utils.ParseValue(record[i]).(type) {
			case int64, float64:
				row[i] = v
			default:
				return model.Document{}, fmt.Errorf("%w: line %d column %q: %q is not a number",
					ErrMalformedCSV, line, headers[i], record[i])
			}
		}
		if err := doc.AppendRow(row); err != nil {
			return model.Document{}, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
	}
	return doc, nil
}

// DocumentToCSV renders a Document back into CSV text.
func DocumentToCSV(doc model.Document) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(doc.Columns()); err != nil {
		return "", err
	}
	for _, row := range doc.Rows() {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = utils.FormatValue(v)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
