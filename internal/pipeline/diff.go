package pipeline

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"go-usage-stats/internal/logging"
	"go-usage-stats/internal/model"
)

// FreshDayRows is the largest hourly feed, in data rows, that is taken as a
// new day when the last stored hour is not found in it.
const FreshDayRows = 3

var diffLog = logging.Component("differencer")

// DiffMonthly returns the rows of a monthly CSV that follow lastKey. The
// feed is scanned from the end for a row keyed lastKey; everything after it
// is appended. An empty lastKey means nothing is stored yet and the whole
// table replaces it.
func DiffMonthly(csvText, lastKey string) (model.Delta, error) {
	header, rows, err := splitCSV(csvText)
	if err != nil {
		return model.Delta{}, err
	}
	if lastKey == "" {
		return model.Delta{Header: header, Rows: rows, Mode: model.ModeReplace}, nil
	}

	for i := len(rows) - 1; i >= 0; i-- {
		if rowKey(rows[i]) == lastKey {
			return model.Delta{Header: header, Rows: copyRows(rows[i+1:]), Mode: model.ModeAppend}, nil
		}
	}

	after := rowsAfter(rows, lastKey)
	diffLog.WithFields(logrus.Fields{
		"last_key": lastKey,
		"kept":     len(after),
	}).Warn("last stored month not found in feed, keeping later rows only")
	return model.Delta{Header: header, Rows: after, Mode: model.ModeAppend}, nil
}

// DiffHourly returns the rows of an hourly CSV that follow lastTimestamp.
// Rules, in order:
//   - no data rows: empty delta
//   - nothing stored: replace with the whole table
//   - feed date differs from the stored date: replace
//   - a row has the stored hour of day: append the rows after it
//   - at most FreshDayRows rows: replace
//   - otherwise append rows whose timestamp sorts after lastTimestamp
func DiffHourly(csvText, lastTimestamp string) (model.Delta, error) {
	header, rows, err := splitCSV(csvText)
	if err != nil {
		return model.Delta{}, err
	}
	if len(rows) == 0 {
		return model.Delta{Header: header, Mode: model.ModeAppend}, nil
	}
	whole := model.Delta{Header: header, Rows: rows, Mode: model.ModeReplace}
	if lastTimestamp == "" {
		return whole, nil
	}

	lastDate, lastHour := splitTimestamp(lastTimestamp)
	feedDate, _ := splitTimestamp(rowKey(rows[0]))
	if feedDate != lastDate {
		diffLog.WithField("date", feedDate).Info("new day in hourly feed")
		return whole, nil
	}

	for i := len(rows) - 1; i >= 0; i-- {
		if _, hour := splitTimestamp(rowKey(rows[i])); hour == lastHour {
			return model.Delta{Header: header, Rows: copyRows(rows[i+1:]), Mode: model.ModeAppend}, nil
		}
	}
	if len(rows) <= FreshDayRows {
		return whole, nil
	}
	return model.Delta{Header: header, Rows: rowsAfter(rows, lastTimestamp), Mode: model.ModeAppend}, nil
}

// splitCSV separates the header line from the non-blank data lines.
func splitCSV(text string) (string, []string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	header := ""
	var rows []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if header == "" {
			header = l
			continue
		}
		rows = append(rows, l)
	}
	if header == "" {
		return "", nil, fmt.Errorf("%w: no header line", ErrMalformedCSV)
	}
	return header, rows, nil
}

// rowKey is the first field of a CSV line.
func rowKey(line string) string {
	k := line
	if i := strings.IndexByte(line, ','); i >= 0 {
		k = line[:i]
	}
	return strings.Trim(strings.TrimSpace(k), `"`)
}

// splitTimestamp splits "2024-07-19T08:00:00Z" into date and time of day.
func splitTimestamp(ts string) (date, hour string) {
	if i := strings.IndexAny(ts, "T "); i >= 0 {
		return ts[:i], ts[i+1:]
	}
	return ts, ""
}

func rowsAfter(rows []string, key string) []string {
	var out []string
	for _, r := range rows {
		if rowKey(r) > key {
			out = append(out, r)
		}
	}
	return out
}

func copyRows(rows []string) []string {
	if len(rows) == 0 {
		return nil
	}
	return append([]string(nil), rows...)
}
