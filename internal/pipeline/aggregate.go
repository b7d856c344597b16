package pipeline

import (
	"errors"
	"fmt"

	"go-usage-stats/internal/model"
	"go-usage-stats/pkg/utils"
)

// Time groups for SumByTimeGroup, with the key prefix length each keeps.
var timeGroupWidth = map[string]int{
	"year":  len("2006"),
	"month": len("2006-01"),
	"day":   len("2006-01-02"),
	"hour":  len("2006-01-02T15"),
}

var (
	// ErrInvalidTimeGroup means the group is not year, month, day or hour.
	ErrInvalidTimeGroup = errors.New("invalid time group")

	// ErrTimeGroupTooFine means the document keys are coarser than the group,
	// e.g. daily sums over monthly keys.
	ErrTimeGroupTooFine = errors.New("time group finer than the data")
)

// GroupSum is the total of every statistic column within one time bucket.
type GroupSum struct {
	TimeGroup string  `json:"time_group"`
	TotalSum  float64 `json:"total_sum"`
}

// ValidTimeGroup reports whether group is accepted by SumByTimeGroup.
func ValidTimeGroup(group string) bool {
	_, ok := timeGroupWidth[group]
	return ok
}

// SumByTimeGroup buckets the rows of doc by the leading part of their key
// and sums all statistic columns per bucket. Buckets keep key order.
func SumByTimeGroup(doc model.Document, group string) ([]GroupSum, error) {
	width, ok := timeGroupWidth[group]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeGroup, group)
	}

	out := []GroupSum{}
	cols := doc.Columns()
	for _, row := range doc.Rows() {
		key, _ := row[0].(string)
		if len(key) < width {
			return nil, fmt.Errorf("%w: key %q has no %s", ErrTimeGroupTooFine, key, group)
		}
		bucket := key[:width]

		var sum float64
		for i := 1; i < len(cols); i++ {
			sum += utils.Numeric(row[i])
		}

		if n := len(out); n > 0 && out[n-1].TimeGroup == bucket {
			out[n-1].TotalSum += sum
			continue
		}
		out = append(out, GroupSum{TimeGroup: bucket, TotalSum: sum})
	}
	return out, nil
}
