package pipeline

import (
	"errors"
	"fmt"

	"go-usage-stats/internal/model"
)

var (
	// ErrColumnMismatch means the two documents do not share a column set.
	ErrColumnMismatch = errors.New("column mismatch")

	// ErrOverlap means the merged keys are not strictly ascending.
	ErrOverlap = errors.New("overlapping keys")
)

// Merge concatenates delta's rows after base's, column by column, keeping
// base's column order. A zero base yields delta. Neither input is modified.
func Merge(base, delta model.Document) (model.Document, error) {
	if base.IsZero() {
		out := delta.Clone()
		if out.IsZero() {
			return out, nil
		}
		if err := out.Validate(); err != nil {
			return model.Document{}, fmt.Errorf("%w: %w", ErrOverlap, err)
		}
		return out, nil
	}
	if delta.IsZero() {
		return base.Clone(), nil
	}

	baseCols, deltaCols := base.Columns(), delta.Columns()
	if len(baseCols) != len(deltaCols) || base.KeyColumn() != delta.KeyColumn() {
		return model.Document{}, fmt.Errorf("%w: %v vs %v", ErrColumnMismatch, baseCols, deltaCols)
	}
	pos := make(map[string]int, len(deltaCols))
	for i, c := range deltaCols {
		pos[c] = i
	}
	order := make([]int, len(baseCols))
	for i, c := range baseCols {
		if !delta.HasColumn(c) {
			return model.Document{}, fmt.Errorf("%w: %q missing from delta", ErrColumnMismatch, c)
		}
		order[i] = pos[c]
	}

	out := base.Clone()
	for _, row := range delta.Rows() {
		reordered := make([]any, len(order))
		for i, j := range order {
			reordered[i] = row[j]
		}
		if err := out.AppendRow(reordered); err != nil {
			return model.Document{}, err
		}
	}
	if err := out.Validate(); err != nil {
		return model.Document{}, fmt.Errorf("%w: %w", ErrOverlap, err)
	}
	return out, nil
}
