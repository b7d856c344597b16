package pipeline

import (
	"errors"
	"testing"

	"go-usage-stats/internal/model"
)

func TestMerge(t *testing.T) {
	cols := []string{"hour", "node1"}
	base := mustDoc(t, cols, []any{"2024-07-19T08:00:00Z", int64(100)})
	delta := mustDoc(t, cols, []any{"2024-07-19T09:00:00Z", int64(150)})

	got, err := Merge(base, delta)
	if err != nil {
		t.Fatal(err)
	}
	want := mustDoc(t, cols,
		[]any{"2024-07-19T08:00:00Z", int64(100)},
		[]any{"2024-07-19T09:00:00Z", int64(150)},
	)
	if !got.Equal(want) {
		t.Errorf("Merge = %v, want %v", got.Rows(), want.Rows())
	}
	if base.Len() != 1 {
		t.Errorf("base modified: %d rows", base.Len())
	}
}

func TestMergeReordersDeltaColumns(t *testing.T) {
	base := mustDoc(t, []string{"hour", "a", "b"}, []any{"h1", int64(1), int64(2)})
	delta := mustDoc(t, []string{"hour", "b", "a"}, []any{"h2", int64(4), int64(3)})

	got, err := Merge(base, delta)
	if err != nil {
		t.Fatal(err)
	}
	if a := got.Column("a"); a[1] != int64(3) {
		t.Errorf("column a = %v", a)
	}
}

func TestMergeZeroBase(t *testing.T) {
	delta := mustDoc(t, []string{"month", "downloads"}, []any{"2024-07", int64(1)})
	got, err := Merge(model.Document{}, delta)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(delta) {
		t.Errorf("Merge(zero, d) = %v", got.Rows())
	}
}

func TestMergeErrors(t *testing.T) {
	base := mustDoc(t, []string{"month", "downloads"}, []any{"2024-07", int64(1)})

	other := mustDoc(t, []string{"month", "uploads"}, []any{"2024-08", int64(1)})
	if _, err := Merge(base, other); !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("different columns: %v, want ErrColumnMismatch", err)
	}

	wider := mustDoc(t, []string{"month", "downloads", "x"}, []any{"2024-08", int64(1), int64(2)})
	if _, err := Merge(base, wider); !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("extra column: %v, want ErrColumnMismatch", err)
	}

	overlap := mustDoc(t, []string{"month", "downloads"}, []any{"2024-07", int64(5)})
	if _, err := Merge(base, overlap); !errors.Is(err, ErrOverlap) {
		t.Errorf("overlap: %v, want ErrOverlap", err)
	}
}

func TestMergeAssociative(t *testing.T) {
	cols := []string{"month", "n"}
	a := mustDoc(t, cols, []any{"2024-01", int64(1)})
	b := mustDoc(t, cols, []any{"2024-02", int64(2)})
	c := mustDoc(t, cols, []any{"2024-03", int64(3)})

	ab, _ := Merge(a, b)
	left, err := Merge(ab, c)
	if err != nil {
		t.Fatal(err)
	}
	bc, _ := Merge(b, c)
	right, err := Merge(a, bc)
	if err != nil {
		t.Fatal(err)
	}
	if !left.Equal(right) {
		t.Errorf("(a+b)+c = %v, a+(b+c) = %v", left.Rows(), right.Rows())
	}
}
