package model

import "strings"

// DeltaMode says how a Delta combines with the stored document.
type DeltaMode int

const (
	// ModeAppend concatenates the delta rows after the stored rows.
	ModeAppend DeltaMode = iota
	// ModeReplace discards the stored document.
	ModeReplace
)

func (m DeltaMode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "append"
}

// Delta is the new part of a fetched CSV: its header line plus the raw data
// lines that are not yet stored.
type Delta struct {
	Header string
	Rows   []string
	Mode   DeltaMode
}

// Empty reports whether the delta carries no data rows.
func (d Delta) Empty() bool { return len(d.Rows) == 0 }

// CSV rebuilds a CSV text of the header and the delta rows.
func (d Delta) CSV() string {
	var b strings.Builder
	b.WriteString(d.Header)
	b.WriteByte('\n')
	for _, r := range d.Rows {
		b.WriteString(r)
		b.WriteByte('\n')
	}
	return b.String()
}
