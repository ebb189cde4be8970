// Package progress derives which brief sections are still missing from a transcript.
package progress

import (
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/transcript"
	"github.com/tropica/briefbuddy/types"
)

// State is recomputed from the full transcript on every turn and never stored.
type State struct {
	Missing  []section.Name `json:"missing"`
	Current  section.Name   `json:"current"`
	Complete bool           `json:"complete"`
}

// Missing lists, in canonical order, the sections whose predicate fails on the
// normalized transcript.
func Missing(table section.Table, turns []types.Turn) []section.Name {
	return missingIn(table, transcript.Evaluable(turns, table))
}

// Next is the first missing section, or the last section once nothing is missing.
func Next(table section.Table, turns []types.Turn) section.Name {
	return Evaluate(table, turns).Current
}

func Evaluate(table section.Table, turns []types.Turn) State {
	missing := Missing(table, turns)
	st := State{
		Missing:  missing,
		Complete: len(missing) == 0,
	}
	if st.Complete {
		st.Current = table.Last()
	} else {
		st.Current = missing[0]
	}
	return st
}

// Previous is the section preceding the current one; false on a clean start.
func (s State) Previous(table section.Table) (section.Name, bool) {
	return table.Previous(s.Current)
}

func missingIn(table section.Table, text string) []section.Name {
	out := make([]section.Name, 0, table.Len())
	for _, name := range table.Names() {
		if !table.Completed(name, text) {
			out = append(out, name)
		}
	}
	return out
}
