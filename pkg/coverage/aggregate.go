package coverage

import "fmt"

// Merge folds the records of every run into one state per line.
// A line is covered if any run covered it, otherwise not covered if any run
// saw it as executable, otherwise nonexecutable. The fold only ever raises a
// line's state, so the order of records does not matter.
func Merge(file *SourceFile, records ...Record) (*Aggregated, error) {
	states := make([]LineState, len(file.Lines))
	for i, record := range records {
		if len(record) != len(file.Lines) {
			return nil, fmt.Errorf("record %d has %d lines, %s has %d", i, len(record), file.Path, len(file.Lines))
		}
		for line, state := range record {
			if state > states[line] {
				states[line] = state
			}
		}
	}

	return &Aggregated{
		File:       file,
		LineStates: states,
	}, nil
}
