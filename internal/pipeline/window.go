// Package pipeline turns raw purchase events into the recency/frequency
// summaries the models consume.
package pipeline

import "fmt"

// Window is an inclusive range of calendar years treated as discrete periods.
type Window struct {
	Start int
	End   int
}

// Len returns the number of periods in the window.
func (w Window) Len() int {
	return w.End - w.Start + 1
}

// Contains reports whether the year falls inside the window.
func (w Window) Contains(year int) bool {
	return year >= w.Start && year <= w.End
}

// Index returns the 1-based period index of a year within the window.
func (w Window) Index(year int) int {
	return year - w.Start + 1
}

// Validate checks that the window is non-empty.
func (w Window) Validate() error {
	if w.End < w.Start {
		return fmt.Errorf("window %d-%d is empty", w.Start, w.End)
	}
	return nil
}
