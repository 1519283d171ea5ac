// Package model defines the domain types shared across the analysis pipeline.
package model

// PurchaseEvent is one row of an input table: a customer transacted
// at least once in the given year.
type PurchaseEvent struct {
	CustomerID string
	Year       int
}

// RFSummary is the recency/frequency summary of one customer over an
// observation window of M periods.
//
//	X  — number of periods with a transaction (frequency)
//	TX — 1-based index of the last transacting period, 0 if none (recency)
//	M  — window length in periods, identical for every customer in a window
type RFSummary struct {
	CustomerID string
	X          int
	TX         int
	M          int
}

// FreqDist counts customers by frequency bucket. Index i holds the number
// of customers with X == i; length is window length + 1.
type FreqDist []int

// Customers returns the total number of customers in the distribution.
func (d FreqDist) Customers() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// Transactions returns the total transaction count implied by the distribution.
func (d FreqDist) Transactions() int {
	n := 0
	for x, c := range d {
		n += x * c
	}
	return n
}

// BetaMoments holds the mean and variance of a Beta population distribution.
// Either field may be non-finite when a shape parameter sits at a boundary.
type BetaMoments struct {
	Mean     float64
	Variance float64
}

// BucketComparison is one row of an actual-vs-predicted validation table.
type BucketComparison struct {
	X         int
	Actual    int
	Predicted float64
}

// YearForecast is one row of the new-cohort projection.
type YearForecast struct {
	Year         int     // calendar year being projected
	Surviving    float64 // expected customers still alive at end of year
	Transactions float64 // expected transactions during the year
}
