package pipeline

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"clvcast/internal/model"
)

// Matrix is a binary customer-by-period indicator matrix over one window.
// Entry (i, j) is 1 when customer IDs[i] transacted in period j+1.
type Matrix struct {
	IDs    []string
	Window Window
	Ind    *mat.Dense
}

// Dataset holds the indicator matrices for the calibration, holdout,
// and combined observation windows, all over the same customer universe.
// A customer missing from one input file simply has a zero row there.
type Dataset struct {
	IDs         []string
	Calibration *Matrix
	Holdout     *Matrix
	Full        *Matrix
}

// BuildMatrix constructs the indicator matrix for one window from events.
// The row set is exactly ids, in order; events outside the window or for
// unknown customers are rejected.
func BuildMatrix(events []model.PurchaseEvent, w Window, ids []string) (*Matrix, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	rowOf := make(map[string]int, len(ids))
	for i, id := range ids {
		rowOf[id] = i
	}

	ind := mat.NewDense(len(ids), w.Len(), nil)
	for _, ev := range events {
		row, ok := rowOf[ev.CustomerID]
		if !ok {
			return nil, fmt.Errorf("customer %s not in universe", ev.CustomerID)
		}
		if !w.Contains(ev.Year) {
			return nil, fmt.Errorf("customer %s: year %d outside window %d-%d",
				ev.CustomerID, ev.Year, w.Start, w.End)
		}
		ind.Set(row, w.Index(ev.Year)-1, 1)
	}

	return &Matrix{IDs: ids, Window: w, Ind: ind}, nil
}

// Build assembles the full dataset from the two input event lists. The
// customer universe is the union of both files, so a customer seen only in
// calibration gets an all-zero holdout row and vice versa. The holdout
// window must start the period after the calibration window ends.
func Build(calEvents, holdEvents []model.PurchaseEvent, calWin, holdWin Window) (*Dataset, error) {
	if holdWin.Start != calWin.End+1 {
		return nil, fmt.Errorf("holdout window %d-%d does not follow calibration window %d-%d",
			holdWin.Start, holdWin.End, calWin.Start, calWin.End)
	}

	ids := unionIDs(calEvents, holdEvents)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no customers in input data")
	}

	cal, err := BuildMatrix(calEvents, calWin, ids)
	if err != nil {
		return nil, fmt.Errorf("calibration window: %w", err)
	}
	hold, err := BuildMatrix(holdEvents, holdWin, ids)
	if err != nil {
		return nil, fmt.Errorf("holdout window: %w", err)
	}

	// The combined matrix merges both event lists over the concatenated
	// window. Period indices from the holdout file shift past the
	// calibration periods.
	fullWin := Window{Start: calWin.Start, End: holdWin.End}
	all := make([]model.PurchaseEvent, 0, len(calEvents)+len(holdEvents))
	all = append(all, calEvents...)
	all = append(all, holdEvents...)
	full, err := BuildMatrix(all, fullWin, ids)
	if err != nil {
		return nil, fmt.Errorf("combined window: %w", err)
	}

	return &Dataset{IDs: ids, Calibration: cal, Holdout: hold, Full: full}, nil
}

// Summaries derives the (x, tx, m) summary for every customer row.
// x is the row sum, tx the 1-based index of the last set period (0 when
// the row is all zero), and m the window length.
func (mx *Matrix) Summaries() []model.RFSummary {
	m := mx.Window.Len()
	out := make([]model.RFSummary, len(mx.IDs))
	for i, id := range mx.IDs {
		x, tx := 0, 0
		for j := 0; j < m; j++ {
			if mx.Ind.At(i, j) != 0 {
				x++
				tx = j + 1
			}
		}
		out[i] = model.RFSummary{CustomerID: id, X: x, TX: tx, M: m}
	}
	return out
}

// Distribution counts customers by frequency bucket over a window of m periods.
func Distribution(sums []model.RFSummary, m int) model.FreqDist {
	dist := make(model.FreqDist, m+1)
	for _, s := range sums {
		if s.X >= 0 && s.X <= m {
			dist[s.X]++
		}
	}
	return dist
}

func unionIDs(lists ...[]model.PurchaseEvent) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, events := range lists {
		for _, ev := range events {
			if _, ok := seen[ev.CustomerID]; !ok {
				seen[ev.CustomerID] = struct{}{}
				ids = append(ids, ev.CustomerID)
			}
		}
	}
	sort.Strings(ids)
	return ids
}
