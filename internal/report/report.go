// Package report runs the full analysis: load the two transaction tables,
// derive recency/frequency summaries, fit both models, and expose the
// derived comparisons and forecasts the commands render.
package report

import (
	"errors"
	"fmt"

	"clvcast/internal/btyd"
	"clvcast/internal/config"
	"clvcast/internal/model"
	"clvcast/internal/pipeline"
	"clvcast/internal/source"
)

// Analysis holds everything computed from one run over the input data.
// All fields are immutable once Run returns.
type Analysis struct {
	Config  config.Config
	Dataset *pipeline.Dataset

	CalSummaries  []model.RFSummary
	HoldSummaries []model.RFSummary
	FullSummaries []model.RFSummary

	CalDist  model.FreqDist
	HoldDist model.FreqDist
	FullDist model.FreqDist

	BB   btyd.BetaBinomialFit
	BGBB btyd.BGBBFit
}

// Run executes the analysis described by cfg. The progress callback, when
// non-nil, receives optimizer iterations for both fits.
//
// A fit that stops without converging is not fatal: Run returns the
// analysis holding the best point found together with an error wrapping
// btyd.ErrNotConverged, so callers can render the diagnostics alongside
// a warning.
func Run(cfg config.Config, progress btyd.ProgressFunc) (*Analysis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	calEvents, err := source.ParseFile(cfg.Data.CalibrationFile)
	if err != nil {
		return nil, fmt.Errorf("calibration data: %w", err)
	}
	holdEvents, err := source.ParseFile(cfg.Data.HoldoutFile)
	if err != nil {
		return nil, fmt.Errorf("holdout data: %w", err)
	}

	calWin := pipeline.Window{Start: cfg.Data.CalibrationStart, End: cfg.Data.CalibrationEnd}
	holdWin := pipeline.Window{Start: cfg.Data.HoldoutStart, End: cfg.Data.HoldoutEnd}

	ds, err := pipeline.Build(calEvents, holdEvents, calWin, holdWin)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Config:        cfg,
		Dataset:       ds,
		CalSummaries:  ds.Calibration.Summaries(),
		HoldSummaries: ds.Holdout.Summaries(),
		FullSummaries: ds.Full.Summaries(),
	}
	a.CalDist = pipeline.Distribution(a.CalSummaries, calWin.Len())
	a.HoldDist = pipeline.Distribution(a.HoldSummaries, holdWin.Len())
	a.FullDist = pipeline.Distribution(a.FullSummaries, calWin.Len()+holdWin.Len())

	var fitErr error

	a.BB, err = btyd.FitBetaBinomial(a.CalDist, progress)
	warn, fatal := fitIssue("beta-binomial", err)
	if fatal != nil {
		return nil, fatal
	}
	fitErr = errors.Join(fitErr, warn)

	a.BGBB, err = btyd.FitBGBB(a.CalSummaries, progress)
	warn, fatal = fitIssue("bg/bb", err)
	if fatal != nil {
		return nil, fatal
	}
	fitErr = errors.Join(fitErr, warn)

	return a, fitErr
}

// fitIssue classifies a fit error: non-convergence keeps the best-found
// parameters and comes back as a warning, anything else is fatal.
func fitIssue(stage string, err error) (warn, fatal error) {
	if err == nil {
		return nil, nil
	}
	wrapped := fmt.Errorf("%s: %w", stage, err)
	if errors.Is(err, btyd.ErrNotConverged) {
		return wrapped, nil
	}
	return nil, wrapped
}

// CalibrationLen returns the calibration window length in periods.
func (a *Analysis) CalibrationLen() int {
	return a.Dataset.Calibration.Window.Len()
}

// HoldoutLen returns the holdout window length in periods.
func (a *Analysis) HoldoutLen() int {
	return a.Dataset.Holdout.Window.Len()
}

// Customers returns the size of the observed customer universe.
func (a *Analysis) Customers() int {
	return len(a.Dataset.IDs)
}

// CalibrationFitBB compares actual calibration bucket counts against the
// Beta-Binomial model's expectations.
func (a *Analysis) CalibrationFitBB() []model.BucketComparison {
	return compare(a.CalDist, a.BB.PMFRange(a.CalibrationLen()), a.Customers())
}

// CalibrationFitBGBB compares actual calibration bucket counts against the
// BG/BB model's expectations.
func (a *Analysis) CalibrationFitBGBB() []model.BucketComparison {
	return compare(a.CalDist, a.BGBB.PMFRange(a.CalibrationLen()), a.Customers())
}

// HoldoutFit compares actual holdout bucket counts against the BG/BB
// general PMF projected past the calibration window. The Beta-Binomial
// model has no dropout story, so only BG/BB is validated out-of-sample.
func (a *Analysis) HoldoutFit() []model.BucketComparison {
	pmf := a.BGBB.GeneralPMFRange(a.CalibrationLen(), a.HoldoutLen())
	return compare(a.HoldDist, pmf, a.Customers())
}

// HoldoutByCalibration returns, per calibration frequency bucket, the
// actual mean holdout transaction count against the BG/BB conditional
// expectation. Buckets with no customers report zero actuals.
func (a *Analysis) HoldoutByCalibration() []model.BucketComparison {
	nCal, mHold := a.CalibrationLen(), a.HoldoutLen()

	actualSum := make([]float64, nCal+1)
	counts := make([]int, nCal+1)
	expectedSum := make([]float64, nCal+1)
	for i, s := range a.CalSummaries {
		actualSum[s.X] += float64(a.HoldSummaries[i].X)
		expectedSum[s.X] += a.BGBB.ConditionalExpected(s.X, s.TX, nCal, mHold)
		counts[s.X]++
	}

	out := make([]model.BucketComparison, nCal+1)
	for x := 0; x <= nCal; x++ {
		row := model.BucketComparison{X: x}
		if counts[x] > 0 {
			row.Actual = int(actualSum[x])
			row.Predicted = expectedSum[x]
		}
		out[x] = row
	}
	return out
}

// ExpectedAlive returns the expected number of observed customers still
// alive at the end of the calibration window.
func (a *Analysis) ExpectedAlive() float64 {
	total := 0.0
	for _, p := range a.BGBB.PAliveEach(a.CalSummaries) {
		total += p
	}
	return total
}

// ResidualValue returns the discounted value of all future transactions of
// the observed customer base, at the configured margin and discount rate.
func (a *Analysis) ResidualValue() float64 {
	d := a.Config.Economics.DiscountRate
	total := 0.0
	for _, v := range a.BGBB.DERTEach(a.CalSummaries, d) {
		total += v
	}
	return total * a.Config.Economics.MarginPerTrip
}

// MaxAcquisitionSpend returns the most that can be paid to acquire one new
// customer: the margin on the acquisition-period transaction plus the
// discounted residual stream.
func (a *Analysis) MaxAcquisitionSpend() float64 {
	d := a.Config.Economics.DiscountRate
	return a.Config.Economics.MarginPerTrip * (1 + a.BGBB.DERT(0, 0, 0, d))
}

// CohortForecast projects a newly acquired cohort of the configured size
// over the given number of future years, starting the year after the
// holdout window ends.
func (a *Analysis) CohortForecast(years int) []model.YearForecast {
	cohort := float64(a.Config.Economics.CohortSize)
	startYear := a.Dataset.Holdout.Window.End + 1

	out := make([]model.YearForecast, years)
	for n := 1; n <= years; n++ {
		out[n-1] = model.YearForecast{
			Year:         startYear + n - 1,
			Surviving:    cohort * a.BGBB.Survival(n),
			Transactions: cohort * (a.BGBB.Expected(n) - a.BGBB.Expected(n-1)),
		}
	}
	return out
}

func compare(actual model.FreqDist, pmf []float64, customers int) []model.BucketComparison {
	out := make([]model.BucketComparison, len(actual))
	for x := range actual {
		predicted := 0.0
		if x < len(pmf) {
			predicted = pmf[x] * float64(customers)
		}
		out[x] = model.BucketComparison{X: x, Actual: actual[x], Predicted: predicted}
	}
	return out
}
