package btyd

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"clvcast/internal/model"
)

// ErrNotConverged reports that the optimizer stopped without satisfying a
// convergence criterion. The returned fit still carries the best point
// found so the caller can inspect it.
var ErrNotConverged = errors.New("fit did not converge")

// ProgressFunc is called once per major optimizer iteration.
type ProgressFunc func(iteration int, negLogLik float64)

// BetaBinomialFit is a fitted Beta-Binomial model with optimizer diagnostics.
type BetaBinomialFit struct {
	BetaBinomial

	NegLogLik  float64
	Iterations int
	Converged  bool
	Status     string
}

// BGBBFit is a fitted BG/BB model with optimizer diagnostics.
type BGBBFit struct {
	BGBB

	NegLogLik  float64
	Iterations int
	Converged  bool
	Status     string
}

// FitBetaBinomial estimates (alpha, beta) by maximum likelihood from a
// calibration frequency distribution over m = len(dist)-1 periods.
// Optimization runs BFGS over the log-parameters, starting from
// alpha = beta = 1, so the estimates stay positive without constraints.
func FitBetaBinomial(dist model.FreqDist, progress ProgressFunc) (BetaBinomialFit, error) {
	if len(dist) < 2 || dist.Customers() == 0 {
		return BetaBinomialFit{}, fmt.Errorf("frequency distribution is empty")
	}

	nll := func(z []float64) float64 {
		p := BetaBinomial{Alpha: math.Exp(z[0]), Beta: math.Exp(z[1])}
		return p.NegLogLik(dist)
	}

	sol, err := minimizeNLL(nll, 2, progress)
	if err != nil {
		return BetaBinomialFit{}, err
	}

	fit := BetaBinomialFit{
		BetaBinomial: BetaBinomial{
			Alpha: math.Exp(sol.x[0]),
			Beta:  math.Exp(sol.x[1]),
		},
		NegLogLik:  sol.f,
		Iterations: sol.iterations,
		Converged:  sol.converged,
		Status:     sol.status,
	}
	if !fit.Converged {
		return fit, fmt.Errorf("%w: optimizer status %s", ErrNotConverged, fit.Status)
	}
	return fit, nil
}

// FitBGBB estimates (alpha, beta, gamma, delta) by maximum likelihood from
// calibration summaries with a common window length. Customers sharing the
// same (x, tx) pair contribute one weighted likelihood term.
func FitBGBB(sums []model.RFSummary, progress ProgressFunc) (BGBBFit, error) {
	if len(sums) == 0 {
		return BGBBFit{}, fmt.Errorf("no customer summaries")
	}
	n := sums[0].M
	for _, s := range sums {
		if s.M != n {
			return BGBBFit{}, fmt.Errorf("mixed window lengths %d and %d", n, s.M)
		}
	}

	type pair struct{ x, tx int }
	counts := make(map[pair]int)
	for _, s := range sums {
		counts[pair{s.X, s.TX}]++
	}

	nll := func(z []float64) float64 {
		p := BGBB{
			Alpha: math.Exp(z[0]),
			Beta:  math.Exp(z[1]),
			Gamma: math.Exp(z[2]),
			Delta: math.Exp(z[3]),
		}
		total := 0.0
		for pr, count := range counts {
			total -= float64(count) * p.LogLik(pr.x, pr.tx, n)
		}
		return total
	}

	sol, err := minimizeNLL(nll, 4, progress)
	if err != nil {
		return BGBBFit{}, err
	}

	fit := BGBBFit{
		BGBB: BGBB{
			Alpha: math.Exp(sol.x[0]),
			Beta:  math.Exp(sol.x[1]),
			Gamma: math.Exp(sol.x[2]),
			Delta: math.Exp(sol.x[3]),
		},
		NegLogLik:  sol.f,
		Iterations: sol.iterations,
		Converged:  sol.converged,
		Status:     sol.status,
	}
	if !fit.Converged {
		return fit, fmt.Errorf("%w: optimizer status %s", ErrNotConverged, fit.Status)
	}
	return fit, nil
}

type solution struct {
	x          []float64
	f          float64
	iterations int
	converged  bool
	status     string
}

// minimizeNLL runs BFGS from the origin of the log-parameter space with a
// central finite-difference gradient.
func minimizeNLL(nll func([]float64) float64, dim int, progress ProgressFunc) (solution, error) {
	problem := optimize.Problem{
		Func: nll,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, nll, z, nil)
		},
	}
	x0 := make([]float64, dim) // log(1) for every coordinate

	// The finite-difference gradient carries O(sqrt(eps)) noise, so the
	// default gradient threshold is unreachable near the optimum.
	settings := &optimize.Settings{GradientThreshold: 1e-3}
	if progress != nil {
		settings.Recorder = &progressRecorder{fn: progress}
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if err != nil {
		return solution{}, fmt.Errorf("optimizer: %w", err)
	}

	return solution{
		x:          result.X,
		f:          result.F,
		iterations: result.Stats.MajorIterations,
		converged:  convergedStatus(result.Status),
		status:     result.Status.String(),
	}, nil
}

func convergedStatus(st optimize.Status) bool {
	switch st {
	case optimize.Success,
		optimize.GradientThreshold,
		optimize.FunctionThreshold,
		optimize.FunctionConvergence,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

// progressRecorder adapts a ProgressFunc to the gonum optimize.Recorder
// interface, reporting only major iterations.
type progressRecorder struct {
	fn ProgressFunc
}

func (r *progressRecorder) Init() error { return nil }

func (r *progressRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op == optimize.MajorIteration {
		r.fn(stats.MajorIterations, loc.F)
	}
	return nil
}
