// Package btyd implements the two buy-till-you-die models behind the
// analysis: the Beta-Binomial heterogeneity model and the discrete-time
// Beta-Geometric/Beta-Binomial (BG/BB) model of Fader, Hardie, and Shang.
//
// Both models observe a customer over m discrete periods and summarize the
// history as (x, tx): the number of transacting periods and the index of
// the last one. All formulas work in log-gamma space to stay stable for
// large shape parameters.
package btyd

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"clvcast/internal/model"
)

// BetaBinomial holds the shape parameters of the Beta-Binomial model:
// each customer draws a per-period transaction probability theta from
// Beta(Alpha, Beta) once, then transacts independently each period.
type BetaBinomial struct {
	Alpha float64
	Beta  float64
}

// LogPMF returns log P(X = x | m) with theta integrated out.
func (p BetaBinomial) LogPMF(x, m int) float64 {
	fx, fm := float64(x), float64(m)
	return lchoose(m, x) + lbeta(p.Alpha+fx, p.Beta+fm-fx) - lbeta(p.Alpha, p.Beta)
}

// PMF returns P(X = x | m).
func (p BetaBinomial) PMF(x, m int) float64 {
	return math.Exp(p.LogPMF(x, m))
}

// PMFRange returns the PMF evaluated elementwise at x = 0..m.
func (p BetaBinomial) PMFRange(m int) []float64 {
	out := make([]float64, m+1)
	for x := 0; x <= m; x++ {
		out[x] = p.PMF(x, m)
	}
	return out
}

// NegLogLik returns the negative log-likelihood of a frequency
// distribution observed over m = len(dist)-1 periods.
func (p BetaBinomial) NegLogLik(dist model.FreqDist) float64 {
	m := len(dist) - 1
	nll := 0.0
	for x, count := range dist {
		if count == 0 {
			continue
		}
		nll -= float64(count) * p.LogPMF(x, m)
	}
	return nll
}

// ThetaDist returns the fitted population distribution of the per-period
// transaction probability.
func (p BetaBinomial) ThetaDist() distuv.Beta {
	return distuv.Beta{Alpha: p.Alpha, Beta: p.Beta}
}

// ThetaMoments returns the population mean and variance of theta.
// Non-finite values are passed through when a parameter sits at a boundary.
func (p BetaBinomial) ThetaMoments() model.BetaMoments {
	return betaMoments(p.ThetaDist())
}

func betaMoments(d distuv.Beta) model.BetaMoments {
	return model.BetaMoments{
		Mean:     d.Mean(),
		Variance: d.Variance(),
	}
}

// lbeta returns log B(a, b).
func lbeta(a, b float64) float64 {
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	return la + lb - lab
}

// lchoose returns log C(m, x).
func lchoose(m, x int) float64 {
	lm, _ := math.Lgamma(float64(m) + 1)
	lx, _ := math.Lgamma(float64(x) + 1)
	lmx, _ := math.Lgamma(float64(m-x) + 1)
	return lm - lx - lmx
}
