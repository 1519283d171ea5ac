package btyd

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"clvcast/internal/model"
)

// BGBB holds the shape parameters of the BG/BB model. Each customer draws
// a transaction probability theta from Beta(Alpha, Beta) and a per-period
// dropout probability from Beta(Gamma, Delta); once dropped out the
// customer never transacts again.
type BGBB struct {
	Alpha float64
	Beta  float64
	Gamma float64
	Delta float64
}

// Likelihood returns the marginal likelihood of observing (x, tx) over n
// periods: the still-alive term plus one term per period at which the
// customer could have dropped out after tx.
func (p BGBB) Likelihood(x, tx, n int) float64 {
	fx, ftx, fn := float64(x), float64(tx), float64(n)
	dab := lbeta(p.Alpha, p.Beta)
	dgd := lbeta(p.Gamma, p.Delta)

	l := math.Exp(lbeta(p.Alpha+fx, p.Beta+fn-fx) - dab + lbeta(p.Gamma, p.Delta+fn) - dgd)
	for i := 0; i <= n-tx-1; i++ {
		fi := float64(i)
		l += math.Exp(lbeta(p.Alpha+fx, p.Beta+ftx-fx+fi) - dab +
			lbeta(p.Gamma+1, p.Delta+ftx+fi) - dgd)
	}
	return l
}

// LogLik returns log of Likelihood.
func (p BGBB) LogLik(x, tx, n int) float64 {
	return math.Log(p.Likelihood(x, tx, n))
}

// NegLogLik returns the summed negative log-likelihood of a set of
// customer summaries.
func (p BGBB) NegLogLik(sums []model.RFSummary) float64 {
	nll := 0.0
	for _, s := range sums {
		nll -= p.LogLik(s.X, s.TX, s.M)
	}
	return nll
}

// PAlive returns the posterior probability that a customer with history
// (x, tx) over n periods has not yet dropped out. It is exactly 1 when
// tx = n, since every dropout term in the likelihood then vanishes.
func (p BGBB) PAlive(x, tx, n int) float64 {
	fx, fn := float64(x), float64(n)
	alive := math.Exp(lbeta(p.Alpha+fx, p.Beta+fn-fx) - lbeta(p.Alpha, p.Beta) +
		lbeta(p.Gamma, p.Delta+fn) - lbeta(p.Gamma, p.Delta))
	return alive / p.Likelihood(x, tx, n)
}

// PAliveEach evaluates PAlive elementwise over customer summaries.
func (p BGBB) PAliveEach(sums []model.RFSummary) []float64 {
	out := make([]float64, len(sums))
	for i, s := range sums {
		out[i] = p.PAlive(s.X, s.TX, s.M)
	}
	return out
}

// PMF returns the probability that a customer with no history transacts
// exactly x times over m periods.
func (p BGBB) PMF(x, m int) float64 {
	return p.GeneralPMF(x, 0, m)
}

// PMFRange returns the PMF evaluated elementwise at x = 0..m.
func (p BGBB) PMFRange(m int) []float64 {
	out := make([]float64, m+1)
	for x := 0; x <= m; x++ {
		out[x] = p.PMF(x, m)
	}
	return out
}

// GeneralPMF returns the probability that a customer with no history
// transacts exactly x times during periods (n, n+m]. With n = 0 it reduces
// to the plain PMF. The x = 0 bucket picks up the mass of customers who
// dropped out during the first n periods.
func (p BGBB) GeneralPMF(x, n, m int) float64 {
	fx, fn, fm := float64(x), float64(n), float64(m)
	dab := lbeta(p.Alpha, p.Beta)
	dgd := lbeta(p.Gamma, p.Delta)

	total := 0.0
	if x == 0 {
		total += 1 - math.Exp(lbeta(p.Gamma, p.Delta+fn)-dgd)
	}
	total += math.Exp(lchoose(m, x) +
		lbeta(p.Alpha+fx, p.Beta+fm-fx) - dab +
		lbeta(p.Gamma, p.Delta+fn+fm) - dgd)
	for i := x; i <= m-1; i++ {
		fi := float64(i)
		total += math.Exp(lchoose(i, x) +
			lbeta(p.Alpha+fx, p.Beta+fi-fx) - dab +
			lbeta(p.Gamma+1, p.Delta+fn+fi) - dgd)
	}
	return total
}

// GeneralPMFRange returns GeneralPMF evaluated elementwise at x = 0..m.
func (p BGBB) GeneralPMFRange(n, m int) []float64 {
	out := make([]float64, m+1)
	for x := 0; x <= m; x++ {
		out[x] = p.GeneralPMF(x, n, m)
	}
	return out
}

// DERT returns the discounted expected residual transactions of a customer
// with history (x, tx) over n periods, at per-period discount rate d > 0.
// With x = tx = n = 0 it values a brand-new customer's future stream.
func (p BGBB) DERT(x, tx, n int, d float64) float64 {
	fx, fn := float64(x), float64(n)
	l := p.Likelihood(x, tx, n)

	p1 := math.Exp(lbeta(p.Alpha+fx+1, p.Beta+fn-fx) - lbeta(p.Alpha, p.Beta))
	p2 := math.Exp(lbeta(p.Gamma, p.Delta+fn+1) - lbeta(p.Gamma, p.Delta))
	h := hyp2F1(1, p.Delta+fn+1, p.Gamma+p.Delta+fn+1, 1/(1+d))

	return p1 * p2 * h / ((1 + d) * l)
}

// DERTEach evaluates DERT elementwise over customer summaries.
func (p BGBB) DERTEach(sums []model.RFSummary, d float64) []float64 {
	out := make([]float64, len(sums))
	for i, s := range sums {
		out[i] = p.DERT(s.X, s.TX, s.M, d)
	}
	return out
}

// Expected returns the expected cumulative transaction count of a
// brand-new customer over n periods.
func (p BGBB) Expected(n int) float64 {
	fn := float64(n)
	g1, _ := math.Lgamma(p.Gamma + p.Delta)
	g2, _ := math.Lgamma(p.Gamma + p.Delta + fn)
	g3, _ := math.Lgamma(1 + p.Delta + fn)
	g4, _ := math.Lgamma(1 + p.Delta)

	return p.Alpha / (p.Alpha + p.Beta) * p.Delta / (p.Gamma - 1) *
		(1 - math.Exp(g1-g2+g3-g4))
}

// ConditionalExpected returns the expected transaction count over the m
// periods following a calibration window of n periods, for a customer with
// history (x, tx).
func (p BGBB) ConditionalExpected(x, tx, n, m int) float64 {
	fx, fn, fm := float64(x), float64(n), float64(m)
	l := p.Likelihood(x, tx, n)

	p1 := math.Exp(lbeta(p.Alpha+fx+1, p.Beta+fn-fx)-lbeta(p.Alpha, p.Beta)) / l
	p2 := p.Delta / (p.Gamma - 1)
	g1, _ := math.Lgamma(p.Gamma + p.Delta)
	g2, _ := math.Lgamma(1 + p.Delta)
	g3, _ := math.Lgamma(1 + p.Delta + fn)
	g4, _ := math.Lgamma(p.Gamma + p.Delta + fn)
	g5, _ := math.Lgamma(1 + p.Delta + fn + fm)
	g6, _ := math.Lgamma(p.Gamma + p.Delta + fn + fm)

	return p1 * p2 * math.Exp(g1-g2) * (math.Exp(g3-g4) - math.Exp(g5-g6))
}

// ConditionalExpectedEach evaluates ConditionalExpected elementwise.
func (p BGBB) ConditionalExpectedEach(sums []model.RFSummary, m int) []float64 {
	out := make([]float64, len(sums))
	for i, s := range sums {
		out[i] = p.ConditionalExpected(s.X, s.TX, s.M, m)
	}
	return out
}

// Survival returns the probability a brand-new customer is still alive at
// the end of period n.
func (p BGBB) Survival(n int) float64 {
	return math.Exp(lbeta(p.Gamma, p.Delta+float64(n)) - lbeta(p.Gamma, p.Delta))
}

// ThetaDist returns the fitted population distribution of the transaction
// probability.
func (p BGBB) ThetaDist() distuv.Beta {
	return distuv.Beta{Alpha: p.Alpha, Beta: p.Beta}
}

// DropoutDist returns the fitted population distribution of the per-period
// dropout probability.
func (p BGBB) DropoutDist() distuv.Beta {
	return distuv.Beta{Alpha: p.Gamma, Beta: p.Delta}
}

// ThetaMoments returns the population mean and variance of the transaction
// probability.
func (p BGBB) ThetaMoments() model.BetaMoments {
	return betaMoments(p.ThetaDist())
}

// DropoutMoments returns the population mean and variance of the dropout
// probability.
func (p BGBB) DropoutMoments() model.BetaMoments {
	return betaMoments(p.DropoutDist())
}

// hyp2F1 evaluates the Gaussian hypergeometric series 2F1(a, b; c; z) by
// direct summation. Converges for |z| < 1, which holds for any positive
// discount rate.
func hyp2F1(a, b, c, z float64) float64 {
	const (
		tol     = 1e-12
		maxIter = 10000
	)
	term := 1.0
	sum := 1.0
	for j := 1; j <= maxIter; j++ {
		fj := float64(j)
		term *= (a + fj - 1) * (b + fj - 1) / (c + fj - 1) * z / fj
		sum += term
		if math.Abs(term) < tol*math.Abs(sum) {
			break
		}
	}
	return sum
}
