package btyd

import (
	"math"
	"testing"

	"clvcast/internal/model"
)

// Parameter values in the neighborhood of published BG/BB estimates.
var testParams = BGBB{Alpha: 1.204, Beta: 0.750, Gamma: 0.657, Delta: 2.783}

// A customer transacting in the final calibration period is alive with
// certainty: the dropout sum in the likelihood is empty.
func TestPAlive_LastPeriodTransaction(t *testing.T) {
	for _, x := range []int{1, 3, 5} {
		if got := testParams.PAlive(x, 5, 5); got != 1.0 {
			t.Errorf("PAlive(x=%d, tx=5, n=5) = %v, want exactly 1.0", x, got)
		}
	}
}

func TestPAlive_Bounds(t *testing.T) {
	for x := 0; x <= 5; x++ {
		for tx := 0; tx <= 5; tx++ {
			if tx == 0 && x > 0 || tx < x {
				continue // x transactions need at least x periods through tx
			}
			got := testParams.PAlive(x, tx, 5)
			if got < 0 || got > 1 {
				t.Errorf("PAlive(%d, %d, 5) = %v outside [0,1]", x, tx, got)
			}
		}
	}
}

func TestPAlive_DecreasesWithStaleness(t *testing.T) {
	// Same frequency, older recency: survival should not look better.
	recent := testParams.PAlive(2, 5, 5)
	stale := testParams.PAlive(2, 2, 5)
	if stale >= recent {
		t.Errorf("PAlive(tx=2) = %v not below PAlive(tx=5) = %v", stale, recent)
	}
}

func TestGeneralPMF_ReducesToPMF(t *testing.T) {
	for x := 0; x <= 4; x++ {
		plain := testParams.PMF(x, 4)
		general := testParams.GeneralPMF(x, 0, 4)
		if math.Abs(plain-general) > 1e-14 {
			t.Errorf("x=%d: GeneralPMF(n=0) = %v, PMF = %v", x, general, plain)
		}
	}
}

func TestGeneralPMF_SumsToOne(t *testing.T) {
	for _, n := range []int{0, 3, 5} {
		sum := 0.0
		for _, v := range testParams.GeneralPMFRange(n, 4) {
			sum += v
		}
		if math.Abs(sum-1) > 1e-10 {
			t.Errorf("n=%d: GeneralPMF sum = %v, want 1", n, sum)
		}
	}
}

// A higher discount rate can only shrink the present value of the
// residual transaction stream.
func TestDERT_MonotoneInDiscount(t *testing.T) {
	rates := []float64{0.05, 0.10, 0.13, 0.25, 0.50, 1.0}
	prev := math.Inf(1)
	for _, d := range rates {
		got := testParams.DERT(3, 4, 5, d)
		if got > prev {
			t.Errorf("DERT at d=%v is %v, above value at lower rate %v", d, got, prev)
		}
		prev = got
	}
}

// A brand-new customer has likelihood 1 and a finite, non-negative DERT,
// usable directly for acquisition valuation.
func TestDERT_NewCustomer(t *testing.T) {
	got := testParams.DERT(0, 0, 0, 0.13)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("DERT(0,0,0) = %v, want finite", got)
	}
	if got < 0 {
		t.Fatalf("DERT(0,0,0) = %v, want non-negative", got)
	}

	cohortValue := (got + 1) * 10000 * 250
	if math.IsNaN(cohortValue) || cohortValue < 0 {
		t.Errorf("cohort acquisition value %v, want non-negative finite", cohortValue)
	}
}

func TestDERT_MoreHistoryMoreValue(t *testing.T) {
	// A frequent recent buyer is worth more than a one-off lapsed one.
	strong := testParams.DERT(5, 5, 5, 0.13)
	weak := testParams.DERT(1, 1, 5, 0.13)
	if strong <= weak {
		t.Errorf("DERT(5,5,5) = %v not above DERT(1,1,5) = %v", strong, weak)
	}
}

func TestExpected_IncreasingInHorizon(t *testing.T) {
	prev := 0.0
	for n := 1; n <= 10; n++ {
		got := testParams.Expected(n)
		if got < prev {
			t.Errorf("Expected(%d) = %v below Expected(%d) = %v", n, got, n-1, prev)
		}
		prev = got
	}
}

func TestConditionalExpected_Bounds(t *testing.T) {
	got := testParams.ConditionalExpected(3, 4, 5, 4)
	if got < 0 || got > 4 {
		t.Errorf("ConditionalExpected = %v outside [0, 4]", got)
	}

	// No future periods means no future transactions.
	if zero := testParams.ConditionalExpected(3, 4, 5, 0); math.Abs(zero) > 1e-12 {
		t.Errorf("ConditionalExpected over 0 periods = %v, want 0", zero)
	}
}

func TestSurvival_DecreasingInHorizon(t *testing.T) {
	prev := 1.0
	for n := 0; n <= 10; n++ {
		got := testParams.Survival(n)
		if got < 0 || got > 1 {
			t.Errorf("Survival(%d) = %v outside [0,1]", n, got)
		}
		if got > prev {
			t.Errorf("Survival(%d) = %v above Survival(%d) = %v", n, got, n-1, prev)
		}
		prev = got
	}
}

func TestLikelihood_NewCustomerIsOne(t *testing.T) {
	if got := testParams.Likelihood(0, 0, 0); math.Abs(got-1) > 1e-14 {
		t.Errorf("Likelihood(0,0,0) = %v, want 1", got)
	}
}

func TestElementwiseVariants(t *testing.T) {
	sums := []model.RFSummary{
		{CustomerID: "A", X: 0, TX: 0, M: 5},
		{CustomerID: "B", X: 3, TX: 4, M: 5},
		{CustomerID: "C", X: 5, TX: 5, M: 5},
	}

	alive := testParams.PAliveEach(sums)
	dert := testParams.DERTEach(sums, 0.13)
	cond := testParams.ConditionalExpectedEach(sums, 4)
	if len(alive) != 3 || len(dert) != 3 || len(cond) != 3 {
		t.Fatal("elementwise results must match input length")
	}

	for i, s := range sums {
		if alive[i] != testParams.PAlive(s.X, s.TX, s.M) {
			t.Errorf("PAliveEach[%d] disagrees with scalar form", i)
		}
		if dert[i] != testParams.DERT(s.X, s.TX, s.M, 0.13) {
			t.Errorf("DERTEach[%d] disagrees with scalar form", i)
		}
	}
}

func TestHyp2F1_KnownValues(t *testing.T) {
	// 2F1(1, 1; 2; z) = -ln(1-z)/z
	z := 0.5
	want := -math.Log(1-z) / z
	if got := hyp2F1(1, 1, 2, z); math.Abs(got-want) > 1e-10 {
		t.Errorf("2F1(1,1;2;%v) = %v, want %v", z, got, want)
	}

	// 2F1(a, b; b; z) = (1-z)^-a
	if got := hyp2F1(2, 3, 3, 0.25); math.Abs(got-math.Pow(0.75, -2)) > 1e-10 {
		t.Errorf("2F1(2,3;3;0.25) = %v, want %v", got, math.Pow(0.75, -2))
	}
}
