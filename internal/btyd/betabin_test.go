package btyd

import (
	"math"
	"testing"
)

// The Beta-Binomial PMF must sum to 1 over x = 0..m for any positive shapes.
func TestBetaBinomialPMF_SumsToOne(t *testing.T) {
	cases := []struct {
		name string
		p    BetaBinomial
		m    int
	}{
		{"uniform", BetaBinomial{Alpha: 1, Beta: 1}, 5},
		{"skewed", BetaBinomial{Alpha: 0.3, Beta: 4.7}, 5},
		{"peaked", BetaBinomial{Alpha: 12, Beta: 8}, 9},
		{"single period", BetaBinomial{Alpha: 2.5, Beta: 0.9}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sum := 0.0
			for _, v := range tc.p.PMFRange(tc.m) {
				if v < 0 || v > 1 {
					t.Errorf("PMF value %v outside [0,1]", v)
				}
				sum += v
			}
			if math.Abs(sum-1) > 1e-10 {
				t.Errorf("PMF sum = %v, want 1", sum)
			}
		})
	}
}

func TestBetaBinomialPMF_UniformCase(t *testing.T) {
	// Alpha = Beta = 1 makes theta uniform, so X is uniform on 0..m.
	p := BetaBinomial{Alpha: 1, Beta: 1}
	m := 5
	for x := 0; x <= m; x++ {
		got := p.PMF(x, m)
		if math.Abs(got-1.0/6.0) > 1e-12 {
			t.Errorf("PMF(%d, %d) = %v, want 1/6", x, m, got)
		}
	}
}

func TestThetaMoments(t *testing.T) {
	p := BetaBinomial{Alpha: 2, Beta: 6}
	mom := p.ThetaMoments()

	if math.Abs(mom.Mean-0.25) > 1e-12 {
		t.Errorf("mean = %v, want 0.25", mom.Mean)
	}
	wantVar := 2.0 * 6.0 / (8.0 * 8.0 * 9.0)
	if math.Abs(mom.Variance-wantVar) > 1e-12 {
		t.Errorf("variance = %v, want %v", mom.Variance, wantVar)
	}
}
