package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clvcast/internal/btyd"
	"clvcast/internal/config"
)

// writeFixture generates a deterministic customer base whose calibration
// (x, tx) counts follow a known BG/BB parameterization, writes both input
// tables to a temp dir, and returns a config pointing at them.
func writeFixture(t *testing.T) config.Config {
	t.Helper()

	truth := btyd.BGBB{Alpha: 1.2, Beta: 0.75, Gamma: 0.65, Delta: 2.8}
	const customers = 2000
	calStart, calEnd := 2010, 2014
	n := calEnd - calStart + 1

	var calLines, holdLines []string
	calLines = append(calLines, "cust year")
	holdLines = append(holdLines, "cust year")

	id := 0
	nextID := func() string {
		id++
		return fmt.Sprintf("C%04d", id)
	}

	// Customers with no calibration transactions enter the universe only
	// through the holdout file. A third of them surface there, exercising
	// the calibration zero-fill path and keeping the x=0 bucket populated.
	zeros := int(math.Round(customers * truth.Likelihood(0, 0, n)))
	for i := 0; i < zeros; i++ {
		cid := nextID()
		if i%3 == 0 {
			holdLines = append(holdLines, cid+" 2016")
		}
	}

	for tx := 1; tx <= n; tx++ {
		for x := 1; x <= tx; x++ {
			mult := math.Round(math.Exp(lchoose(tx-1, x-1)))
			count := int(math.Round(customers * mult * truth.Likelihood(x, tx, n)))
			for i := 0; i < count; i++ {
				cid := nextID()
				for j := 0; j < x-1; j++ {
					calLines = append(calLines, fmt.Sprintf("%s %d", cid, calStart+j))
				}
				calLines = append(calLines, fmt.Sprintf("%s %d", cid, calStart+tx-1))
				// Customers active through the end of calibration keep
				// transacting into the holdout years.
				if tx == n {
					holdLines = append(holdLines, cid+" 2015")
				}
			}
		}
	}

	dir := t.TempDir()
	calPath := filepath.Join(dir, "calibration.txt")
	holdPath := filepath.Join(dir, "holdout.txt")
	if err := os.WriteFile(calPath, []byte(strings.Join(calLines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(holdPath, []byte(strings.Join(holdLines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Data.CalibrationFile = calPath
	cfg.Data.HoldoutFile = holdPath
	return cfg
}

func lchoose(n, k int) float64 {
	ln, _ := math.Lgamma(float64(n) + 1)
	lk, _ := math.Lgamma(float64(k) + 1)
	lnk, _ := math.Lgamma(float64(n-k) + 1)
	return ln - lk - lnk
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := writeFixture(t)

	a, err := Run(cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if a.Customers() == 0 {
		t.Fatal("no customers loaded")
	}
	if !a.BB.Converged || !a.BGBB.Converged {
		t.Fatalf("fits did not converge: BB=%s BGBB=%s", a.BB.Status, a.BGBB.Status)
	}
	if a.BB.Alpha <= 0 || a.BB.Beta <= 0 {
		t.Errorf("BB parameters (%v, %v) must be positive", a.BB.Alpha, a.BB.Beta)
	}
	if a.BGBB.Gamma <= 0 || a.BGBB.Delta <= 0 {
		t.Errorf("BG/BB dropout parameters (%v, %v) must be positive", a.BGBB.Gamma, a.BGBB.Delta)
	}
}

func TestRun_Comparisons(t *testing.T) {
	cfg := writeFixture(t)
	a, err := Run(cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	total := float64(a.Customers())
	checkSum := func(name string, rows []float64) {
		sum := 0.0
		for _, v := range rows {
			sum += v
		}
		if math.Abs(sum-total) > total*0.01 {
			t.Errorf("%s predicted counts sum to %v, want ~%v", name, sum, total)
		}
	}

	var bb, bg, hold []float64
	for _, r := range a.CalibrationFitBB() {
		bb = append(bb, r.Predicted)
	}
	for _, r := range a.CalibrationFitBGBB() {
		bg = append(bg, r.Predicted)
	}
	for _, r := range a.HoldoutFit() {
		hold = append(hold, r.Predicted)
	}
	checkSum("calibration BB", bb)
	checkSum("calibration BG/BB", bg)
	checkSum("holdout BG/BB", hold)
}

func TestRun_Forecasts(t *testing.T) {
	cfg := writeFixture(t)
	a, err := Run(cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	alive := a.ExpectedAlive()
	if alive <= 0 || alive > float64(a.Customers()) {
		t.Errorf("ExpectedAlive = %v, want in (0, %d]", alive, a.Customers())
	}

	rv := a.ResidualValue()
	if math.IsNaN(rv) || rv < 0 {
		t.Errorf("ResidualValue = %v, want non-negative finite", rv)
	}

	spend := a.MaxAcquisitionSpend()
	if spend < cfg.Economics.MarginPerTrip {
		t.Errorf("MaxAcquisitionSpend = %v, below one period's margin %v",
			spend, cfg.Economics.MarginPerTrip)
	}

	years := a.CohortForecast(10)
	if len(years) != 10 {
		t.Fatalf("len(CohortForecast) = %d, want 10", len(years))
	}
	prev := float64(cfg.Economics.CohortSize)
	for _, y := range years {
		if y.Surviving > prev {
			t.Errorf("year %d: surviving %v above previous %v", y.Year, y.Surviving, prev)
		}
		if y.Transactions < 0 {
			t.Errorf("year %d: negative expected transactions %v", y.Year, y.Transactions)
		}
		prev = y.Surviving
	}
	if years[0].Year != cfg.Data.HoldoutEnd+1 {
		t.Errorf("forecast starts at %d, want %d", years[0].Year, cfg.Data.HoldoutEnd+1)
	}
}

func TestRun_MissingInput(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.CalibrationFile = filepath.Join(t.TempDir(), "absent.txt")
	cfg.Data.HoldoutFile = cfg.Data.CalibrationFile

	if _, err := Run(cfg, nil); err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestFitIssue(t *testing.T) {
	stopped := fmt.Errorf("%w: optimizer status Failure", btyd.ErrNotConverged)

	warn, fatal := fitIssue("bg/bb", stopped)
	if fatal != nil {
		t.Fatalf("non-convergence must not be fatal, got %v", fatal)
	}
	if warn == nil || !errors.Is(warn, btyd.ErrNotConverged) {
		t.Fatalf("warning %v should wrap ErrNotConverged", warn)
	}
	if !strings.Contains(warn.Error(), "bg/bb") {
		t.Errorf("warning %q should name the stage", warn)
	}

	warn, fatal = fitIssue("beta-binomial", errors.New("boom"))
	if warn != nil || fatal == nil {
		t.Errorf("other fit errors must be fatal, got warn=%v fatal=%v", warn, fatal)
	}

	warn, fatal = fitIssue("bg/bb", nil)
	if warn != nil || fatal != nil {
		t.Errorf("nil error should classify clean, got warn=%v fatal=%v", warn, fatal)
	}
}
