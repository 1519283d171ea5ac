package cli

import (
	"strings"
	"testing"
)

func TestRenderWarning(t *testing.T) {
	out := RenderWarning("bg/bb: fit did not converge")
	if !strings.Contains(out, "bg/bb: fit did not converge") {
		t.Errorf("warning %q lost its message", out)
	}
	if !strings.Contains(out, "!") {
		t.Errorf("warning %q missing its marker", out)
	}
}

func TestRenderOK(t *testing.T) {
	out := RenderOK("Fitted 2,000 customers")
	if !strings.Contains(out, "Fitted 2,000 customers") {
		t.Errorf("status %q lost its message", out)
	}
}

func TestRenderTable_Separator(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Cruises", "Customers"},
		Rows: [][]string{
			{"0", "100"},
			{"---"},
			{"Total", "100"},
		},
	})
	if !strings.Contains(out, "Total") || !strings.Contains(out, "100") {
		t.Errorf("table output missing rows:\n%s", out)
	}
}
