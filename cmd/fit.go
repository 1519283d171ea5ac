package cmd

import (
	"fmt"

	"clvcast/internal/cli"
	"clvcast/internal/report"

	"github.com/spf13/cobra"
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fitted model parameters and diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := runAnalysis()
		if err != nil {
			return err
		}
		printFit(a)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fitCmd)
}

func printFit(a *report.Analysis) {
	bbTheta := a.BB.ThetaMoments()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Beta-Binomial (calibration only)",
		Headers: []string{"Quantity", "Value"},
		Rows: [][]string{
			{"alpha", cli.FormatParam(a.BB.Alpha)},
			{"beta", cli.FormatParam(a.BB.Beta)},
			{"neg log-likelihood", cli.FormatCount(a.BB.NegLogLik)},
			{"iterations", formatNumber(int64(a.BB.Iterations))},
			{"status", a.BB.Status},
			{"---"},
			{"E[theta]", cli.FormatProb(bbTheta.Mean)},
			{"Var[theta]", cli.FormatProb(bbTheta.Variance)},
		},
	}))
	fmt.Println()

	theta := a.BGBB.ThetaMoments()
	dropout := a.BGBB.DropoutMoments()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "BG/BB",
		Headers: []string{"Quantity", "Value"},
		Rows: [][]string{
			{"alpha", cli.FormatParam(a.BGBB.Alpha)},
			{"beta", cli.FormatParam(a.BGBB.Beta)},
			{"gamma", cli.FormatParam(a.BGBB.Gamma)},
			{"delta", cli.FormatParam(a.BGBB.Delta)},
			{"neg log-likelihood", cli.FormatCount(a.BGBB.NegLogLik)},
			{"iterations", formatNumber(int64(a.BGBB.Iterations))},
			{"status", a.BGBB.Status},
			{"---"},
			{"E[theta]", cli.FormatProb(theta.Mean)},
			{"Var[theta]", cli.FormatProb(theta.Variance)},
			{"E[dropout]", cli.FormatProb(dropout.Mean)},
			{"Var[dropout]", cli.FormatProb(dropout.Variance)},
		},
	}))
	fmt.Println()
}
