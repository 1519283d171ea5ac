package cmd

import (
	"fmt"
	"strconv"

	"clvcast/internal/cli"
	"clvcast/internal/model"
	"clvcast/internal/report"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Actual vs. predicted bucket counts, in-sample and holdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := runAnalysis()
		if err != nil {
			return err
		}
		printValidation(a)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func comparisonTable(title string, rows []model.BucketComparison) cli.Table {
	t := cli.Table{
		Title:   title,
		Headers: []string{"Cruises", "Actual", "Predicted"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.X),
			formatNumber(int64(r.Actual)),
			cli.FormatCount(r.Predicted),
		})
	}
	return t
}

func printValidation(a *report.Analysis) {
	fmt.Print(cli.RenderTable(comparisonTable(
		"Calibration fit: Beta-Binomial", a.CalibrationFitBB())))
	fmt.Println()

	fmt.Print(cli.RenderTable(comparisonTable(
		"Calibration fit: BG/BB", a.CalibrationFitBGBB())))
	fmt.Println()

	fmt.Print(cli.RenderTable(comparisonTable(
		fmt.Sprintf("Holdout fit: BG/BB, %d-%d",
			a.Dataset.Holdout.Window.Start, a.Dataset.Holdout.Window.End),
		a.HoldoutFit())))
	fmt.Println()

	// Conditional expectation: holdout cruises grouped by calibration
	// frequency. Actual is the observed total per group.
	cond := cli.Table{
		Title:   "Holdout cruises by calibration frequency",
		Headers: []string{"Calib cruises", "Actual total", "Expected total"},
	}
	for _, r := range a.HoldoutByCalibration() {
		cond.Rows = append(cond.Rows, []string{
			strconv.Itoa(r.X),
			formatNumber(int64(r.Actual)),
			cli.FormatCount(r.Predicted),
		})
	}
	fmt.Print(cli.RenderTable(cond))
	fmt.Println()
}
