package cmd

import (
	"fmt"
	"strconv"

	"clvcast/internal/cli"
	"clvcast/internal/model"
	"clvcast/internal/report"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Frequency distributions per observation window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := runAnalysis()
		if err != nil {
			return err
		}
		printSummary(a)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func printSummary(a *report.Analysis) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CRUISE CLV  %d customers", a.Customers())))
	fmt.Println()

	windows := []struct {
		name string
		dist model.FreqDist
	}{
		{fmt.Sprintf("Calibration %d-%d", a.Dataset.Calibration.Window.Start, a.Dataset.Calibration.Window.End), a.CalDist},
		{fmt.Sprintf("Holdout %d-%d", a.Dataset.Holdout.Window.Start, a.Dataset.Holdout.Window.End), a.HoldDist},
		{fmt.Sprintf("Combined %d-%d", a.Dataset.Full.Window.Start, a.Dataset.Full.Window.End), a.FullDist},
	}

	for _, w := range windows {
		rows := make([][]string, 0, len(w.dist)+1)
		for x, count := range w.dist {
			rows = append(rows, []string{strconv.Itoa(x), formatNumber(int64(count))})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Total trips", formatNumber(int64(w.dist.Transactions()))})

		fmt.Print(cli.RenderTable(cli.Table{
			Title:   w.name,
			Headers: []string{"Cruises", "Customers"},
			Rows:    rows,
		}))
		fmt.Println()
	}
}
