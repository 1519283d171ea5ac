package cmd

import (
	"fmt"
	"strconv"

	"clvcast/internal/cli"
	"clvcast/internal/report"

	"github.com/spf13/cobra"
)

const defaultForecastYears = 10

var flagYears int

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Survival, residual value, and acquisition forecasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := runAnalysis()
		if err != nil {
			return err
		}
		printForecast(a, flagYears)
		return nil
	},
}

func init() {
	forecastCmd.Flags().IntVarP(&flagYears, "years", "y", defaultForecastYears, "Forecast horizon in years")
	rootCmd.AddCommand(forecastCmd)
}

func printForecast(a *report.Analysis, years int) {
	eco := a.Config.Economics

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Customer base",
		Headers: []string{"Quantity", "Value"},
		Rows: [][]string{
			{"Observed customers", formatNumber(int64(a.Customers()))},
			{"Expected still active", cli.FormatCount(a.ExpectedAlive())},
			{"Residual value", cli.FormatMoney(a.ResidualValue())},
			{"---"},
			{"Discount rate", cli.FormatPercent(eco.DiscountRate)},
			{"Margin per cruise", cli.FormatMoney(eco.MarginPerTrip)},
			{"Max acquisition spend", cli.FormatMoney(a.MaxAcquisitionSpend())},
		},
	}))
	fmt.Println()

	cohort := cli.Table{
		Title: fmt.Sprintf("New cohort of %s customers",
			formatNumber(int64(eco.CohortSize))),
		Headers: []string{"Year", "Surviving", "Cruises"},
	}
	for _, y := range a.CohortForecast(years) {
		cohort.Rows = append(cohort.Rows, []string{
			strconv.Itoa(y.Year),
			cli.FormatCount(y.Surviving),
			cli.FormatCount(y.Transactions),
		})
	}
	fmt.Print(cli.RenderTable(cohort))
	fmt.Println()
}
