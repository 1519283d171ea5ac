package cmd

import (
	"errors"
	"fmt"
	"os"

	"clvcast/internal/btyd"
	"clvcast/internal/cli"
	"clvcast/internal/config"
	"clvcast/internal/report"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	flagConfig      string
	flagCalibration string
	flagHoldout     string
	flagDiscount    float64
	flagMargin      float64
	flagCohort      int
	flagQuiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "clvcast",
	Short: "Cruise customer lifetime value analysis",
	Long: "Fit Beta-Binomial and BG/BB buy-till-you-die models to annual cruise\n" +
		"transaction data, validate them against a holdout window, and forecast\n" +
		"customer survival, residual value, and acquisition spend.",
	RunE: runReport,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&flagCalibration, "calibration", "", "Calibration transaction table")
	rootCmd.PersistentFlags().StringVar(&flagHoldout, "holdout", "", "Holdout transaction table")
	rootCmd.PersistentFlags().Float64VarP(&flagDiscount, "discount", "d", 0, "Annual discount rate (overrides config)")
	rootCmd.PersistentFlags().Float64VarP(&flagMargin, "margin", "m", 0, "Margin per cruise in dollars (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagCohort, "cohort", 0, "New cohort size (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	if flagCalibration != "" {
		cfg.Data.CalibrationFile = flagCalibration
	}
	if flagHoldout != "" {
		cfg.Data.HoldoutFile = flagHoldout
	}
	if flagDiscount > 0 {
		cfg.Economics.DiscountRate = flagDiscount
	}
	if flagMargin > 0 {
		cfg.Economics.MarginPerTrip = flagMargin
	}
	if flagCohort > 0 {
		cfg.Economics.CohortSize = flagCohort
	}

	return cfg, cfg.Validate()
}

// runAnalysis is the shared load-and-fit path used by all commands.
func runAnalysis() (*report.Analysis, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var progress btyd.ProgressFunc
	var bar *progressbar.ProgressBar
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loading %s + %s\n", cfg.Data.CalibrationFile, cfg.Data.HoldoutFile)
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("  Fitting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		progress = func(iteration int, negLogLik float64) {
			_ = bar.Add(1)
		}
	}

	a, err := report.Run(cfg, progress)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if a == nil || !errors.Is(err, btyd.ErrNotConverged) {
			return nil, err
		}
		fmt.Fprintln(os.Stderr, cli.RenderWarning(err.Error()))
	}

	if !flagQuiet {
		fmt.Fprintln(os.Stderr, cli.RenderOK(fmt.Sprintf("Fitted %s customers over %d+%d periods",
			formatNumber(int64(a.Customers())), a.CalibrationLen(), a.HoldoutLen())))
	}
	return a, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := runAnalysis()
	if err != nil {
		return err
	}

	printSummary(a)
	printFit(a)
	printValidation(a)
	printForecast(a, defaultForecastYears)
	return nil
}

func formatNumber(n int64) string {
	return cli.FormatNumber(n)
}
