package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"clvcast/internal/config"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load(flagConfig)

	calFile := cfg.Data.CalibrationFile
	holdFile := cfg.Data.HoldoutFile
	discount := strconv.FormatFloat(cfg.Economics.DiscountRate, 'f', -1, 64)
	margin := strconv.FormatFloat(cfg.Economics.MarginPerTrip, 'f', -1, 64)
	cohort := strconv.Itoa(cfg.Economics.CohortSize)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Calibration table").
				Description("Whitespace-delimited (customer, year) pairs for the fitting window").
				Value(&calFile),
			huh.NewInput().
				Title("Holdout table").
				Description("Same format, for the validation window").
				Value(&holdFile),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Annual discount rate").
				Validate(validatePositiveFloat).
				Value(&discount),
			huh.NewInput().
				Title("Margin per cruise ($)").
				Validate(validatePositiveFloat).
				Value(&margin),
			huh.NewInput().
				Title("New cohort size").
				Validate(validatePositiveInt).
				Value(&cohort),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Data.CalibrationFile = strings.TrimSpace(calFile)
	cfg.Data.HoldoutFile = strings.TrimSpace(holdFile)
	cfg.Economics.DiscountRate, _ = strconv.ParseFloat(strings.TrimSpace(discount), 64)
	cfg.Economics.MarginPerTrip, _ = strconv.ParseFloat(strings.TrimSpace(margin), 64)
	cfg.Economics.CohortSize, _ = strconv.Atoi(strings.TrimSpace(cohort))

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, flagConfig); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	savedTo := flagConfig
	if savedTo == "" {
		savedTo = config.ConfigPath()
	}
	fmt.Println()
	fmt.Printf("  Saved to %s\n", savedTo)
	fmt.Println("  Run `clvcast setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func validatePositiveFloat(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validatePositiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a whole number")
	}
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
