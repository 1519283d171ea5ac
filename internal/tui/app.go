// Package tui provides the interactive Bubble Tea dashboard for clvcast.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"clvcast/internal/btyd"
	"clvcast/internal/cli"
	"clvcast/internal/config"
	"clvcast/internal/model"
	"clvcast/internal/report"
)

// analysisDoneMsg is sent when the fitting pipeline finishes. warning is
// non-empty when a model stopped short of convergence.
type analysisDoneMsg struct {
	analysis *report.Analysis
	warning  string
	elapsed  time.Duration
}

// analysisErrMsg is sent when loading or fitting fails.
type analysisErrMsg struct {
	err error
}

var tabNames = []string{"Summary", "Models", "Validation", "Forecast"}

// App is the root Bubble Tea model.
type App struct {
	cfg config.Config

	analysis *report.Analysis
	warning  string
	loadErr  error
	elapsed  time.Duration

	tab     int
	width   int
	height  int
	spinner spinner.Model
}

// Run launches the dashboard and blocks until the user quits.
func Run(cfg config.Config) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	app := App{cfg: cfg, spinner: sp}
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, runAnalysisCmd(a.cfg))
}

func runAnalysisCmd(cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		analysis, err := report.Run(cfg, nil)
		if err != nil {
			if analysis == nil || !errors.Is(err, btyd.ErrNotConverged) {
				return analysisErrMsg{err: err}
			}
			return analysisDoneMsg{analysis: analysis, warning: err.Error(), elapsed: time.Since(start)}
		}
		return analysisDoneMsg{analysis: analysis, elapsed: time.Since(start)}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case analysisDoneMsg:
		a.analysis = msg.analysis
		a.warning = msg.warning
		a.elapsed = msg.elapsed
		return a, nil

	case analysisErrMsg:
		a.loadErr = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.analysis == nil && a.loadErr == nil {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return a, tea.Quit
		case "tab", "l", "right":
			a.tab = (a.tab + 1) % len(tabNames)
		case "shift+tab", "h", "left":
			a.tab = (a.tab + len(tabNames) - 1) % len(tabNames)
		case "1", "2", "3", "4":
			a.tab = int(msg.String()[0] - '1')
		}
		return a, nil
	}

	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	if a.loadErr != nil {
		return fmt.Sprintf("\n  %s\n\n  press q to quit\n",
			lipgloss.NewStyle().Foreground(cli.ColorRed).Render(a.loadErr.Error()))
	}
	if a.analysis == nil {
		return fmt.Sprintf("\n  %s fitting models...\n", a.spinner.View())
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(a.renderTabBar())
	b.WriteString("\n")
	if a.warning != "" {
		b.WriteString(cli.RenderWarning(a.warning))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch a.tab {
	case 0:
		b.WriteString(a.renderSummary())
	case 1:
		b.WriteString(a.renderModels())
	case 2:
		b.WriteString(a.renderValidation())
	case 3:
		b.WriteString(a.renderForecast())
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(cli.ColorTextMuted).Render("  tab/1-4 switch  q quit  "))
	b.WriteString(lipgloss.NewStyle().Foreground(cli.ColorBlue).Render(
		fmt.Sprintf("fitted in %s", a.elapsed.Round(time.Millisecond))))
	b.WriteString("\n")
	return b.String()
}

func (a App) renderTabBar() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(cli.ColorAccent)
	inactive := lipgloss.NewStyle().Foreground(cli.ColorTextMuted)

	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf(" %d %s ", i+1, name)
		if i == a.tab {
			parts[i] = active.Render(label)
		} else {
			parts[i] = inactive.Render(label)
		}
	}
	return "  " + strings.Join(parts, lipgloss.NewStyle().Foreground(cli.ColorBorder).Render("│"))
}

func (a App) renderSummary() string {
	an := a.analysis
	var b strings.Builder

	dists := []struct {
		name string
		dist model.FreqDist
	}{
		{fmt.Sprintf("Calibration %d-%d", an.Dataset.Calibration.Window.Start, an.Dataset.Calibration.Window.End), an.CalDist},
		{fmt.Sprintf("Holdout %d-%d", an.Dataset.Holdout.Window.Start, an.Dataset.Holdout.Window.End), an.HoldDist},
	}

	tables := make([]string, 0, len(dists))
	for _, d := range dists {
		t := cli.Table{Title: d.name, Headers: []string{"Cruises", "Customers"}}
		for x, count := range d.dist {
			t.Rows = append(t.Rows, []string{strconv.Itoa(x), cli.FormatNumber(int64(count))})
		}
		tables = append(tables, cli.RenderTable(t))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tables...))
	return b.String()
}

func (a App) renderModels() string {
	an := a.analysis

	bbTheta := an.BB.ThetaMoments()
	bb := cli.Table{
		Title:   "Beta-Binomial",
		Headers: []string{"Quantity", "Value"},
		Rows: [][]string{
			{"alpha", cli.FormatParam(an.BB.Alpha)},
			{"beta", cli.FormatParam(an.BB.Beta)},
			{"NLL", cli.FormatCount(an.BB.NegLogLik)},
			{"status", an.BB.Status},
			{"E[theta]", cli.FormatProb(bbTheta.Mean)},
		},
	}

	theta := an.BGBB.ThetaMoments()
	dropout := an.BGBB.DropoutMoments()
	bg := cli.Table{
		Title:   "BG/BB",
		Headers: []string{"Quantity", "Value"},
		Rows: [][]string{
			{"alpha", cli.FormatParam(an.BGBB.Alpha)},
			{"beta", cli.FormatParam(an.BGBB.Beta)},
			{"gamma", cli.FormatParam(an.BGBB.Gamma)},
			{"delta", cli.FormatParam(an.BGBB.Delta)},
			{"NLL", cli.FormatCount(an.BGBB.NegLogLik)},
			{"status", an.BGBB.Status},
			{"E[theta]", cli.FormatProb(theta.Mean)},
			{"E[dropout]", cli.FormatProb(dropout.Mean)},
		},
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cli.RenderTable(bb), cli.RenderTable(bg))
}

func (a App) renderValidation() string {
	an := a.analysis

	render := func(title string, rows []model.BucketComparison) string {
		t := cli.Table{Title: title, Headers: []string{"Cruises", "Actual", "Predicted"}}
		for _, r := range rows {
			t.Rows = append(t.Rows, []string{
				strconv.Itoa(r.X),
				cli.FormatNumber(int64(r.Actual)),
				cli.FormatCount(r.Predicted),
			})
		}
		return cli.RenderTable(t)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		render("Calibration BG/BB", an.CalibrationFitBGBB()),
		render("Holdout BG/BB", an.HoldoutFit()),
	)
}

func (a App) renderForecast() string {
	an := a.analysis
	eco := an.Config.Economics

	base := cli.Table{
		Title:   "Customer base",
		Headers: []string{"Quantity", "Value"},
		Rows: [][]string{
			{"Observed customers", cli.FormatNumber(int64(an.Customers()))},
			{"Expected still active", cli.FormatCount(an.ExpectedAlive())},
			{"Residual value", cli.FormatMoney(an.ResidualValue())},
			{"Max acquisition spend", cli.FormatMoney(an.MaxAcquisitionSpend())},
		},
	}

	cohort := cli.Table{
		Title:   fmt.Sprintf("New cohort of %s", cli.FormatNumber(int64(eco.CohortSize))),
		Headers: []string{"Year", "Surviving", "Cruises"},
	}
	for _, y := range an.CohortForecast(10) {
		cohort.Rows = append(cohort.Rows, []string{
			strconv.Itoa(y.Year),
			cli.FormatCount(y.Surviving),
			cli.FormatCount(y.Transactions),
		})
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cli.RenderTable(base), cli.RenderTable(cohort))
}
