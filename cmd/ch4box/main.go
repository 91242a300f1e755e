package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/san-kum/ch4box/internal/boxmodel"
	"github.com/san-kum/ch4box/internal/config"
	"github.com/san-kum/ch4box/internal/dynamo"
	"github.com/san-kum/ch4box/internal/experiment"
	"github.com/san-kum/ch4box/internal/export"
	"github.com/san-kum/ch4box/internal/integrators"
	"github.com/san-kum/ch4box/internal/logging"
	"github.com/san-kum/ch4box/internal/metrics"
	"github.com/san-kum/ch4box/internal/reference"
	"github.com/san-kum/ch4box/internal/tui"
	"github.com/san-kum/ch4box/internal/viz"
	"github.com/san-kum/ch4box/internal/watch"
)

var (
	logLevel  string
	logFormat string

	// Scenario
	configFile string
	preset     string
	startYear  int
	endYear    int
	m0         float64
	emisFlag   string
	lossFlag   string
	integrator string
	substeps   int

	// Output
	showPlot bool
	svgFile  string
	format   string

	// steady
	steadyEmis float64
	steadyK    float64

	// sweep
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	// live
	interval  time.Duration
	watchFile bool

	logger = logging.Discard()
)

var metricOrder = metrics.Names(metrics.Default())

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ch4box",
		Short:        "single-box atmospheric methane model",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(cmd.ErrOrStderr(), logLevel, logFormat)
			if err != nil {
				return err
			}
			logger = l
			slog.SetDefault(l)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	referenceCmd := &cobra.Command{
		Use:   "reference",
		Short: "print the NOAA reference record",
		Args:  cobra.NoArgs,
		RunE:  showReference,
	}
	referenceCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the record")
	referenceCmd.Flags().StringVar(&format, "format", "table", "output format (table, csv)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "project a scenario",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the projection (table format only)")
	runCmd.Flags().StringVar(&svgFile, "svg", "", "write an SVG chart to this file")
	runCmd.Flags().StringVar(&format, "format", "table", "output format (table, csv, json)")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "score a scenario against the reference record",
		Args:  cobra.NoArgs,
		RunE:  compareScenario,
	}
	addScenarioFlags(compareCmd)
	compareCmd.Flags().StringVar(&svgFile, "svg", "", "write an SVG chart to this file")

	integratorsCmd := &cobra.Command{
		Use:   "integrators [name...]",
		Short: "compare numerical integrators against the exact update",
		RunE:  compareIntegrators,
	}
	addScenarioFlags(integratorsCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	steadyCmd := &cobra.Command{
		Use:   "steady",
		Short: "print the steady-state concentration",
		Args:  cobra.NoArgs,
		RunE:  showSteadyState,
	}
	steadyCmd.Flags().Float64Var(&steadyEmis, "emis", config.DefaultEmissions, "emissions (Tg/yr)")
	steadyCmd.Flags().Float64Var(&steadyK, "k", config.DefaultLossRate, "loss rate (1/yr)")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run every scenario in a batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter of a scenario",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", experiment.ParamLifetime, "parameter (m0, emissions, loss_rate, lifetime)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 8, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 12, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step through a projection interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().DurationVar(&interval, "interval", tui.DefaultInterval, "time per year")
	liveCmd.Flags().BoolVar(&watchFile, "watch", false, "reload the --config file when it changes")

	rootCmd.AddCommand(referenceCmd, runCmd, compareCmd, integratorsCmd, presetsCmd, steadyCmd, batchCmd, sweepCmd, liveCmd)
	return rootCmd
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset scenario")
	cmd.Flags().IntVar(&startYear, "start", config.DefaultStartYear, "first year")
	cmd.Flags().IntVar(&endYear, "end", config.DefaultEndYear, "last year")
	cmd.Flags().Float64Var(&m0, "m0", config.DefaultM0, "initial concentration (ppb)")
	cmd.Flags().StringVar(&emisFlag, "emis", "", "emissions (Tg/yr), one value or a comma-separated series")
	cmd.Flags().StringVar(&lossFlag, "k", "", "loss rate (1/yr), one value or a comma-separated series")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().IntVar(&substeps, "substeps", config.DefaultSubsteps, "integrator steps per year")
}

// resolveScenario layers the default scenario, a preset, a config file and
// explicitly set flags, later sources winning.
func resolveScenario(cmd *cobra.Command) (*config.Scenario, error) {
	s := config.DefaultScenario()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		s = p
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		s = c
	}

	if err := applyScenarioFlags(cmd, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyScenarioFlags overrides s with the scenario flags set on the command
// line.
func applyScenarioFlags(cmd *cobra.Command, s *config.Scenario) error {
	flags := cmd.Flags()
	if flags.Changed("start") {
		s.StartYear = startYear
	}
	if flags.Changed("end") {
		s.EndYear = endYear
	}
	if flags.Changed("m0") {
		s.M0 = m0
	}
	if flags.Changed("emis") {
		f, err := config.ParseForcing(emisFlag)
		if err != nil {
			return fmt.Errorf("--emis: %w", err)
		}
		s.Emissions = f
	}
	if flags.Changed("k") {
		f, err := config.ParseForcing(lossFlag)
		if err != nil {
			return fmt.Errorf("--k: %w", err)
		}
		s.LossRate = f
	}
	if flags.Changed("integrator") {
		s.Integrator = integrator
	}
	if flags.Changed("substeps") {
		s.Substeps = substeps
	}
	return nil
}

func runExperiment(ctx context.Context, s *config.Scenario) (*experiment.Result, error) {
	exp, err := experiment.New(s, experiment.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := exp.Run(ctx)
	if err != nil {
		logger.Error("run failed", "scenario", s.Name, "err", err)
		return nil, err
	}
	logger.Debug("run complete", "scenario", s.Name, "elapsed", time.Since(start))
	return res, nil
}

func checkFormat(allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown format: %s (available: %v)", format, allowed)
}

func showReference(cmd *cobra.Command, args []string) error {
	if err := checkFormat("table", "csv"); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	conc, years := reference.NOAA()

	if format == "csv" {
		return export.WriteCSV(out, years, export.Column{Name: "ch4_ppb", Values: conc})
	}

	fmt.Fprintln(out, viz.HeaderStyle.Render(reference.Source))
	rows := make([][]string, len(years))
	for i, y := range years {
		rows[i] = []string{strconv.Itoa(y), fmt.Sprintf("%.1f", conc[i])}
	}
	if err := viz.Table(out, []string{"year", "ch4 (ppb)"}, rows); err != nil {
		return err
	}
	if showPlot {
		fmt.Fprintln(out)
		return viz.Plot(out, years, conc)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	if err := checkFormat("table", "csv", "json"); err != nil {
		return err
	}
	s, err := resolveScenario(cmd)
	if err != nil {
		return err
	}
	res, err := runExperiment(cmd.Context(), s)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "csv":
		cols := []export.Column{{Name: "ch4_ppb", Values: res.CH4}}
		if fullOverlap(res) {
			cols = append(cols, export.Column{Name: "observed_ppb", Values: res.Observed})
		}
		if err := export.WriteCSV(out, res.Years, cols...); err != nil {
			return err
		}
	case "json":
		run := export.NewRun(res.Scenario, res.Integrator, res.Years, res.Params, res.CH4)
		if fullOverlap(res) {
			run.Observed = res.Observed
		}
		run.Metrics = res.Metrics
		if err := export.WriteJSON(out, run); err != nil {
			return err
		}
	default:
		if err := printResult(out, res); err != nil {
			return err
		}
		if showPlot {
			fmt.Fprintln(out)
			if err := viz.Overlay(out, res.Years, resultSeries(res)); err != nil {
				return err
			}
		}
	}

	if svgFile != "" {
		return writeSVG(svgFile, res.Years, resultSeries(res)...)
	}
	return nil
}

func fullOverlap(res *experiment.Result) bool {
	return len(res.Overlap) == len(res.Years)
}

func resultSeries(res *experiment.Result) []viz.Series {
	series := []viz.Series{{Name: "simulated", Values: res.CH4, Color: asciigraph.Blue}}
	if fullOverlap(res) {
		series = append(series, viz.Series{Name: "observed", Values: res.Observed, Color: asciigraph.Red})
	}
	return series
}

func printResult(out io.Writer, res *experiment.Result) error {
	fmt.Fprintln(out, viz.HeaderStyle.Render(fmt.Sprintf("%s (%s)", res.Scenario, res.Integrator)))
	fmt.Fprintln(out, viz.Subtle.Render(res.Params.String()))

	observed := make(map[int]float64, len(res.Overlap))
	for i, y := range res.Overlap {
		observed[y] = res.Observed[i]
	}
	rows := make([][]string, len(res.Years))
	for i, y := range res.Years {
		obs, diff := "-", "-"
		if v, ok := observed[y]; ok {
			obs = fmt.Sprintf("%.1f", v)
			diff = fmt.Sprintf("%+.2f", res.CH4[i]-v)
		}
		rows[i] = []string{strconv.Itoa(y), fmt.Sprintf("%.2f", res.CH4[i]), obs, diff}
	}
	if err := viz.Table(out, []string{"year", "ch4 (ppb)", "observed", "diff"}, rows); err != nil {
		return err
	}
	fmt.Fprintln(out, viz.Sparkline(res.CH4, 40))

	if res.Metrics != nil {
		fmt.Fprintln(out)
		return viz.MetricsTable(out, res.Metrics, metricOrder)
	}
	return nil
}

func writeSVG(path string, years dynamo.Years, series ...viz.Series) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := viz.PlotSVG(f, years, series...); err != nil {
		return err
	}
	logger.Info("wrote chart", "path", path)
	return nil
}

func compareScenario(cmd *cobra.Command, args []string) error {
	s, err := resolveScenario(cmd)
	if err != nil {
		return err
	}
	res, err := runExperiment(cmd.Context(), s)
	if err != nil {
		return err
	}
	if len(res.Overlap) == 0 {
		return fmt.Errorf("scenario %s (%d-%d) does not overlap the reference record (%d-%d)",
			s.Name, s.StartYear, s.EndYear, reference.FirstYear, reference.LastYear)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.HeaderStyle.Render(fmt.Sprintf("%s vs %s", res.Scenario, reference.Source)))
	fmt.Fprintln(out, viz.Subtle.Render(fmt.Sprintf("%d-%d, %d years", res.Overlap[0], res.Overlap[len(res.Overlap)-1], len(res.Overlap))))
	if err := viz.MetricsTable(out, res.Metrics, metricOrder); err != nil {
		return err
	}
	fmt.Fprintln(out, viz.Separator(60))

	series := []viz.Series{
		{Name: "simulated", Values: res.Simulated, Color: asciigraph.Blue},
		{Name: "observed", Values: res.Observed, Color: asciigraph.Red},
	}
	if err := viz.Overlay(out, res.Overlap, series); err != nil {
		return err
	}
	if svgFile != "" {
		return writeSVG(svgFile, res.Overlap, series...)
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = integrators.Names()
	}
	base, err := resolveScenario(cmd)
	if err != nil {
		return err
	}

	ref := base.Clone()
	ref.Integrator = config.DefaultIntegrator
	exact, err := runExperiment(cmd.Context(), ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.HeaderStyle.Render(fmt.Sprintf("integrators for %s (%d substeps/yr)", base.Name, base.Substeps)))

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		s := base.Clone()
		s.Integrator = name

		start := time.Now()
		res, err := runExperiment(cmd.Context(), s)
		elapsed := time.Since(start)
		if err != nil {
			rows = append(rows, []string{name, "error: " + err.Error(), "", "", ""})
			continue
		}

		drift, err := metrics.Compare(res.CH4, exact.CH4, metrics.NewMaxAbsError())
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%.4f", res.Final()),
			fmt.Sprintf("%.2e", drift["max_abs_error"]),
			metricCell(res.Metrics, "rmse"),
			fmt.Sprintf("%.3f", float64(elapsed.Microseconds())/1000),
		})
	}
	return viz.Table(out, []string{"integrator", "final (ppb)", "max |diff| vs exact", "rmse vs noaa", "time_ms"}, rows)
}

func metricCell(m map[string]float64, name string) string {
	v, ok := m[name]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	rows := [][]string{}
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d-%d", p.StartYear, p.EndYear),
			strconv.FormatFloat(p.M0, 'g', -1, 64),
			p.Emissions.String(),
			p.LossRate.String(),
		})
	}
	if err := viz.Table(out, []string{"preset", "years", "m0", "emissions", "loss rate"}, rows); err != nil {
		return err
	}
	fmt.Fprintln(out, viz.KeyHint.Render("use with: ch4box run --preset NAME"))
	return nil
}

func showSteadyState(cmd *cobra.Command, args []string) error {
	ppb, err := boxmodel.SteadyState(steadyEmis, steadyK)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("%s %s\n%s %s",
		viz.MetricLabel.Render("steady state"), viz.MetricValue.Render(fmt.Sprintf("%.2f ppb", ppb)),
		viz.MetricLabel.Render("lifetime    "), viz.MetricValue.Render(fmt.Sprintf("%.2f yr", 1/steadyK)))
	fmt.Fprintln(cmd.OutOrStdout(), viz.Panel.Render(body))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := experiment.LoadBatch(args[0])
	if err != nil {
		return fmt.Errorf("failed to load batch: %w", err)
	}

	results, runErr := experiment.RunBatch(cmd.Context(), b, experiment.WithLogger(logger))

	out := cmd.OutOrStdout()
	title := b.Name
	if title == "" {
		title = args[0]
	}
	fmt.Fprintln(out, viz.HeaderStyle.Render(title))
	if b.Description != "" {
		fmt.Fprintln(out, viz.Subtle.Render(b.Description))
	}

	rows := make([][]string, len(results))
	for i, res := range results {
		rows[i] = []string{
			res.Scenario,
			res.Integrator,
			fmt.Sprintf("%d-%d", res.Years[0], res.Years[len(res.Years)-1]),
			fmt.Sprintf("%.2f", res.Final()),
			metricCell(res.Metrics, "rmse"),
			metricCell(res.Metrics, "bias"),
		}
	}
	if err := viz.Table(out, []string{"scenario", "integrator", "years", "final (ppb)", "rmse", "bias"}, rows); err != nil {
		return err
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := resolveScenario(cmd)
	if err != nil {
		return err
	}
	sw := experiment.Sweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}
	points, err := experiment.RunSweep(cmd.Context(), s, sw, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.HeaderStyle.Render(fmt.Sprintf("%s: %s from %g to %g", s.Name, sw.Param, sw.Min, sw.Max)))
	rows := make([][]string, len(points))
	finals := make([]float64, len(points))
	for i, p := range points {
		rows[i] = []string{
			strconv.FormatFloat(p.Value, 'g', 6, 64),
			fmt.Sprintf("%.2f", p.Final),
			metricCell(p.Metrics, "rmse"),
		}
		finals[i] = p.Final
	}
	if err := viz.Table(out, []string{sw.Param, "final (ppb)", "rmse"}, rows); err != nil {
		return err
	}
	fmt.Fprintln(out, viz.Sparkline(finals, len(finals)))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("live needs a terminal; use run --plot instead")
	}
	if watchFile && configFile == "" {
		return fmt.Errorf("--watch needs --config")
	}
	s, err := resolveScenario(cmd)
	if err != nil {
		return err
	}
	// surface parameter errors before taking over the terminal
	if _, err := runExperiment(cmd.Context(), s); err != nil {
		return err
	}

	obs, obsYears := reference.NOAA()
	integ, err := liveIntegrator(s)
	if err != nil {
		return err
	}
	m := tui.NewModel(s.Name, s.Years(), s.Params(), obs, obsYears, interval).
		WithIntegrator(integ, s.Substeps)
	p := tea.NewProgram(m)

	if watchFile {
		w, err := watch.New(configFile, func(next *config.Scenario, err error) {
			p.Send(reloadMsg(cmd, next, err))
		}, watch.WithLogger(logger))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go w.Run(ctx)
	}

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(tui.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

// reloadMsg turns a reloaded scenario file into a live view update, keeping
// command-line overrides in force.
func reloadMsg(cmd *cobra.Command, s *config.Scenario, err error) tui.ReloadMsg {
	if err == nil {
		err = applyScenarioFlags(cmd, s)
	}
	if err == nil {
		err = s.Validate()
	}
	var integ dynamo.Integrator
	if err == nil {
		integ, err = liveIntegrator(s)
	}
	if err != nil {
		return tui.ReloadMsg{Err: err}
	}
	return tui.ReloadMsg{
		Name:       s.Name,
		Years:      s.Years(),
		Params:     s.Params(),
		Integrator: integ,
		Substeps:   s.Substeps,
	}
}

// liveIntegrator resolves the scenario's integrator for the live view. The
// exact update needs none and yields nil.
func liveIntegrator(s *config.Scenario) (dynamo.Integrator, error) {
	if s.Integrator == "" || s.Integrator == config.DefaultIntegrator {
		return nil, nil
	}
	return integrators.Get(s.Integrator)
}
