package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/spinlab/internal/automation"
	"github.com/san-kum/spinlab/internal/config"
	"github.com/san-kum/spinlab/internal/experiment"
	"github.com/san-kum/spinlab/internal/lattice"
	"github.com/san-kum/spinlab/internal/logger"
	"github.com/san-kum/spinlab/internal/storage"
)

var (
	dataDir    string
	debug      bool
	useCatalog bool
	// run parameters
	size          int
	coupling      float64
	seed          int64
	tMin          float64
	tMax          float64
	tSteps        int
	thermalSweeps int
	bins          int
	sweepsPerBin  int
	trainFrac     float64
	datasetDir    string
	configFile    string
	preset        string
	// list/export
	modelFilter string
	outFile     string
	// bench
	benchSweeps int
	// sizes
	sweepSizes []int
	scanTMin   float64
	scanTMax   float64
	scanTSteps int

	closeLog func() error
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "spinlab",
		Short:         "monte carlo lab for ising and z2 gauge lattices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := logger.Setup(logger.Config{Dir: dataDir, Debug: debug})
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			closeLog = cleanup
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".spinlab", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [variant]",
		Short: "run a temperature scan",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	runCmd.Flags().IntVar(&size, "size", config.DefaultSize, "lattice side length")
	runCmd.Flags().Float64Var(&coupling, "coupling", config.DefaultCoupling, "coupling constant J")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	runCmd.Flags().Float64Var(&tMin, "tmin", config.DefaultTMin, "lowest temperature")
	runCmd.Flags().Float64Var(&tMax, "tmax", config.DefaultTMax, "highest temperature")
	runCmd.Flags().IntVar(&tSteps, "tsteps", config.DefaultTSteps, "number of temperatures")
	runCmd.Flags().IntVar(&thermalSweeps, "thermal", config.DefaultThermalSweeps, "thermalisation sweeps per temperature")
	runCmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "samples per temperature")
	runCmd.Flags().IntVar(&sweepsPerBin, "sweeps", config.DefaultSweepsPerBin, "sweeps between samples")
	runCmd.Flags().Float64Var(&trainFrac, "train-frac", config.DefaultTrainFrac, "fraction of bins written to the train split")
	runCmd.Flags().StringVar(&datasetDir, "dataset", "", "write train/test configurations to this directory")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}
	listCmd.Flags().BoolVar(&useCatalog, "catalog", false, "query the sqlite catalog instead of run directories")
	listCmd.Flags().StringVar(&modelFilter, "model", "", "only runs of this variant (catalog only)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and observables as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run observables to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [variant]",
		Short: "list available presets for a variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for variant: %s\n", args[0])
				return nil
			}
			sort.Strings(presets)
			fmt.Println(titleStyle.Render("presets for " + args[0]))
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [variant]",
		Short: "benchmark sweeps at the critical temperature",
		Args:  cobra.ExactArgs(1),
		RunE:  benchModel,
	}
	benchCmd.Flags().IntVar(&benchSweeps, "sweeps", 200, "sweeps per lattice size")

	criticalCmd := &cobra.Command{
		Use:   "critical",
		Short: "print the critical temperature for a coupling",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !(coupling > 0) {
				return fmt.Errorf("%w: coupling must be positive, got %g", lattice.ErrConfiguration, coupling)
			}
			fmt.Printf("J=%g  Tc=%.10f\n", coupling, lattice.CriticalTemperature(coupling))
			return nil
		},
	}
	criticalCmd.Flags().Float64Var(&coupling, "coupling", config.DefaultCoupling, "coupling constant J")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sizesCmd := &cobra.Command{
		Use:   "sizes [variant]",
		Short: "repeat a scan over lattice sizes and locate the susceptibility peak",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSizes,
	}
	sizesCmd.Flags().IntSliceVar(&sweepSizes, "sizes", []int{8, 16, 32}, "lattice sizes")
	sizesCmd.Flags().Float64Var(&coupling, "coupling", config.DefaultCoupling, "coupling constant J")
	sizesCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	sizesCmd.Flags().Float64Var(&scanTMin, "tmin", 2.0, "lowest temperature")
	sizesCmd.Flags().Float64Var(&scanTMax, "tmax", 2.6, "highest temperature")
	sizesCmd.Flags().IntVar(&scanTSteps, "tsteps", 13, "number of temperatures")
	sizesCmd.Flags().IntVar(&thermalSweeps, "thermal", config.DefaultThermalSweeps, "thermalisation sweeps per temperature")
	sizesCmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "samples per temperature")
	sizesCmd.Flags().IntVar(&sweepsPerBin, "sweeps", config.DefaultSweepsPerBin, "sweeps between samples")

	rootCmd.AddCommand(runCmd, listCmd, exportCmd, exportCSVCmd, presetsCmd, benchCmd, criticalCmd, scenarioCmd, sizesCmd)

	err := rootCmd.Execute()
	if closeLog != nil {
		_ = closeLog()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		model := cfg.Model
		if len(args) > 0 {
			model = args[0]
		}
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Model = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Size = size
	}
	if flags.Changed("coupling") {
		cfg.Coupling = coupling
	}
	// presets carry no seed
	if flags.Changed("seed") || !cfg.HasSeed() {
		cfg.Seed = seed
	}
	if flags.Changed("tmin") || flags.Changed("tmax") || flags.Changed("tsteps") {
		cfg.Schedule = config.TemperatureConfig{Min: tMin, Max: tMax, Steps: tSteps}
	}
	if flags.Changed("thermal") {
		cfg.ThermalSweeps = thermalSweeps
	}
	if flags.Changed("bins") {
		cfg.Bins = bins
	}
	if flags.Changed("sweeps") {
		cfg.SweepsPerBin = sweepsPerBin
	}
	if flags.Changed("train-frac") {
		cfg.TrainFrac = trainFrac
	}
	if flags.Changed("dataset") {
		cfg.DatasetDir = datasetDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	expCfg := cfg.Experiment()
	exp := experiment.New(expCfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	fmt.Printf("running %s L=%d over %d temperatures...\n", cfg.Model, cfg.Size, len(expCfg.Temperatures))
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	catalog := storage.NewCatalog(catalogPath())
	if err := catalog.Init(ctx); err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalog.Close()

	runID, err := saveRun(ctx, st, catalog, expCfg, result)
	if err != nil {
		return err
	}

	printSummary(runID, result)
	return nil
}

// saveRun writes the run directory and indexes it in the catalog.
func saveRun(ctx context.Context, st *storage.Store, catalog *storage.Catalog, cfg experiment.Config, result *experiment.Result) (string, error) {
	meta := storage.NewMetadata(cfg, result)
	runID, err := st.Save(meta, result.Points)
	if err != nil {
		return "", err
	}
	if err := catalog.RecordRun(ctx, meta, result.Points); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	logger.L().Info("run.saved", "run_id", runID, "dir", filepath.Join(st.Dir(), runID))
	return runID, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	catalog := storage.NewCatalog(catalogPath())
	if err := catalog.Init(ctx); err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalog.Close()

	fmt.Printf("running scenario %s (%d steps)...\n", sc.Name, len(sc.Steps))
	results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry())
	for _, r := range results {
		runID, err := saveRun(ctx, st, catalog, r.Config, r.Result)
		if err != nil {
			return err
		}
		printSummary(runID, r.Result)
	}
	return runErr
}

func runSizes(cmd *cobra.Command, args []string) error {
	model := "ising"
	if len(args) > 0 {
		model = args[0]
	}

	cfg := config.DefaultConfig()
	cfg.Model = model
	cfg.Coupling = coupling
	cfg.Seed = seed
	cfg.Schedule = config.TemperatureConfig{Min: scanTMin, Max: scanTMax, Steps: scanTSteps}
	cfg.ThermalSweeps = thermalSweeps
	cfg.Bins = bins
	cfg.SweepsPerBin = sweepsPerBin
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sweep := &automation.SizeSweep{Base: cfg.Experiment(), Sizes: sweepSizes}
	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry())
	if err != nil {
		return err
	}

	tc := lattice.CriticalTemperature(cfg.Coupling)
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s finite-size scan, Tc=%.4f", model, tc)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "L	T(CHI MAX)	CHI MAX	C MAX	T-TC")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.4f\t%+.4f\n",
			r.Size, r.PeakTemperature, r.PeakSusceptibility, r.PeakSpecificHeat, r.PeakTemperature-tc)
	}
	return w.Flush()
}

func catalogPath() string {
	return filepath.Join(dataDir, "catalog.db")
}

func listRuns(cmd *cobra.Command, args []string) error {
	var (
		runs []storage.RunMetadata
		err  error
	)
	if useCatalog {
		catalog := storage.NewCatalog(catalogPath())
		if err := catalog.Init(cmd.Context()); err != nil {
			return err
		}
		defer catalog.Close()
		runs, err = catalog.Runs(cmd.Context(), modelFilter)
	} else {
		runs, err = storage.New(dataDir).List()
	}
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tL\tJ\tTC\tBINS\tTRAIN\tTEST")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3f\t%.4f\t%d\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Size,
			run.Coupling,
			run.CriticalTemperature,
			run.Bins,
			run.TrainSamples,
			run.TestSamples,
		)
	}

	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}

	if outFile != "" {
		if err := storage.ExportJSONFile(outFile, *meta, points); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", runID, outFile)
		return nil
	}
	return storage.ExportJSON(os.Stdout, *meta, points)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	points, err := st.LoadPoints(args[0])
	if err != nil {
		return err
	}

	if len(points) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"temperature", "phase", "energy", "magnetization", "specific_heat", "susceptibility", "acceptance"}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, p := range points {
		row := []string{f(p.Temperature), strconv.Itoa(p.Phase), f(p.Energy), f(p.Magnetization), f(p.SpecificHeat), f(p.Susceptibility), f(p.Acceptance)}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func benchModel(cmd *cobra.Command, args []string) error {
	variant, err := lattice.ParseVariant(args[0])
	if err != nil {
		return err
	}
	if benchSweeps <= 0 {
		return fmt.Errorf("%w: sweeps must be positive, got %d", lattice.ErrConfiguration, benchSweeps)
	}

	sizes := []int{8, 16, 32, 64}
	tc := lattice.CriticalTemperature(lattice.DefaultCoupling)

	fmt.Printf("benchmarking %s at T=%.4f\n\n", variant, tc)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "L\tSPINS\tSWEEPS\tTIME\tSWEEPS/SEC\tFLIPS/SEC\tACCEPT")

	for _, l := range sizes {
		m, err := lattice.New(l, lattice.DefaultCoupling, variant)
		if err != nil {
			return err
		}
		m.Initialize(42)

		start := time.Now()
		for i := 0; i < benchSweeps; i++ {
			if err := m.Sweep(tc); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)

		stats := m.Stats()
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%.0f\t%.3f\n",
			l, m.NumSpins(), benchSweeps, elapsed.Round(time.Microsecond),
			float64(benchSweeps)/elapsed.Seconds(),
			float64(stats.Proposed)/elapsed.Seconds(),
			stats.AcceptanceRate())
	}

	return w.Flush()
}
