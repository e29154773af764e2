package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/heatmarch/internal/config"
	"github.com/san-kum/heatmarch/internal/logging"
)

var (
	dataDir  string
	logLevel string
	logFile  string

	configFile  string
	preset      string
	finalTime   float64
	tau         float64
	freq        int
	meshFile    string
	refinements int
	theta       float64
	storeKind   string
	redisAddr   string
	compress    bool
	encoding    string
	onError     string
	metricsAddr string

	lo, hi   float64
	pngPath  string
	svgPath  string
	addr     string
	cellSize int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "heatmarch",
		Short:         "transient heat conduction with remote checkpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".heatmarch", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append the log to this file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and write checkpoints",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address while running")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with a live progress view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [file]",
		Short: "show a .lin or .dat checkpoint in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  showCheckpoint,
	}
	addRangeFlags(showCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect [file.dat]",
		Short: "show the mesh and values stored in a complete solution",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectSolution,
	}

	renderCmd := &cobra.Command{
		Use:   "render [file]",
		Short: "render a checkpoint to png or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  renderCheckpoint,
	}
	addRangeFlags(renderCmd)
	renderCmd.Flags().StringVar(&pngPath, "png", "", "write a png heat map")
	renderCmd.Flags().StringVar(&svgPath, "svg", "", "write an svg cell map")
	renderCmd.Flags().IntVar(&cellSize, "cell", 16, "svg pixels per node")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve runs and metrics over http",
		Args:  cobra.NoArgs,
		RunE:  serveRuns,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), for the redis settings")
	serveCmd.Flags().StringVar(&redisAddr, "redis-addr", "", "redis address for runs stored in redis")

	fetchCmd := &cobra.Command{
		Use:   "fetch [url] [run_id]",
		Short: "download a run from a remote server into the data directory",
		Args:  cobra.ExactArgs(2),
		RunE:  fetchRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [file]",
		Short: "export nodal values of a checkpoint as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run the steps of a scenario file one after another",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one simulation per value of a parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "theta", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "from", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "to", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 3, "number of values")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 2, "runs at a time")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "peak_temperature", "metric to rank the runs by")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, showCmd, inspectCmd, renderCmd, serveCmd, fetchCmd, presetsCmd, exportCSVCmd, batchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	cmd.Flags().Float64Var(&finalTime, "final-time", d.FinalTime, "simulated time in seconds")
	cmd.Flags().Float64Var(&tau, "tau", d.Tau, "time step in seconds")
	cmd.Flags().IntVar(&freq, "freq", d.OutputFrequency, "checkpoint every n steps")
	cmd.Flags().StringVar(&meshFile, "mesh", "", "mesh description file (yaml)")
	cmd.Flags().IntVar(&refinements, "refinements", d.Refinements, "uniform mesh refinements")
	cmd.Flags().Float64Var(&theta, "theta", d.Theta, "implicit weight, 1 backward Euler, 0.5 Crank-Nicolson")
	cmd.Flags().StringVar(&storeKind, "store", d.Checkpoint.Store, "checkpoint store (file, redis)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", d.Checkpoint.Redis.Addr, "redis address")
	cmd.Flags().BoolVar(&compress, "compress", d.Checkpoint.Compress, "gzip complete solution files")
	cmd.Flags().StringVar(&encoding, "encoding", d.Checkpoint.Encoding, "checkpoint encoding (gob, json)")
	cmd.Flags().StringVar(&onError, "on-checkpoint-error", d.Checkpoint.OnError, "abort or continue after a failed checkpoint")
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&lo, "min", 0, "temperature at the cold end of the color scale")
	cmd.Flags().Float64Var(&hi, "max", 20, "temperature at the hot end of the color scale")
}

// loadConfig applies preset, then config file, then flags that were set
// explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "run"
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	if configFile != "" {
		var err error
		cfg, err = config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
	}

	f := cmd.Flags()
	if f.Changed("final-time") {
		cfg.FinalTime = finalTime
	}
	if f.Changed("tau") {
		cfg.Tau = tau
	}
	if f.Changed("freq") {
		cfg.OutputFrequency = freq
	}
	if f.Changed("mesh") {
		cfg.Mesh = meshFile
	}
	if f.Changed("refinements") {
		cfg.Refinements = refinements
	}
	if f.Changed("theta") {
		cfg.Theta = theta
	}
	if f.Changed("store") {
		cfg.Checkpoint.Store = storeKind
	}
	if f.Changed("redis-addr") {
		cfg.Checkpoint.Redis.Addr = redisAddr
	}
	if f.Changed("compress") {
		cfg.Checkpoint.Compress = compress
	}
	if f.Changed("encoding") {
		cfg.Checkpoint.Encoding = encoding
	}
	if f.Changed("on-checkpoint-error") {
		cfg.Checkpoint.OnError = onError
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	return cfg, name, cfg.Validate()
}

// newLogger builds the command logger. quiet keeps stderr clean, so only
// --log-file receives records.
func newLogger(level string, quiet bool) (*slog.Logger, func(), error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if logFile != "" {
		logger, f, err := logging.NewFile(logFile, lvl, quiet)
		if err != nil {
			return nil, nil, err
		}
		return logger, func() { f.Close() }, nil
	}
	if quiet {
		return logging.NewNop(), func() {}, nil
	}
	return logging.New(lvl), func() {}, nil
}
