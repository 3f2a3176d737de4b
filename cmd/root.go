package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/ed-sim/ed-sim/sim"
	"github.com/ed-sim/ed-sim/sim/dataset"
	"github.com/ed-sim/ed-sim/sim/trace"
	"github.com/ed-sim/ed-sim/sim/workload"
)

var (
	// CLI flags for the run command
	configPath        string // Department YAML; empty uses the built-in defaults
	policyConfigPath  string // Policy overlay YAML applied on top of the config
	arrivalsPath      string // CSV of recorded arrivals replacing generated ones
	seed              int64  // Seed for arrivals, stays and patient ids
	simulationHorizon int64  // Total simulation time (in ticks)
	logLevel          string // Log verbosity level
	datasetPath       string // Snapshot export path (.csv or .xlsx)
	decisionsLogPath  string // Decisions log output path
	traceLevel        string // Decision trace level
	summarizeTrace    bool   // Print trace summary after the run
	progression       string // Scheduler progression policy override
	compliance        string // Waiting-room compliance mode override
	decisions         string // Post-consultation decision mode override
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ed-sim",
	Short: "Tick-driven patient-flow simulator for an emergency department",
}

// runOptions carries everything one simulation run needs.
type runOptions struct {
	Config           *sim.Config
	Seed             int64
	Horizon          int64
	ArrivalsPath     string
	DatasetPath      string
	DecisionsLogPath string
	TraceLevel       trace.Level
	SummarizeTrace   bool
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the emergency department simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q; valid: none, transitions, violations", traceLevel)
		}
		if simulationHorizon <= 0 {
			logrus.Fatalf("--horizon must be > 0, got %d", simulationHorizon)
		}

		cfg := sim.DefaultConfig()
		if configPath != "" {
			cfg, err = sim.LoadConfig(configPath)
			if err != nil {
				logrus.Fatalf("Failed to load config: %v", err)
			}
		}
		if policyConfigPath != "" {
			bundle, err := sim.LoadPolicyBundle(policyConfigPath)
			if err != nil {
				logrus.Fatalf("Failed to load policy config: %v", err)
			}
			if err := bundle.Validate(); err != nil {
				logrus.Fatalf("Invalid policy config: %v", err)
			}
			bundle.ApplyTo(cfg)
		}
		// Flags win over config files, but only when the user set them
		if cmd.Flags().Changed("progression") {
			cfg.Scheduler.Progression = sim.ProgressionPolicy(progression)
		}
		if cmd.Flags().Changed("compliance") {
			cfg.Scheduler.Compliance = sim.ComplianceMode(compliance)
		}
		if cmd.Flags().Changed("decisions") {
			cfg.Scheduler.Decisions = sim.DecisionMode(decisions)
		}

		opts := runOptions{
			Config:           cfg,
			Seed:             seed,
			Horizon:          simulationHorizon,
			ArrivalsPath:     arrivalsPath,
			DatasetPath:      datasetPath,
			DecisionsLogPath: decisionsLogPath,
			TraceLevel:       trace.Level(traceLevel),
			SummarizeTrace:   summarizeTrace,
		}
		startTime := time.Now()
		if err := runSimulation(opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime).Round(time.Millisecond))
	},
}

// runSimulation builds the simulator described by opts, runs it to the
// horizon and writes the report to stdout and the requested files.
// A run stopped by an invariant error still writes its outputs.
func runSimulation(opts runOptions, stdout io.Writer) error {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// External decisions wait on DecideAfterConsultation calls the CLI never makes
	if cfg.Scheduler.Decisions == sim.DecideExternally {
		return fmt.Errorf("decisions %q is library-only: nothing calls DecideAfterConsultation from the command line", sim.DecideExternally)
	}
	runID := uuid.NewString()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(opts.Seed))

	arrivals, err := newArrivalSource(opts, cfg, rng)
	if err != nil {
		return err
	}

	var log *trace.DecisionLog
	level := opts.TraceLevel
	if opts.DecisionsLogPath != "" && (level == "" || level == trace.LevelNone) {
		level = trace.LevelTransitions
	}
	if level != "" && level != trace.LevelNone {
		log = trace.NewDecisionLog(level)
	}

	s, err := sim.NewSimulator(cfg, rng, arrivals, log)
	if err != nil {
		return err
	}
	logrus.Infof("Starting run %s: seed=%d, horizon=%d ticks (%d min/tick), progression=%s, compliance=%s, decisions=%s",
		runID, opts.Seed, opts.Horizon, cfg.MinutesPerTick,
		cfg.Scheduler.Progression, cfg.Scheduler.Compliance, cfg.Scheduler.Decisions)

	runErr := s.Run(opts.Horizon)
	if runErr != nil {
		logrus.Errorf("Run %s stopped at tick %d: %v", runID, s.Dept.Tick(), runErr)
	}

	fmt.Fprintf(stdout, "Run ID: %s\n", runID)
	s.Metrics.Print(stdout)
	if opts.SummarizeTrace {
		printTraceSummary(stdout, trace.Summarize(log))
	}

	if opts.DatasetPath != "" {
		info := dataset.RunInfo{
			RunID:          runID,
			Seed:           opts.Seed,
			Horizon:        opts.Horizon,
			MinutesPerTick: cfg.MinutesPerTick,
			StartTime:      cfg.StartTime,
		}
		if err := dataset.Write(opts.DatasetPath, s.Snapshots, info); err != nil {
			return fmt.Errorf("writing dataset: %w", err)
		}
		logrus.Infof("Wrote %d snapshots to %s", len(s.Snapshots), opts.DatasetPath)
	}
	if opts.DecisionsLogPath != "" {
		if err := writeDecisionsLog(opts.DecisionsLogPath, log); err != nil {
			return err
		}
	}
	return runErr
}

func newArrivalSource(opts runOptions, cfg *sim.Config, rng *sim.PartitionedRNG) (sim.ArrivalSource, error) {
	if opts.ArrivalsPath != "" {
		records, err := workload.LoadArrivals(opts.ArrivalsPath)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Replaying %d recorded arrivals from %s", len(records), opts.ArrivalsPath)
		return workload.NewReplay(records), nil
	}
	gen, err := workload.NewGenerator(cfg.Workload, cfg.MinutesPerTick,
		rng.ForSubsystem(sim.SubsystemArrivals), rng.ForSubsystem(sim.SubsystemIdentity))
	if err != nil {
		return nil, fmt.Errorf("arrival generator: %w", err)
	}
	return gen, nil
}

func writeDecisionsLog(path string, log *trace.DecisionLog) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating decisions log: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	if err := log.WriteLog(file); err != nil {
		return fmt.Errorf("writing decisions log: %w", err)
	}
	return nil
}

func printTraceSummary(w io.Writer, s *trace.Summary) {
	fmt.Fprintln(w, "=== Decision Trace Summary ===")
	fmt.Fprintf(w, "Transitions          : %d (%d patients)\n", s.TotalTransitions, s.UniquePatients)
	fmt.Fprintf(w, "Violations           : %d blocking, %d advisory\n", s.BlockingCount, s.AdvisoryCount)
	rules := make([]string, 0, len(s.ByRule))
	for r := range s.ByRule {
		rules = append(rules, r)
	}
	sort.Strings(rules)
	for _, r := range rules {
		fmt.Fprintf(w, "  %-30s : %d\n", r, s.ByRule[r])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {

	runCmd.Flags().StringVar(&configPath, "config", "", "Department configuration YAML (default: built-in reference department)")
	runCmd.Flags().StringVar(&policyConfigPath, "policy-config", "", "Policy overlay YAML (scheduler policies, arrival rate)")
	runCmd.Flags().StringVar(&arrivalsPath, "arrivals", "", "CSV of recorded arrivals (tick,severity,specialty,id) replacing generated arrivals")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for arrivals, stays and patient ids")
	runCmd.Flags().Int64Var(&simulationHorizon, "horizon", 1008, "Total simulation horizon (in ticks)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Outputs
	runCmd.Flags().StringVar(&datasetPath, "dataset", "", "Write per-tick snapshots to this .csv or .xlsx file")
	runCmd.Flags().StringVar(&decisionsLogPath, "decisions-log", "", "Write the patient decisions log to this file")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "", "Decision trace level (none, transitions, violations); --decisions-log raises none to transitions")
	runCmd.Flags().BoolVar(&summarizeTrace, "summarize-trace", false, "Print a decision trace summary after the run")

	// Scheduler policy overrides
	runCmd.Flags().StringVar(&progression, "progression", string(sim.ProgressSingle), "Progression policy (single, all)")
	runCmd.Flags().StringVar(&compliance, "compliance", string(sim.ComplianceAdvisory), "Waiting-room compliance mode (advisory, strict)")
	runCmd.Flags().StringVar(&decisions, "decisions", string(sim.DecideBySeverity), "Post-consultation decisions (severity; external is library-only and rejected here)")

	// Attach `run` and `defaults` as subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
