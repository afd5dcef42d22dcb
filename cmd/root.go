package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/laser-sim/laser/sim"
	"github.com/laser-sim/laser/sim/params"
	"github.com/laser-sim/laser/sim/scenario"
	"github.com/laser-sim/laser/sim/trace"
)

var (
	// CLI flags for the run
	paramsPath   string    // YAML or TOML parameter file
	logLevel     string    // Log verbosity level
	ticks        int64     // Days to simulate
	seed         int64     // Master seed
	backend      string    // Kernel backend: serial or parallel
	workers      int       // Parallel worker limit
	cbr          float64   // Crude birth rate per 1,000 per year
	safetyFactor float64   // Capacity headroom multiplier
	snapshotPath string    // Snapshot written after the run
	censusPath   string    // Per-tick census CSV
	initial      []float64 // Initial S,E,I,R fractions applied to every node
	traceLevel   string    // Transition trace level

	// CLI flags for the grid scenario
	gridM    int     // Grid rows
	gridN    int     // Grid columns
	nodeSize float64 // Cell size in degrees
	originX  float64 // Longitude of the south-west corner
	originY  float64 // Latitude of the south-west corner
	gridSeed uint64  // Seed for default node populations
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "laser",
	Short: "Agent-based epidemiological simulation runtime",
}

// runCmd executes the simulation using parameters from the params file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation over a grid scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		bag, err := buildBag(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		cfg, err := sim.ConfigFromBag(bag)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		table, err := buildScenario(bag)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Debugf("parameters:\n%s", bag.Dump())

		s, err := sim.NewSimulator(cfg, table)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		runErr := s.Run(ctx)
		s.Metrics.Print(os.Stdout)
		if s.Trace != nil {
			printTraceSummary(trace.Summarize(s.Trace))
		}
		if censusPath != "" {
			if err := writeCensus(censusPath, s.Metrics); err != nil {
				logrus.Fatalf("census: %v", err)
			}
		}
		if runErr != nil {
			logrus.Fatalf("run stopped at tick %d: %v", s.Clock, runErr)
		}
	},
}

func printTraceSummary(ts *trace.TraceSummary) {
	fmt.Println("=== Transition Trace ===")
	fmt.Printf("Transitions          : %d (ticks %d..%d)\n", ts.TotalTransitions, ts.FirstTick, ts.LastTick)
	fmt.Printf("Births               : %d\n", ts.TotalBirths)
	edges := make([]string, 0, len(ts.ByEdge))
	for e := range ts.ByEdge {
		edges = append(edges, e)
	}
	sort.Strings(edges)
	for _, e := range edges {
		fmt.Printf("  %-6s : %d\n", e, ts.ByEdge[e])
	}
	fmt.Printf("Active Nodes         : %d\n", len(ts.NodeActivity))
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func writeCensus(path string, m *sim.Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// defaultBag lists every parameter key with its default. Parameter files may
// only set keys present here.
func defaultBag() params.Bag {
	g := scenario.DefaultGridConfig()
	return sim.DefaultConfig().Bag().Merge(params.New(map[string]any{
		"grid_m":         g.M,
		"grid_n":         g.N,
		"node_size_degs": g.NodeSizeDegs,
		"origin_x":       g.OriginX,
		"origin_y":       g.OriginY,
		"grid_seed":      int64(g.Seed),
		"initial":        []float64{},
	}))
}

// buildBag layers the params file over the defaults, then flags the user set
// over both.
func buildBag(cmd *cobra.Command) (params.Bag, error) {
	bag := defaultBag()
	if paramsPath != "" {
		file, err := params.Load(paramsPath)
		if err != nil {
			return bag, err
		}
		if bag, err = bag.Override(file); err != nil {
			return bag, fmt.Errorf("%s: %w", paramsPath, err)
		}
	}

	var flags params.Bag
	set := func(flag, key string, v any) {
		if cmd.Flags().Changed(flag) {
			flags.Set(key, v)
		}
	}
	set("ticks", "ticks", ticks)
	set("seed", "seed", seed)
	set("backend", "backend", backend)
	set("workers", "workers", workers)
	set("cbr", "cbr", cbr)
	set("safety-factor", "safety_factor", safetyFactor)
	set("snapshot", "snapshot", snapshotPath)
	set("initial", "initial", initial)
	set("trace", "trace", traceLevel)
	set("m", "grid_m", gridM)
	set("n", "grid_n", gridN)
	set("node-size", "node_size_degs", nodeSize)
	set("origin-x", "origin_x", originX)
	set("origin-y", "origin_y", originY)
	set("grid-seed", "grid_seed", int64(gridSeed))
	return bag.Merge(flags), nil
}

// buildScenario creates the grid and applies the initial fractions, if any.
// Default populations come from the population stream keyed by grid_seed.
func buildScenario(bag params.Bag) (*scenario.Table, error) {
	g := scenario.DefaultGridConfig()
	g.M = bag.Int("grid_m", g.M)
	g.N = bag.Int("grid_n", g.N)
	g.NodeSizeDegs = bag.Float("node_size_degs", g.NodeSizeDegs)
	g.OriginX = bag.Float("origin_x", g.OriginX)
	g.OriginY = bag.Float("origin_y", g.OriginY)
	g.Seed = uint64(bag.Int64("grid_seed", int64(g.Seed)))
	g.Src = sim.NewPartitionedRNG(sim.NewSimulationKey(int64(g.Seed))).ForSubsystem(sim.SubsystemPopulation)
	table, err := scenario.Grid(g)
	if err != nil {
		return nil, err
	}

	fractions, err := floatList(bag.Get("initial", nil))
	if err != nil {
		return nil, fmt.Errorf("initial: %w", err)
	}
	if len(fractions) > 0 {
		if err := scenario.InitializePopulation(table, [][]float64{fractions}, nil); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// floatList accepts a []float64 from flags or a []any decoded from a file.
func floatList(v any) ([]float64, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return list, nil
	case []any:
		out := make([]float64, len(list))
		for i, e := range list {
			switch n := e.(type) {
			case int:
				out[i] = float64(n)
			case int64:
				out[i] = float64(n)
			case float64:
				out[i] = n
			default:
				return nil, fmt.Errorf("element %d is %T, want a number", i, e)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("got %T, want a list of numbers", v)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addGridFlags(c *cobra.Command) {
	g := scenario.DefaultGridConfig()
	c.Flags().IntVar(&gridM, "m", g.M, "Grid rows")
	c.Flags().IntVar(&gridN, "n", g.N, "Grid columns")
	c.Flags().Float64Var(&nodeSize, "node-size", g.NodeSizeDegs, "Grid cell size in degrees (0 < size <= 1)")
	c.Flags().Float64Var(&originX, "origin-x", g.OriginX, "Longitude of the grid's south-west corner")
	c.Flags().Float64Var(&originY, "origin-y", g.OriginY, "Latitude of the grid's south-west corner")
	c.Flags().Uint64Var(&gridSeed, "grid-seed", g.Seed, "Seed for default node populations")
}

// init sets up CLI flags and subcommands
func init() {
	def := sim.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&paramsPath, "params", "", "Parameter file (.yaml, .yml or .toml)")

	runCmd.Flags().Int64Var(&ticks, "ticks", def.Ticks, "Number of ticks (days) to simulate")
	runCmd.Flags().Int64Var(&seed, "seed", def.Seed, "Master seed for the run")
	runCmd.Flags().StringVar(&backend, "backend", def.Backend, "Kernel backend (serial, parallel)")
	runCmd.Flags().IntVar(&workers, "workers", def.Workers, "Parallel backend worker limit (0 = GOMAXPROCS)")
	runCmd.Flags().Float64Var(&cbr, "cbr", def.CBR, "Crude birth rate (births per 1,000 per year)")
	runCmd.Flags().Float64Var(&safetyFactor, "safety-factor", def.SafetyFactor, "Capacity headroom multiplier")
	runCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write a snapshot of the final population to this file")
	runCmd.Flags().StringVar(&censusPath, "census", "", "Write the per-tick census as CSV to this file")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, transitions)")
	runCmd.Flags().Float64SliceVar(&initial, "initial", nil, "Comma-separated initial S,E,I,R fractions for every node")
	addGridFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}
