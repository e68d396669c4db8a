package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/menger/internal/api"
	"github.com/talgya/menger/internal/engine"
	"github.com/talgya/menger/internal/persistence"
	"github.com/talgya/menger/internal/scenario"
	"github.com/talgya/menger/internal/shell"
)

var (
	flagScenario string
	flagDB       string
	flagSeed     int64
	flagPort     int
	flagSpeed    float64
	flagAutosave uint64
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "actorsim",
	Short: "Ordinal-valuation economic actor simulation",
	Long: `actorsim simulates economic actors whose valuations are ordinal:
each actor ranks its goals, values items by their best remaining use, and
trades with peers through escalating bids when its inventory falls short.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation with the paced engine and HTTP API",
	RunE:  runSimulation,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open the interactive console against a simulation",
	RunE:  runShell,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagScenario, "scenario", "s", "", "scenario YAML file (default: built-in two-actor scenario)")
	pf.StringVar(&flagDB, "db", "data/actorsim.db", "SQLite database path (empty disables persistence)")
	pf.Int64Var(&flagSeed, "seed", 0, "override the scenario seed")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	runCmd.Flags().IntVar(&flagPort, "port", 8080, "HTTP API port")
	runCmd.Flags().Float64Var(&flagSpeed, "speed", 1.0, "engine speed multiplier (0 = paused)")
	runCmd.Flags().Uint64Var(&flagAutosave, "autosave", 60, "autosave interval in ticks (0 disables)")

	rootCmd.AddCommand(runCmd, shellCmd)
}

// setup opens the database (when configured) and either restores the saved
// simulation or builds a fresh one from the scenario.
func setup() (*engine.Simulation, *persistence.DB, error) {
	var db *persistence.DB
	if flagDB != "" {
		if dir := filepath.Dir(flagDB); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		var err error
		db, err = persistence.Open(flagDB)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database opened", "path", flagDB)
	}

	if db != nil {
		if has, err := db.HasActors(); err == nil && has {
			slog.Info("found saved state, restoring")
			actors, err := db.LoadActors()
			if err != nil {
				return nil, nil, err
			}
			sc, err := loadScenario()
			if err != nil {
				return nil, nil, err
			}
			sim := engine.NewSimulation(sc.Catalog, actors)
			sim.LastTick = db.LastTick()
			slog.Info("state restored", "actors", len(actors), "tick", sim.LastTick)
			return sim, db, nil
		}
	}

	sc, err := loadScenario()
	if err != nil {
		return nil, nil, err
	}
	actors, err := sc.Build()
	if err != nil {
		return nil, nil, err
	}
	sim := engine.NewSimulation(sc.Catalog, actors)
	slog.Info("fresh simulation built", "actors", len(actors))

	if db != nil {
		if err := db.SaveSimulation(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}
	return sim, db, nil
}

func loadScenario() (*scenario.Scenario, error) {
	var sc *scenario.Scenario
	if flagScenario != "" {
		var err error
		sc, err = scenario.Load(flagScenario)
		if err != nil {
			return nil, err
		}
		slog.Info("scenario loaded", "path", flagScenario)
	} else {
		sc = scenario.Default()
	}
	if flagSeed != 0 {
		sc.Seed = flagSeed
	}
	return sc, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	sim, db, err := setup()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	eng := engine.NewEngine()
	eng.Speed = flagSpeed
	eng.AutosaveEvery = flagAutosave
	eng.OnTick = sim.Step
	if db != nil {
		eng.OnAutosave = func(tick uint64) {
			if err := db.SaveSimulation(sim); err != nil {
				slog.Error("autosave failed", "error", err)
			}
		}
	}

	adminKey := os.Getenv("ACTORSIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("ACTORSIM_ADMIN_KEY not set — admin POST endpoints disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     flagPort,
		AdminKey: adminKey,
	}
	apiServer.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("actorsim running: %d actors, API on http://localhost:%d/api/v1/status\n",
		sim.StatsSnapshot().Actors, flagPort)
	if tick := sim.CurrentTick(); tick > 0 {
		fmt.Printf("resuming from tick %d\n", tick)
	}
	fmt.Println("Ctrl+C to stop")

	eng.Run()

	if db != nil {
		slog.Info("final save")
		if err := db.SaveSimulation(sim); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}
	return nil
}

func runShell(cmd *cobra.Command, args []string) error {
	sim, db, err := setup()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	return shell.New(sim, db, os.Stdin, os.Stdout).Run()
}
