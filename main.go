package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/sim"
	"github.com/pthm-cable/shoal/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	popSize := flag.Int("popsize", 1000, "Initial population size")
	years := flag.Int("years", 40, "Years to simulate")
	sampleRate := flag.Float64("sample", 0.02, "Sampling rate per breeding place per year")
	last := flag.Int("last", 2, "Record samples during the last N years")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	outDir := flag.String("outdir", "", "Output directory for CSV files and config snapshot")
	tree := flag.Bool("tree", false, "Write the sample family forest to stdout when no outdir is set")
	verbose := flag.Bool("verbose", false, "Per-year progress logging")

	flag.Parse()

	// Set up slog (JSON to stderr for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"popsize", *popSize,
		"years", *years,
		"sample_rate", *sampleRate,
		"recording_window", *last,
	)

	pop := sim.New(cfg, *popSize, rngSeed)
	start := time.Now()
	if err := pop.Run(*years, *sampleRate, *last); err != nil {
		slog.Error("run aborted", "error", err)
		os.Exit(1)
	}

	stats := telemetry.SummarizeSizes(pop.Sizes())
	sampleTotal := 0
	for _, n := range pop.SampleCounts() {
		sampleTotal += n
	}
	slog.Info("simulation complete",
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"final_size", stats.Final,
		"mean_size", stats.Mean,
		"min_size", stats.Min,
		"max_size", stats.Max,
		"samples", sampleTotal,
		"extinct", pop.Extinct(),
	)

	om, err := telemetry.NewOutputManager(*outDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	if om != nil {
		defer om.Close()
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
			os.Exit(1)
		}
		if err := om.WriteFamily(pop.SampleFamily()); err != nil {
			slog.Error("failed to write family", "error", err)
			os.Exit(1)
		}
		if err := om.WriteDemography(pop.Demography()); err != nil {
			slog.Error("failed to write demography", "error", err)
			os.Exit(1)
		}
		if err := om.WritePopulation(pop.Records()); err != nil {
			slog.Error("failed to write population", "error", err)
			os.Exit(1)
		}
		slog.Info("output written", "dir", *outDir)
		return
	}

	if *tree {
		if err := telemetry.WriteFamilyTo(os.Stdout, pop.SampleFamily()); err != nil {
			slog.Error("failed to write family", "error", err)
			os.Exit(1)
		}
	}
}
