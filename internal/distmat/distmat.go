package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/semafind/distmat/compare"
	"github.com/semafind/distmat/config"
	"github.com/semafind/distmat/distance"
	"github.com/semafind/distmat/distmat"
	"github.com/semafind/distmat/utils"
	"gonum.org/v1/gonum/mat"
)

// ---------------------------

func setupLogging(cfg config.ConfigMap) {
	// Standard output is reserved for results
	if cfg.PrettyLogOutput {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = log.Output(os.Stderr)
	}
	// ---------------------------
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Debug().Interface("config", cfg).Msg("Configuration")
	}
	log.Debug().Interface("cpu", distance.DetectCPU()).Msg("CPU features")
}

// parseFlags overrides cfg with any flags given on the command line.
func parseFlags(args []string, cfg config.ConfigMap) (config.ConfigMap, error) {
	fs := flag.NewFlagSet("distmat", flag.ContinueOnError)
	fs.IntVar(&cfg.N, "n", cfg.N, "number of vectors in X")
	fs.IntVar(&cfg.M, "m", cfg.M, "number of vectors in Y")
	fs.IntVar(&cfg.D, "d", cfg.D, "vector size")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed of the vector generator")
	fs.IntVar(&cfg.Parallel.Workers, "workers", cfg.Parallel.Workers, "goroutines computing row blocks, 0 for GOMAXPROCS")
	fs.IntVar(&cfg.Parallel.BlockRows, "block-rows", cfg.Parallel.BlockRows, "output rows per block, 0 for automatic")
	fs.BoolVar(&cfg.Print, "print", cfg.Print, "print the full distance matrix")
	fs.BoolVar(&cfg.RunCompare, "compare", cfg.RunCompare, "time every method on the same inputs")
	fs.IntVar(&cfg.Compare.Repeats, "repeats", cfg.Compare.Repeats, "timed runs per method")
	fs.BoolVar(&cfg.Compare.ShowProgress, "progress", cfg.Compare.ShowProgress, "show a progress bar while timing")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	methods := fs.String("methods", "", "comma separated methods to time: "+joinMethods(distmat.Methods()))
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *methods != "" {
		cfg.Compare.Methods = nil
		for _, name := range strings.Split(*methods, ",") {
			method, err := distmat.ParseMethod(strings.TrimSpace(name))
			if err != nil {
				return cfg, err
			}
			cfg.Compare.Methods = append(cfg.Compare.Methods, method)
		}
	}
	return cfg, nil
}

func joinMethods(methods []distmat.Method) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return strings.Join(names, ",")
}

// ---------------------------

func run(ctx context.Context, cfg config.ConfigMap, out io.Writer) error {
	rng := utils.NewRand(cfg.Seed)
	x := mat.NewDense(cfg.N, cfg.D, utils.RandVectors(rng, cfg.N, cfg.D))
	y := mat.NewDense(cfg.M, cfg.D, utils.RandVectors(rng, cfg.M, cfg.D))
	log.Debug().Int("n", cfg.N).Int("m", cfg.M).Int("d", cfg.D).Uint64("seed", cfg.Seed).Msg("Generated vectors")
	// ---------------------------
	startTime := time.Now()
	var d *mat.Dense
	var err error
	if cfg.Parallel.Workers == 1 {
		d, err = distmat.Compute(x, y)
	} else {
		d, err = distmat.ComputeParallel(ctx, x, y, cfg.Parallel)
	}
	if err != nil {
		return fmt.Errorf("could not compute distance matrix: %w", err)
	}
	log.Info().Dur("duration", time.Since(startTime)).Msg("Computed distance matrix")
	// ---------------------------
	s := distmat.Summarise(d)
	fmt.Fprintf(out, "shape: (%d, %d)\n", s.Rows, s.Cols)
	fmt.Fprintf(out, "min: %.6f\n", s.Min)
	fmt.Fprintf(out, "max: %.6f\n", s.Max)
	fmt.Fprintf(out, "mean: %.6f\n", s.Mean)
	fmt.Fprintf(out, "fingerprint: %016x\n", s.Fingerprint)
	if cfg.Print {
		fmt.Fprintf(out, "%v\n", mat.Formatted(d, mat.Squeeze()))
	}
	// ---------------------------
	if !cfg.RunCompare {
		return nil
	}
	report, err := compare.Run(ctx, x, y, cfg.Compare)
	if err != nil {
		return fmt.Errorf("could not compare methods: %w", err)
	}
	log.Info().Str("runId", report.RunId.String()).Msg("Compared methods")
	return printReport(out, report)
}

func printReport(out io.Writer, report compare.Report) error {
	fmt.Fprintf(out, "\nrun %s: X (%d, %d) Y (%d, %d) on %s, vector support %t\n", report.RunId, report.Rows, report.Dims, report.Cols, report.Dims, report.CPU.GOARCH, report.VectorSupport)
	if len(report.Results) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "method\tbest\tmean\tspeedup\tmax deviation")
	baseline := report.Results[0].Best
	for _, res := range report.Results {
		speedup := float64(baseline) / float64(max(res.Best, 1))
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fx\t%.2e\n", res.Method, res.Best, res.Mean, speedup, res.MaxDeviation)
	}
	return w.Flush()
}

// ---------------------------

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg, err = parseFlags(os.Args[1:], cfg)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid arguments")
	}
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	// ---------------------------
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, os.Stdout)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed")
	}
}
