/*
Package compare times the distance matrix methods against each other on the
same inputs. Every method is also checked against the Gram result so that a
fast but wrong method is visible in the report.
*/
package compare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/semafind/distmat/distance"
	"github.com/semafind/distmat/distmat"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrNoMethods = errors.New("no methods to compare")

type Options struct {
	// Methods to time, defaults to all of them
	Methods []distmat.Method `yaml:"methods"`
	// Number of timed runs per method
	Repeats int `yaml:"repeats"`
	// Show a progress bar on stderr
	ShowProgress bool `yaml:"showProgress"`
}

type Result struct {
	Method distmat.Method `json:"method" yaml:"method"`
	Best   time.Duration  `json:"best" yaml:"best"`
	Mean   time.Duration  `json:"mean" yaml:"mean"`
	// Largest absolute difference to the Gram result
	MaxDeviation float64 `json:"maxDeviation" yaml:"maxDeviation"`
}

type Report struct {
	RunId uuid.UUID            `json:"runId" yaml:"runId"`
	Rows  int                  `json:"rows" yaml:"rows"`
	Cols  int                  `json:"cols" yaml:"cols"`
	Dims  int                  `json:"dims" yaml:"dims"`
	CPU   distance.CPUFeatures `json:"cpu" yaml:"cpu"`
	// Whether gonum can use its vectorised kernels on this host
	VectorSupport bool     `json:"vectorSupport" yaml:"vectorSupport"`
	Results       []Result `json:"results" yaml:"results"`
}

// Fastest returns the result with the lowest best time.
func (r Report) Fastest() (Result, bool) {
	if len(r.Results) == 0 {
		return Result{}, false
	}
	fastest := r.Results[0]
	for _, res := range r.Results[1:] {
		if res.Best < fastest.Best {
			fastest = res
		}
	}
	return fastest, true
}

// Run times each method on x and y. The context is checked between runs,
// a single run is never interrupted.
func Run(ctx context.Context, x, y mat.Matrix, opts Options) (Report, error) {
	methods := opts.Methods
	if methods == nil {
		methods = distmat.Methods()
	}
	if len(methods) == 0 {
		return Report{}, ErrNoMethods
	}
	repeats := max(opts.Repeats, 1)
	// ---------------------------
	// The reference also validates the inputs for every method
	reference, err := distmat.Compute(x, y)
	if err != nil {
		return Report{}, fmt.Errorf("could not compute reference: %w", err)
	}
	rows, dims := x.Dims()
	cols, _ := y.Dims()
	report := Report{
		RunId: uuid.New(),
		Rows:  rows,
		Cols:  cols,
		Dims:  dims,
		CPU:   distance.DetectCPU(),
	}
	report.VectorSupport = report.CPU.HasVectorSupport()
	logger := log.With().Str("module", "compare").Str("runId", report.RunId.String()).Logger()
	logger.Debug().Bool("vectorSupport", report.VectorSupport).Str("goarch", report.CPU.GOARCH).Msg("starting comparison")
	// ---------------------------
	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(methods)*repeats), "timing methods")
		defer bar.Finish()
	}
	for _, method := range methods {
		result := Result{Method: method}
		var total time.Duration
		for i := 0; i < repeats; i++ {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
			startTime := time.Now()
			d, err := distmat.ComputeWith(method, x, y)
			elapsed := time.Since(startTime)
			if err != nil {
				return Report{}, fmt.Errorf("could not run %s: %w", method, err)
			}
			if i == 0 || elapsed < result.Best {
				result.Best = elapsed
			}
			total += elapsed
			if i == 0 {
				result.MaxDeviation = maxAbsDiff(reference, d)
			}
			if bar != nil {
				bar.Add(1)
			}
		}
		result.Mean = total / time.Duration(repeats)
		logger.Debug().Str("method", method.String()).Dur("best", result.Best).Dur("mean", result.Mean).Float64("maxDeviation", result.MaxDeviation).Msg("timed method")
		report.Results = append(report.Results, result)
	}
	return report, nil
}

func maxAbsDiff(a, b *mat.Dense) float64 {
	rows, _ := a.Dims()
	var worst float64
	for i := 0; i < rows; i++ {
		worst = max(worst, floats.Distance(a.RawRowView(i), b.RawRowView(i), math.Inf(1)))
	}
	return worst
}
