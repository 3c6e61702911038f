// Package bench times the fan-out quicksort against the sequential one on
// identical-size random permutations and reports the results.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tahsin716/fanout"
	"github.com/tahsin716/fanout/logger"
	"github.com/tahsin716/fanout/metrics"
	"github.com/tahsin716/fanout/mockdata"
	"github.com/tahsin716/fanout/qsort"
	"github.com/tahsin716/fanout/telemetry"
)

// ErrUnsorted is returned when verification finds an unsorted result.
var ErrUnsorted = errors.New("bench: result is not sorted")

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	log         *logger.Logger
	traceWriter io.Writer
	registerer  prometheus.Registerer
}

// WithLogger sets the logger used by the run and its pool.
func WithLogger(l *logger.Logger) Option {
	return func(o *runOptions) {
		o.log = l
	}
}

// WithTraceWriter sets where spans are written when Config.Trace is set.
func WithTraceWriter(w io.Writer) Option {
	return func(o *runOptions) {
		o.traceWriter = w
	}
}

// WithRegisterer registers the run's pool collector with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *runOptions) {
		o.registerer = reg
	}
}

// Run executes one benchmark: the parallel sort first, then the linear sort,
// each on its own freshly generated dataset. The parallel timing includes
// waiting for every spawned task, so it measures a finished sort.
func Run(ctx context.Context, cfg Config, opts ...Option) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	amount, err := ToIndex(cfg.Amount)
	if err != nil {
		return nil, err
	}

	o := runOptions{log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	var traceWriter io.Writer
	if cfg.Trace {
		traceWriter = o.traceWriter
	}
	provider, err := telemetry.NewProvider(traceWriter)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			o.log.Warnf("%v", err)
		}
	}()
	tracer := provider.Tracer()

	runID := uuid.New()
	ctx, root := tracer.Start(ctx, "benchmark", trace.WithAttributes(
		attribute.String("run.id", runID.String()),
		attribute.Int("amount", amount),
		attribute.Int("workers", cfg.Workers),
		attribute.Int("cutoff", cfg.Cutoff),
	))
	defer root.End()

	o.log.Infof("run %s: amount=%d workers=%d cutoff=%d", runID, amount, cfg.Workers, cfg.Cutoff)

	pool, err := fanout.NewPool(cfg.Workers, fanout.WithLogger(o.log))
	if err != nil {
		return nil, fmt.Errorf("bench: create pool: %w", err)
	}
	defer pool.Shutdown()

	if o.registerer != nil {
		if _, err := metrics.Register(o.registerer, pool, prometheus.Labels{"run_id": runID.String()}); err != nil {
			return nil, fmt.Errorf("bench: register metrics: %w", err)
		}
	}

	_, span := tracer.Start(ctx, "generate")
	parallelData := mockdata.Generate(amount)
	linearData := mockdata.Generate(amount)
	span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span = tracer.Start(ctx, "parallel-sort")
	start := time.Now()
	qsort.Sort(parallelData, pool, qsort.WithSequentialCutoff(cfg.Cutoff))
	parallel := time.Since(start)
	span.End()
	o.log.Debugf("run %s: parallel sort took %v", runID, parallel)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span = tracer.Start(ctx, "linear-sort")
	start = time.Now()
	qsort.LinearSort(linearData, 0, len(linearData)-1)
	linear := time.Since(start)
	span.End()
	o.log.Debugf("run %s: linear sort took %v", runID, linear)

	if cfg.Verify {
		if !qsort.IsSorted(parallelData) {
			return nil, fmt.Errorf("%w: parallel", ErrUnsorted)
		}
		if !qsort.IsSorted(linearData) {
			return nil, fmt.Errorf("%w: linear", ErrUnsorted)
		}
	}

	pool.Shutdown()
	stats := pool.Stats()
	o.log.Infof("run %s: %d tasks, peak queue depth %d, %d task panics",
		runID, stats.Completed, stats.QueueHighWater, stats.Failed)

	return &Report{
		RunID:     runID,
		Amount:    amount,
		Workers:   cfg.Workers,
		Parallel:  parallel,
		Linear:    linear,
		PoolStats: stats,
	}, nil
}
