package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/tahsin716/fanout"
)

// Report is the outcome of one Run.
type Report struct {
	RunID     uuid.UUID
	Amount    int
	Workers   int
	Parallel  time.Duration
	Linear    time.Duration
	PoolStats fanout.Stats
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Speedup is Linear / Parallel, or 0 when Parallel is zero.
func (r *Report) Speedup() float64 {
	if r.Parallel <= 0 {
		return 0
	}
	return float64(r.Linear) / float64(r.Parallel)
}

// Write prints the two timing lines with five decimal places.
func (r *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Parallel at %d results: %.5f milliseconds\n", r.Amount, Milliseconds(r.Parallel)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Linear at %d results: %.5f milliseconds\n", r.Amount, Milliseconds(r.Linear))
	return err
}

// WriteMetrics writes every metric family from g in the Prometheus text
// exposition format.
func WriteMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("bench: gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("bench: write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
