// Package metrics exports fanout pool statistics as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tahsin716/fanout"
)

// StatsSource is anything that can report pool statistics.
// *fanout.Pool satisfies it.
type StatsSource interface {
	Stats() fanout.Stats
}

// Collector is a prometheus.Collector that reads a fresh Stats snapshot on
// every scrape.
type Collector struct {
	source StatsSource

	submitted *prometheus.Desc
	completed *prometheus.Desc
	failed    *prometheus.Desc
	rejected  *prometheus.Desc

	running     *prometheus.Desc
	queued      *prometheus.Desc
	highWater   *prometheus.Desc
	outstanding *prometheus.Desc
	workers     *prometheus.Desc
	liveWorkers *prometheus.Desc
	latencyAvg  *prometheus.Desc
	latencyMax  *prometheus.Desc

	workerExecuted *prometheus.Desc
	workerFailed   *prometheus.Desc
}

// NewCollector creates a Collector for source. Metric names are prefixed
// with namespace (default "fanout") and the "pool" subsystem.
func NewCollector(namespace string, source StatsSource, constLabels prometheus.Labels) *Collector {
	if namespace == "" {
		namespace = "fanout"
	}

	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", name),
			help, labels, constLabels,
		)
	}

	return &Collector{
		source: source,

		submitted: desc("tasks_submitted_total", "Total number of tasks accepted by Submit"),
		completed: desc("tasks_completed_total", "Total number of tasks that finished, including panics"),
		failed:    desc("tasks_failed_total", "Total number of tasks that panicked"),
		rejected:  desc("tasks_rejected_total", "Total number of tasks refused after shutdown"),

		running:     desc("tasks_running", "Number of tasks executing now"),
		queued:      desc("queue_depth", "Number of tasks waiting in the queue"),
		highWater:   desc("queue_high_water", "Deepest the task queue has been"),
		outstanding: desc("tasks_outstanding", "Tasks submitted but not yet finished"),
		workers:     desc("workers", "Number of workers the pool was created with"),
		liveWorkers: desc("workers_live", "Number of workers that have not exited"),
		latencyAvg:  desc("task_duration_avg_seconds", "Average task execution time"),
		latencyMax:  desc("task_duration_max_seconds", "Longest task execution time"),

		workerExecuted: desc("worker_tasks_executed_total", "Tasks executed per worker", "worker"),
		workerFailed:   desc("worker_tasks_failed_total", "Tasks that panicked per worker", "worker"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.submitted, c.completed, c.failed, c.rejected,
		c.running, c.queued, c.highWater, c.outstanding,
		c.workers, c.liveWorkers, c.latencyAvg, c.latencyMax,
		c.workerExecuted, c.workerFailed,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	counter(c.submitted, float64(s.Submitted))
	counter(c.completed, float64(s.Completed))
	counter(c.failed, float64(s.Failed))
	counter(c.rejected, float64(s.Rejected))

	gauge(c.running, float64(s.Running))
	gauge(c.queued, float64(s.Queued))
	gauge(c.highWater, float64(s.QueueHighWater))
	gauge(c.outstanding, float64(s.Outstanding))
	gauge(c.workers, float64(s.NumWorkers))
	gauge(c.liveWorkers, float64(s.LiveWorkers))
	gauge(c.latencyAvg, s.LatencyAvg.Seconds())
	gauge(c.latencyMax, s.LatencyMax.Seconds())

	for _, ws := range s.WorkerStats {
		id := strconv.Itoa(ws.WorkerID)
		counter(c.workerExecuted, float64(ws.TasksExecuted), id)
		counter(c.workerFailed, float64(ws.TasksFailed), id)
	}
}

// Register creates a Collector for source and registers it with reg.
func Register(reg prometheus.Registerer, source StatsSource, constLabels prometheus.Labels) (*Collector, error) {
	c := NewCollector("", source, constLabels)
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}
