// Command fanout-bench times the fan-out quicksort against the sequential
// quicksort. With no arguments it sorts one million random integers on a
// pool sized to the hardware concurrency and prints both timings.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tahsin716/fanout/bench"
	"github.com/tahsin716/fanout/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configPath string
	flagCfg := bench.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "fanout-bench",
		Short:         "Benchmark parallel quicksort on a fixed-size task pool",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bench.ReadConfig(configPath)
			if err != nil {
				fmt.Fprintln(stderr, err)
				return err
			}
			applyFlags(cmd, &cfg, flagCfg)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(stderr, err)
				return err
			}

			level, _ := logger.ParseLevel(cfg.LogLevel)
			log := logger.NewWithWriter(stderr, level)

			opts := []bench.Option{bench.WithLogger(log), bench.WithTraceWriter(stderr)}
			var reg *prometheus.Registry
			if cfg.Metrics {
				reg = prometheus.NewRegistry()
				opts = append(opts, bench.WithRegisterer(reg))
			}

			report, err := bench.Run(cmd.Context(), cfg, opts...)
			if err != nil {
				log.Errorf("%v", err)
				return err
			}

			if err := report.Write(stdout); err != nil {
				return err
			}
			log.Infof("run %s: speedup %.2fx", report.RunID, report.Speedup())

			if reg != nil {
				return bench.WriteMetrics(stdout, reg)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file")
	f.Uint64Var(&flagCfg.Amount, "amount", flagCfg.Amount, "number of elements to sort")
	f.IntVar(&flagCfg.Workers, "workers", flagCfg.Workers, "number of pool workers")
	f.IntVar(&flagCfg.Cutoff, "cutoff", flagCfg.Cutoff, "sort ranges of this size or smaller without fanning out")
	f.BoolVar(&flagCfg.Verify, "verify", flagCfg.Verify, "check both results are sorted")
	f.BoolVar(&flagCfg.Trace, "trace", flagCfg.Trace, "write OpenTelemetry spans to stderr")
	f.BoolVar(&flagCfg.Metrics, "metrics", flagCfg.Metrics, "print pool metrics after the run")
	f.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "debug, info, warn or error")

	return cmd
}

// applyFlags copies only the flags the user actually set, so file and
// environment values survive unless overridden on the command line.
func applyFlags(cmd *cobra.Command, cfg *bench.Config, flagCfg bench.Config) {
	f := cmd.Flags()
	if f.Changed("amount") {
		cfg.Amount = flagCfg.Amount
	}
	if f.Changed("workers") {
		cfg.Workers = flagCfg.Workers
	}
	if f.Changed("cutoff") {
		cfg.Cutoff = flagCfg.Cutoff
	}
	if f.Changed("verify") {
		cfg.Verify = flagCfg.Verify
	}
	if f.Changed("trace") {
		cfg.Trace = flagCfg.Trace
	}
	if f.Changed("metrics") {
		cfg.Metrics = flagCfg.Metrics
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagCfg.LogLevel
	}
}
