// Command irsim loads .sim netlists and runs switch-level simulations.
//
// Usage:
//
//	irsim run [flags] file.sim
//	irsim stats [flags] file.sim
//	irsim cpath [flags] file.sim node
//	irsim plot [flags] file.sim
//
// Inputs are set with --high, --low and --undef, which take comma separated
// node names with iterator expansion, like "a{0:3}". The simulation then runs
// for --until nanoseconds.
//
package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/db47h/irsim"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type options struct {
	model       string
	lambda      float64
	unitDelay   float64
	decay       float64
	metricsAddr string
	verbose     bool

	high, low, undef []string
	watch            []string
	until            float64
}

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "irsim",
		Short:         "switch-level MOS circuit simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.model, "model", "linear", "timing model: linear or rc")
	pf.Float64Var(&o.lambda, "lambda", 0, "lambda in microns (0 uses the default)")
	pf.Float64Var(&o.unitDelay, "unit-delay", 0, "unit delay in ns, replaces computed delays when non zero")
	pf.Float64Var(&o.decay, "decay", 0, "charge decay time in ns for the rc model (0 disables)")
	pf.StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus metrics at this address")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "verbose logging")
	pf.StringSliceVar(&o.high, "high", nil, "nodes to drive high")
	pf.StringSliceVar(&o.low, "low", nil, "nodes to drive low")
	pf.StringSliceVar(&o.undef, "undef", nil, "nodes to drive to X")
	pf.StringSliceVar(&o.watch, "watch", nil, "nodes to watch")
	pf.Float64Var(&o.until, "until", 100, "simulation time in ns")

	root.AddCommand(
		newRunCmd(o),
		newStatsCmd(o),
		newCPathCmd(o),
		newPlotCmd(o),
	)
	return root
}

// config builds a session configuration from the command line options.
func (o *options) config() (*irsim.Config, error) {
	cfg := irsim.DefaultConfig()
	m, err := irsim.ParseModel(o.model)
	if err != nil {
		return nil, err
	}
	cfg.Model = m
	if o.lambda > 0 {
		cfg.Lambda = o.lambda
	}
	if o.unitDelay < 0 || o.decay < 0 {
		return nil, errors.New("negative delay")
	}
	cfg.UnitDelay = irsim.NSToDelta(o.unitDelay)
	cfg.Decay = irsim.NSToDelta(o.decay)

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelInfo
	}
	cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		cfg.Registerer = reg
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(o.metricsAddr, mux); err != nil {
				log.Print(errors.Wrap(err, "metrics server"))
			}
		}()
	}
	return cfg, nil
}
