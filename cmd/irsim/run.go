package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/irsim"
	"github.com/db47h/irsim/internal/simfile"
	"github.com/db47h/irsim/wave"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// load reads the netlist in file into a new session, applies the inputs
// given on the command line and runs the simulation.
func (o *options) load(ctx context.Context, file string) (*irsim.Session, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	s, err := irsim.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, "load")
	}
	defer f.Close()
	if err = s.LoadSim(ctx, f, file); err != nil {
		return nil, err
	}
	if n := s.NumErrors(); n > 0 {
		fmt.Fprintf(os.Stderr, "%s: %d errors\n", file, n)
	}
	if err = s.FinishNetwork(); err != nil {
		return nil, err
	}
	fmt.Fprintln(os.Stderr, s.Summary())

	for _, w := range []struct {
		names []string
		val   byte
	}{{o.high, 'h'}, {o.low, 'l'}, {o.undef, 'u'}} {
		nodes, err := lookup(s, w.names)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if err = s.SetInput(n, w.val); err != nil {
				return nil, err
			}
		}
	}
	nodes, err := lookup(s, o.watch)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if err = s.Watch(n, irsim.Watched); err != nil {
			return nil, err
		}
	}
	if err = s.Relax(ctx, s.Now()+irsim.NSToDelta(o.until)); err != nil {
		return nil, err
	}
	return s, nil
}

// lookup expands iterators in names and returns the matching nodes.
func lookup(s *irsim.Session, names []string) ([]*irsim.Node, error) {
	exp, err := expandAll(names)
	if err != nil {
		return nil, err
	}
	nodes := make([]*irsim.Node, 0, len(exp))
	for _, e := range exp {
		n, err := s.Lookup(e)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func expandAll(names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		exp, err := simfile.Expand(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, exp...)
	}
	return out, nil
}

func newRunCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run file.sim",
		Short: "run a simulation and print the watched nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			nodes, err := lookup(s, o.watch)
			if err != nil {
				return err
			}
			for _, n := range nodes {
				if err = s.PrintNode(w, n); err != nil {
					return err
				}
				if err = s.PrintHistory(w, n); err != nil {
					return err
				}
			}
			return s.PrintPending(w)
		},
	}
}

func newStatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats file.sim",
		Short: "run a simulation and print network and event statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err = s.WriteStats(w); err != nil {
				return err
			}
			return s.PrintShorted(w)
		},
	}
}

func newCPathCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cpath file.sim node",
		Short: "print the critical path for the last transition of a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			n, err := s.Lookup(args[1])
			if err != nil {
				return err
			}
			return s.CPath(cmd.OutOrStdout(), n)
		},
	}
}

func newPlotCmd(o *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "plot file.sim",
		Short: "plot the waveforms of the watched nodes to an html or png file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(o.watch) == 0 {
				return errors.New("no nodes to plot, use --watch")
			}
			s, err := o.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			names, err := expandAll(o.watch)
			if err != nil {
				return err
			}
			traces, err := wave.Collect(s, names...)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return errors.Wrap(err, "plot")
			}
			title := filepath.Base(args[0])
			switch strings.ToLower(filepath.Ext(out)) {
			case ".png":
				err = wave.RenderPNG(f, title, traces, s.Now())
			default:
				err = wave.RenderHTML(f, title, traces, s.Now())
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "waves.html", "output file, png or html")
	return cmd
}
