// Package wave exports node histories as waveforms.
//
package wave

import (
	"github.com/db47h/irsim"
	"github.com/pkg/errors"
)

// Point is a value change of a node.
//
type Point struct {
	Time  irsim.Time
	Value irsim.Potential
}

// Trace is the sequence of value changes of a node, starting with its
// initial value.
//
type Trace struct {
	Name   string
	Points []Point
}

// Collect returns the traces of the named nodes from the session history.
// Punted events are not included.
//
func Collect(s *irsim.Session, names ...string) ([]Trace, error) {
	ts := make([]Trace, 0, len(names))
	for _, name := range names {
		n, err := s.Lookup(name)
		if err != nil {
			return nil, errors.Wrap(err, "collect")
		}
		tr := Trace{Name: name}
		for _, h := range n.History() {
			if h.Punted {
				continue
			}
			tr.Points = append(tr.Points, Point{h.Time, h.Value})
		}
		ts = append(ts, tr)
	}
	return ts, nil
}

// Level maps a value to a plot level: 0 for low, 1 for high and 0.5 for X.
//
func Level(p irsim.Potential) float64 {
	switch p {
	case irsim.Low:
		return 0
	case irsim.High:
		return 1
	}
	return 0.5
}

// steps returns the corners of the step function of t up to end, in ns.
func (t *Trace) steps(end irsim.Time) (xs, ys []float64) {
	for i, p := range t.Points {
		if p.Time > end {
			break
		}
		if i > 0 {
			xs = append(xs, irsim.DeltaToNS(p.Time))
			ys = append(ys, ys[len(ys)-1])
		}
		xs = append(xs, irsim.DeltaToNS(p.Time))
		ys = append(ys, Level(p.Value))
	}
	if len(xs) > 0 {
		xs = append(xs, irsim.DeltaToNS(end))
		ys = append(ys, ys[len(ys)-1])
	}
	return xs, ys
}
