package irsim

import (
	"log/slog"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// ModelKind selects the timing model of a session.
//
type ModelKind int

// Timing models.
//
const (
	// Linear evaluates node values on a strength lattice and uses unit or user
	// specified delays.
	Linear ModelKind = iota
	// RC evaluates node values from resistance ranges and derives delays from
	// RC time constants.
	RC
)

func (m ModelKind) String() string {
	switch m {
	case Linear:
		return "linear"
	case RC:
		return "rc"
	}
	return "unknown"
}

// ParseModel returns the ModelKind named s.
//
func ParseModel(s string) (ModelKind, error) {
	switch strings.ToLower(s) {
	case "linear", "switch", "l":
		return Linear, nil
	case "rc", "r":
		return RC, nil
	}
	return 0, errors.Errorf("unknown timing model %q", s)
}

// Resistance contexts.
//
const (
	Static = iota
	DynHigh
	DynLow
	nContexts
)

// ResEntry is a resistance table entry: a transistor of the given width and
// length (in microns) has a resistance of Ohms.
//
type ResEntry struct {
	Width, Length float64
	Ohms          float64
}

// ResTable holds the entries of a resistance table for one transistor type
// and context.
//
type ResTable []ResEntry

// Config holds the technology parameters and simulation settings of a
// session.
//
type Config struct {
	Model ModelKind

	// Lambda is the netlist scale factor in microns.
	Lambda float64

	// Capacitance coefficients, in pF per square micron for areas and pF per
	// micron for perimeters.
	CapGA  float64 // gate area
	CapDA  float64 // n-diffusion area
	CapDP  float64 // n-diffusion perimeter
	CapPDA float64 // p-diffusion area
	CapPDP float64 // p-diffusion perimeter
	CapMA  float64 // metal area
	CapMP  float64 // metal perimeter
	CapPA  float64 // poly area
	CapPP  float64 // poly perimeter
	CapM2A float64 // metal2 area
	CapM2P float64 // metal2 perimeter

	// Logic thresholds, as fractions of Vdd.
	LowThresh, HighThresh float64

	// Resistance tables, indexed by base transistor type and context. The
	// Resist type is never looked up.
	Resistances [nTypes][nContexts]ResTable

	// UnitDelay, when non zero, replaces computed delays. In the linear
	// model, a zero UnitDelay schedules transitions one delta ahead.
	UnitDelay Time
	// Decay, when non zero, makes undriven nodes in the RC model decay to X
	// after that time.
	Decay Time

	Logger *slog.Logger
	// Registerer receives the session metrics. Metrics are not registered if
	// nil.
	Registerer prometheus.Registerer
	// ErrorHandler, if not nil, is called for each error found in a netlist.
	ErrorHandler func(*RecordError)
}

// DefaultConfig returns a configuration for a 1 micron CMOS process.
//
func DefaultConfig() *Config {
	c := &Config{
		Model:      Linear,
		Lambda:     1.0,
		CapGA:      .0004,
		CapDA:      .0001,
		CapDP:      .0002,
		CapPDA:     .0001,
		CapPDP:     .0002,
		CapMA:      .00003,
		CapMP:      .0,
		CapPA:      .00004,
		CapPP:      .0,
		CapM2A:     .00002,
		CapM2P:     .0,
		LowThresh:  0.3,
		HighThresh: 0.8,
	}
	sq := func(ohms float64) ResTable { return ResTable{{Width: 1, Length: 1, Ohms: ohms}} }
	c.Resistances[NChan] = [nContexts]ResTable{Static: sq(5000), DynHigh: sq(12000), DynLow: sq(5000)}
	c.Resistances[PChan] = [nContexts]ResTable{Static: sq(11000), DynHigh: sq(11000), DynLow: sq(25000)}
	c.Resistances[Dep] = [nContexts]ResTable{Static: sq(20000), DynHigh: sq(20000), DynLow: sq(20000)}
	return c
}

// lambdaCM returns lambda in centimicrons.
func (c *Config) lambdaCM() float64 { return c.Lambda * 100 }

// lookup returns the resistance of a transistor of width w and length l, in
// microns, from table tab. Exact matches are returned as is, otherwise the
// nearest entry is scaled by the length/width ratio.
func (tab ResTable) lookup(w, l float64) float64 {
	if len(tab) == 0 {
		return 0
	}
	best, bestDist := 0, math.Inf(1)
	for i, e := range tab {
		if e.Width == w && e.Length == l {
			return e.Ohms
		}
		d := math.Abs(e.Width-w)/e.Width + math.Abs(e.Length-l)/e.Length
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	e := tab[best]
	return e.Ohms * (l / e.Length) * (e.Width / w)
}

// validate checks the settings used by the models.
func (c *Config) validate() error {
	if c.Lambda <= 0 {
		return errors.Errorf("invalid lambda %g", c.Lambda)
	}
	if c.LowThresh < 0 || c.HighThresh > 1 || c.LowThresh > c.HighThresh {
		return errors.Errorf("invalid logic thresholds %g/%g", c.LowThresh, c.HighThresh)
	}
	if c.Model != Linear && c.Model != RC {
		return errors.Errorf("invalid model %d", c.Model)
	}
	return nil
}
