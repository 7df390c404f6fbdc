// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package cells provides a library of CMOS cells that emit transistor level
// netlists into a simulation session.
//
// A cell is described by a PartSpec. Parts are placed with connection strings
// mapping the cell pins to nets:
//
//	err := cells.Place(s,
//		cells.Nand2("a=x, b=y, out=w"),
//		cells.Inverter("in=w, out=and"),
//	)
//
// New cells can be built from transistors in a MountFn, or composed from
// existing parts with Chip.
//
package cells

import (
	"strconv"
	"strings"

	"github.com/db47h/irsim/internal/hdl"
	"github.com/pkg/errors"
)

// Builder receives the devices emitted by placed cells. *irsim.Session
// implements Builder.
//
type Builder interface {
	PutTransistor(gate, source, drain string, length, width, area, perim, x, y float64, nType bool) error
	PutResistor(a, b string, ohms float64) error
	PutCapacitor(a, b string, fF float64) error
}

// Power supply net names. The constant names True and False are accepted
// as aliases in connection strings.
//
const (
	Vdd   = "vdd"
	Gnd   = "gnd"
	True  = "true"
	False = "false"
)

// Sizes holds the default transistor dimensions, in lambda.
//
type Sizes struct {
	NLength, NWidth float64
	PLength, PWidth float64
}

// DefaultSizes are the transistor sizes used by Place.
//
var DefaultSizes = Sizes{NLength: 2, NWidth: 4, PLength: 2, PWidth: 8}

// IO expands a pin declaration like "a, b, bus[2]" to []string{"a", "b",
// "bus[0]", "bus[1]"}. It panics if the declaration is invalid.
//
func IO(spec string) []string {
	pins, err := hdl.ParseIOSpec(spec)
	if err != nil {
		panic(err)
	}
	return pins
}

// A MountFn emits the devices of a part into socket s. It should use the
// socket methods to resolve pin names to nets.
//
type MountFn func(s *Socket) error

// PartSpec is the blueprint of a cell.
//
type PartSpec struct {
	// Part name.
	Name string
	// Input and output pin names. Use IO to expand bus declarations.
	Inputs  []string
	Outputs []string
	// Mount function (see MountFn).
	Mount MountFn
}

// A NewPartFn is a function that takes a connection string and returns a new
// Part. See ParseConnections for the connection syntax.
//
type NewPartFn func(conns string) Part

// A Part wraps a part specification together with its connections within a
// host chip or a session.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// NewPart is a NewPartFn that wraps p with the given connections into a
// Part. It panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(conns string) Part {
	cs, err := ParseConnections(conns)
	if err != nil {
		panic(err)
	}
	return Part{p, cs}
}

func (p *PartSpec) hasPin(name string) bool {
	for _, n := range p.Inputs {
		if n == name {
			return true
		}
	}
	for _, n := range p.Outputs {
		if n == name {
			return true
		}
	}
	return false
}

func (p *PartSpec) isOutput(name string) bool {
	for _, n := range p.Outputs {
		if n == name {
			return true
		}
	}
	return false
}

// Connection is a connection from a part pin (PP) to a net in the host (CP).
//
type Connection struct {
	PP string
	CP string
}

// ParseConnections parses a connection string like "a=x, out[0..1]=bus[2..3]"
// into individual pin to net connections. Ranges on both sides must have the
// same width.
//
func ParseConnections(conns string) ([]Connection, error) {
	var out []Connection
	p := &hdl.Parser{Input: conns}
	for {
		v, err := p.Next(true)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return out, nil
		}
		a, ok := v.(hdl.PinAssignment)
		if !ok {
			return nil, errors.Errorf("in %q: expected pin=net assignment", conns)
		}
		lhs, rhs := expandPin(a.LHS), expandPin(a.RHS)
		switch {
		case len(lhs) == len(rhs):
		case len(rhs) == 1:
			// fan out a single net to all pins of a range
			for len(rhs) < len(lhs) {
				rhs = append(rhs, rhs[0])
			}
		default:
			return nil, errors.Errorf("in %q: size mismatch in %s=%s", conns, pinString(a.LHS), pinString(a.RHS))
		}
		for i := range lhs {
			out = append(out, Connection{lhs[i], rhs[i]})
		}
	}
}

func expandPin(v interface{}) []string {
	switch p := v.(type) {
	case hdl.Pin:
		return []string{p.Name}
	case hdl.PinIndex:
		return []string{hdl.BusPinName(p.Name, p.Index)}
	case hdl.PinRange:
		var out []string
		step := 1
		if p.End < p.Start {
			step = -1
		}
		for i := p.Start; ; i += step {
			out = append(out, hdl.BusPinName(p.Name, i))
			if i == p.End {
				break
			}
		}
		return out
	}
	panic("unexpected pin type")
}

func pinString(v interface{}) string {
	switch p := v.(type) {
	case hdl.PinIndex:
		return hdl.BusPinName(p.Name, p.Index)
	case hdl.PinRange:
		return p.Name + "[" + strconv.Itoa(p.Start) + ".." + strconv.Itoa(p.End) + "]"
	}
	return v.(hdl.Pin).Name
}

// supply returns the power net named by n, if any.
func supply(n string) (string, bool) {
	switch strings.ToLower(n) {
	case Vdd, True:
		return Vdd, true
	case Gnd, False:
		return Gnd, true
	}
	return "", false
}
