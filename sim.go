// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package irsim

import "strconv"

// Time is a simulation time expressed in deltas.
//
type Time int64

// Time related constants.
//
const (
	// ResolutionScale is the number of deltas per nanosecond.
	ResolutionScale = 1000
	// MaxTime is the largest representable simulation time.
	MaxTime Time = 0x0FFFFFFFFFFFFFFF
)

// NSToDelta converts nanoseconds to deltas.
//
func NSToDelta(ns float64) Time { return Time(ns * ResolutionScale) }

// DeltaToNS converts deltas to nanoseconds.
//
func DeltaToNS(d Time) float64 { return float64(d) / ResolutionScale }

// PSToDelta converts picoseconds to deltas.
//
func PSToDelta(ps float64) Time { return Time(ps / 1000 * ResolutionScale) }

// DeltaToPS converts deltas to picoseconds.
//
func DeltaToPS(d Time) float64 { return float64(d) * 1000 / ResolutionScale }

func (t Time) String() string {
	return strconv.FormatFloat(DeltaToNS(t), 'f', -1, 64) + "ns"
}

// Potential is a logic value.
//
type Potential uint8

// Logic values.
//
const (
	Low Potential = iota
	X
	XX // same as X, used by value tables
	High
	// NPots is the number of potential values.
	NPots
	// Decay is the value carried by charge decay events.
	Decay = NPots
)

const potChars = "0XX1D"

// Char returns the single character representation of p.
//
func (p Potential) Char() byte {
	if int(p) < len(potChars) {
		return potChars[p]
	}
	return '?'
}

func (p Potential) String() string { return string(p.Char()) }

// Capacitance and resistance limits.
const (
	// MinCap is the smallest capacitance of a node, in pF.
	MinCap = 0.00001
	small  = 1e-15
	large  = 1e15
	limit  = 1e8

	// MaxErrs is the number of netlist errors tolerated before a load is
	// aborted.
	MaxErrs = 20
	// MaxParallel is the maximum number of parallel transistors merged in
	// a single group.
	MaxParallel = 30
)

func combine(r1, r2 float64) float64 { return r1 * r2 / (r1 + r2) }
