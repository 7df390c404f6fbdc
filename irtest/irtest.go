// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package irtest provides utility functions for testing circuits.
//
package irtest

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/db47h/irsim"
	"github.com/db47h/irsim/cells"
	"github.com/pkg/errors"
)

// SettleTime is the time given to a circuit to settle after its inputs
// change.
//
var SettleTime = irsim.NSToDelta(100)

// LoadSession returns a finished session built from the .sim netlist text.
// Any netlist error fails the test.
//
func LoadSession(t testing.TB, cfg *irsim.Config, netlist string) *irsim.Session {
	t.Helper()
	s := newSession(t, cfg)
	if err := s.LoadSim(context.Background(), strings.NewReader(netlist), t.Name()); err != nil {
		t.Fatal(err)
	}
	if n := s.NumErrors(); n != 0 {
		t.Fatalf("%d errors in netlist", n)
	}
	if err := s.FinishNetwork(); err != nil {
		t.Fatal(err)
	}
	return s
}

// PlaceSession returns a finished session with the given parts placed.
//
func PlaceSession(t testing.TB, cfg *irsim.Config, parts ...cells.Part) *irsim.Session {
	t.Helper()
	s := newSession(t, cfg)
	if err := cells.Place(s, parts...); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishNetwork(); err != nil {
		t.Fatal(err)
	}
	return s
}

func newSession(t testing.TB, cfg *irsim.Config) *irsim.Session {
	if cfg == nil {
		cfg = irsim.DefaultConfig()
	}
	if cfg.ErrorHandler == nil {
		c := *cfg
		c.ErrorHandler = func(e *irsim.RecordError) { t.Log(e) }
		cfg = &c
	}
	s, err := irsim.NewSession(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// Node returns the node named name or fails the test.
//
func Node(t testing.TB, s *irsim.Session, name string) *irsim.Node {
	t.Helper()
	n, err := s.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// Set forces the named nodes to the given values and runs the simulation
// for SettleTime.
//
func Set(t testing.TB, s *irsim.Session, values map[string]irsim.Potential) {
	t.Helper()
	for name, v := range values {
		if err := s.SetInput(Node(t, s, name), inputChar(v)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Relax(context.Background(), s.Now()+SettleTime); err != nil {
		t.Fatal(err)
	}
}

func inputChar(v irsim.Potential) byte {
	switch v {
	case irsim.Low:
		return 'l'
	case irsim.High:
		return 'h'
	}
	return 'u'
}

func pot(b bool) irsim.Potential {
	if b {
		return irsim.High
	}
	return irsim.Low
}

func connString(in, out []string) string {
	var b strings.Builder
	for _, n := range append(in[:len(in):len(in)], out...) {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(n)
		b.WriteRune('=')
		b.WriteString(n)
	}
	return b.String()
}

func randBool(r *rand.Rand) bool {
	return r.Int63()&(1<<62) != 0
}

// ComparePart places part in a new session and checks its outputs against
// ref for input combinations. All combinations are tried for parts with up to
// 12 inputs, a random sample otherwise. ref receives the inputs in the order
// of the part's Inputs and must return the outputs in the order of its
// Outputs.
//
func ComparePart(t *testing.T, cfg *irsim.Config, part cells.NewPartFn, ref func(in []bool) []bool) {
	t.Helper()

	ps := part("")
	p := part(connString(ps.Inputs, ps.Outputs))
	s := PlaceSession(t, cfg, p)

	ins := make([]*irsim.Node, len(p.Inputs))
	for i, n := range p.Inputs {
		ins[i] = Node(t, s, n)
	}
	outs := make([]*irsim.Node, len(p.Outputs))
	for i, n := range p.Outputs {
		outs[i] = Node(t, s, n)
	}

	inputs := make([]bool, len(ins))
	check := func() {
		t.Helper()
		for i, n := range ins {
			if err := s.SetInput(n, inputChar(pot(inputs[i]))); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Relax(context.Background(), s.Now()+SettleTime); err != nil {
			t.Fatal(err)
		}
		exp := ref(inputs)
		for o, n := range outs {
			if got := n.Pot(); got != pot(exp[o]) {
				t.Fatal(errString(p.PartSpec, inputs, p.Outputs[o], exp[o], got))
			}
		}
	}

	start := time.Now()
	bits := len(inputs)
	if bits <= 12 {
		for i := 0; i < 1<<uint(bits); i++ {
			for b := range inputs {
				inputs[bits-b-1] = i&(1<<uint(b)) != 0
			}
			check()
		}
	} else {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for i := 0; i < 1<<12; i++ {
			for b := range inputs {
				inputs[b] = randBool(r)
			}
			check()
		}
	}
	st := s.Stats()
	t.Logf("%s: %d events in %v", p.Name, st.Events, time.Since(start))
}

func errString(p *cells.PartSpec, inputs []bool, oname string, ex bool, got irsim.Potential) string {
	var b strings.Builder
	for i, n := range p.Inputs {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", n, inputs[i])
	}
	return fmt.Sprintf("%s:\nExpected %s => %s=%v\nGot %v", p.Name, b.String(), oname, ex, got)
}

// Transition is a node value change.
//
type Transition struct {
	Time  irsim.Time
	Value irsim.Potential
}

func (tr Transition) String() string {
	return fmt.Sprintf("%c@%v", tr.Value.Char(), tr.Time)
}

// Transitions returns the effective transitions of the named node.
//
func Transitions(s *irsim.Session, name string) ([]Transition, error) {
	n, err := s.Lookup(name)
	if err != nil {
		return nil, errors.Wrap(err, "transitions")
	}
	var trs []Transition
	for _, h := range n.Transitions() {
		trs = append(trs, Transition{h.Time, h.Value})
	}
	return trs, nil
}

// Int64 returns the value of bus name as an int64. Node name[0] is the lsb.
// ok is false if any bit is X.
//
func Int64(t testing.TB, s *irsim.Session, name string, bits int) (v int64, ok bool) {
	t.Helper()
	for bit := 0; bit < bits; bit++ {
		switch Node(t, s, name+"["+strconv.Itoa(bit)+"]").Pot() {
		case irsim.High:
			v |= 1 << uint(bit)
		case irsim.Low:
		default:
			return 0, false
		}
	}
	return v, true
}

// SetInt64 forces the nodes of bus name to the bits of v. Changes take
// effect at the next simulation step.
//
func SetInt64(t testing.TB, s *irsim.Session, name string, bits int, v int64) {
	t.Helper()
	for bit := 0; bit < bits; bit++ {
		if err := s.SetInput(Node(t, s, name+"["+strconv.Itoa(bit)+"]"), inputChar(pot(v&(1<<uint(bit)) != 0))); err != nil {
			t.Fatal(err)
		}
	}
}
