package irsim_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/db47h/irsim"
	"github.com/db47h/irsim/irtest"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

const inverter = `p in vdd out 2 8
n in out gnd 2 4
`

const chain = `p in vdd a 2 8
n in a gnd 2 4
p a vdd out 2 8
n a out gnd 2 4
`

func relax(t *testing.T, s *irsim.Session, ns float64) {
	t.Helper()
	if err := s.Relax(context.Background(), s.Now()+irsim.NSToDelta(ns)); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
}

func setInput(t *testing.T, s *irsim.Session, name string, val byte) {
	t.Helper()
	if err := s.SetInput(irtest.Node(t, s, name), val); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
}

func TestInverter_settle(t *testing.T) {
	for _, m := range []irsim.ModelKind{irsim.Linear, irsim.RC} {
		t.Run(m.String(), func(t *testing.T) {
			cfg := irsim.DefaultConfig()
			cfg.Model = m
			s := irtest.LoadSession(t, cfg, inverter)
			setInput(t, s, "in", 'h')
			relax(t, s, 100)
			out := irtest.Node(t, s, "out")
			trs := out.Transitions()
			if len(trs) != 1 || trs[0].Value != irsim.Low {
				t.Fatalf("got transitions %v", trs)
			}
			relax(t, s, 100)
			if n := len(out.Transitions()); n != 1 {
				t.Fatalf("got %d transitions, expected 1", n)
			}
			if c := out.Cause(); c == nil || c.Name() != "in" {
				t.Fatalf("cause of out is %v", c)
			}
		})
	}
}

func TestAlias(t *testing.T) {
	s, err := irsim.NewSession(nil)
	if err != nil {
		t.Fatal(err)
	}
	const n = 10
	for i := 1; i < n; i++ {
		if err = s.Alias(nodeName(i), nodeName(i-1)); err != nil {
			t.Fatal(err)
		}
	}
	last := lookup(t, s, nodeName(n-1))
	for i := 0; i < n; i++ {
		nd := lookup(t, s, nodeName(i))
		if nd != last {
			t.Fatalf("%s resolves to %s, expected %s", nodeName(i), nd.Name(), last.Name())
		}
		if nd.Flags(irsim.Alias) != 0 {
			t.Fatalf("%s resolves to an alias", nodeName(i))
		}
	}
	if err = s.Alias("vdd", "gnd"); err == nil {
		t.Fatal("aliased the power supplies")
	}
	if !strings.Contains(s.Summary(), "9 aliases") {
		t.Fatalf("unexpected summary %q", s.Summary())
	}
}

func nodeName(i int) string { return "n" + string(rune('0'+i)) }

func lookup(t *testing.T, s *irsim.Session, name string) *irsim.Node {
	t.Helper()
	n, err := s.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

func TestParallel(t *testing.T) {
	s := irtest.LoadSession(t, nil, `n g a b 2 4
n g a b 2 4
n g b a 2 4
n g a c 2 4
n g a c 2 8
`)
	ts := s.Transistors()
	if len(ts) != 2 {
		t.Fatalf("got %d transistors, expected 2", len(ts))
	}
	for _, tr := range ts {
		ms := tr.Members()
		switch tr.Drain().Name() {
		case "b":
			if len(ms) != 3 {
				t.Fatalf("got %d members, expected 3", len(ms))
			}
			r := ms[0].Resists()
			got := tr.Resists()
			if !closeTo(got.Static, r.Static/3) || !closeTo(got.DynHigh, r.DynHigh/3) || !closeTo(got.DynLow, r.DynLow/3) {
				t.Fatalf("got %+v, expected %+v / 3", got, r)
			}
		case "c":
			if len(ms) != 2 {
				t.Fatalf("got %d members, expected 2", len(ms))
			}
			r1, r2 := ms[0].Resists().Static, ms[1].Resists().Static
			if r1 == r2 {
				t.Fatal("members should have different resistances")
			}
			if got := tr.Resists().Static; !closeTo(got, r1*r2/(r1+r2)) {
				t.Fatalf("got %g, expected %g", got, r1*r2/(r1+r2))
			}
		default:
			t.Fatalf("unexpected transistor %v", tr)
		}
	}
	if a := lookup(t, s, "a"); len(a.Terms()) != 2 {
		t.Fatalf("a has %d terminals, expected 2", len(a.Terms()))
	}
	if g := lookup(t, s, "g"); len(g.Gates()) != 2 {
		t.Fatalf("g gates %d transistors, expected 2", len(g.Gates()))
	}
}

func TestShorted(t *testing.T) {
	s := irtest.LoadSession(t, nil, `n g a a 2 4
p g vdd gnd 2 4
n g a gnd 2 4
`)
	sh := s.Shorted()
	if len(sh) != 2 {
		t.Fatalf("got %d shorted transistors, expected 2", len(sh))
	}
	for _, tr := range sh {
		for _, n := range []*irsim.Node{tr.Gate(), tr.Source(), tr.Drain()} {
			for _, u := range append(n.Gates(), n.Terms()...) {
				if u == tr {
					t.Fatalf("shorted transistor %v connected to %s", tr, n.Name())
				}
			}
		}
	}
	a := lookup(t, s, "a")
	if len(a.Terms()) != 1 || len(lookup(t, s, "g").Gates()) != 1 {
		t.Fatal("wrong connections")
	}
	var b bytes.Buffer
	if err := s.PrintShorted(&b); err != nil {
		t.Fatal(err)
	}
	if strings.Count(b.String(), "\n") != 2 {
		t.Fatalf("unexpected output:\n%s", b.String())
	}
}

func TestPunt(t *testing.T) {
	s := irtest.LoadSession(t, nil, inverter+"D out 10 1\n")
	setInput(t, s, "in", 'l')
	relax(t, s, 5)
	setInput(t, s, "in", 'h')
	relax(t, s, 20)

	out := irtest.Node(t, s, "out")
	if out.Pot() != irsim.Low {
		t.Fatalf("out = %v, expected 0", out.Pot())
	}
	var punted, effective []irsim.HistEntry
	for i, h := range out.History() {
		switch {
		case h.Punted:
			punted = append(punted, h)
		case i > 0:
			effective = append(effective, h)
		}
	}
	if len(punted) != 1 || punted[0].Value != irsim.High || punted[0].Time != irsim.NSToDelta(10) {
		t.Fatalf("got punted entries %+v", punted)
	}
	if punted[0].PuntTime != irsim.NSToDelta(5) {
		t.Fatalf("punted at %v, expected 5ns", punted[0].PuntTime)
	}
	if len(effective) != 1 || effective[0].Value != irsim.Low || effective[0].Time != irsim.NSToDelta(6) {
		t.Fatalf("got effective entries %+v", effective)
	}
	st := s.Stats()
	if st.Punted != 1 {
		t.Fatalf("%d punted events, expected 1", st.Punted)
	}
}

func TestIdempotentInput(t *testing.T) {
	s := irtest.LoadSession(t, nil, inverter)
	calls := 0
	s.SetAnalyzer(irsim.AnalyzerFunc(func(which irsim.NodeFlags) {
		if which&irsim.WatchVector == 0 {
			t.Errorf("unexpected flags %x", which)
		}
		calls++
	}))
	if err := s.Watch(irtest.Node(t, s, "out"), irsim.WatchVector); err != nil {
		t.Fatal(err)
	}
	setInput(t, s, "in", 'h')
	relax(t, s, 10)
	in, out := irtest.Node(t, s, "in"), irtest.Node(t, s, "out")
	nIn, nOut := len(in.History()), len(out.History())
	if calls != 1 {
		t.Fatalf("analyzer called %d times, expected 1", calls)
	}
	setInput(t, s, "in", 'h')
	relax(t, s, 10)
	if len(in.History()) != nIn || len(out.History()) != nOut {
		t.Fatal("history changed")
	}
	if calls != 1 {
		t.Fatalf("analyzer called %d times, expected 1", calls)
	}
	if len(s.PendingEvents()) != 0 {
		t.Fatal("unexpected pending events")
	}
}

func TestSetInput_errors(t *testing.T) {
	s, err := irsim.NewSession(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err = s.SetInput(s.Vdd(), 'h'); errors.Cause(err) != irsim.ErrNotFinished {
		t.Fatalf("got error %v, expected %v", err, irsim.ErrNotFinished)
	}
	s = irtest.LoadSession(t, nil, inverter)
	if err = s.SetInput(s.Vdd(), 'h'); err != nil {
		t.Fatal(err)
	}
	if err = s.SetInput(s.Gnd(), 'h'); errors.Cause(err) != irsim.ErrCantDrive {
		t.Fatalf("got error %v, expected %v", err, irsim.ErrCantDrive)
	}
	if err = s.SetInput(irtest.Node(t, s, "in"), 'z'); err == nil {
		t.Fatal("expected error")
	}
	if _, err = s.Lookup("nope"); errors.Cause(err) != irsim.ErrUnknownNode {
		t.Fatalf("got error %v, expected %v", err, irsim.ErrUnknownNode)
	}
	if err = s.PutTransistor("a", "b", "c", 2, 4, 0, 0, 0, 0, true); errors.Cause(err) != irsim.ErrFinished {
		t.Fatalf("got error %v, expected %v", err, irsim.ErrFinished)
	}
}

func TestRelease(t *testing.T) {
	s := irtest.LoadSession(t, nil, inverter)
	setInput(t, s, "in", 'h')
	relax(t, s, 10)
	in := irtest.Node(t, s, "in")
	if in.Flags(irsim.Input) == 0 {
		t.Fatal("in is not an input")
	}
	setInput(t, s, "in", 'x')
	relax(t, s, 10)
	if in.Flags(irsim.Input) != 0 {
		t.Fatal("in is still an input")
	}
	// nothing drives in anymore, it keeps its charge
	if in.Pot() != irsim.High {
		t.Fatalf("in = %v, expected 1", in.Pot())
	}
}

func TestCPath(t *testing.T) {
	s := irtest.LoadSession(t, nil, chain)
	setInput(t, s, "in", 'h')
	relax(t, s, 10)
	var b bytes.Buffer
	if err := s.CPath(&b, irtest.Node(t, s, "out")); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("unexpected output:\n%s", b.String())
	}
	if lines[0] != "critical path for last transition of out:" ||
		!strings.HasSuffix(lines[1], "node was an input") ||
		!strings.HasPrefix(lines[2], "  a -> 0 @ ") ||
		!strings.HasPrefix(lines[3], "  out -> 1 @ ") {
		t.Fatalf("unexpected output:\n%s", b.String())
	}

	b.Reset()
	s = irtest.LoadSession(t, nil, chain)
	if err := s.CPath(&b, irtest.Node(t, s, "out")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "there is no previous transition!") {
		t.Fatalf("unexpected output:\n%s", b.String())
	}
}

func TestStats(t *testing.T) {
	s := irtest.LoadSession(t, nil, chain)
	setInput(t, s, "in", 'h')
	relax(t, s, 10)
	st := s.Stats()
	if st.Nodes != 5 || st.Transistors[irsim.NChan] != 2 || st.Transistors[irsim.PChan] != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.Events != 2 {
		t.Fatalf("%d events, expected 2", st.Events)
	}
	var b bytes.Buffer
	if err := s.WriteStats(&b); err != nil {
		t.Fatal(err)
	}
	for _, l := range []string{"5 nodes", "nevents = 2", "punts (cns) = 0 (0)"} {
		if !strings.Contains(b.String(), l) {
			t.Fatalf("%q not found in:\n%s", l, b.String())
		}
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := irsim.DefaultConfig()
	cfg.Registerer = reg
	s := irtest.LoadSession(t, cfg, chain)
	setInput(t, s, "in", 'h')
	relax(t, s, 10)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]float64)
	for _, mf := range mfs {
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			got[mf.GetName()] = c.GetValue()
		} else if g := m.GetGauge(); g != nil {
			got[mf.GetName()] = g.GetValue()
		}
	}
	if got["irsim_events_total"] != 2 {
		t.Errorf("events_total = %g, expected 2", got["irsim_events_total"])
	}
	// in, a and out changed
	if got["irsim_history_entries_total"] != 3 {
		t.Errorf("history_entries_total = %g, expected 3", got["irsim_history_entries_total"])
	}
	if got["irsim_pending_events"] != 0 {
		t.Errorf("pending_events = %g, expected 0", got["irsim_pending_events"])
	}
}

func TestStep_stop(t *testing.T) {
	data := []struct {
		name    string
		flags   irsim.NodeFlags
		stopped bool
		calls   int
	}{
		{"watched", irsim.Watched, false, 0},
		{"vector", irsim.WatchVector, false, 1},
		{"stop", irsim.StopOnChange, true, 0},
		{"stop_vector", irsim.StopVecChange, true, 1},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			s := irtest.LoadSession(t, nil, chain)
			out := irtest.Node(t, s, "out")
			if err := s.Watch(out, d.flags); err != nil {
				t.Fatal(err)
			}
			calls := 0
			s.SetAnalyzer(irsim.AnalyzerFunc(func(which irsim.NodeFlags) {
				calls++
				if which&^(irsim.WatchVector|irsim.StopVecChange) != 0 {
					t.Errorf("unexpected flags %#x", which)
				}
			}))
			setInput(t, s, "in", 'h')
			stop := s.Now() + irsim.NSToDelta(10)
			if got := s.Step(stop); got != d.stopped {
				t.Fatalf("Step returned %v, expected %v", got, d.stopped)
			}
			if out.Pot() != irsim.High {
				t.Fatalf("out = %v, expected 1", out.Pot())
			}
			if d.stopped {
				if s.Now() != out.Time() || s.Now() >= stop {
					t.Fatalf("stopped at %v, out changed at %v", s.Now(), out.Time())
				}
				if s.Step(stop) {
					t.Fatal("second Step interrupted")
				}
			}
			if s.Now() != stop {
				t.Fatalf("time is %v, expected %v", s.Now(), stop)
			}
			if calls != d.calls {
				t.Fatalf("analyzer called %d times, expected %d", calls, d.calls)
			}

			// Relax goes through interruptions
			setInput(t, s, "in", 'l')
			relax(t, s, 10)
			if s.Now() != stop+irsim.NSToDelta(10) || out.Pot() != irsim.Low {
				t.Fatalf("time %v, out = %v", s.Now(), out.Pot())
			}
		})
	}
}

func TestMaxParallel(t *testing.T) {
	var nl strings.Builder
	nl.WriteString("n in out gnd 2 4\n")
	for i := 0; i < irsim.MaxParallel+2; i++ {
		fmt.Fprintf(&nl, "n ga out m%d 2 4\nn gb out m%d 2 4\n", i, i)
	}
	const msg = "too many transistors in parallel"
	for _, d := range []struct {
		model irsim.ModelKind
		warns int
	}{{irsim.Linear, 0}, {irsim.RC, 1}} {
		t.Run(d.model.String(), func(t *testing.T) {
			var b bytes.Buffer
			cfg := irsim.DefaultConfig()
			cfg.Model = d.model
			cfg.Logger = slog.New(slog.NewTextHandler(&b, nil))
			s := irtest.LoadSession(t, cfg, nl.String())
			for _, in := range []string{"in", "ga", "gb"} {
				setInput(t, s, in, 'h')
			}
			relax(t, s, 10)
			setInput(t, s, "in", 'l')
			relax(t, s, 10)
			if n := strings.Count(b.String(), msg); n != d.warns {
				t.Fatalf("%d warnings, expected %d:\n%s", n, d.warns, b.String())
			}
		})
	}
}

func TestDecay(t *testing.T) {
	const pass = "n en in out 2 4\n"
	for _, d := range []struct {
		name  string
		decay float64
	}{{"off", 0}, {"5ns", 5}} {
		t.Run(d.name, func(t *testing.T) {
			cfg := irsim.DefaultConfig()
			cfg.Model = irsim.RC
			cfg.Decay = irsim.NSToDelta(d.decay)
			s := irtest.LoadSession(t, cfg, pass)
			out := irtest.Node(t, s, "out")
			setInput(t, s, "in", 'l')
			setInput(t, s, "en", 'h')
			relax(t, s, 10)
			if out.Pot() != irsim.Low {
				t.Fatalf("out = %v, expected 0", out.Pot())
			}

			// isolate out
			off := s.Now()
			setInput(t, s, "en", 'l')
			relax(t, s, 1)
			evs := s.PendingEvents()
			if d.decay == 0 {
				if len(evs) != 0 {
					t.Fatalf("unexpected events %v", evs)
				}
				relax(t, s, 10)
				if out.Pot() != irsim.Low {
					t.Fatalf("out = %v, expected 0", out.Pot())
				}
				return
			}
			if len(evs) != 1 || !evs[0].Decay || evs[0].Node != out || evs[0].Time != off+cfg.Decay {
				t.Fatalf("unexpected events %+v", evs)
			}
			relax(t, s, 10)
			if out.Pot() != irsim.X || out.Time() != off+cfg.Decay {
				t.Fatalf("out = %v @ %v, expected X @ %v", out.Pot(), out.Time(), off+cfg.Decay)
			}
		})
	}
}

func TestSetModel(t *testing.T) {
	s := irtest.LoadSession(t, nil, chain)
	out := irtest.Node(t, s, "out")
	setInput(t, s, "in", 'h')
	relax(t, s, 10)
	if err := s.Enqueue(out, irsim.Low, irsim.NSToDelta(50)); err != nil {
		t.Fatal(err)
	}
	if len(s.PendingEvents()) != 1 {
		t.Fatal("event not queued")
	}
	if err := s.SetModel(irsim.ModelKind(7)); err == nil {
		t.Fatal("expected error")
	}
	if err := s.SetModel(irsim.RC); err != nil {
		t.Fatal(err)
	}
	if s.Config().Model != irsim.RC || len(s.PendingEvents()) != 0 {
		t.Fatal("model not switched")
	}
	for _, d := range []struct {
		in  byte
		out irsim.Potential
	}{{'l', irsim.Low}, {'h', irsim.High}} {
		setInput(t, s, "in", d.in)
		relax(t, s, 10)
		if out.Pot() != d.out {
			t.Fatalf("in = %c: out = %v, expected %v", d.in, out.Pot(), d.out)
		}
	}
}

// osc is a ring oscillator.
const osc = `p c vdd a 2 8
n c a gnd 2 4
p a vdd b 2 8
n a b gnd 2 4
p b vdd c 2 8
n b c gnd 2 4
`

func TestCPath_loop(t *testing.T) {
	s := irtest.LoadSession(t, nil, osc)
	if err := s.Enqueue(irtest.Node(t, s, "a"), irsim.High, 1); err != nil {
		t.Fatal(err)
	}
	relax(t, s, 10)
	var last *irsim.Node
	for _, name := range []string{"a", "b", "c"} {
		n := irtest.Node(t, s, name)
		if len(n.Transitions()) < 3 {
			t.Fatalf("%s is not oscillating", name)
		}
		if last == nil || n.Time() > last.Time() {
			last = n
		}
	}
	var b bytes.Buffer
	if err := s.CPath(&b, last); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 5 || lines[1] != "  ... loop in traceback" ||
		!strings.HasPrefix(lines[4], "  "+last.Name()+" -> ") {
		t.Fatalf("unexpected output:\n%s", b.String())
	}
}

func TestMerged(t *testing.T) {
	var b bytes.Buffer
	cfg := irsim.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&b, nil))
	s := irtest.LoadSession(t, cfg, chain)
	a := irtest.Node(t, s, "a")
	irsim.MarkMerged(a)
	if err := s.SetInput(a, 'h'); errors.Cause(err) != irsim.ErrCantDrive {
		t.Fatalf("got error %v, expected %v", err, irsim.ErrCantDrive)
	}
	if !strings.Contains(b.String(), "can't drive node in a merged stack") {
		t.Fatalf("no diagnostic logged:\n%s", b.String())
	}
	if err := s.Watch(a, irsim.Watched); errors.Cause(err) != irsim.ErrMergedNode {
		t.Fatalf("got error %v, expected %v", err, irsim.ErrMergedNode)
	}
	if err := s.Enqueue(a, irsim.High, 1); errors.Cause(err) != irsim.ErrMergedNode {
		t.Fatalf("got error %v, expected %v", err, irsim.ErrMergedNode)
	}

	// a is never evaluated
	setInput(t, s, "in", 'h')
	relax(t, s, 10)
	if a.Pot() != irsim.X || len(a.Transitions()) != 0 {
		t.Fatalf("merged node changed to %v", a.Pot())
	}
}

func TestSetFlags(t *testing.T) {
	s := irtest.LoadSession(t, nil, inverter)
	out := irtest.Node(t, s, "out")
	out.SetFlags(irsim.Input | irsim.PowerRail | irsim.Merged | irsim.StopOnChange)
	mask := irsim.Input | irsim.PowerRail | irsim.Merged | irsim.StopOnChange
	if f := out.Flags(mask); f != irsim.StopOnChange {
		t.Fatalf("flags = %#x, expected %#x", f, irsim.StopOnChange)
	}
	s.Vdd().ClearFlags(irsim.Input | irsim.PowerRail)
	if s.Vdd().Flags(irsim.Input|irsim.PowerRail) != irsim.Input|irsim.PowerRail {
		t.Fatal("power supply flags cleared")
	}
	out.ClearFlags(irsim.StopOnChange)
	if out.Flags(irsim.UserFlags) != 0 {
		t.Fatal("flag not cleared")
	}
}
