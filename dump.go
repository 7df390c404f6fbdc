package irsim

import (
	"io"
)

// PrintPending writes the pending events to w in firing order.
//
func (s *Session) PrintPending(w io.Writer) error {
	ew := &errWriter{w: w}
	evs := s.PendingEvents()
	if len(evs) == 0 {
		ew.printf("no pending events\n")
	}
	for _, ev := range evs {
		kind := ""
		if ev.Decay {
			kind = " (decay)"
		}
		cause := "<input>"
		if ev.Cause != nil {
			cause = ev.Cause.name
		}
		ew.printf("%s -> %c @ %v%s, delay %v, caused by %s\n",
			ev.Node.name, ev.Value.Char(), ev.Time, kind, ev.Delay, cause)
	}
	return ew.err
}

// PrintHistory writes the history of n to w, punted events included.
//
func (s *Session) PrintHistory(w io.Writer, n *Node) error {
	ew := &errWriter{w: w}
	n = n.Canonical()
	ew.printf("History of %s:\n", n.name)
	for _, h := range n.History() {
		switch {
		case h.Punted:
			ew.printf("  %c @ %v  (punted @ %v, delay %v)\n", h.Value.Char(), h.Time, h.PuntTime, h.Delay)
		case h.Input:
			ew.printf("  %c @ %v  (input)\n", h.Value.Char(), h.Time)
		default:
			ew.printf("  %c @ %v  (delay %v, rise %v)\n", h.Value.Char(), h.Time, h.Delay, h.RiseTime)
		}
	}
	return ew.err
}

// Stats holds simulation statistics.
//
type Stats struct {
	Nodes, Aliases int
	Transistors    [4]int // by base type
	Parallel       [4]int
	Shorted        int
	Changes        int64 // effective transitions
	Punted         int64
	ConsPunted     int64 // punted events following another punted event
	Events         int64
	// average number of gate and source/drain connections per node
	GatesPerNode, TermsPerNode float64
}

// Stats returns the session statistics.
//
func (s *Session) Stats() Stats {
	st := Stats{
		Nodes:       s.numNodes,
		Aliases:     s.numAliases,
		Transistors: s.numTrans,
		Parallel:    s.numOred,
		Shorted:     s.numShorted,
		Changes:     s.numEdges,
		Punted:      s.numPunted,
		ConsPunted:  s.numConsPunted,
		Events:      s.numEvents,
	}
	var ng, nt int
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.flags&(Alias|PowerRail) != 0 {
			continue
		}
		ng += len(n.gates)
		nt += len(n.terms)
	}
	if s.numNodes > 0 {
		st.GatesPerNode = float64(ng) / float64(s.numNodes)
		st.TermsPerNode = float64(nt) / float64(s.numNodes)
	}
	return st
}

// PuntRatio returns the percentage of punted events relative to effective
// changes and the percentage of consecutive punts among punted events.
//
func (st *Stats) PuntRatio() (punts, cons float64) {
	if st.Punted == 0 {
		return 0, 0
	}
	return 100 / (float64(st.Changes)/float64(st.Punted) + 1), float64(st.ConsPunted) * 100 / float64(st.Punted)
}

// WriteStats writes the session statistics to w.
//
func (s *Session) WriteStats(w io.Writer) error {
	st := s.Stats()
	ew := &errWriter{w: w}
	ew.printf("%s\n", s.Summary())
	ew.printf("avg: # gates/node = %.2f,  # src-drn/node = %.2f\n", st.GatesPerNode, st.TermsPerNode)
	ew.printf("changes = %d\n", st.Changes)
	ew.printf("punts (cns) = %d (%d)\n", st.Punted, st.ConsPunted)
	p, c := st.PuntRatio()
	ew.printf("punts = %.2f%%, cons_punted = %.2f%%\n", p, c)
	ew.printf("nevents = %d\n", st.Events)
	return ew.err
}

// PrintShorted writes the list of shorted transistors to w.
//
func (s *Session) PrintShorted(w io.Writer) error {
	ew := &errWriter{w: w}
	for _, t := range s.Shorted() {
		l, wd := t.Size()
		ew.printf("%s (shorted) L=%g W=%g @ (%d,%d)\n", t, l/100, wd/100, t.x, t.y)
	}
	return ew.err
}

// PrintNode writes the state and connections of n to w.
//
func (s *Session) PrintNode(w io.Writer, n *Node) error {
	ew := &errWriter{w: w}
	if n.flags&Alias != 0 {
		ew.printf("%s is an alias for ", n.name)
		n = n.Canonical()
	}
	ew.printf("%s=%c", n.name, n.pot.Char())
	if n.flags&Input != 0 {
		ew.printf(" (input)")
	}
	lo, hi := n.Thresholds()
	ew.printf(" @ %v, C=%.4gpF, Vt=%.2f/%.2f", n.time, n.cap, lo, hi)
	if tplh, tphl, ok := n.Delays(); ok {
		ew.printf(", tplh=%v tphl=%v", tplh, tphl)
	}
	ew.printf("\n")
	for _, t := range n.Gates() {
		ew.printf("  gate of %s [%s]\n", t, t.state)
	}
	for _, t := range n.Terms() {
		ew.printf("  src/drn of %s [%s]\n", t, t.state)
	}
	for _, ev := range n.Events() {
		ew.printf("  pending %c @ %v\n", ev.Value.Char(), ev.Time)
	}
	return ew.err
}
