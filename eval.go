package irsim

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// input list numbers
const (
	hList = 1
	lList = 2
	uList = 3
	xList = 4
)

var listPots = [5]Potential{hList: High, lList: Low, uList: X}

// SetInput changes the input status of n. val is one of 'h' (force high), 'l'
// (force low), 'u' (force X) or 'x' (release). The change takes effect at the
// next Step. Power rails can only be set to their own value and merged nodes
// cannot be driven.
//
func (s *Session) SetInput(n *Node, val byte) error {
	if !s.finished {
		return ErrNotFinished
	}
	n = n.Canonical()
	if n.flags&Merged != 0 {
		s.log.Warn("can't drive node in a merged stack", "node", n.name)
		return errors.Wrapf(ErrCantDrive, "`%s' to `%c'", n.name, val)
	}
	if n.flags&PowerRail != 0 {
		if "lxuh"[n.pot] == val {
			return nil
		}
		s.log.Warn("can't drive power supply", "node", n.name, "value", string(val))
		return errors.Wrapf(ErrCantDrive, "`%s' to `%c'", n.name, val)
	}
	list := inputNumber(n.flags)
	var want int
	switch val {
	case 'h', '1':
		want = hList
	case 'l', '0':
		want = lList
	case 'u':
		want = uList
	case 'x':
		want = xList
	default:
		return errors.Errorf("invalid input value %q", val)
	}
	if list == want {
		return nil
	}
	if list != 0 {
		n.flags &^= InputMask
		s.inputs[list] = removeNode(s.inputs[list], n.id)
	}
	if want == xList {
		if n.flags&Input == 0 {
			return nil
		}
	} else if n.flags&Input != 0 && n.pot == listPots[want] {
		return nil
	}
	n.flags = n.flags&^InputMask | NodeFlags(want<<12)
	s.inputs[want] = append(s.inputs[want], n.id)
	return nil
}

func removeNode(l []NodeID, id NodeID) []NodeID {
	for i, n := range l {
		if n == id {
			return append(l[:i], l[i+1:]...)
		}
	}
	return l
}

// Watch sets the given watch flags on n.
//
func (s *Session) Watch(n *Node, f NodeFlags) error {
	n = n.Canonical()
	if n.flags&Merged != 0 {
		s.log.Warn("can't watch node in a merged stack", "node", n.name)
		return errors.Wrap(ErrMergedNode, n.name)
	}
	n.flags |= f & UserFlags
	return nil
}

// mark flags n for evaluation.
func (s *Session) mark(id NodeID) {
	n := &s.nodes[id]
	if n.flags&(Input|Merged|Visited) != 0 {
		return
	}
	n.flags |= Visited
}

// markGated recomputes the state of the transistors gated by n and marks
// their terminals.
func (s *Session) markGated(n *Node) {
	for _, tid := range n.gates {
		t := &s.trans[tid]
		t.state = s.model.ComputeTransState(t)
		s.mark(t.source)
		s.mark(t.drain)
	}
}

// evalGated evaluates the marked terminals of the transistors gated by n, and
// if terms is set, the marked nodes across the transistors connected to n.
func (s *Session) evalGated(n *Node, terms bool) {
	s.curNode = n.id
	for _, tid := range n.gates {
		t := &s.trans[tid]
		s.evalIfMarked(t.source)
		s.evalIfMarked(t.drain)
	}
	if terms {
		for _, tid := range n.terms {
			s.evalIfMarked(s.trans[tid].other(n.id))
		}
	}
}

func (s *Session) evalIfMarked(id NodeID) {
	nd := &s.nodes[id]
	if nd.flags&Visited != 0 && nd.flags&(Input|Merged) == 0 {
		s.model.Evaluate(nd)
	}
}

// applyInputs applies the pending input changes.
func (s *Session) applyInputs() {
	xs := s.inputs[xList]
	s.inputs[xList] = nil
	for _, id := range xs {
		n := &s.nodes[id]
		n.flags &^= Input | InputMask
		n.flags |= Visited
		s.addHist(n, n.pot, false, s.curDelta, 0, 0)
	}

	var set []NodeID
	for l := hList; l <= uList; l++ {
		for _, id := range s.inputs[l] {
			n := &s.nodes[id]
			for n.events != nil {
				s.puntEvent(n, n.events)
			}
			n.pot = listPots[l]
			n.time = s.curDelta
			n.cause = id
			n.flags = n.flags&^(InputMask|Visited) | Input
			s.addHist(n, n.pot, true, s.curDelta, 0, 0)
			s.markGated(n)
			for _, tid := range n.terms {
				s.mark(s.trans[tid].other(id))
			}
			set = append(set, id)
		}
		s.inputs[l] = nil
	}

	for _, id := range xs {
		s.curNode = id
		s.evalIfMarked(id)
	}
	for _, id := range set {
		s.evalGated(&s.nodes[id], true)
	}
	s.curNode = nilNode
}

// fire applies a single event and reports whether the node value changed.
func (s *Session) fire(ev *Event) bool {
	n := &s.nodes[ev.node]
	s.numEvents++
	s.metrics.events.Inc()
	val := ev.val
	if val == Decay {
		val = X
	}
	if n.pot == val || n.flags&Input != 0 {
		return false
	}
	n.pot = val
	n.time = ev.ntime
	n.cause = ev.cause
	s.addHist(n, val, false, ev.ntime, ev.delay, ev.rtime)
	if n.flags&Watched != 0 {
		s.log.Info("watched node changed", "node", n.name, "value", val.String(), "time", ev.ntime.String())
	}
	s.markGated(n)
	return true
}

// Step applies pending input changes and fires events up to time stop. It
// returns true if the simulation stopped before stop because a node flagged
// with StopOnChange or StopVecChange changed; the current time is then the
// time of that change. Otherwise the current time is advanced to stop.
//
func (s *Session) Step(stop Time) bool {
	if !s.finished {
		return false
	}
	s.applyInputs()
	interrupted := false
	for !interrupted {
		evs := s.nextTick(stop)
		if evs == nil {
			break
		}
		s.curDelta = evs[0].ntime
		var which NodeFlags
		var changed []*Event
		for _, ev := range evs {
			if s.fire(ev) {
				changed = append(changed, ev)
				n := &s.nodes[ev.node]
				which |= n.flags & (WatchVector | StopVecChange | StopOnChange)
			}
		}
		for _, ev := range changed {
			s.evalGated(&s.nodes[ev.node], false)
		}
		s.curNode = nilNode
		if which&(WatchVector|StopVecChange) != 0 && s.analyzer != nil {
			s.analyzer.WatchChanged(which & (WatchVector | StopVecChange))
		}
		interrupted = which&(StopOnChange|StopVecChange) != 0
	}
	if !interrupted && stop > s.curDelta {
		s.curDelta = stop
	}
	s.metrics.pending.Set(float64(len(s.queue)))
	return interrupted
}

// Relax runs the simulation until time stop, going through interruptions
// caused by stop flags. It returns early if ctx is canceled.
//
func (s *Session) Relax(ctx context.Context, stop Time) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "irsim.Relax",
		trace.WithAttributes(attribute.Int64("stop", int64(stop))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int64("events", s.numEvents))
		span.End()
	}()
	if !s.finished {
		return ErrNotFinished
	}
	for s.Step(stop) {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "relax")
		}
	}
	return nil
}

// clearInputs drops pending input changes and the input status of all nodes
// except power rails.
func (s *Session) clearInputs() {
	for l := range s.inputs {
		s.inputs[l] = nil
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.flags&PowerRail == 0 {
			n.flags &^= Input | InputMask
		}
	}
}

// BackTime moves the simulation back to time t, which must not be earlier
// than StartTime nor later than Now. Events created before t but due after it
// are pending again, inputs are restored to their state at t and later
// history is discarded.
//
func (s *Session) BackTime(t Time) error {
	if !s.finished {
		return ErrNotFinished
	}
	if t < s.simTime0 || t > s.curDelta {
		return invalidTime(t, s.simTime0, s.curDelta)
	}
	s.curDelta = t
	s.clearInputs()
	s.backSimTime(t)
	s.curNode = nilNode
	for i := range s.nodes {
		s.backToTime(&s.nodes[i])
	}
	if t == 0 {
		s.ReInit()
	}
	s.metrics.pending.Set(float64(len(s.queue)))
	return nil
}

// ReInit resets the simulation to time 0: all nodes but power rails go back
// to X, pending events are discarded and histories are cleared. Statistics
// counters are kept.
//
func (s *Session) ReInit() {
	s.curDelta = 0
	s.simTime0 = 0
	s.curNode = nilNode
	s.clearInputs()
	s.clearQueue()
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.flags&(Alias|Merged) != 0 {
			continue
		}
		h := &s.hist[n.head]
		s.freeHistList(h.next)
		h.next = lastHist
		n.curr = n.head
		n.time = 0
		n.cause = nilNode
		// FlushHist may have moved the head forward
		h.time, h.delay, h.rtime, h.cause = 0, 0, 0, nilNode
		if n.flags&PowerRail == 0 {
			h.val, h.inp = X, false
		}
		n.pot = h.val
	}
	for i := range s.trans {
		t := &s.trans[i]
		if t.typ&(OrList|TCap) == 0 {
			t.state = s.model.ComputeTransState(t)
		}
	}
	s.metrics.pending.Set(0)
}
