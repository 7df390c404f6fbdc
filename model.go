package irsim

// Model is a timing model. It computes transistor states and evaluates the
// stages affected by node changes, scheduling the resulting transitions.
//
type Model interface {
	// Kind returns the model kind.
	Kind() ModelKind
	// ComputeTransState returns the conduction state of t for the current
	// value of its gate.
	ComputeTransState(t *Trans) TransState
	// Evaluate computes the new values of the nodes in the stage of n and
	// schedules the resulting events.
	Evaluate(n *Node)
}

func newModel(s *Session, k ModelKind) Model {
	if k == RC {
		return newRCModel(s)
	}
	return &linearModel{s: s}
}

// transState returns the state of t from the value of its gate.
func transState(t *Trans) TransState {
	switch t.typ.BaseType() {
	case NChan:
		switch t.s.nodes[t.gate].pot {
		case Low:
			return Off
		case High:
			return On
		}
		return Unknown
	case PChan:
		switch t.s.nodes[t.gate].pot {
		case Low:
			return On
		case High:
			return Off
		}
		return Unknown
	}
	return Weak
}

// queueFinal schedules a transition of nd to val after delay deltas. Pending
// events due at or after that time are punted, except an identical event
// due at the same time. Nothing is scheduled if the last pending value, or the
// current value if none, is already val.
func (s *Session) queueFinal(nd *Node, val Potential, tau, delay Time) {
	delta := s.curDelta + delay
	if delta == s.curDelta {
		delta++
	}
	var ev *Event
	for {
		ev = nd.events
		if ev == nil || ev.ntime < delta {
			break
		}
		if ev.ntime == delta && ev.val == val {
			break
		}
		s.puntEvent(nd, ev)
	}
	last := nd.pot
	if ev != nil {
		last = ev.val
	}
	if val != last {
		s.enqueue(nd.id, val, delta-s.curDelta, tau, evNormal)
	}
}
