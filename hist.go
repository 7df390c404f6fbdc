package irsim

// HistID identifies a history entry.
//
type HistID int32

// lastHist is the sentinel terminating every history list.
const lastHist HistID = 0

type histEnt struct {
	next  HistID
	time  Time
	val   Potential
	inp   bool
	punt  bool
	delay Time
	rtime Time
	ptime Time // punted entries: time left before the event was due when punted
	cause NodeID
}

// HistEntry is a node history entry as returned by Node.History.
//
type HistEntry struct {
	Time  Time
	Value Potential
	// Input is set for changes of forced input nodes.
	Input bool
	// Punted is set for events that were scheduled but never fired.
	Punted bool
	// PuntTime is the time at which a punted event was removed.
	PuntTime Time
	Delay    Time
	RiseTime Time
}

func (s *Session) initHist() {
	s.hist = append(s.hist[:0], histEnt{next: lastHist, time: MaxTime, val: X, inp: true, cause: nilNode})
	s.freeHist = lastHist
}

func (s *Session) allocHist(h histEnt) HistID {
	if s.freeHist != lastHist {
		id := s.freeHist
		s.freeHist = s.hist[id].next
		s.hist[id] = h
		return id
	}
	s.hist = append(s.hist, h)
	return HistID(len(s.hist) - 1)
}

// freeHistList frees entries from h up to, but not including, lastHist.
func (s *Session) freeHistList(h HistID) {
	for h != lastHist {
		next := s.hist[h].next
		s.hist[h].next = s.freeHist
		s.freeHist = h
		h = next
	}
}

// nextHist returns the first effective entry following h.
func (s *Session) nextHist(h HistID) HistID {
	h = s.hist[h].next
	for s.hist[h].punt {
		h = s.hist[h].next
	}
	return h
}

// addHist appends an effective change to the history of n and makes it the
// current entry. The current cause of n is recorded with the change.
func (s *Session) addHist(n *Node, val Potential, inp bool, time, delay, rtime Time) {
	s.numEdges++
	s.metrics.history.Inc()
	curr := n.curr
	for s.hist[s.hist[curr].next].punt {
		curr = s.hist[curr].next
	}
	h := s.allocHist(histEnt{
		next:  s.hist[curr].next,
		time:  time,
		val:   val,
		inp:   inp,
		delay: delay,
		rtime: rtime,
		cause: n.cause,
	})
	s.hist[curr].next = h
	n.curr = h
}

// addPunted records a punted event after the current entry of n. Consecutive
// punted entries are kept in punt order. The current entry is not changed.
func (s *Session) addPunted(n *Node, ev *Event, tim Time) {
	s.numPunted++
	s.metrics.punted.Inc()
	h := n.curr
	if s.hist[s.hist[h].next].punt {
		s.numConsPunted++
		for s.hist[s.hist[h].next].punt {
			h = s.hist[h].next
		}
	}
	p := s.allocHist(histEnt{
		next:  s.hist[h].next,
		time:  ev.ntime,
		val:   ev.val,
		punt:  true,
		delay: ev.delay,
		rtime: ev.rtime,
		ptime: ev.ntime - tim,
		cause: ev.cause,
	})
	s.hist[h].next = p
}

// backToTime rewinds the history of n to the current time. Entries created
// before the current time but effective after it are put back in the event
// queue, everything else past the current time is discarded.
func (s *Session) backToTime(n *Node) {
	if n.flags&(Alias|Merged) != 0 {
		return
	}
	h := n.head
	for p := s.nextHist(h); s.hist[p].time < s.curDelta; p = s.nextHist(p) {
		h = p
	}
	n.curr = h

	p := h
	h = s.hist[p].next
	for ; ; p, h = h, s.hist[h].next {
		e := &s.hist[h]
		if e.punt {
			if e.time-e.ptime < s.curDelta {
				continue
			}
			if q := e.time - e.delay; q < s.curDelta {
				s.requeue(n, e, q)
			}
			s.hist[p].next = e.next
			e.next = s.freeHist
			s.freeHist = h
			h = p
			continue
		}
		q := e.time - e.delay
		if q >= s.curDelta {
			break
		}
		s.requeue(n, e, q)
		s.hist[p].next = e.next
		e.next = s.freeHist
		s.freeHist = h
		h = p
	}
	s.hist[p].next = lastHist
	s.freeHistList(h)

	c := &s.hist[n.curr]
	n.pot = c.val
	n.time = c.time
	n.cause = c.cause
	if c.inp {
		n.flags |= Input
	}
	for _, t := range n.gates {
		tr := &s.trans[t]
		tr.state = s.model.ComputeTransState(tr)
	}
}

// requeue enqueues the event described by e as if it had been created at
// time q.
func (s *Session) requeue(n *Node, e *histEnt, q Time) {
	cur, node := s.curDelta, s.curNode
	s.curDelta, s.curNode = q, e.cause
	s.enqueue(n.id, e.val, e.delay, e.rtime, evNormal)
	s.curDelta, s.curNode = cur, node
}

// FlushHist discards history entries older than t. The last change before t
// becomes the head of each history and t becomes the earliest time BackTime
// can return to.
//
func (s *Session) FlushHist(t Time) error {
	if t <= 0 || t > s.curDelta {
		return invalidTime(t, 0, s.curDelta)
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.flags&(Alias|Merged) != 0 {
			continue
		}
		h := n.head
		for p := s.nextHist(h); s.hist[p].time < t; p = s.nextHist(p) {
			h = p
		}
		if h == n.head {
			s.flushPunted(n.head, t)
			continue
		}
		// drop everything between head and h, h becomes the new head
		old := n.head
		n.head = h
		for old != h {
			next := s.hist[old].next
			s.hist[old].next = s.freeHist
			s.freeHist = old
			old = next
		}
		s.flushPunted(h, t)
	}
	s.simTime0 = t
	return nil
}

// flushPunted removes the punted entries following h that were punted before
// t.
func (s *Session) flushPunted(h HistID, t Time) {
	p := h
	for q := s.hist[p].next; s.hist[q].punt; q = s.hist[p].next {
		e := &s.hist[q]
		if e.time-e.ptime < t {
			s.hist[p].next = e.next
			e.next = s.freeHist
			s.freeHist = q
			continue
		}
		p = q
	}
}

// History returns the history of n, effective changes and punted events, in
// list order.
//
func (n *Node) History() []HistEntry {
	s := n.s
	var hs []HistEntry
	for h := n.head; h != lastHist; h = s.hist[h].next {
		e := &s.hist[h]
		he := HistEntry{Time: e.time, Value: e.val, Input: e.inp, Punted: e.punt, Delay: e.delay, RiseTime: e.rtime}
		if e.punt {
			he.PuntTime = e.time - e.ptime
		}
		hs = append(hs, he)
	}
	return hs
}

// Transitions returns the effective entries of the history of n, the initial
// entry excluded.
//
func (n *Node) Transitions() []HistEntry {
	var hs []HistEntry
	for i, h := range n.History() {
		if i == 0 || h.Punted {
			continue
		}
		hs = append(hs, h)
	}
	return hs
}
