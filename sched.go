package irsim

import (
	"container/heap"
	"sort"

	"github.com/pkg/errors"
)

type evKind uint8

const (
	evNormal evKind = iota
	evDecay
)

// Event is a pending node transition.
//
type Event struct {
	node  NodeID
	ntime Time
	val   Potential
	delay Time
	rtime Time
	kind  evKind
	cause NodeID
	nlink *Event // next event of the same node, earlier in time
	seq   uint64
	index int
}

// eventQueue is a min-heap of events ordered by fire time then creation
// order.
type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].ntime != q[j].ntime {
		return q[i].ntime < q[j].ntime
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x interface{}) {
	ev := x.(*Event)
	ev.index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*q = old[:n-1]
	return ev
}

// EventInfo describes a pending event.
//
type EventInfo struct {
	Node     *Node
	Time     Time
	Value    Potential
	Delay    Time
	RiseTime Time
	Decay    bool
	Cause    *Node
}

func (s *Session) eventInfo(ev *Event) EventInfo {
	ei := EventInfo{
		Node:     &s.nodes[ev.node],
		Time:     ev.ntime,
		Value:    ev.val,
		Delay:    ev.delay,
		RiseTime: ev.rtime,
		Decay:    ev.kind == evDecay,
	}
	if ev.cause != nilNode {
		ei.Cause = &s.nodes[ev.cause]
	}
	return ei
}

// enqueue schedules a transition of node n to val, delay deltas from now.
func (s *Session) enqueue(n NodeID, val Potential, delay, rtime Time, kind evKind) *Event {
	ev := &Event{
		node:  n,
		ntime: s.curDelta + delay,
		val:   val,
		delay: delay,
		rtime: rtime,
		kind:  kind,
		cause: s.curNode,
		seq:   s.seq,
	}
	s.seq++
	s.push(ev)
	return ev
}

// push inserts ev in the queue and in its node's event list.
func (s *Session) push(ev *Event) {
	heap.Push(&s.queue, ev)
	nd := &s.nodes[ev.node]
	if nd.events == nil || ev.ntime >= nd.events.ntime {
		ev.nlink = nd.events
		nd.events = ev
		return
	}
	p := nd.events
	for p.nlink != nil && ev.ntime < p.nlink.ntime {
		p = p.nlink
	}
	ev.nlink = p.nlink
	p.nlink = ev
}

// dequeue removes ev from the queue and from its node's event list.
func (s *Session) dequeue(ev *Event) {
	if ev.index >= 0 {
		heap.Remove(&s.queue, ev.index)
	}
	nd := &s.nodes[ev.node]
	if nd.events == ev {
		nd.events = ev.nlink
	} else {
		for p := nd.events; p != nil; p = p.nlink {
			if p.nlink == ev {
				p.nlink = ev.nlink
				break
			}
		}
	}
	ev.nlink = nil
}

// puntEvent cancels ev and records it in the node history.
func (s *Session) puntEvent(n *Node, ev *Event) {
	if ev.kind != evDecay {
		s.addPunted(n, ev, s.curDelta)
	}
	s.dequeue(ev)
}

// nextTick removes and returns all the events due at the earliest pending
// time, provided that it is not past stop.
func (s *Session) nextTick(stop Time) []*Event {
	if len(s.queue) == 0 || s.queue[0].ntime > stop {
		return nil
	}
	t := s.queue[0].ntime
	var evs []*Event
	for len(s.queue) > 0 && s.queue[0].ntime == t {
		ev := s.queue[0]
		s.dequeue(ev)
		evs = append(evs, ev)
	}
	return evs
}

// backSimTime drops the events that did not exist yet at time t.
func (s *Session) backSimTime(t Time) {
	keep := make([]*Event, 0, len(s.queue))
	for _, ev := range s.queue {
		if ev.ntime-ev.delay < t {
			keep = append(keep, ev)
		}
	}
	s.clearQueue()
	sort.Slice(keep, func(i, j int) bool { return keep[i].seq < keep[j].seq })
	for _, ev := range keep {
		ev.nlink = nil
		s.push(ev)
	}
}

func (s *Session) clearQueue() {
	for _, ev := range s.queue {
		s.nodes[ev.node].events = nil
		ev.index = -1
	}
	s.queue = s.queue[:0]
}

// PendingEvents returns the pending events in firing order.
//
func (s *Session) PendingEvents() []EventInfo {
	evs := append(eventQueue(nil), s.queue...)
	sort.Slice(evs, func(i, j int) bool { return evs.Less(i, j) })
	eis := make([]EventInfo, len(evs))
	for i, ev := range evs {
		eis[i] = s.eventInfo(ev)
	}
	return eis
}

// Events returns the pending events of n, latest first.
//
func (n *Node) Events() []EventInfo {
	var eis []EventInfo
	for ev := n.events; ev != nil; ev = ev.nlink {
		eis = append(eis, n.s.eventInfo(ev))
	}
	return eis
}

// Enqueue schedules a transition of n to val after delay. It is meant for
// analysis tools that inject events; the timing model may punt the event
// when the node is next evaluated.
//
func (s *Session) Enqueue(n *Node, val Potential, delay Time) error {
	if !s.finished {
		return ErrNotFinished
	}
	if n.flags&Merged != 0 {
		return errors.Wrap(ErrMergedNode, n.name)
	}
	if delay <= 0 {
		delay = 1
	}
	s.enqueue(n.id, val, delay, delay, evNormal)
	return nil
}
