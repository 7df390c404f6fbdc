package irsim

import (
	"fmt"
	"io"
)

// CPath writes the critical path for the last transition of n to w: the
// chain of transitions that caused it, earliest first, with the delay
// between each step.
//
func (s *Session) CPath(w io.Writer, n *Node) error {
	ew := &errWriter{w: w}
	ew.printf("critical path for last transition of %s:\n", n.name)
	var ptime Time
	s.cpath(ew, n.Canonical(), 0, &ptime)
	return ew.err
}

func (s *Session) cpath(w *errWriter, n *Node, level int, ptime *Time) {
	switch {
	case n.flags&Merged != 0 || n.cause == nilNode:
		w.printf("  there is no previous transition!\n")
	case level != 0 && n.time > *ptime:
		// the node changed again after the transition being traced
		w.printf("  transition of %s, which has since changed again\n", n.name)
	case n.cause == n.id:
		w.printf("  %s -> %c @ %v , node was an input\n", n.name, n.pot.Char(), n.time)
	case s.nodes[n.cause].flags&Visited != 0:
		w.printf("  ... loop in traceback\n")
	default:
		cause := &s.nodes[n.cause]
		dt := n.time - cause.time
		n.flags |= Visited
		*ptime = n.time
		s.cpath(w, cause, level+1, ptime)
		n.flags &^= Visited
		if dt < 0 {
			w.printf("  %s -> %c @ %v   (??)\n", n.name, n.pot.Char(), n.time)
		} else {
			w.printf("  %s -> %c @ %v   (%v)\n", n.name, n.pot.Char(), n.time, dt)
		}
	}
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}
