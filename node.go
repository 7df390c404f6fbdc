package irsim

import (
	"strings"

	"github.com/pkg/errors"
)

// NodeID identifies a node within a Session.
//
type NodeID int32

const nilNode NodeID = -1

// NodeFlags is a node flag bitset.
//
type NodeFlags uint32

// Node flags.
//
const (
	Deviated NodeFlags = 1 << iota
	PowerRail
	Alias
	UserDelay
	Input
	Watched
	WatchVector
	StopOnChange
	StopVecChange
	Visited
	Merged
	Deleted

	HInput    NodeFlags = 0x1000
	LInput    NodeFlags = 0x2000
	UInput    NodeFlags = 0x3000
	XInput    NodeFlags = 0x4000
	InputMask NodeFlags = 0x7000

	// UserFlags are the flags that can be changed with Node.SetFlags and
	// Node.ClearFlags.
	UserFlags = Watched | WatchVector | StopOnChange | StopVecChange
)

// inputNumber returns the forced input list a node belongs to.
func inputNumber(f NodeFlags) int { return int((f & InputMask) >> 12) }

// Node is an electrical node. Nodes are owned by a Session and must not be
// copied.
//
type Node struct {
	s     *Session
	id    NodeID
	name  string
	pot   Potential
	cap   float64
	vlow  float64
	vhigh float64
	tplh  Time
	tphl  Time
	flags NodeFlags
	time  Time

	gates []TransID
	terms []TransID

	head HistID
	curr HistID

	events *Event // pending events, latest first

	alias NodeID
	nlink NodeID // stage list link, nilNode when not in a stage
	trans TransID
	thev  *thev
	cause NodeID
	ptime Time
}

// ID returns the node's index in its session.
//
func (n *Node) ID() NodeID { return n.id }

// Name returns the node name as first seen in the netlist.
//
func (n *Node) Name() string { return n.name }

// Pot returns the current value of the node.
//
func (n *Node) Pot() Potential { return n.pot }

// Cap returns the node capacitance in pF.
//
func (n *Node) Cap() float64 { return n.cap }

// Time returns the time of the last transition of the node.
//
func (n *Node) Time() Time { return n.time }

// Thresholds returns the low and high logic thresholds of the node.
//
func (n *Node) Thresholds() (low, high float64) { return n.vlow, n.vhigh }

// Delays returns the user specified rise and fall delays of the node. ok is
// false if no delays were specified.
//
func (n *Node) Delays() (tplh, tphl Time, ok bool) {
	return n.tplh, n.tphl, n.flags&UserDelay != 0
}

// Flags returns n's flags masked by mask.
//
func (n *Node) Flags(mask NodeFlags) NodeFlags { return n.flags & mask }

// SetFlags sets the given flags. Flags not in UserFlags are ignored.
//
func (n *Node) SetFlags(f NodeFlags) { n.flags |= f & UserFlags }

// ClearFlags clears the given flags. Flags not in UserFlags are ignored.
//
func (n *Node) ClearFlags(f NodeFlags) { n.flags &^= f & UserFlags }

// Gates returns the transistors gated by n.
//
func (n *Node) Gates() []*Trans { return n.s.transList(n.gates) }

// Terms returns the transistors having a source or drain connected to n.
//
func (n *Node) Terms() []*Trans { return n.s.transList(n.terms) }

// Cause returns the node whose transition caused the last transition of n.
// It returns n itself if n last changed as an input and nil if n never
// changed.
//
func (n *Node) Cause() *Node {
	if n.cause == nilNode {
		return nil
	}
	return &n.s.nodes[n.cause]
}

// Canonical follows alias links and returns the node that n stands for.
//
func (n *Node) Canonical() *Node {
	for n.flags&Alias != 0 {
		n = &n.s.nodes[n.alias]
	}
	return n
}

func (n *Node) String() string { return n.name }

func (s *Session) node(id NodeID) *Node { return &s.nodes[id] }

// canonical returns the end of the alias chain starting at id.
func (s *Session) canonical(id NodeID) NodeID {
	for s.nodes[id].flags&Alias != 0 {
		id = s.nodes[id].alias
	}
	return id
}

func (s *Session) newNode(name string) NodeID {
	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, Node{
		s:     s,
		id:    id,
		name:  name,
		pot:   X,
		cap:   MinCap,
		vlow:  s.cfg.LowThresh,
		vhigh: s.cfg.HighThresh,
		alias: nilNode,
		nlink: nilNode,
		trans: nilTrans,
		cause: nilNode,
	})
	h := s.allocHist(histEnt{time: 0, val: X, next: lastHist, cause: nilNode})
	n := &s.nodes[id]
	n.head, n.curr = h, h
	s.nodeMap[strings.ToLower(name)] = id
	s.sorted = append(s.sorted, id)
	s.numNodes++
	return id
}

// getNode returns the node named name, creating it if needed. Node names are
// case insensitive.
func (s *Session) getNode(name string) NodeID {
	key := strings.ToLower(name)
	if id, ok := s.nodeMap[key]; ok {
		n := &s.nodes[id]
		if n.name != name {
			switch key {
			case "vdd":
				if !s.vddWarned {
					s.log.Warn("node name case mismatch for power supply", "name", name, "node", n.name)
					s.vddWarned = true
				}
			case "gnd":
				if !s.gndWarned {
					s.log.Warn("node name case mismatch for ground", "name", name, "node", n.name)
					s.gndWarned = true
				}
			default:
				s.log.Warn("Aliasing nodes", "node", n.name, "alias", name)
			}
		}
		return s.canonical(id)
	}
	return s.newNode(name)
}

// Lookup returns the node named name, following aliases.
//
func (s *Session) Lookup(name string) (*Node, error) {
	id, ok := s.nodeMap[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrap(ErrUnknownNode, name)
	}
	return &s.nodes[s.canonical(id)], nil
}

// Nodes returns all the nodes of the session, sorted by name once the network
// is finished. Aliases are included.
//
func (s *Session) Nodes() []*Node {
	ns := make([]*Node, len(s.sorted))
	for i, id := range s.sorted {
		ns[i] = &s.nodes[id]
	}
	return ns
}

// Vdd returns the power supply node.
//
func (s *Session) Vdd() *Node { return &s.nodes[s.vdd] }

// Gnd returns the ground node.
//
func (s *Session) Gnd() *Node { return &s.nodes[s.gnd] }
