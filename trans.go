package irsim

// TransID identifies a transistor within a Session.
//
type TransID int32

const nilTrans TransID = -1

// TransType is a transistor type with its modifier bits.
//
type TransType uint8

// Transistor types.
//
const (
	NChan  TransType = 0
	PChan  TransType = 1
	Dep    TransType = 2
	Resist TransType = 3
	nTypes           = 4

	AlwaysOn TransType = 0x02 // Dep and Resist are always on
	GateList TransType = 0x08
	Stacked  TransType = 0x10
	Ored     TransType = 0x20
	OrList   TransType = 0x40
	TCap     TransType = 0x80
)

var typeNames = [nTypes]string{"n-channel", "p-channel", "depletion", "resistor"}

// BaseType returns the base type of t.
//
func (t TransType) BaseType() TransType { return t & 7 }

func (t TransType) String() string { return typeNames[t.BaseType()&3] }

// TransState is the conduction state of a transistor.
//
type TransState uint8

// Transistor states.
//
const (
	Off TransState = iota
	On
	Unknown
	Weak
)

func (s TransState) String() string {
	switch s {
	case Off:
		return "off"
	case On:
		return "on"
	case Unknown:
		return "unknown"
	}
	return "weak"
}

type transFlags uint8

// transient flags used while walking a stage.
const (
	crossed transFlags = 1 << iota
	broken
	pbroken
	parallel
)

// Trans is a transistor. Transistors are owned by a Session.
//
type Trans struct {
	s      *Session
	id     TransID
	gate   NodeID
	source NodeID
	drain  NodeID
	typ    TransType
	state  TransState
	tflags transFlags
	length float64 // centimicrons
	width  float64
	x, y   int
	r      *Resists

	// compound transistors: first member of the OR list, or next member
	// for transistors in the list.
	link  TransID
	owner TransID

	// per stage caches
	sI, dI  ival
	sThev   *thev
	dThev   *thev
	nPar    int8
	parLink TransID
}

// ID returns the index of t in its session.
//
func (t *Trans) ID() TransID { return t.id }

// Type returns the transistor type including modifier bits.
//
func (t *Trans) Type() TransType { return t.typ }

// State returns the current conduction state of t.
//
func (t *Trans) State() TransState { return t.state }

// Gate returns the gate node. For resistors, this is Vdd.
//
func (t *Trans) Gate() *Node { return &t.s.nodes[t.gate] }

// Source returns the source node.
//
func (t *Trans) Source() *Node { return &t.s.nodes[t.source] }

// Drain returns the drain node.
//
func (t *Trans) Drain() *Node { return &t.s.nodes[t.drain] }

// Size returns the length and width of t in centimicrons.
//
func (t *Trans) Size() (length, width float64) { return t.length, t.width }

// Location returns the layout coordinates of t.
//
func (t *Trans) Location() (x, y int) { return t.x, t.y }

// Resists returns the equivalent resistances of t. For compound parallel
// transistors, the combined resistances are returned.
//
func (t *Trans) Resists() Resists { return *t.r }

// Members returns the transistors merged into a compound parallel
// transistor, or nil if t is not compound.
//
func (t *Trans) Members() []*Trans {
	if t.typ&Ored == 0 {
		return nil
	}
	var ts []*Trans
	for id := t.link; id != nilTrans; id = t.s.trans[id].link {
		ts = append(ts, &t.s.trans[id])
	}
	return ts
}

func (t *Trans) String() string {
	return t.typ.String() + " " + t.Gate().name + " " + t.Source().name + " " + t.Drain().name
}

// other returns the terminal of t opposite to n.
func (t *Trans) other(n NodeID) NodeID {
	if t.source == n {
		return t.drain
	}
	return t.source
}

// sameTerms reports whether t and u connect the same pair of nodes.
func (t *Trans) sameTerms(u *Trans) bool {
	return t.source == u.source && t.drain == u.drain || t.source == u.drain && t.drain == u.source
}

func (s *Session) tr(id TransID) *Trans { return &s.trans[id] }

func (s *Session) transList(ids []TransID) []*Trans {
	ts := make([]*Trans, len(ids))
	for i, id := range ids {
		ts[i] = &s.trans[id]
	}
	return ts
}

// Transistors returns all transistors connected to the network, including
// compound transistors but excluding their members and shorted devices.
//
func (s *Session) Transistors() []*Trans {
	var ts []*Trans
	for i := range s.trans {
		t := &s.trans[i]
		if t.typ&(OrList|TCap) != 0 {
			continue
		}
		ts = append(ts, t)
	}
	return ts
}

// Shorted returns the transistors whose source and drain are the same node or
// are both connected to power rails. Those transistors are not part of the
// network.
//
func (s *Session) Shorted() []*Trans {
	var ts []*Trans
	for i := range s.trans {
		if s.trans[i].typ&TCap != 0 {
			ts = append(ts, &s.trans[i])
		}
	}
	return ts
}

// removeTrans removes the first occurrence of id from l.
func removeTrans(l []TransID, id TransID) []TransID {
	for i, t := range l {
		if t == id {
			return append(l[:i], l[i+1:]...)
		}
	}
	return l
}

func replaceTrans(l []TransID, old, new TransID) {
	for i, t := range l {
		if t == old {
			l[i] = new
			return
		}
	}
}
