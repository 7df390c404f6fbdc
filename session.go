package irsim

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Analyzer receives notifications of changes of watched vectors.
//
type Analyzer interface {
	// WatchChanged is called at the end of each time step during which a
	// node flagged with WatchVector or StopVecChange changed. which holds
	// the union of the changed nodes' flags.
	WatchChanged(which NodeFlags)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
//
type AnalyzerFunc func(which NodeFlags)

// WatchChanged calls f(which).
//
func (f AnalyzerFunc) WatchChanged(which NodeFlags) { f(which) }

// Session is a switch level simulation session. It holds the network, node
// histories, the event queue and the timing model. A Session is not safe for
// concurrent use.
//
type Session struct {
	cfg      *Config
	log      *slog.Logger
	model    Model
	metrics  *metrics
	analyzer Analyzer

	nodes    []Node
	trans    []Trans
	hist     []histEnt
	freeHist HistID
	nodeMap  map[string]NodeID
	sorted   []NodeID
	vdd, gnd NodeID
	resCache map[resKey]*Resists

	queue    eventQueue
	seq      uint64
	curDelta Time
	simTime0 Time
	curNode  NodeID

	inputs [5][]NodeID // pending input changes, by input list number
	marked []NodeID

	withDriven     bool
	parallel       [MaxParallel]TransID
	parallelWarned bool

	finished             bool
	vddWarned, gndWarned bool

	numNodes, numAliases int
	numTrans, numOred    [nTypes]int
	numShorted           int
	numErrors            int

	numEdges, numPunted, numConsPunted, numEvents int64
}

// NewSession returns a new session using the given configuration. A nil
// configuration is replaced by DefaultConfig(). The session starts with the
// Vdd and Gnd nodes.
//
func NewSession(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "bad configuration")
	}
	c := *cfg
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		cfg:      &c,
		log:      logger.With(slog.String("component", "irsim")),
		metrics:  newMetrics(c.Registerer),
		nodeMap:  make(map[string]NodeID),
		resCache: make(map[resKey]*Resists),
		curNode:  nilNode,
	}
	s.initHist()
	s.model = newModel(s, c.Model)

	s.vdd = s.newNode("Vdd")
	s.gnd = s.newNode("Gnd")
	s.setRail(s.vdd, High)
	s.setRail(s.gnd, Low)
	return s, nil
}

func (s *Session) setRail(id NodeID, val Potential) {
	n := &s.nodes[id]
	n.pot = val
	n.flags |= Input | PowerRail
	h := &s.hist[n.head]
	h.val = val
	h.inp = true
}

// Config returns a copy of the session configuration.
//
func (s *Session) Config() Config { return *s.cfg }

// Model returns the timing model in use.
//
func (s *Session) Model() Model { return s.model }

// SetModel switches the timing model. Pending events are discarded.
//
func (s *Session) SetModel(k ModelKind) error {
	if k != Linear && k != RC {
		return errors.Errorf("invalid model %d", k)
	}
	s.cfg.Model = k
	s.model = newModel(s, k)
	s.initEvent()
	return nil
}

// SetAnalyzer sets the analyzer notified of watched vector changes.
//
func (s *Session) SetAnalyzer(a Analyzer) { s.analyzer = a }

// Now returns the current simulation time.
//
func (s *Session) Now() Time { return s.curDelta }

// StartTime returns the earliest time the simulation can go back to.
//
func (s *Session) StartTime() Time { return s.simTime0 }

// NumErrors returns the number of netlist errors reported so far.
//
func (s *Session) NumErrors() int { return s.numErrors }

// initEvent clears the event queue and recomputes all transistor states.
func (s *Session) initEvent() {
	s.clearQueue()
	for i := range s.trans {
		t := &s.trans[i]
		if t.typ&(OrList|TCap) == 0 {
			t.state = s.model.ComputeTransState(t)
		}
	}
}

// FinishNetwork connects the transistors read so far to their nodes, merges
// parallel transistors, sorts the node list and initializes the timing
// model. The network cannot be changed afterwards.
//
func (s *Session) FinishNetwork() error {
	if s.finished {
		return ErrFinished
	}
	list := s.connectTransistors()
	s.makeParallel(list)
	s.log.Info(s.Summary())

	sort.SliceStable(s.sorted, func(i, j int) bool {
		return strings.ToLower(s.nodes[s.sorted[i]].name) < strings.ToLower(s.nodes[s.sorted[j]].name)
	})
	s.initEvent()
	s.finished = true
	return nil
}

// Summary returns a one line description of the network.
//
func (s *Session) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d nodes", s.numNodes)
	if s.numAliases != 0 {
		fmt.Fprintf(&b, ", %d aliases", s.numAliases)
	}
	for i := range s.numTrans {
		if s.numTrans[i] == 0 {
			continue
		}
		fmt.Fprintf(&b, ", %d %s transistors", s.numTrans[i], typeNames[i])
		if s.numOred[i] != 0 {
			fmt.Fprintf(&b, " (%d parallel)", s.numOred[i])
		}
	}
	if s.numShorted != 0 {
		fmt.Fprintf(&b, " (%d shorted)", s.numShorted)
	}
	return b.String()
}
