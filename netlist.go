package irsim

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/db47h/irsim/internal/simfile"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// newTrans adds a transistor to the network. length and width are in
// centimicrons, except for resistors where length is the resistance in ohms.
func (s *Session) newTrans(typ TransType, gate, source, drain NodeID, length, width float64) *Trans {
	id := TransID(len(s.trans))
	s.trans = append(s.trans, Trans{
		s:       s,
		id:      id,
		gate:    gate,
		source:  source,
		drain:   drain,
		typ:     typ,
		length:  length,
		width:   width,
		r:       s.requiv(typ, width, length),
		link:    nilTrans,
		owner:   nilTrans,
		parLink: nilTrans,
	})
	return &s.trans[id]
}

// PutTransistor adds a transistor to the network. Dimensions are in lambda,
// area in square lambda and perim in lambda. The active area and perimeter
// are added to the capacitance of both source and drain.
//
func (s *Session) PutTransistor(gate, source, drain string, length, width, area, perim, x, y float64, nType bool) error {
	if s.finished {
		return ErrFinished
	}
	l, w := length*s.cfg.lambdaCM(), width*s.cfg.lambdaCM()
	if w <= 0 || l <= 0 {
		return errors.Errorf("bad transistor width=%g or length=%g", w, l)
	}
	g, src, drn := s.getNode(gate), s.getNode(source), s.getNode(drain)
	typ := PChan
	ca, cp := s.cfg.CapPDA, s.cfg.CapPDP
	if nType {
		typ = NChan
		ca, cp = s.cfg.CapDA, s.cfg.CapDP
	}
	lambda := s.cfg.Lambda
	s.nodes[g].cap += l / 100 * w / 100 * s.cfg.CapGA
	c := area*lambda*lambda*ca + perim*lambda*cp
	s.nodes[src].cap += c
	s.nodes[drn].cap += c
	t := s.newTrans(typ, g, src, drn, l, w)
	t.x, t.y = int(x), int(y)
	return nil
}

// PutResistor adds a resistor of the given value in ohms between nodes a and
// b.
//
func (s *Session) PutResistor(a, b string, ohms float64) error {
	if s.finished {
		return ErrFinished
	}
	if ohms <= 0 {
		return errors.Errorf("bad resistance %g", ohms)
	}
	s.newTrans(Resist, s.vdd, s.getNode(a), s.getNode(b), ohms, 0)
	return nil
}

// PutCapacitor adds a capacitor of fF femtofarads between nodes a and b.
// Capacitance to ground is only added to the other node. A capacitor from a
// node to itself is ignored, unless the node is ground.
//
func (s *Session) PutCapacitor(a, b string, fF float64) error {
	if s.finished {
		return ErrFinished
	}
	s.addCap(s.getNode(a), s.getNode(b), fF/1000)
	return nil
}

func (s *Session) addCap(n, m NodeID, pf float64) {
	if n != m {
		if m != s.gnd {
			s.nodes[m].cap += pf
		}
		if n != s.gnd {
			s.nodes[n].cap += pf
		}
	} else if n == s.gnd {
		s.nodes[n].cap += pf
	}
}

// Alias makes every name in aliases an alias of node name. Power supplies
// cannot be aliased to each other.
//
func (s *Session) Alias(name string, aliases ...string) error {
	if s.finished {
		return ErrFinished
	}
	n := s.getNode(name)
	for _, a := range aliases {
		if err := s.alias(n, s.getNode(a)); err != nil {
			return errors.Wrap(err, a)
		}
		n = s.canonical(n)
	}
	return nil
}

func (s *Session) alias(n, m NodeID) error {
	if m == n {
		return nil
	}
	if s.nodes[m].flags&PowerRail != 0 {
		n, m = m, n
	}
	if s.nodes[m].flags&PowerRail != 0 {
		return errors.New("can't alias the power supplies")
	}
	nd, md := &s.nodes[n], &s.nodes[m]
	nd.cap += md.cap
	md.alias = n
	md.flags |= Alias
	md.cap = 0
	s.numNodes--
	s.numAliases++
	return nil
}

// loader holds the state of a single LoadSim call.
type loader struct {
	s        *Session
	file     string
	rec      simfile.Record
	rWarned  bool
	aWarned  bool
	tooMany  bool
	numTrans int
}

// LoadSim reads a .sim netlist from r. filename is used in error messages.
// Errors in records are reported to the configured ErrorHandler and logged;
// loading stops with ErrTooManyErrors once more than MaxErrs errors have been
// reported. FinishNetwork must be called once all netlists are loaded.
//
func (s *Session) LoadSim(ctx context.Context, r io.Reader, filename string) (err error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "irsim.LoadSim",
		trace.WithAttributes(attribute.String("file", filename)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	if s.finished {
		return ErrFinished
	}

	l := &loader{s: s, file: filename}
	sc := simfile.NewScanner(r)
	for sc.Scan() {
		l.rec = sc.Record()
		l.record()
		if l.tooMany {
			s.log.Error("too many errors in sim file", "file", filename)
			return errors.Wrap(ErrTooManyErrors, filename)
		}
		if sc.Line()%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, filename)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, filename)
	}
	span.SetAttributes(attribute.Int("transistors", l.numTrans), attribute.Int("errors", s.numErrors))
	s.log.Info("loaded circuit", "file", filename, "lambda", s.cfg.Lambda)
	return nil
}

// errorf reports an error for the current record.
func (l *loader) errorf(format string, args ...interface{}) {
	l.tooMany = l.s.recordError(l.file, l.rec.Line, fmt.Sprintf(format, args...))
}

// recordError reports a netlist error and returns true if too many errors
// were reported.
func (s *Session) recordError(file string, line int, msg string) bool {
	e := &RecordError{File: file, Line: line, Msg: msg}
	s.log.Warn(msg, "file", file, "line", line)
	if s.cfg.ErrorHandler != nil {
		s.cfg.ErrorHandler(e)
	}
	s.numErrors++
	return s.numErrors > MaxErrs
}

func (l *loader) badArgCount() {
	l.errorf("Wrong number of args for '%s'", l.rec.Fields[0])
}

// float parses field i of the current record.
func (l *loader) float(i int) (float64, bool) {
	v, err := strconv.ParseFloat(l.rec.Fields[i], 64)
	if err != nil {
		l.errorf("bad number %q", l.rec.Fields[i])
		return 0, false
	}
	return v, true
}

// floats parses fields from..to included.
func (l *loader) floats(from, to int) ([]float64, bool) {
	vs := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		v, ok := l.float(i)
		if !ok {
			return nil, false
		}
		vs = append(vs, v)
	}
	return vs, true
}

func (l *loader) record() {
	f := l.rec.Fields
	switch l.rec.Key() {
	case '|':
		l.header()
	case 'e', 'n':
		l.transistor(NChan)
	case 'p':
		l.transistor(PChan)
	case 'd':
		l.transistor(Dep)
	case 'r':
		l.resistor()
	case 'N':
		l.nodeInfo()
	case 'M':
		l.nodeInfoM()
	case 'c', 'C':
		l.capacitor()
	case '=':
		l.alias()
	case 't':
		l.thresholds()
	case 'D':
		l.delays()
	case 'R':
		if !l.rWarned {
			l.s.log.Warn("ignoring lumped-resistance ('R' construct)", "file", l.file)
			l.rWarned = true
		}
	case 'A':
		if !l.aWarned {
			l.s.log.Warn("ignoring attribute-line ('A' construct)", "file", l.file)
			l.aWarned = true
		}
	default:
		l.errorf("Unrecognized input line (%s)", f[0])
	}
}

// header checks the optional first line: | units: <scale> tech: <tech> format: <fmt>
func (l *loader) header() {
	if l.rec.Line > 1 {
		return
	}
	f := l.rec.Fields
	cfg := l.s.cfg
	if len(f) >= 3 {
		if u, err := strconv.ParseFloat(f[2], 64); err == nil {
			if lambda := u / 100; lambda != cfg.Lambda {
				l.s.log.Warn("sim file lambda differs from config lambda, using config lambda",
					"file", l.file, "sim", lambda, "config", cfg.Lambda)
			}
		}
	}
	if len(f) >= 6 && (cfg.CapDA == 0 || cfg.CapDP == 0 || cfg.CapPDA == 0 || cfg.CapPDP == 0) {
		l.s.log.Warn("missing area/perim cap values are zero", "file", l.file)
	}
}

// transistor reads: type g s d l w [x y] [g=attrs] [s=attrs] [d=attrs]
func (l *loader) transistor(typ TransType) {
	f := l.rec.Fields
	if len(f) < 6 || len(f) > 11 {
		l.badArgCount()
		return
	}
	s := l.s
	cfg := s.cfg
	lw, ok := l.floats(4, 5)
	if !ok {
		return
	}
	length, width := lw[0]*cfg.lambdaCM(), lw[1]*cfg.lambdaCM()
	if width <= 0 || length <= 0 {
		l.errorf("Bad transistor width=%g or length=%g", width, length)
		return
	}
	var pos []float64
	var attrs []string
	for _, a := range f[6:] {
		if strings.IndexByte(a, '=') >= 0 {
			attrs = append(attrs, a)
			continue
		}
		if len(attrs) > 0 || len(pos) == 2 {
			l.errorf("unexpected field %q", a)
			return
		}
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			l.errorf("bad number %q", a)
			return
		}
		pos = append(pos, v)
	}

	g, src, drn := s.getNode(f[1]), s.getNode(f[2]), s.getNode(f[3])
	s.nodes[g].cap += length / 100 * width / 100 * cfg.CapGA
	t := s.newTrans(typ, g, src, drn, length, width)
	if len(pos) > 0 {
		t.x = int(pos[0])
	}
	if len(pos) > 1 {
		t.y = int(pos[1])
	}
	l.numTrans++

	ca, cp := cfg.CapDA, cfg.CapDP
	if typ == PChan {
		ca, cp = cfg.CapPDA, cfg.CapPDP
	}
	lambda := cfg.Lambda
	for _, a := range attrs {
		var n NodeID
		switch a[0] {
		case 's':
			n = src
		case 'd':
			n = drn
		default:
			continue
		}
		area, perim, ok := areaPerim(a)
		if !ok {
			continue
		}
		s.nodes[n].cap += area*lambda*lambda*ca + perim*lambda*cp
	}
}

// areaPerim extracts the A_<area> and P_<perim> values from a terminal
// attribute list.
func areaPerim(attr string) (area, perim float64, ok bool) {
	var hasA, hasP bool
	for _, a := range strings.Split(attr[strings.IndexByte(attr, '=')+1:], ",") {
		switch {
		case strings.HasPrefix(a, "A_"):
			area, hasA = leadingInt(a[2:]), true
		case strings.HasPrefix(a, "P_"):
			perim, hasP = leadingInt(a[2:]), true
		}
	}
	return area, perim, hasA && hasP
}

func leadingInt(s string) float64 {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	v, _ := strconv.Atoi(s[:i])
	return float64(v)
}

// resistor reads: r n1 n2 ohms
func (l *loader) resistor() {
	f := l.rec.Fields
	if len(f) != 4 {
		l.badArgCount()
		return
	}
	ohms, ok := l.float(3)
	if !ok {
		return
	}
	if ohms <= 0 {
		l.errorf("Bad resistance %g", ohms)
		return
	}
	s := l.s
	s.newTrans(Resist, s.vdd, s.getNode(f[1]), s.getNode(f[2]), ohms, 0)
	l.numTrans++
}

// nodeInfo reads: N node darea dperim parea pperim marea mperim
func (l *loader) nodeInfo() {
	f := l.rec.Fields
	if len(f) != 8 {
		l.badArgCount()
		return
	}
	v, ok := l.floats(4, 7)
	if !ok {
		return
	}
	c := l.s.cfg
	l2 := c.Lambda * c.Lambda
	n := l.s.getNode(f[1])
	l.s.nodes[n].cap += v[0]*c.CapMA*l2 + v[1]*c.CapPA*l2 + v[2]*c.CapDA*l2 + v[3]*2*c.CapDP*c.Lambda
}

// nodeInfoM reads the newer node area and perimeter format, m2, metal, poly,
// diffusion and p-diffusion area/perimeter pairs starting at field 4.
func (l *loader) nodeInfoM() {
	f := l.rec.Fields
	if len(f) != 14 {
		l.badArgCount()
		return
	}
	v, ok := l.floats(4, 13)
	if !ok {
		return
	}
	c := l.s.cfg
	l2 := c.Lambda * c.Lambda
	n := l.s.getNode(f[1])
	l.s.nodes[n].cap += v[0]*c.CapM2A*l2 + v[1]*2*c.CapM2P*c.Lambda +
		v[2]*c.CapMA*l2 + v[3]*2*c.CapMP*c.Lambda +
		v[4]*c.CapPA*l2 + v[5]*2*c.CapPP*c.Lambda +
		v[6]*c.CapDA*c.Lambda + v[7]*2*c.CapDP*c.Lambda +
		v[8]*c.CapPDA*l2 + v[9]*2*c.CapPDP*c.Lambda
}

// capacitor reads: C node pF, or C n1 n2 fF
func (l *loader) capacitor() {
	f := l.rec.Fields
	s := l.s
	switch len(f) {
	case 3:
		v, ok := l.float(2)
		if !ok {
			return
		}
		s.nodes[s.getNode(f[1])].cap += v
	case 4:
		v, ok := l.float(3)
		if !ok {
			return
		}
		s.addCap(s.getNode(f[1]), s.getNode(f[2]), v/1000)
	default:
		l.badArgCount()
	}
}

// alias reads: = node alias...
func (l *loader) alias() {
	f := l.rec.Fields
	if len(f) < 3 {
		l.badArgCount()
		return
	}
	s := l.s
	n := s.getNode(f[1])
	for _, a := range f[2:] {
		if err := s.alias(n, s.getNode(a)); err != nil {
			l.errorf("Can't alias the power supplies")
		}
		n = s.canonical(n)
	}
}

// thresholds reads: t node low high
func (l *loader) thresholds() {
	f := l.rec.Fields
	if len(f) != 4 {
		l.badArgCount()
		return
	}
	v, ok := l.floats(2, 3)
	if !ok {
		return
	}
	n := &l.s.nodes[l.s.getNode(f[1])]
	n.vlow, n.vhigh = v[0], v[1]
}

// delays reads: D node tplh tphl, delays in ns
func (l *loader) delays() {
	f := l.rec.Fields
	if len(f) != 4 {
		l.badArgCount()
		return
	}
	v, ok := l.floats(2, 3)
	if !ok {
		return
	}
	n := &l.s.nodes[l.s.getNode(f[1])]
	n.flags |= UserDelay
	n.tplh, n.tphl = NSToDelta(v[0]), NSToDelta(v[1])
}
