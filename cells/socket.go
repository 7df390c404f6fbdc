package cells

import (
	"strconv"
	"strings"

	"github.com/db47h/irsim/internal/hdl"
	"github.com/pkg/errors"
)

// A Socket maps a part's pin names to net names and emits devices into a
// Builder.
//
type Socket struct {
	b      Builder
	sizes  *Sizes
	prefix string
	m      map[string]string
	count  *int // devices emitted so far, used as x location
}

func newSocket(b Builder, sz *Sizes) *Socket {
	return &Socket{b: b, sizes: sz, m: make(map[string]string), count: new(int)}
}

// Pin returns the net connected to the given pin.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) string {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// Bus returns the nets connected to the pins of the given bus.
//
func (s *Socket) Bus(name string) []string {
	var out []string
	for i := 0; ; i++ {
		n, ok := s.m[hdl.BusPinName(name, i)]
		if !ok {
			break
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		panic("bus " + name + " does not exist")
	}
	return out
}

// Wire returns the net for name in the namespace of the part: the net
// connected to the pin of that name, a power net, or a net local to this
// part instance.
//
func (s *Socket) Wire(name string) string {
	if n, ok := s.m[name]; ok {
		return n
	}
	if n, ok := supply(name); ok {
		return n
	}
	return s.prefix + name
}

// N emits an n-channel transistor of default size. Terminal names are
// resolved with Wire.
//
func (s *Socket) N(gate, source, drain string) error {
	return s.Trans(true, gate, source, drain, s.sizes.NLength, s.sizes.NWidth)
}

// P emits a p-channel transistor of default size.
//
func (s *Socket) P(gate, source, drain string) error {
	return s.Trans(false, gate, source, drain, s.sizes.PLength, s.sizes.PWidth)
}

// Trans emits a transistor of the given size in lambda. The diffusion area
// and perimeter are derived from the width.
//
func (s *Socket) Trans(nType bool, gate, source, drain string, length, width float64) error {
	*s.count++
	g, src, drn := s.Wire(gate), s.Wire(source), s.Wire(drain)
	return errors.Wrap(
		s.b.PutTransistor(g, src, drn, length, width, width*4, width*2+8, float64(*s.count), 0, nType),
		s.prefix+gate)
}

// Cap emits a capacitor of fF femtofarads between nets a and b.
//
func (s *Socket) Cap(a, b string, fF float64) error {
	return s.b.PutCapacitor(s.Wire(a), s.Wire(b), fF)
}

// Res emits a resistor between nets a and b.
//
func (s *Socket) Res(a, b string, ohms float64) error {
	return s.b.PutResistor(s.Wire(a), s.Wire(b), ohms)
}

// Mount mounts the given sub-part. idx distinguishes the instance name
// from other parts mounted in the same socket.
//
func (s *Socket) Mount(p Part, idx int) error {
	sub := &Socket{
		b:      s.b,
		sizes:  s.sizes,
		prefix: s.prefix + strings.ToLower(p.Name) + strconv.Itoa(idx) + "/",
		m:      make(map[string]string, len(p.Inputs)+len(p.Outputs)),
		count:  s.count,
	}
	for _, c := range p.Conns {
		if !p.hasPin(c.PP) {
			return errors.New("invalid pin name " + c.PP + " for part " + p.Name)
		}
		net := s.Wire(c.CP)
		if _, ok := supply(net); ok && p.isOutput(c.PP) {
			return errors.New(p.Name + "." + c.PP + ":" + c.CP + ": output pin connected to power supply")
		}
		sub.m[c.PP] = net
	}
	for _, in := range p.Inputs {
		if _, ok := sub.m[in]; !ok {
			sub.m[in] = Gnd
		}
	}
	for _, out := range p.Outputs {
		if _, ok := sub.m[out]; !ok {
			sub.m[out] = sub.prefix + out
		}
	}
	return errors.Wrap(p.Mount(sub), p.Name)
}

// Place places parts into b with the default transistor sizes. Net names in
// the parts' connection strings are used as node names, other nets are named
// after the part instance path, like "nand20/x".
//
func Place(b Builder, parts ...Part) error {
	return PlaceSized(b, DefaultSizes, parts...)
}

// PlaceSized places parts into b with the given transistor sizes.
//
func PlaceSized(b Builder, sz Sizes, parts ...Part) error {
	if len(parts) == 0 {
		return errors.New("empty part list")
	}
	s := newSocket(b, &sz)
	for i, p := range parts {
		if err := s.Mount(p, i); err != nil {
			return err
		}
	}
	return nil
}
