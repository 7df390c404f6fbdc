package irsim

// Resists holds the effective resistances of a transistor, in ohms.
//
type Resists struct {
	Static  float64
	DynHigh float64
	DynLow  float64
}

// REquiv returns the equivalent resistances of a transistor of the given type,
// width and length in centimicrons. For Resist devices, length is the
// resistance in ohms and width is ignored.
//
func (c *Config) REquiv(typ TransType, width, length float64) Resists {
	bt := typ.BaseType()
	if bt == Resist {
		return Resists{length, length, length}
	}
	w, l := width/100, length/100
	tabs := &c.Resistances[bt]
	return Resists{
		Static:  tabs[Static].lookup(w, l),
		DynHigh: tabs[DynHigh].lookup(w, l),
		DynLow:  tabs[DynLow].lookup(w, l),
	}
}

type resKey struct {
	typ  TransType
	w, l float64
}

// requiv returns the cached resistances for the given device geometry.
func (s *Session) requiv(typ TransType, width, length float64) *Resists {
	k := resKey{typ.BaseType(), width, length}
	if r, ok := s.resCache[k]; ok {
		return r
	}
	r := s.cfg.REquiv(typ, width, length)
	s.resCache[k] = &r
	return &r
}
