package cells

import (
	"strconv"

	"github.com/db47h/irsim/internal/hdl"
)

// common pin names
const (
	pA   = "a"
	pB   = "b"
	pC   = "c"
	pIn  = "in"
	pEn  = "en"
	pEnb = "enb"
	pSel = "sel"
	pOut = "out"
)

var inverter = PartSpec{
	Name:    "INV",
	Inputs:  []string{pIn},
	Outputs: []string{pOut},
	Mount: func(s *Socket) error {
		return firstErr(
			s.P(pIn, Vdd, pOut),
			s.N(pIn, pOut, Gnd),
		)
	},
}

// Inverter returns a static CMOS inverter.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Inverter(c string) Part { return inverter.NewPart(c) }

var nand2 = PartSpec{
	Name:    "NAND2",
	Inputs:  []string{pA, pB},
	Outputs: []string{pOut},
	Mount: func(s *Socket) error {
		return firstErr(
			s.P(pA, Vdd, pOut),
			s.P(pB, Vdd, pOut),
			s.N(pA, pOut, "x"),
			s.N(pB, "x", Gnd),
		)
	},
}

// Nand2 returns a 2 inputs NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a && b)
//
func Nand2(c string) Part { return nand2.NewPart(c) }

var nor2 = PartSpec{
	Name:    "NOR2",
	Inputs:  []string{pA, pB},
	Outputs: []string{pOut},
	Mount: func(s *Socket) error {
		return firstErr(
			s.P(pA, Vdd, "x"),
			s.P(pB, "x", pOut),
			s.N(pA, pOut, Gnd),
			s.N(pB, pOut, Gnd),
		)
	},
}

// Nor2 returns a 2 inputs NOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a || b)
//
func Nor2(c string) Part { return nor2.NewPart(c) }

var nand3 = PartSpec{
	Name:    "NAND3",
	Inputs:  []string{pA, pB, pC},
	Outputs: []string{pOut},
	Mount: func(s *Socket) error {
		return firstErr(
			s.P(pA, Vdd, pOut),
			s.P(pB, Vdd, pOut),
			s.P(pC, Vdd, pOut),
			s.N(pA, pOut, "x"),
			s.N(pB, "x", "y"),
			s.N(pC, "y", Gnd),
		)
	},
}

// Nand3 returns a 3 inputs NAND gate.
//
//	Inputs: a, b, c
//	Outputs: out
//	Function: out = !(a && b && c)
//
func Nand3(c string) Part { return nand3.NewPart(c) }

var tgate = PartSpec{
	Name:    "TGATE",
	Inputs:  []string{pIn, pEn, pEnb},
	Outputs: []string{pOut},
	Mount: func(s *Socket) error {
		return firstErr(
			s.N(pEn, pIn, pOut),
			s.P(pEnb, pIn, pOut),
		)
	},
}

// TGate returns a CMOS transmission gate. enb must be the complement of en.
//
//	Inputs: in, en, enb
//	Outputs: out
//	Function: if en { out = in } // out floats otherwise
//
func TGate(c string) Part { return tgate.NewPart(c) }

// Mux2 returns a transmission gate multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel { out = b } else { out = a }
//
func Mux2(c string) Part { return mux2(c) }

var mux2 = mustChip("MUX2", "a, b, sel", "out",
	Inverter("in=sel, out=selb"),
	TGate("in=a, en=selb, enb=sel, out=out"),
	TGate("in=b, en=sel, enb=selb, out=out"),
)

// Xor2 returns a XOR gate built from four NAND gates.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && !b || !a && b
//
func Xor2(c string) Part { return xor2(c) }

var xor2 = mustChip("XOR2", "a, b", "out",
	Nand2("a=a, b=b, out=nandAB"),
	Nand2("a=a, b=nandAB, out=w0"),
	Nand2("a=b, b=nandAB, out=w1"),
	Nand2("a=w0, b=w1, out=out"),
)

// And2 returns a NAND gate followed by an inverter.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b
//
func And2(c string) Part { return and2(c) }

var and2 = mustChip("AND2", "a, b", "out",
	Nand2("a=a, b=b, out=nand"),
	Inverter("in=nand, out=out"),
)

// InverterN returns a bus of bits inverters.
//
//	Inputs: in[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = !in[i] }
//
func InverterN(bits int) NewPartFn {
	bs := strconv.Itoa(bits)
	return (&PartSpec{
		Name:    "INV" + bs,
		Inputs:  IO("in[" + bs + "]"),
		Outputs: IO("out[" + bs + "]"),
		Mount: func(s *Socket) error {
			for i := 0; i < bits; i++ {
				in, out := hdl.BusPinName(pIn, i), hdl.BusPinName(pOut, i)
				if err := firstErr(
					s.P(in, Vdd, out),
					s.N(in, out, Gnd),
				); err != nil {
					return err
				}
			}
			return nil
		}}).NewPart
}

func mustChip(name, inputs, outputs string, parts ...Part) NewPartFn {
	c, err := Chip(name, inputs, outputs, parts...)
	if err != nil {
		panic(err)
	}
	return c
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
