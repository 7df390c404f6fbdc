package cells

// Latch returns a transparent D latch made of transmission gates and an
// inverter loop.
//
//	Inputs: d, clk
//	Outputs: q
//	Function: if clk { q = d } // q holds its value otherwise
//
func Latch(c string) Part { return latch(c) }

var latch = mustChip("LATCH", "d, clk", "q",
	Inverter("in=clk, out=clkb"),
	TGate("in=d, en=clk, enb=clkb, out=m"),
	Inverter("in=m, out=qb"),
	Inverter("in=qb, out=q"),
	TGate("in=q, en=clkb, enb=clk, out=m"),
)
