// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cells

import (
	"strconv"

	"github.com/db47h/irsim/internal/hdl"
)

// Or2 returns a NOR gate followed by an inverter.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a || b
//
func Or2(c string) Part { return or2(c) }

var or2 = mustChip("OR2", "a, b", "out",
	Nor2("a=a, b=b, out=nor"),
	Inverter("in=nor, out=out"),
)

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(c string) Part { return hAdder(c) }

var hAdder = mustChip("HALFADDER", "a, b", "s, c",
	Xor2("a=a, b=b, out=s"),
	And2("a=a, b=b, out=c"),
)

// FullAdder returns a full adder built from two half adders.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(c string) Part { return adder(c) }

var adder = mustChip("FULLADDER", "a, b, cin", "s, cout",
	HalfAdder("a=a, b=b, s=s0, c=c0"),
	HalfAdder("a=s0, b=cin, s=s, c=c1"),
	Or2("a=c0, b=c1, out=cout"),
)

// AdderN returns a N-bits ripple carry adder.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits], c
//	Function: out = lsb(a + b), c = carry out
//
func AdderN(bits int) NewPartFn {
	bs := strconv.Itoa(bits)
	parts := make([]Part, 0, bits)
	parts = append(parts, HalfAdder("a=a[0], b=b[0], s=out[0], c=c0"))
	for i := 1; i < bits; i++ {
		cout := "c" + strconv.Itoa(i)
		if i == bits-1 {
			cout = "c"
		}
		parts = append(parts, FullAdder(
			"a="+hdl.BusPinName(pA, i)+
				", b="+hdl.BusPinName(pB, i)+
				", cin=c"+strconv.Itoa(i-1)+
				", s="+hdl.BusPinName(pOut, i)+
				", cout="+cout))
	}
	if bits == 1 {
		parts[0] = HalfAdder("a=a[0], b=b[0], s=out[0], c=c")
	}
	return mustChip("ADDER"+bs, "a["+bs+"], b["+bs+"]", "out["+bs+"], c", parts...)
}
