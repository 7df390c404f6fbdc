package cells_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/db47h/irsim"
	"github.com/db47h/irsim/cells"
	"github.com/db47h/irsim/irtest"
)

// recorder is a Builder that records emitted devices.
type recorder struct {
	devs []string
}

func (r *recorder) PutTransistor(gate, source, drain string, length, width, area, perim, x, y float64, nType bool) error {
	typ := "p"
	if nType {
		typ = "n"
	}
	r.devs = append(r.devs, fmt.Sprintf("%s %s %s %s %g %g", typ, gate, source, drain, length, width))
	return nil
}

func (r *recorder) PutResistor(a, b string, ohms float64) error {
	r.devs = append(r.devs, fmt.Sprintf("r %s %s %g", a, b, ohms))
	return nil
}

func (r *recorder) PutCapacitor(a, b string, fF float64) error {
	r.devs = append(r.devs, fmt.Sprintf("c %s %s %g", a, b, fF))
	return nil
}

func TestPlace(t *testing.T) {
	var r recorder
	err := cells.Place(&r,
		cells.Nand2("a=x, b=true, out=w"),
		cells.Inverter("in=w"),
	)
	if err != nil {
		t.Fatal(err)
	}
	exp := []string{
		"p x vdd w 2 8",
		"p vdd vdd w 2 8",
		"n x w nand20/x 2 4",
		"n vdd nand20/x gnd 2 4",
		"p w vdd inv1/out 2 8",
		"n w inv1/out gnd 2 4",
	}
	if !reflect.DeepEqual(r.devs, exp) {
		t.Fatalf("got %q\nexpected %q", r.devs, exp)
	}
}

func TestPlaceSized(t *testing.T) {
	var r recorder
	err := cells.PlaceSized(&r, cells.Sizes{NLength: 3, NWidth: 6, PLength: 3, PWidth: 12},
		cells.InverterN(2)("in[0..1]=a[0..1], out[0..1]=b[1..0]"),
	)
	if err != nil {
		t.Fatal(err)
	}
	exp := []string{
		"p a[0] vdd b[1] 3 12",
		"n a[0] b[1] gnd 3 6",
		"p a[1] vdd b[0] 3 12",
		"n a[1] b[0] gnd 3 6",
	}
	if !reflect.DeepEqual(r.devs, exp) {
		t.Fatalf("got %q\nexpected %q", r.devs, exp)
	}
}

func TestPlace_unconnected(t *testing.T) {
	var r recorder
	if err := cells.Place(&r, cells.Inverter("out=o")); err != nil {
		t.Fatal(err)
	}
	if r.devs[0] != "p gnd vdd o 2 8" {
		t.Fatalf("unconnected input not tied to gnd: %q", r.devs[0])
	}
	if err := cells.Place(&r); err == nil {
		t.Fatal("expected error on empty part list")
	}
}

func TestParseConnections(t *testing.T) {
	td := []struct {
		in  string
		out []cells.Connection
		err string
	}{
		{"a=x, b=y", []cells.Connection{{"a", "x"}, {"b", "y"}}, ""},
		{"in[0..1]=bus[3..2]", []cells.Connection{{"in[0]", "bus[3]"}, {"in[1]", "bus[2]"}}, ""},
		{"in[0..2]=gnd", []cells.Connection{{"in[0]", "gnd"}, {"in[1]", "gnd"}, {"in[2]", "gnd"}}, ""},
		{"in[1]=x[4]", []cells.Connection{{"in[1]", "x[4]"}}, ""},
		{"in[0..1]=x[0..2]", nil, `in "in[0..1]=x[0..2]": size mismatch in in[0..1]=x[0..2]`},
	}
	for _, d := range td {
		t.Run(d.in, func(t *testing.T) {
			c, err := cells.ParseConnections(d.in)
			if err != nil {
				if d.err == "" || err.Error() != d.err {
					t.Fatalf("got error %q, expected %q", err, d.err)
				}
				return
			}
			if d.err != "" {
				t.Fatalf("expected error %q", d.err)
			}
			if !reflect.DeepEqual(c, d.out) {
				t.Fatalf("got %v, expected %v", c, d.out)
			}
		})
	}
}

func TestChip_errors(t *testing.T) {
	data := []struct {
		name  string
		in    string
		out   string
		parts []cells.Part
		err   string
	}{
		{"vdd_out", "a, b", "out", []cells.Part{
			cells.Nand2("a=a, b=b, out=vdd"),
		}, "NAND2.out:vdd: output pin connected to power supply"},
		{"false_out", "a, b", "out", []cells.Part{
			cells.Nand2("a=a, b=b, out=false"),
		}, "NAND2.out:false: output pin connected to power supply"},
		{"in_out", "a, b", "out", []cells.Part{
			cells.Nand2("a=a, b=b, out=a"),
		}, "NAND2.out:a: chip input pin used as output"},
		{"twice", "a, b", "out", []cells.Part{
			cells.Nand2("a=a, a=b, out=out"),
		}, "NAND2 pin a connected more than once"},
		{"unknown_pin", "a, b", "out", []cells.Part{
			cells.Nand2("a=a, typo=b, out=out"),
		}, "invalid pin name typo for part NAND2"},
		{"ok", "a, b", "out", []cells.Part{
			cells.Nand2("a=a, b=b, out=out"),
		}, ""},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			_, err := cells.Chip(d.name, d.in, d.out, d.parts...)
			if err == nil && d.err != "" || err != nil && err.Error() != d.err {
				t.Errorf("Got error %q, expected %q", err, d.err)
			}
		})
	}
}

func TestMount_errors(t *testing.T) {
	var r recorder
	err := cells.Place(&r, cells.Inverter("in=a, bogus=b"))
	if err == nil || err.Error() != "invalid pin name bogus for part INV" {
		t.Fatalf("unexpected error %v", err)
	}
	err = cells.Place(&r, cells.Inverter("in=a, out=gnd"))
	if err == nil || err.Error() != "INV.out:gnd: output pin connected to power supply" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPart_panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	cells.Inverter("in=")
}

func TestCells(t *testing.T) {
	and3, err := cells.Chip("AND3", "a, b, c", "out",
		cells.Nand3("a=a, b=b, c=c, out=n"),
		cells.Inverter("in=n, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	td := []struct {
		name string
		part cells.NewPartFn
		ref  func([]bool) []bool
	}{
		{"INV", cells.Inverter, func(in []bool) []bool { return []bool{!in[0]} }},
		{"NAND2", cells.Nand2, func(in []bool) []bool { return []bool{!(in[0] && in[1])} }},
		{"NOR2", cells.Nor2, func(in []bool) []bool { return []bool{!(in[0] || in[1])} }},
		{"NAND3", cells.Nand3, func(in []bool) []bool { return []bool{!(in[0] && in[1] && in[2])} }},
		{"AND2", cells.And2, func(in []bool) []bool { return []bool{in[0] && in[1]} }},
		{"XOR2", cells.Xor2, func(in []bool) []bool { return []bool{in[0] != in[1]} }},
		{"MUX2", cells.Mux2, func(in []bool) []bool {
			if in[2] {
				return []bool{in[1]}
			}
			return []bool{in[0]}
		}},
		{"OR2", cells.Or2, func(in []bool) []bool { return []bool{in[0] || in[1]} }},
		{"HALFADDER", cells.HalfAdder, func(in []bool) []bool { return []bool{in[0] != in[1], in[0] && in[1]} }},
		{"FULLADDER", cells.FullAdder, func(in []bool) []bool {
			n := b2i(in[0]) + b2i(in[1]) + b2i(in[2])
			return []bool{n&1 != 0, n&2 != 0}
		}},
		{"ADDER4", cells.AdderN(4), func(in []bool) []bool {
			var a, b int
			for i := 0; i < 4; i++ {
				a |= b2i(in[i]) << uint(i)
				b |= b2i(in[i+4]) << uint(i)
			}
			sum := a + b
			out := make([]bool, 5)
			for i := range out {
				out[i] = sum&(1<<uint(i)) != 0
			}
			return out
		}},
		{"AND3", and3, func(in []bool) []bool { return []bool{in[0] && in[1] && in[2]} }},
		{"INV4", cells.InverterN(4), func(in []bool) []bool {
			out := make([]bool, len(in))
			for i := range in {
				out[i] = !in[i]
			}
			return out
		}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			irtest.ComparePart(t, nil, d.part, d.ref)
		})
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestAdderN(t *testing.T) {
	s := irtest.PlaceSession(t, nil, cells.AdderN(8)("a[0..7]=x[0..7], b[0..7]=y[0..7], out[0..7]=sum[0..7], c=carry"))
	for _, d := range [][2]int64{{0, 0}, {1, 1}, {100, 27}, {255, 1}, {200, 100}, {170, 85}} {
		irtest.SetInt64(t, s, "x", 8, d[0])
		irtest.SetInt64(t, s, "y", 8, d[1])
		irtest.Set(t, s, nil)
		sum, ok := irtest.Int64(t, s, "sum", 8)
		if !ok {
			t.Fatalf("%d + %d: undefined sum", d[0], d[1])
		}
		if c := irtest.Node(t, s, "carry").Pot(); c == irsim.High {
			sum |= 256
		}
		if sum != d[0]+d[1] {
			t.Fatalf("%d + %d = %d, expected %d", d[0], d[1], sum, d[0]+d[1])
		}
	}
}

func TestLatch(t *testing.T) {
	s := irtest.PlaceSession(t, nil, cells.Latch("d=d, clk=clk, q=q"))
	q := irtest.Node(t, s, "q")
	steps := []struct {
		d, clk irsim.Potential
		q      irsim.Potential
	}{
		{irsim.High, irsim.High, irsim.High},
		{irsim.High, irsim.Low, irsim.High},
		{irsim.Low, irsim.Low, irsim.High},
		{irsim.Low, irsim.High, irsim.Low},
		{irsim.High, irsim.High, irsim.High},
		{irsim.High, irsim.Low, irsim.High},
		{irsim.Low, irsim.Low, irsim.High},
	}
	for i, st := range steps {
		irtest.Set(t, s, map[string]irsim.Potential{"d": st.d, "clk": st.clk})
		if q.Pot() != st.q {
			t.Fatalf("step %d: d=%v clk=%v: q = %v, expected %v", i, st.d, st.clk, q.Pot(), st.q)
		}
	}
}

func TestCells_rc(t *testing.T) {
	cfg := irsim.DefaultConfig()
	cfg.Model = irsim.RC
	irtest.ComparePart(t, cfg, cells.Inverter, func(in []bool) []bool { return []bool{!in[0]} })
	irtest.ComparePart(t, cfg, cells.Nand2, func(in []bool) []bool { return []bool{!(in[0] && in[1])} })
	irtest.ComparePart(t, cfg, cells.Nor2, func(in []bool) []bool { return []bool{!(in[0] || in[1])} })
}
