package irtest_test

import (
	"testing"

	"github.com/db47h/irsim"
	"github.com/db47h/irsim/cells"
	"github.com/db47h/irsim/irtest"
)

const inverter = `| units: 100 tech: scmos
p in vdd out 2 8
n in out gnd 2 4
`

func TestLoadSession(t *testing.T) {
	s := irtest.LoadSession(t, nil, inverter)
	irtest.Set(t, s, map[string]irsim.Potential{"in": irsim.High})
	if p := irtest.Node(t, s, "out").Pot(); p != irsim.Low {
		t.Fatalf("out = %v, expected 0", p)
	}
	irtest.Set(t, s, map[string]irsim.Potential{"in": irsim.Low})
	trs, err := irtest.Transitions(s, "out")
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != 2 {
		t.Fatalf("got transitions %v", trs)
	}
	if trs[0].Value != irsim.Low || trs[1].Value != irsim.High || trs[1].Time <= trs[0].Time {
		t.Fatalf("got transitions %v", trs)
	}
}

func TestComparePart(t *testing.T) {
	irtest.ComparePart(t, nil, cells.Nand2, func(in []bool) []bool {
		return []bool{!(in[0] && in[1])}
	})
}

func TestComparePart_random(t *testing.T) {
	irtest.ComparePart(t, nil, cells.InverterN(14), func(in []bool) []bool {
		out := make([]bool, len(in))
		for i, b := range in {
			out[i] = !b
		}
		return out
	})
}
