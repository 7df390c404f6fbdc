package hdl_test

import (
	"reflect"
	"testing"

	"github.com/db47h/irsim/internal/hdl"
)

func TestParseIOSpec(t *testing.T) {
	data := []struct {
		in  string
		out []string
		err string
	}{
		{"", nil, ""},
		{"a, b", []string{"a", "b"}, ""},
		{"in[2], sel", []string{"in[0]", "in[1]", "sel"}, ""},
		{"n1/out.x", []string{"n1/out.x"}, ""},
		{"a b", nil, `in "a b" at pos 3: unexpected identifier "b"`},
		{"a[", nil, `in "a[" at pos 3: integer value expected after '['`},
		{"a[1..2]", nil, `in "a[1..2]" at pos 1: bus size expected, got range`},
		{"a, 3", nil, `in "a, 3" at pos 4: expected pin name`},
		{"a=b", nil, `in "a=b" at pos 2: unexpected '='`},
	}
	for _, d := range data {
		t.Run(d.in, func(t *testing.T) {
			out, err := hdl.ParseIOSpec(d.in)
			if d.err != "" {
				if err == nil || err.Error() != d.err {
					t.Fatalf("got error %v, expected %q", err, d.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(out, d.out) {
				t.Errorf("got %v, expected %v", out, d.out)
			}
		})
	}
}

func TestParser_conns(t *testing.T) {
	p := &hdl.Parser{Input: "a=x, out[0..1]=bus[2..3], b[1]=vdd, c"}
	var items []interface{}
	for {
		v, err := p.Next(true)
		if err != nil {
			t.Fatal(err)
		}
		if v == nil {
			break
		}
		items = append(items, v)
	}
	expected := []interface{}{
		hdl.PinAssignment{hdl.Pin{"a", 0}, hdl.Pin{"x", 2}},
		hdl.PinAssignment{
			hdl.PinRange{hdl.Pin{"out", 5}, 0, 1},
			hdl.PinRange{hdl.Pin{"bus", 15}, 2, 3}},
		hdl.PinAssignment{hdl.PinIndex{hdl.Pin{"b", 26}, 1}, hdl.Pin{"vdd", 31}},
		hdl.Pin{"c", 36},
	}
	if !reflect.DeepEqual(items, expected) {
		t.Fatalf("got %v\nexpected %v", items, expected)
	}
}
