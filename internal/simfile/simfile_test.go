package simfile_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/db47h/irsim/internal/simfile"
)

func TestExpand(t *testing.T) {
	data := []struct {
		in  string
		out []string
		err string
	}{
		{"plain", []string{"plain"}, ""},
		{"out{1:3}", []string{"out1", "out2", "out3"}, ""},
		{"a{3:1}b", []string{"a3b", "a2b", "a1b"}, ""},
		{"x{0:6:2}", []string{"x0", "x2", "x4", "x6"}, ""},
		{"x{6:0:2}", []string{"x6", "x4", "x2", "x0"}, ""},
		{"x{0:2:0}", []string{"x0", "x1", "x2"}, ""},
		{"o{1:2}{0:4:2}", []string{"o10", "o12", "o14", "o20", "o22", "o24"}, ""},
		{"bad{1:2", nil, `in "bad{1:2" at pos 8: missing closing '}'`},
		{"bad{12}", nil, `in "bad{12}" at pos 5: expected {start:stop} or {start:stop:step}`},
		{"bad{1:z}", nil, `in "bad{1:z}" at pos 7: invalid integer "z"`},
	}
	for _, d := range data {
		t.Run(d.in, func(t *testing.T) {
			out, err := simfile.Expand(d.in)
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

func TestScanner(t *testing.T) {
	in := "| units: 100 tech: scmos\n\n" +
		"p  a  vdd\tout 2 4 10 20\n" +
		"   \t\n" +
		"= out{1:2} x\n"
	s := simfile.NewScanner(strings.NewReader(in))
	var recs []simfile.Record
	for s.Scan() {
		recs = append(recs, s.Record())
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	expected := []simfile.Record{
		{Line: 1, Fields: []string{"|", "units:", "100", "tech:", "scmos"}},
		{Line: 3, Fields: []string{"p", "a", "vdd", "out", "2", "4", "10", "20"}},
		{Line: 5, Fields: []string{"=", "out{1:2}", "x"}},
	}
	if !reflect.DeepEqual(recs, expected) {
		t.Fatalf("got %v, expected %v", recs, expected)
	}
	if k := recs[1].Key(); k != 'p' {
		t.Errorf("key = %c, expected p", k)
	}

	s = simfile.NewScanner(strings.NewReader(in))
	s.Expand = true
	var last simfile.Record
	for s.Scan() {
		last = s.Record()
	}
	if !reflect.DeepEqual(last.Fields, []string{"=", "out1", "out2", "x"}) {
		t.Errorf("expanded fields = %v", last.Fields)
	}
}

func TestScanner_badIterator(t *testing.T) {
	s := simfile.NewScanner(strings.NewReader("n a b c 2 2\nn x{1 b c 2 2\n"))
	s.Expand = true
	n := 0
	for s.Scan() {
		n++
	}
	if n != 1 {
		t.Errorf("read %d records, expected 1", n)
	}
	if err := s.Err(); err == nil || !strings.HasPrefix(err.Error(), "line 2: ") {
		t.Errorf("unexpected error %v", err)
	}
}
