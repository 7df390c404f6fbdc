package simfile

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Expand expands the iterators found in arg. An iterator has the form
// {start:stop} or {start:stop:step} and is replaced by each value in the
// range in turn. Iterators are expanded left to right, so that
//
//	Expand("out{1:2}{0:4:2}")
//
// returns out10, out12, out14, out20, out22 and out24. The sign of step is
// ignored, ranges are walked downward when start > stop. A zero step is
// treated as 1.
//
func Expand(arg string) ([]string, error) {
	return expand(arg, 0, nil)
}

// ExpandAll expands the iterators in every element of args.
//
func ExpandAll(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		var err error
		if out, err = expand(a, 0, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func expand(arg string, from int, out []string) ([]string, error) {
	i := strings.IndexByte(arg[from:], '{')
	if i < 0 {
		return append(out, arg), nil
	}
	start := from + i
	j := strings.IndexByte(arg[start:], '}')
	if j < 0 {
		return nil, parseError(arg, len(arg), "missing closing '}'")
	}
	end := start + j
	parts := strings.Split(arg[start+1:end], ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, parseError(arg, start+1, "expected {start:stop} or {start:stop:step}")
	}
	var v [3]int
	v[2] = 1
	pos := start + 1
	for k, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, parseError(arg, pos, "invalid integer "+strconv.Quote(p))
		}
		v[k] = n
		pos += len(p) + 1
	}
	lo, hi, step := v[0], v[1], v[2]
	if step < 0 {
		step = -step
	}
	if step == 0 {
		step = 1
	}
	if lo > hi {
		step = -step
	}
	prefix, suffix := arg[:start], arg[end+1:]
	for n := lo; step > 0 && n <= hi || step < 0 && n >= hi; n += step {
		ns := strconv.Itoa(n)
		var err error
		if out, err = expand(prefix+ns+suffix, len(prefix)+len(ns), out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
