package cells

import (
	"github.com/db47h/irsim/internal/hdl"
	"github.com/pkg/errors"
)

// Chip composes existing parts into a new part. The pin names declared in
// inputs and outputs are the pins of the chip, other names used in the
// parts' connections are nets internal to each chip instance.
//
// An Xor gate can be built like this:
//
//	xor, err := Chip("XOR", "a, b", "out",
//		Nand2("a=a, b=b, out=nandAB"),
//		Nand2("a=a, b=nandAB, out=w0"),
//		Nand2("a=b, b=nandAB, out=w1"),
//		Nand2("a=w0, b=w1, out=out"),
//	)
//
func Chip(name string, inputs string, outputs string, parts ...Part) (NewPartFn, error) {
	in, err := hdl.ParseIOSpec(inputs)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	out, err := hdl.ParseIOSpec(outputs)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	isIn := make(map[string]bool, len(in))
	for _, i := range in {
		isIn[i] = true
	}

	for _, p := range parts {
		seen := make(map[string]bool, len(p.Conns))
		for _, c := range p.Conns {
			if !p.hasPin(c.PP) {
				return nil, errors.New("invalid pin name " + c.PP + " for part " + p.Name)
			}
			if seen[c.PP] {
				return nil, errors.New(p.Name + " pin " + c.PP + " connected more than once")
			}
			seen[c.PP] = true
			if !p.isOutput(c.PP) {
				continue
			}
			if _, ok := supply(c.CP); ok {
				return nil, errors.New(p.Name + "." + c.PP + ":" + c.CP + ": output pin connected to power supply")
			}
			if isIn[c.CP] {
				return nil, errors.New(p.Name + "." + c.PP + ":" + c.CP + ": chip input pin used as output")
			}
		}
	}

	spec := &PartSpec{
		Name:    name,
		Inputs:  in,
		Outputs: out,
		Mount: func(s *Socket) error {
			for i, p := range parts {
				if err := s.Mount(p, i); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return spec.NewPart, nil
}
