package irsim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by a Session.
//
var (
	ErrTooManyErrors = errors.New("too many errors")
	ErrInvalidTime   = errors.New("invalid time")
	ErrCantDrive     = errors.New("can't drive node")
	ErrMergedNode    = errors.New("node is part of a merged stack")
	ErrUnknownNode   = errors.New("unknown node")
	ErrFinished      = errors.New("network already finished")
	ErrNotFinished   = errors.New("network not finished")
)

// RecordError is an error found in a netlist record.
//
type RecordError struct {
	File string
	Line int
	Msg  string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("(%s,%d): %s", e.File, e.Line, e.Msg)
}

func invalidTime(t, lo, hi Time) error {
	return errors.Wrapf(ErrInvalidTime, "%v not in [%v, %v]", t, lo, hi)
}
