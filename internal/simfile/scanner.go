// Package simfile reads the line oriented records of .sim netlist files.
//
package simfile

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const maxLine = 1 << 20

// Record is a non-empty line of a .sim file split into fields.
//
type Record struct {
	Line   int
	Fields []string
}

// Key returns the record key, the first character of the first field.
//
func (r *Record) Key() byte { return r.Fields[0][0] }

// Scanner reads records from a .sim file.
//
type Scanner struct {
	// Expand enables iterator expansion in record fields. See Expand.
	Expand bool

	sc   *bufio.Scanner
	line int
	rec  Record
	err  error
}

// NewScanner returns a new Scanner reading from r.
//
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	return &Scanner{sc: sc}
}

// Scan advances to the next record, skipping blank lines. It returns false
// at the end of the input or on error.
//
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.sc.Scan() {
		s.line++
		fs := Fields(s.sc.Text())
		if len(fs) == 0 {
			continue
		}
		if s.Expand {
			var err error
			if fs, err = ExpandAll(fs); err != nil {
				s.err = errors.Wrapf(err, "line %d", s.line)
				return false
			}
		}
		s.rec = Record{Line: s.line, Fields: fs}
		return true
	}
	if err := s.sc.Err(); err != nil {
		s.err = errors.Wrapf(err, "line %d", s.line+1)
	}
	return false
}

// Record returns the last record read by Scan.
//
func (s *Scanner) Record() Record { return s.rec }

// Line returns the number of lines read so far.
//
func (s *Scanner) Line() int { return s.line }

// Err returns the first error encountered by the Scanner.
//
func (s *Scanner) Err() error { return s.err }

// Fields splits a line on spaces and tabs.
//
func Fields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == '\t' })
}
