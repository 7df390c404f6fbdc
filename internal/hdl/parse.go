// Package hdl parses cell pin declarations and connection strings.
//
package hdl

import (
	"strconv"

	"github.com/pkg/errors"
)

// Token types.
//
const (
	EOF = iota
	Raw
	Ident
	BracketOpen
	BracketClose
	Comma
	Int
	Range
	Equal
)

var tokNames = [...]string{"end of input", "character", "identifier", "'['", "']'", "','", "integer", "'..'", "'='"}

// Item is a token read by a Lexer.
//
type Item struct {
	Type  int
	Pos   int
	Value interface{}
}

func (i Item) String() string {
	switch i.Type {
	case Ident, Raw:
		return tokNames[i.Type] + " " + strconv.Quote(i.Value.(string))
	case Int:
		return tokNames[i.Type] + " " + strconv.Itoa(i.Value.(int))
	}
	return tokNames[i.Type]
}

// Lexer splits pin specs and connection strings into tokens.
//
type Lexer struct {
	in  string
	pos int
}

// NewLexer returns a new lexer for i/o specs and connection descriptions.
//
func NewLexer(input string) *Lexer { return &Lexer{in: input} }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// identifier characters. Node names in netlists commonly use '/', '.', '#'
// and '!'.
func isIdent(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_' || c == '/' || c == '#' || c == '!' || c == '$'
}

// Lex returns the next token. Once the end of input is reached, Lex only
// returns EOF items.
//
func (l *Lexer) Lex() Item {
	for l.pos < len(l.in) && isSpace(l.in[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.in) {
		return Item{EOF, start, nil}
	}
	c := l.in[l.pos]
	l.pos++
	switch {
	case c == '[':
		return Item{BracketOpen, start, "["}
	case c == ']':
		return Item{BracketClose, start, "]"}
	case c == ',':
		return Item{Comma, start, ","}
	case c == '=':
		return Item{Equal, start, "="}
	case c == '.' && l.pos < len(l.in) && l.in[l.pos] == '.':
		l.pos++
		return Item{Range, start, ".."}
	case isDigit(c):
		for l.pos < len(l.in) && isDigit(l.in[l.pos]) {
			l.pos++
		}
		n, _ := strconv.Atoi(l.in[start:l.pos])
		return Item{Int, start, n}
	case isIdent(c):
		for l.pos < len(l.in) && (isIdent(l.in[l.pos]) || isDigit(l.in[l.pos]) || l.in[l.pos] == '.' && !l.atRange()) {
			l.pos++
		}
		return Item{Ident, start, l.in[start:l.pos]}
	}
	// stop at the first invalid character
	l.pos = len(l.in)
	return Item{Raw, start, string(c)}
}

func (l *Lexer) atRange() bool {
	return l.pos+1 < len(l.in) && l.in[l.pos+1] == '.'
}

// Pin is a simple pin name
//
type Pin struct {
	Name string
	Pos  int
}

// PinIndex is an indexed pin p[index]
//
type PinIndex struct {
	Pin
	Index int
}

// PinRange is a pin range p[start..end]
//
type PinRange struct {
	Pin
	Start int
	End   int
}

// PinAssignment is a part pin to chip pin assignment. pp=pc
//
type PinAssignment struct {
	LHS interface{}
	RHS interface{}
}

// Parser is a simplistic parser
//
type Parser struct {
	Input string
	l     *Lexer
	i     Item
	state int
}

const (
	stateInit = iota
	stateStarted
	stateDone = -1
)

// Next returns the next item in the input stream, a Pin, PinIndex, PinRange
// or, if allowConns is true, a PinAssignment. It returns nil, nil at the end
// of the input.
//
func (p *Parser) Next(allowConns bool) (interface{}, error) {
	if p.state == stateDone {
		return nil, nil
	}
	if p.l == nil {
		p.l = NewLexer(p.Input)
	}

	p.i = p.l.Lex()
	if p.state == stateInit && p.i.Type == EOF {
		p.state = stateDone
		return nil, nil
	}
	p.state = stateStarted

	pin, err := p.getPin()
	if err != nil {
		p.state = stateDone
		return nil, err
	}
	switch p.i.Type {
	case EOF:
		p.state = stateDone
		fallthrough
	case Comma:
		return pin, nil
	case Equal:
		if allowConns {
			break
		}
		fallthrough
	default:
		p.state = stateDone
		return nil, parseError(p.Input, p.i.Pos, "unexpected "+p.i.String())
	}

	p.i = p.l.Lex()
	pin2, err := p.getPin()
	if err != nil {
		p.state = stateDone
		return nil, err
	}
	switch p.i.Type {
	case EOF:
		p.state = stateDone
		fallthrough
	case Comma:
		return PinAssignment{pin, pin2}, nil
	}

	p.state = stateDone
	return nil, parseError(p.Input, p.i.Pos, "unexpected "+p.i.String())
}

func (p *Parser) getPin() (interface{}, error) {
	if p.i.Type != Ident {
		return nil, parseError(p.Input, p.i.Pos, "expected pin name")
	}
	pin := Pin{p.i.Value.(string), p.i.Pos}
	// after ident, expect ',', '[', '=' or EOF
	p.i = p.l.Lex()
	if p.i.Type != BracketOpen {
		return pin, nil
	}
	p.i = p.l.Lex()
	if p.i.Type != Int {
		return nil, parseError(p.Input, p.i.Pos, "integer value expected after '['")
	}
	start := p.i.Value.(int)
	end := -1
	p.i = p.l.Lex()
	if p.i.Type == Range {
		p.i = p.l.Lex()
		if p.i.Type != Int {
			return nil, parseError(p.Input, p.i.Pos, "integer value expected after '..'")
		}
		end = p.i.Value.(int)
		p.i = p.l.Lex()
	}
	if p.i.Type != BracketClose {
		return nil, parseError(p.Input, p.i.Pos, "closing ']' expected after index or range")
	}
	p.i = p.l.Lex()
	if end >= 0 {
		return PinRange{pin, start, end}, nil
	}
	return PinIndex{pin, start}, nil
}

// BusPinName returns the name of the i-th pin of bus name.
//
func BusPinName(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

// ParseIOSpec parses a pin declaration string and returns individual pin
// names, expanding bus declarations. For example:
//
//	ParseIOSpec("in[2], sel") // returns []string{"in[0]", "in[1]", "sel"}
//
func ParseIOSpec(names string) ([]string, error) {
	var out []string
	p := &Parser{Input: names}
	for {
		v, err := p.Next(false)
		if err != nil {
			return nil, err
		}
		switch pin := v.(type) {
		case nil:
			return out, nil
		case Pin:
			out = append(out, pin.Name)
		case PinIndex:
			// a bus declaration, name[size]
			for i := 0; i < pin.Index; i++ {
				out = append(out, BusPinName(pin.Name, i))
			}
		case PinRange:
			return nil, parseError(names, pin.Pos, "bus size expected, got range")
		}
	}
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
