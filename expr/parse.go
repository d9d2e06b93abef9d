package expr

import (
	"fmt"
	"strconv"
)

// Parse parses a single expression. Unterminated string literal is
// parsed as empty string and logged.
func Parse(text string) (Expression, error) {
	p := parser{text: text}
	p.skipSpace()
	if p.done() {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	e, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.done() {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, p.text[p.pos:], p.pos)
	}
	return e, nil
}

type parser struct {
	text string
	pos  int
}

func (p *parser) done() bool {
	return p.pos >= len(p.text)
}

func (p *parser) peek() byte {
	return p.text[p.pos]
}

func (p *parser) skipSpace() {
	for !p.done() && isSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) parse() (Expression, error) {
	c := p.peek()
	switch {
	case c == '(':
		return p.compound()
	case c == ')':
		return nil, fmt.Errorf("%w: unexpected ')' at %d", ErrSyntax, p.pos)
	case c == '#':
		return p.boolean()
	case c == '"':
		return p.string(), nil
	case isDigit(c) || c == '-' && p.pos+1 < len(p.text) && isDigit(p.text[p.pos+1]):
		return p.integer()
	case isIdentifier(c):
		return p.variable()
	}
	return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, p.pos)
}

func (p *parser) compound() (Expression, error) {
	start := p.pos
	p.pos++
	c := Compound{}
	for {
		p.skipSpace()
		if p.done() {
			return nil, fmt.Errorf("%w: missing ')' for '(' at %d", ErrSyntax, start)
		}
		if p.peek() == ')' {
			p.pos++
			return c, nil
		}
		child, err := p.parse()
		if err != nil {
			return nil, err
		}
		c = append(c, child)
	}
}

func (p *parser) boolean() (Expression, error) {
	start := p.pos
	p.pos++
	if p.done() {
		return nil, fmt.Errorf("%w: incomplete boolean at %d", ErrSyntax, start)
	}
	var v Boolean
	switch p.peek() {
	case 't':
		v = true
	case 'f':
		v = false
	default:
		return nil, fmt.Errorf("%w: bad boolean at %d", ErrSyntax, start)
	}
	p.pos++
	if err := p.delimited(start); err != nil {
		return nil, err
	}
	return Literal{Value: v}, nil
}

func (p *parser) string() Expression {
	start := p.pos
	p.pos++
	for i := p.pos; i < len(p.text); i++ {
		if p.text[i] == '"' {
			s := p.text[p.pos:i]
			p.pos = i + 1
			return Literal{Value: String(s)}
		}
	}
	logger.Entry().Errorf("unterminated string at %d in %q", start, p.text)
	p.pos = len(p.text)
	return Literal{Value: String("")}
}

func (p *parser) integer() (Expression, error) {
	start := p.pos
	p.pos++
	for !p.done() && isDigit(p.peek()) {
		p.pos++
	}
	if err := p.delimited(start); err != nil {
		return nil, err
	}
	i, err := strconv.Atoi(p.text[start:p.pos])
	if err != nil {
		return nil, fmt.Errorf("%w: bad integer at %d: %v", ErrSyntax, start, err)
	}
	return Literal{Value: Integer(i)}, nil
}

func (p *parser) variable() (Expression, error) {
	start := p.pos
	for !p.done() && (isIdentifier(p.peek()) || isDigit(p.peek())) {
		p.pos++
	}
	if err := p.delimited(start); err != nil {
		return nil, err
	}
	return Variable(p.text[start:p.pos]), nil
}

// delimited checks that token which started at start ends here.
func (p *parser) delimited(start int) error {
	if p.done() || isSpace(p.peek()) || p.peek() == '(' || p.peek() == ')' {
		return nil
	}
	return fmt.Errorf("%w: bad token at %d", ErrSyntax, start)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentifier(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '-' || c == '?'
}
