package expr

import (
	"fmt"
	"strconv"
)

// node is an AST node.
type node interface {
	position() (line, col int)
}

type at struct{ line, col int }

func (a at) position() (int, int) { return a.line, a.col }

type numberLit struct {
	at
	value float64
}

type stringLit struct {
	at
	value string
}

type boolLit struct {
	at
	value bool
}

type ident struct {
	at
	name string
}

type unaryExpr struct {
	at
	op string
	x  node
}

type binaryExpr struct {
	at
	op          string
	left, right node
}

type callExpr struct {
	at
	name string
	args []node
}

type assignStmt struct {
	at
	name string
	x    node
}

type parser struct {
	toks []token
	pos  int
}

// parse turns src into a list of statements.
func parse(src string) ([]node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	var stmts []node
	for {
		p.skipSeparators()
		if p.peek().kind == tokEOF {
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		switch t := p.peek(); t.kind {
		case tokSep, tokEOF:
		default:
			return nil, p.errorf(t, "unexpected %s", t)
		}
	}
	if len(stmts) == 0 {
		return nil, ErrEmptyProgram
	}
	return stmts, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+offset]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) skipSeparators() {
	for p.peek().kind == tokSep {
		p.pos++
	}
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == word
}

func (p *parser) expectOp(text string) (token, error) {
	t := p.next()
	if t.kind != tokOp || t.text != text {
		return t, p.errorf(t, "expected %q, found %s", text, t)
	}
	return t, nil
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) statement() (node, error) {
	t := p.peek()
	if t.kind == tokIdent {
		if eq := p.peekAt(1); eq.kind == tokOp && eq.text == "=" {
			if isReserved(t.text) {
				return nil, p.errorf(t, "cannot assign to reserved word %q", t.text)
			}
			p.pos += 2
			x, err := p.expression()
			if err != nil {
				return nil, err
			}
			return &assignStmt{at: at{t.line, t.col}, name: t.text, x: x}, nil
		}
	}
	return p.expression()
}

func (p *parser) expression() (node, error) {
	return p.or()
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		t := p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{at: at{t.line, t.col}, op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		t := p.next()
		right, err := p.not()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{at: at{t.line, t.col}, op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) not() (node, error) {
	if p.isKeyword("not") || p.isOp("!") {
		t := p.next()
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{at: at{t.line, t.col}, op: "not", x: x}, nil
	}
	return p.comparison()
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

func (p *parser) comparison() (node, error) {
	left, err := p.sum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && comparisonOps[t.text] {
		p.next()
		right, err := p.sum()
		if err != nil {
			return nil, err
		}
		return &binaryExpr{at: at{t.line, t.col}, op: t.text, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) sum() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		t := p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{at: at{t.line, t.col}, op: t.text, left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("%") {
		t := p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{at: at{t.line, t.col}, op: t.text, left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.isOp("-") {
		t := p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{at: at{t.line, t.col}, op: "-", x: x}, nil
	}
	return p.power()
}

// power is right-associative and binds tighter than unary minus on its left,
// so -a^2 is -(a^2) and a^-b is a^(-b).
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		t := p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &binaryExpr{at: at{t.line, t.col}, op: "^", left: base, right: exp}, nil
	}
	return base, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid number %q", t.text)
		}
		return &numberLit{at: at{t.line, t.col}, value: v}, nil
	case tokString:
		return &stringLit{at: at{t.line, t.col}, value: t.text}, nil
	case tokIdent:
		switch t.text {
		case "true", "false":
			return &boolLit{at: at{t.line, t.col}, value: t.text == "true"}, nil
		case "and", "or", "not":
			return nil, p.errorf(t, "unexpected %s", t)
		}
		if p.isOp("(") {
			return p.call(t)
		}
		return &ident{at: at{t.line, t.col}, name: t.text}, nil
	case tokOp:
		if t.text == "(" {
			x, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return x, nil
		}
	}
	return nil, p.errorf(t, "unexpected %s", t)
}

func (p *parser) call(name token) (node, error) {
	p.next() // (
	c := &callExpr{at: at{name.line, name.col}, name: name.text}
	if p.isOp(")") {
		p.next()
		return c, nil
	}
	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		c.args = append(c.args, arg)
		if p.isOp(",") {
			p.next()
			continue
		}
		if _, err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return c, nil
	}
}

func isReserved(name string) bool {
	switch name {
	case "and", "or", "not", "true", "false", "if":
		return true
	}
	return false
}
