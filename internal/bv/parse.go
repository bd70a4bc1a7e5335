package bv

import "strings"

// Parse turns the oracle's textual program representation, concrete
// syntax "(lambda (ID) EXPR)", back into the internal expression
// tree. It is used only on oracle-provided strings trusted to be
// well-formed (the local self-test commands, and round-trip tests);
// malformed input panics rather than returning an error, matching
// the parser's documented contract that failure here is fatal.
func Parse(src string) Program {
	p := &parser{src: src, interned: make(map[string]Id)}
	return p.parseProgram()
}

type parser struct {
	src      string
	interned map[string]Id
	nextId   Id
}

func (p *parser) parseProgram() Program {
	p.skipWS()
	p.expect("(")
	p.expect("lambda")
	p.expect("(")
	id := p.consumeId()
	p.expect(")")
	expr := p.consumeExpr()
	p.expect(")")
	return Program{Id: id, Expr: expr}
}

func (p *parser) skipWS() {
	i := 0
	for i < len(p.src) && isSpace(p.src[i]) {
		i++
	}
	p.src = p.src[i:]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	default:
		return false
	}
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// expect consumes exactly the literal token, panicking if it is not
// present (a malformed program is a fatal condition, per contract).
func (p *parser) expect(tok string) {
	if !strings.HasPrefix(p.src, tok) {
		panic("bv: expected " + tok + ", found " + p.src)
	}
	p.src = p.src[len(tok):]
	p.skipWS()
}

func (p *parser) consumeIdentStr() string {
	i := 0
	for i < len(p.src) && isAlnum(p.src[i]) {
		i++
	}
	if i == 0 {
		panic("bv: expected identifier, found " + p.src)
	}
	s := p.src[:i]
	p.src = p.src[i:]
	p.skipWS()
	return s
}

// consumeId interns the next identifier token, assigning it a fresh
// dense id on first occurrence.
func (p *parser) consumeId() Id {
	s := p.consumeIdentStr()
	if id, ok := p.interned[s]; ok {
		return id
	}
	id := p.nextId
	p.nextId++
	p.interned[s] = id
	return id
}

func (p *parser) consumeExpr() Expr {
	var ret Expr
	switch {
	case len(p.src) == 0:
		panic("bv: unexpected end of input")
	case p.src[0] == '0':
		p.src = p.src[1:]
		ret = Zero{}
	case p.src[0] == '1':
		p.src = p.src[1:]
		ret = One{}
	case p.src[0] == '(':
		p.src = p.src[1:]
		p.skipWS()
		head := p.consumeIdentStr()
		switch head {
		case "not":
			ret = Op1{Op: Not, Arg: p.consumeExpr()}
		case "shl1":
			ret = Op1{Op: Shl1, Arg: p.consumeExpr()}
		case "shr1":
			ret = Op1{Op: Shr1, Arg: p.consumeExpr()}
		case "shr4":
			ret = Op1{Op: Shr4, Arg: p.consumeExpr()}
		case "shr16":
			ret = Op1{Op: Shr16, Arg: p.consumeExpr()}
		case "and":
			ret = p.consumeOp2(And)
		case "or":
			ret = p.consumeOp2(Or)
		case "xor":
			ret = p.consumeOp2(Xor)
		case "plus":
			ret = p.consumeOp2(Plus)
		case "if0":
			cond := p.consumeExpr()
			then := p.consumeExpr()
			els := p.consumeExpr()
			ret = If0{Cond: cond, Then: then, Else: els}
		case "fold":
			foldee := p.consumeExpr()
			init := p.consumeExpr()
			p.expect("(")
			p.expect("lambda")
			p.expect("(")
			next := p.consumeId()
			accum := p.consumeId()
			p.expect(")")
			body := p.consumeExpr()
			p.expect(")") // close inner lambda
			ret = Fold{Foldee: foldee, Init: init, NextId: next, AccumId: accum, Body: body}
		default:
			panic("bv: unrecognized operator " + head)
		}
		p.expect(")")
		return ret
	default:
		ret = Ident{Id: p.consumeId()}
	}
	p.skipWS()
	return ret
}

func (p *parser) consumeOp2(op BinOp) Expr {
	left := p.consumeExpr()
	right := p.consumeExpr()
	return Op2{Op: op, Left: left, Right: right}
}
