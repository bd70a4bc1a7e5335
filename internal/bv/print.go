package bv

import "strings"

// idToStr renders an Id as the little-endian base-26 string the
// oracle expects: digits 0-25 map to 'a'-'z', least-significant digit
// first, with the loop naturally terminating on a final nonzero
// quotient (so "a" is id 0, "b" is id 1, ..., "z" is id 25, "ab" is
// id 26, and so on).
func idToStr(id Id) string {
	num := uint64(id)
	var b strings.Builder
	for {
		div, rem := num/26, num%26
		b.WriteByte(byte('a' + rem))
		if div == 0 {
			break
		}
		num = div
	}
	return b.String()
}

// String renders the program in the oracle's concrete syntax:
// "(lambda (ID) EXPR)".
func (p Program) String() string {
	var b strings.Builder
	b.WriteString("(lambda (")
	b.WriteString(idToStr(p.Id))
	b.WriteString(") ")
	writeExpr(&b, p.Expr)
	b.WriteString(")")
	return b.String()
}

func writeExpr(b *strings.Builder, expr Expr) {
	switch v := expr.(type) {
	case Zero:
		b.WriteByte('0')
	case One:
		b.WriteByte('1')
	case Ident:
		b.WriteString(idToStr(v.Id))
	case If0:
		b.WriteString("(if0 ")
		writeExpr(b, v.Cond)
		b.WriteByte(' ')
		writeExpr(b, v.Then)
		b.WriteByte(' ')
		writeExpr(b, v.Else)
		b.WriteByte(')')
	case Op1:
		b.WriteByte('(')
		b.WriteString(v.Op.String())
		b.WriteByte(' ')
		writeExpr(b, v.Arg)
		b.WriteByte(')')
	case Op2:
		b.WriteByte('(')
		b.WriteString(v.Op.String())
		b.WriteByte(' ')
		writeExpr(b, v.Left)
		b.WriteByte(' ')
		writeExpr(b, v.Right)
		b.WriteByte(')')
	case Fold:
		b.WriteString("(fold ")
		writeExpr(b, v.Foldee)
		b.WriteByte(' ')
		writeExpr(b, v.Init)
		b.WriteString(" (lambda (")
		b.WriteString(idToStr(v.NextId))
		b.WriteByte(' ')
		b.WriteString(idToStr(v.AccumId))
		b.WriteString(") ")
		writeExpr(b, v.Body)
		b.WriteString("))")
	default:
		panic("bv: unknown expression node")
	}
}
