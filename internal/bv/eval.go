package bv

// env is the evaluator's variable environment. Identifier density is
// at most 3 at runtime (a program's argument, and inside a fold body
// the current byte and the accumulator), so a fixed-size array
// indexed by Id outperforms a map and never allocates on the hot
// path, per the design note that a stack-allocated small array is
// adequate here.
type env struct {
	vals [3]uint64
}

func (e *env) get(id Id) uint64 {
	return e.vals[id]
}

// Eval interprets p on input x. Pure, deterministic, and allocation
// free: every Expr is well-typed by construction (the generator and
// parser never produce an Ident that escapes its binder's scope), so
// there is no runtime error path here — an out-of-range Id is a
// programming error and will panic on the array index, which is
// exactly the "fatal assertion; never surfaces" behavior the error
// taxonomy calls for.
func (p Program) Eval(x uint64) uint64 {
	var e env
	e.vals[p.Id] = x
	return evalExpr(p.Expr, &e)
}

func evalExpr(expr Expr, e *env) uint64 {
	switch v := expr.(type) {
	case Zero:
		return 0
	case One:
		return 1
	case Ident:
		return e.get(v.Id)
	case If0:
		if evalExpr(v.Cond, e) == 0 {
			return evalExpr(v.Then, e)
		}
		return evalExpr(v.Else, e)
	case Op1:
		arg := evalExpr(v.Arg, e)
		switch v.Op {
		case Not:
			return ^arg
		case Shl1:
			return arg << 1
		case Shr1:
			return arg >> 1
		case Shr4:
			return arg >> 4
		case Shr16:
			return arg >> 16
		default:
			panic("bv: invalid UnaOp")
		}
	case Op2:
		l := evalExpr(v.Left, e)
		r := evalExpr(v.Right, e)
		switch v.Op {
		case And:
			return l & r
		case Or:
			return l | r
		case Xor:
			return l ^ r
		case Plus:
			return l + r // wrapping 64-bit addition, unchecked modulo 2^64
		default:
			panic("bv: invalid BinOp")
		}
	case Fold:
		foldee := evalExpr(v.Foldee, e)
		accum := evalExpr(v.Init, e)
		for i := 0; i < 8; i++ {
			e.vals[v.NextId] = foldee & 0xff
			e.vals[v.AccumId] = accum
			accum = evalExpr(v.Body, e)
			foldee >>= 8
		}
		return accum
	default:
		panic("bv: unknown expression node")
	}
}
