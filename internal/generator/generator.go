// Package generator samples random BV programs of an exact target
// size, obeying a problem's operator restrictions and structural
// mode (general / tfold / bonus). Binary operators are always drawn
// from the enabled subset, never the full operator set, and the
// slot-size nudge rules come from a reachability predicate
// (checkSize) rather than a hardcoded table.
package generator

import "bvsynth/internal/bv"

// CheckEvery is how often, in iterations, the search worker yields
// and checks its round context for cancellation.
const CheckEvery = 1 << 14

// Mode selects the structural shape GenProgram produces.
type Mode int

const (
	ModeGeneral Mode = iota
	ModeTfold
	ModeBonus
)

// ModeFor derives the generator mode from a problem's operator set
// and id (tfold is a structural flag on
// OperatorSet; bonus is a problem-id convention, see bv.Problem.IsBonus).
func ModeFor(p bv.Problem) Mode {
	switch {
	case p.Operators.Tfold:
		return ModeTfold
	case p.IsBonus():
		return ModeBonus
	default:
		return ModeGeneral
	}
}

// State is one worker's private generator: its operator-choice cache
// and its own RNG. Clone gives every parallel worker an independent
// copy sharing only the (immutable) operator configuration.
type State struct {
	rng             *RNG
	operators       bv.OperatorSet
	mode            Mode
	op1Choices      []bv.UnaOp
	op2Choices      []bv.BinOp
}

// New builds a generator for problem, seeded from rng (ownership of
// rng transfers to the State).
func New(problem bv.Problem, rng *RNG) *State {
	s := &State{rng: rng}
	s.Reset(problem)
	return s
}

// Reset reconfigures the generator for a new problem without
// discarding the RNG.
func (s *State) Reset(problem bv.Problem) {
	s.operators = problem.Operators
	s.mode = ModeFor(problem)
	s.op1Choices = problem.Operators.Op1Choices()
	s.op2Choices = problem.Operators.Op2Choices()
}

// Clone returns an independent generator for the same problem
// configuration, with its own RNG, for use as a per-worker clone.
// The caller supplies a fresh RNG (never share RNG
// state across clones).
func (s *State) Clone(rng *RNG) *State {
	return &State{
		rng:        rng,
		operators:  s.operators,
		mode:       s.mode,
		op1Choices: s.op1Choices,
		op2Choices: s.op2Choices,
	}
}

// GenProgram samples a program of exactly size. size must be at
// least large enough for the configured mode's fixed shape (2 for
// general, 6 for tfold, 13 for bonus) — a smaller request is a
// programming error in the caller (problem sizes are oracle-provided
// and validated against the protocol's 3..30 range before reaching
// here), so it panics rather than returning an error.
func (s *State) GenProgram(size int) bv.Program {
	switch s.mode {
	case ModeTfold:
		return s.genTfoldProgram(size)
	case ModeBonus:
		return s.genBonusProgram(size)
	default:
		return s.genGeneralProgram(size)
	}
}

func (s *State) genGeneralProgram(size int) bv.Program {
	body := s.genExpr(size-1, 1, s.operators.Fold, s.operators.If0)
	return bv.Program{Id: 0, Expr: body}
}

// genTfoldProgram builds the canonical tfold shape:
// (lambda (x) (fold x 0 (lambda (a b) BODY))), with BODY sized to
// request_size - 5 (1 program + 2 fold overhead + 1 foldee + 1 init)
// and no fold allowed inside BODY.
func (s *State) genTfoldProgram(size int) bv.Program {
	bodySize := size - 1 - 2 - 1 - 1
	if bodySize < 1 {
		panic("generator: tfold program size too small")
	}
	// Program arg is id 2 so it is never visible inside body (body's
	// own idents start fresh at 0 and 1 for next/accum), matching the
	// original's "shadowed" comment.
	body := s.genExpr(bodySize, 2, false, s.operators.If0)
	return bv.Program{
		Id: 2,
		Expr: bv.Fold{
			Foldee: bv.Ident{Id: 2},
			Init:   bv.Zero{},
			NextId: 0, AccumId: 1,
			Body: body,
		},
	}
}

// genBonusProgram builds the fixed bonus shape:
//
//	if0( (binop a b) and atomic, then_arm, else_arm )
//
// with then/else at least size 3, no nested if0 in any child, and
// fold never enabled.
func (s *State) genBonusProgram(size int) bv.Program {
	bodySize := size - 1
	const overhead = 1 /*if0*/ + 1 /*and*/ + 1 /*binop*/ + 1 /*atomic*/
	const minArm = 3
	if bodySize < overhead+2*minArm+2 /* a, b each >=1 */ {
		panic("generator: bonus program size too small")
	}
	remaining := bodySize - overhead

	var thenSize, elseSize, abTotal int
	for {
		thenSize = minArm + s.rng.IntN(remaining-2*minArm-2+1)
		rest := remaining - thenSize
		if rest < minArm+2 {
			continue
		}
		elseSize = minArm + s.rng.IntN(rest-minArm-2+1)
		abTotal = rest - elseSize
		if abTotal >= 2 {
			break
		}
	}
	aSize := 1 + s.rng.IntN(abTotal-1)
	bSize := abTotal - aSize

	a := s.genExpr(aSize, 1, false, false)
	b := s.genExpr(bSize, 1, false, false)
	atomic := s.genExpr(1, 1, false, false)
	cond := bv.Op2{
		Op:   bv.And,
		Left: bv.Op2{Op: s.chooseBinOp(), Left: a, Right: b},
		Right: atomic,
	}
	then := s.genExpr(thenSize, 1, false, false)
	els := s.genExpr(elseSize, 1, false, false)
	return bv.Program{Id: 0, Expr: bv.If0{Cond: cond, Then: then, Else: els}}
}

// genExpr returns an expression of exactly size, with idents bound
// names in scope, foldable true iff a fold may still be introduced
// below this node, and allowIf0 gating whether an If0 may be
// introduced below this node (always true outside of bonus-mode
// children, which force it false to avoid degenerate nested bonus
// shapes).
func (s *State) genExpr(size, idents int, foldable, allowIf0 bool) bv.Expr {
	switch size {
	case 1:
		choice := s.rng.IntN(2 + idents)
		switch choice {
		case 0:
			return bv.Zero{}
		case 1:
			return bv.One{}
		default:
			return bv.Ident{Id: bv.Id(choice - 2)}
		}
	case 2:
		if len(s.op1Choices) == 0 {
			panic("generator: size-2 slot requires a unary operator")
		}
		op := s.op1Choices[s.rng.IntN(len(s.op1Choices))]
		return bv.Op1{Op: op, Arg: s.genExpr(1, idents, foldable, allowIf0)}
	case 3:
		op1Len, op2Len := len(s.op1Choices), len(s.op2Choices)
		n := s.rng.IntN(op1Len + op2Len)
		if n < op1Len {
			return bv.Op1{Op: s.op1Choices[n], Arg: s.genExpr(2, idents, foldable, allowIf0)}
		}
		left := s.genExpr(1, idents, foldable, allowIf0)
		right := s.genExpr(1, idents, foldable, allowIf0)
		return bv.Op2{Op: s.op2Choices[n-op1Len], Left: left, Right: right}
	case 4:
		op1Len, op2Len := len(s.op1Choices), len(s.op2Choices)
		if op1Len == 0 && !(allowIf0 && s.operators.If0) {
			panic("generator: size-4 slot requires a unary operator or if0")
		}
		ifLen := 0
		if allowIf0 && s.operators.If0 {
			ifLen = 1
		}
		n := s.rng.IntN(op1Len + op2Len*2 + ifLen)
		switch {
		case n < op1Len:
			return bv.Op1{Op: s.op1Choices[n], Arg: s.genExpr(3, idents, foldable, allowIf0)}
		case n < op1Len+op2Len*2:
			var leftSize, rightSize int
			if s.rng.Bool() {
				leftSize, rightSize = 2, 1
			} else {
				leftSize, rightSize = 1, 2
			}
			left := s.genExpr(leftSize, idents, foldable, allowIf0)
			right := s.genExpr(rightSize, idents, foldable, allowIf0)
			op := s.chooseBinOp()
			return bv.Op2{Op: op, Left: left, Right: right}
		default:
			test := s.genExpr(1, idents, foldable, allowIf0)
			then := s.genExpr(1, idents, foldable, allowIf0)
			other := s.genExpr(1, idents, foldable, allowIf0)
			return bv.If0{Cond: test, Then: then, Else: other}
		}
	default:
		return s.genExprLarge(size, idents, foldable, allowIf0)
	}
}

func (s *State) genExprLarge(size, idents int, foldable, allowIf0 bool) bv.Expr {
	op1Len, op2Len := len(s.op1Choices), len(s.op2Choices)
	spaces := size - 1
	spacesChoose2 := spaces * (spaces - 1) / 2

	choices := op1Len + op2Len*(spaces-1)
	hasIf0 := allowIf0 && s.operators.If0
	if hasIf0 {
		choices += spacesChoose2
	}
	if foldable {
		choices += spacesChoose2
	}

	op2End := op1Len + op2Len*(spaces-1)
	ifEnd := op2End
	if hasIf0 {
		ifEnd += spacesChoose2
	}

	n := s.rng.IntN(choices)
	switch {
	case n < op1Len:
		return bv.Op1{Op: s.op1Choices[n], Arg: s.genExpr(size-1, idents, foldable, allowIf0)}
	case n < op2End:
		total := size - 1 // after removing the op itself
		var leftSize, rightSize int
		for {
			leftSize = s.genSize(total - 1)
			rightSize = total - leftSize
			if s.checkSize(leftSize) && s.checkSize(rightSize) {
				break
			}
		}
		left := s.genExpr(leftSize, idents, foldable, allowIf0)
		right := s.genExpr(rightSize, idents, foldable, allowIf0)
		return bv.Op2{Op: s.chooseBinOp(), Left: left, Right: right}
	case n < ifEnd:
		var testSize, thenSize, otherSize int
		for {
			testSize = s.genSize(size - 3)
			rest := size - 1 - testSize
			thenSize = s.genSize(rest - 1)
			otherSize = size - 1 - testSize - thenSize
			if s.checkSize(testSize) && s.checkSize(thenSize) && s.checkSize(otherSize) {
				break
			}
		}
		test := s.genExpr(testSize, idents, foldable, false)
		then := s.genExpr(thenSize, idents, foldable, false)
		other := s.genExpr(otherSize, idents, foldable, false)
		return bv.If0{Cond: test, Then: then, Else: other}
	default:
		foldSize := size - 2 // account for |fold|
		var foldeeSize, initSize, bodySize int
		for {
			foldeeSize = s.genSize(foldSize - 2)
			rest := foldSize - foldeeSize
			initSize = s.genSize(rest - 1)
			bodySize = rest - initSize
			if s.checkSize(foldeeSize) && s.checkSize(initSize) && s.checkSize(bodySize) {
				break
			}
		}
		foldee := s.genExpr(foldeeSize, idents, false, allowIf0)
		init := s.genExpr(initSize, idents, false, allowIf0)
		body := s.genExpr(bodySize, idents+2, false, allowIf0)
		return bv.Fold{Foldee: foldee, Init: init, NextId: 1, AccumId: 2, Body: body}
	}
}

func (s *State) chooseBinOp() bv.BinOp {
	return s.op2Choices[s.rng.IntN(len(s.op2Choices))]
}

// checkSize reports whether a standalone slot of this size can be
// filled at all given the enabled operator set:
//
//  1. with at least one unary operator enabled, every size >= 1 is
//     reachable;
//  2. otherwise size 2 is never reachable (it can only be an Op1);
//  3. otherwise, with neither if0 nor fold enabled, only odd sizes
//     are reachable (pure binary trees of Op2 and leaves);
//  4. otherwise (if0 and/or fold enabled, no unary operator), size 4
//     is reachable only when if0 is enabled — the size-4 slot's only
//     non-Op2 shape is an If0 of three size-1 children, and fold's
//     minimum size is 5, so fold alone cannot fill it;
//  5. and size 6 is never reachable, because any three-way split of 6
//     forces one slot to size 2.
func (s *State) checkSize(size int) bool {
	if size < 1 {
		return false
	}
	if len(s.op1Choices) > 0 {
		return true
	}
	if !s.operators.If0 && !s.operators.Fold {
		return size%2 == 1
	}
	if size == 2 || size == 6 {
		return false
	}
	if size == 4 && !s.operators.If0 {
		return false
	}
	return true
}

// genSize samples a slot size uniformly in [1, space], nudging away
// from sizes checkSize rejects to the nearest reachable neighbor,
// covering every even size the no-op1 operator configurations
// reject, not only a hardcoded few.
func (s *State) genSize(space int) int {
	if space < 1 {
		panic("generator: genSize called with empty space")
	}
	choice := 1 + s.rng.IntN(space)
	if s.checkSize(choice) {
		return choice
	}
	for delta := 1; delta <= space; delta++ {
		lo, hi := choice-delta, choice+delta
		loOK := lo >= 1 && s.checkSize(lo)
		hiOK := hi <= space && s.checkSize(hi)
		switch {
		case loOK && hiOK:
			if s.rng.Bool() {
				return lo
			}
			return hi
		case loOK:
			return lo
		case hiOK:
			return hi
		}
	}
	panic("generator: no reachable slot size in requested space")
}
