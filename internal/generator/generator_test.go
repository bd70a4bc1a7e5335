package generator

import (
	"testing"

	"github.com/kr/pretty"

	"bvsynth/internal/bv"
)

func fullOperators() bv.OperatorSet {
	var ops bv.OperatorSet
	ops.Add([]string{"not", "shl1", "shr1", "shr4", "shr16", "and", "or", "xor", "plus", "if0", "fold"})
	return ops
}

// S6: tfold shape is stable across many samples at size 12.
func TestGenTfoldShape(t *testing.T) {
	problem := bv.Problem{ID: "p", Size: 12, Operators: func() bv.OperatorSet {
		ops := fullOperators()
		ops.Tfold = true
		return ops
	}()}
	st := New(problem, NewRNGFromSeed(1, 2))
	for i := 0; i < 1000; i++ {
		prog := st.GenProgram(12)
		if prog.Size() != 12 {
			t.Fatalf("sample %d: size = %d, want 12", i, prog.Size())
		}
		fold, ok := prog.Expr.(bv.Fold)
		if !ok {
			t.Fatalf("sample %d: top expr is %T, want Fold", i, prog.Expr)
		}
		if _, ok := fold.Foldee.(bv.Ident); !ok {
			t.Fatalf("sample %d: foldee is %T, want Ident", i, fold.Foldee)
		}
		if _, ok := fold.Init.(bv.Zero); !ok {
			t.Fatalf("sample %d: init is %T, want Zero", i, fold.Init)
		}
		if fold.Body.Size() != 7 {
			t.Fatalf("sample %d: body size = %d, want 7", i, fold.Body.Size())
		}
		assertNoFold(t, fold.Body)
	}
}

func assertNoFold(t *testing.T, e bv.Expr) {
	t.Helper()
	switch v := e.(type) {
	case bv.Fold:
		t.Fatalf("unexpected nested fold")
	case bv.If0:
		assertNoFold(t, v.Cond)
		assertNoFold(t, v.Then)
		assertNoFold(t, v.Else)
	case bv.Op1:
		assertNoFold(t, v.Arg)
	case bv.Op2:
		assertNoFold(t, v.Left)
		assertNoFold(t, v.Right)
	}
}

func TestGenBonusShape(t *testing.T) {
	problem := bv.Problem{ID: "bonus1", Size: 15, Operators: fullOperators()}
	st := New(problem, NewRNGFromSeed(3, 4))
	for i := 0; i < 200; i++ {
		prog := st.GenProgram(15)
		if prog.Size() != 15 {
			t.Fatalf("sample %d: size = %d, want 15", i, prog.Size())
		}
		if0, ok := prog.Expr.(bv.If0)
		if !ok {
			t.Fatalf("sample %d: top expr is %T, want If0\n%s", i, prog.Expr, pretty.Sprint(prog))
		}
		cond, ok := if0.Cond.(bv.Op2)
		if !ok || cond.Op != bv.And {
			t.Fatalf("sample %d: cond is not a top-level And\n%# v", i, pretty.Formatter(if0.Cond))
		}
		if _, ok := cond.Left.(bv.Op2); !ok {
			t.Fatalf("sample %d: and-left is %T, want Op2 binop", i, cond.Left)
		}
		if if0.Then.Size() < 3 || if0.Else.Size() < 3 {
			t.Fatalf("sample %d: arm sizes %d/%d, want >= 3", i, if0.Then.Size(), if0.Else.Size())
		}
	}
}

// checkSize must agree with the known-reachable-size table for every
// combination of (has unary ops, has if0, has fold) at sizes 2, 4, 6 —
// asserted directly against the expected boolean, not merely against
// whatever genSize happens to return (which would only ever check
// checkSize against itself).
func TestCheckSizeKnownTable(t *testing.T) {
	cases := []struct {
		hasUna, hasIf0, hasFold bool
		size                    int
		want                    bool
	}{
		// With a unary operator, every size >= 1 is reachable.
		{true, false, false, 2, true},
		{true, false, false, 4, true},
		{true, false, false, 6, true},
		{true, true, true, 4, true},
		// No unary op, neither if0 nor fold: only odd sizes.
		{false, false, false, 2, false},
		{false, false, false, 4, false},
		{false, false, false, 6, false},
		// No unary op, fold only, no if0: size 4 is unreachable — the
		// only non-Op2 shape at size 4 is an If0, and fold's minimum
		// size is 5, so fold alone can never fill a 4-slot.
		{false, false, true, 4, false},
		{false, false, true, 2, false},
		{false, false, true, 6, false},
		// No unary op, if0 enabled: size 4 is reachable (a bare If0 of
		// three size-1 children), but 2 and 6 are not.
		{false, true, false, 2, false},
		{false, true, false, 4, true},
		{false, true, false, 6, false},
		{false, true, true, 2, false},
		{false, true, true, 4, true},
		{false, true, true, 6, false},
	}
	for _, c := range cases {
		var ops bv.OperatorSet
		names := []string{"and"}
		if c.hasUna {
			names = append(names, "not")
		}
		if c.hasIf0 {
			names = append(names, "if0")
		}
		if c.hasFold {
			names = append(names, "fold")
		}
		ops.Add(names)
		st := &State{operators: ops, op1Choices: ops.Op1Choices(), op2Choices: ops.Op2Choices()}
		if got := st.checkSize(c.size); got != c.want {
			t.Errorf("una=%v if0=%v fold=%v size=%d: checkSize = %v, want %v",
				c.hasUna, c.hasIf0, c.hasFold, c.size, got, c.want)
		}
	}
}

// For every combination of (has unary ops, has if0, has fold) and
// every space choice+4 with choice in {2,4,6}, a genSize draw must be
// a size checkSize accepts, never silently an unreachable one.
func TestCheckSizeNudgeMatrix(t *testing.T) {
	for _, hasUna := range []bool{false, true} {
		for _, hasIf0 := range []bool{false, true} {
			for _, hasFold := range []bool{false, true} {
				var ops bv.OperatorSet
				names := []string{"and"}
				if hasUna {
					names = append(names, "not")
				}
				if hasIf0 {
					names = append(names, "if0")
				}
				if hasFold {
					names = append(names, "fold")
				}
				ops.Add(names)
				st := &State{rng: NewRNGFromSeed(5, 6), operators: ops, op1Choices: ops.Op1Choices(), op2Choices: ops.Op2Choices()}
				for _, choice := range []int{2, 4, 6} {
					space := choice + 4
					got := st.genSize(space)
					if !st.checkSize(got) {
						t.Fatalf("una=%v if0=%v fold=%v choice=%d: genSize returned unreachable size %d",
							hasUna, hasIf0, hasFold, choice, got)
					}
				}
			}
		}
	}
}

func TestGeneralGenExactSize(t *testing.T) {
	problem := bv.Problem{ID: "p", Size: 20, Operators: fullOperators()}
	st := New(problem, NewRNGFromSeed(7, 9))
	for size := 3; size <= 20; size++ {
		for i := 0; i < 25; i++ {
			prog := st.genGeneralProgram(size)
			if prog.Size() != size {
				t.Fatalf("size request %d: got program size %d", size, prog.Size())
			}
		}
	}
}

func TestOp2ChoicesRespected(t *testing.T) {
	var ops bv.OperatorSet
	ops.Add([]string{"and"}) // only binary operator enabled is `and`
	problem := bv.Problem{ID: "p", Size: 20, Operators: ops}
	st := New(problem, NewRNGFromSeed(11, 13))
	for size := 4; size <= 20; size += 2 {
		prog := st.genGeneralProgram(size)
		assertOnlyAnd(t, prog.Expr)
	}
}

func assertOnlyAnd(t *testing.T, e bv.Expr) {
	t.Helper()
	switch v := e.(type) {
	case bv.Op2:
		if v.Op != bv.And {
			t.Fatalf("found disallowed binary operator %v", v.Op)
		}
		assertOnlyAnd(t, v.Left)
		assertOnlyAnd(t, v.Right)
	case bv.Op1:
		assertOnlyAnd(t, v.Arg)
	case bv.If0:
		assertOnlyAnd(t, v.Cond)
		assertOnlyAnd(t, v.Then)
		assertOnlyAnd(t, v.Else)
	case bv.Fold:
		assertOnlyAnd(t, v.Foldee)
		assertOnlyAnd(t, v.Init)
		assertOnlyAnd(t, v.Body)
	}
}
