package search

import (
	"testing"
	"time"

	"bvsynth/internal/bv"
)

func TestCoordinatorFindsIdentity(t *testing.T) {
	var ops bv.OperatorSet
	ops.Add([]string{"not", "and", "or"})
	problem := bv.Problem{ID: "p", Size: 3, Operators: ops}

	c := New(problem, Config{Workers: 2, RoundTimeout: 2 * time.Second})
	defer c.Exit()

	prog, ok, err := c.Generate(2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !ok {
		t.Fatal("expected a program for an unconstrained size-2 search")
	}
	if prog.Size() != 2 {
		t.Fatalf("program size = %d, want 2", prog.Size())
	}
}

func TestCoordinatorHonorsConstraints(t *testing.T) {
	var ops bv.OperatorSet
	ops.Add([]string{"not", "and", "or", "xor", "plus", "shl1", "shr1"})
	problem := bv.Problem{ID: "p", Size: 5, Operators: ops}

	c := New(problem, Config{Workers: 4, RoundTimeout: 5 * time.Second})
	defer c.Exit()

	c.MoreConstraints([]Constraint{{Input: 0, Output: 0}, {Input: 1, Output: 2}})
	prog, ok, err := c.Generate(3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !ok {
		t.Fatal("expected a program satisfying the constraints")
	}
	if prog.Eval(0) != 0 || prog.Eval(1) != 2 {
		t.Fatalf("candidate does not satisfy constraints: Eval(0)=%d Eval(1)=%d", prog.Eval(0), prog.Eval(1))
	}
}

func TestCoordinatorResetClearsConstraints(t *testing.T) {
	var ops bv.OperatorSet
	ops.Add([]string{"not", "and"})
	problem := bv.Problem{ID: "p", Size: 3, Operators: ops}

	c := New(problem, Config{Workers: 2, RoundTimeout: 2 * time.Second})
	defer c.Exit()

	c.MoreConstraints([]Constraint{{Input: 5, Output: 12345}}) // unsatisfiable at size 2
	c.Reset()
	prog, ok, err := c.Generate(2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !ok {
		t.Fatal("expected Reset to clear the unsatisfiable constraint")
	}
	_ = prog
}
