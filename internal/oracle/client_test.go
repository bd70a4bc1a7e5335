package oracle

import (
	"context"
	"testing"

	"bvsynth/internal/bv"
	"bvsynth/internal/generator"
)

func TestMockEvalMatchesHiddenProgram(t *testing.T) {
	hidden := bv.Program{Id: 0, Expr: bv.Op2{Op: bv.Plus, Left: bv.Ident{Id: 0}, Right: bv.One{}}}
	var ops bv.OperatorSet
	ops.Add([]string{"plus"})
	m := NewMockWithProgram(bv.Problem{ID: "p", Size: 3, Operators: ops}, hidden)

	out, err := m.Eval(context.Background(), "p", []uint64{0, 1, 41})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := []uint64{1, 2, 42}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Eval[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestMockGuessWinsOnMatch(t *testing.T) {
	hidden := bv.Program{Id: 0, Expr: bv.Ident{Id: 0}}
	var ops bv.OperatorSet
	m := NewMockWithProgram(bv.Problem{ID: "p", Size: 1, Operators: ops}, hidden)

	res, err := m.Guess(context.Background(), "p", bv.Program{Id: 0, Expr: bv.Ident{Id: 0}})
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if res.Status != Win {
		t.Fatalf("status = %v, want Win", res.Status)
	}
}

func TestMockGuessMismatches(t *testing.T) {
	hidden := bv.Program{Id: 0, Expr: bv.Ident{Id: 0}}
	var ops bv.OperatorSet
	m := NewMockWithProgram(bv.Problem{ID: "p", Size: 1, Operators: ops}, hidden)

	res, err := m.Guess(context.Background(), "p", bv.Program{Id: 0, Expr: bv.Zero{}})
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if res.Status != Mismatch {
		t.Fatalf("status = %v, want Mismatch", res.Status)
	}
	if res.Output != res.Input {
		t.Errorf("identity hidden program: Output should equal Input, got out=%d in=%d", res.Output, res.Input)
	}
}

func TestMockGuessRejectsSecondAttemptAfterWin(t *testing.T) {
	hidden := bv.Program{Id: 0, Expr: bv.Ident{Id: 0}}
	var ops bv.OperatorSet
	m := NewMockWithProgram(bv.Problem{ID: "p", Size: 1, Operators: ops}, hidden)

	if _, err := m.Guess(context.Background(), "p", bv.Program{Id: 0, Expr: bv.Ident{Id: 0}}); err != nil {
		t.Fatalf("first Guess: %v", err)
	}
	if _, err := m.Guess(context.Background(), "p", bv.Program{Id: 0, Expr: bv.Ident{Id: 0}}); err == nil {
		t.Fatal("expected an error guessing an already-solved mock problem")
	}
}

func TestNewMockGeneratedProducesSizedHiddenProgram(t *testing.T) {
	var ops bv.OperatorSet
	ops.Add([]string{"not", "and", "or", "xor", "plus"})
	problem := bv.Problem{ID: "p", Size: 7, Operators: ops}
	m := NewMockGenerated(problem, generator.NewRNGFromSeed(1, 2))
	if m.hidden.Size() != 7 {
		t.Fatalf("hidden program size = %d, want 7", m.hidden.Size())
	}
}
