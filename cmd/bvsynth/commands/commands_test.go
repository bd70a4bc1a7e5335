package commands

import (
	"testing"

	"bvsynth/internal/bv"
	"bvsynth/internal/oracle"
)

func TestParseTrainMode(t *testing.T) {
	cases := []struct {
		args []string
		want oracle.TrainMode
	}{
		{nil, oracle.Empty},
		{[]string{"fold"}, oracle.Fold},
		{[]string{"tfold"}, oracle.Tfold},
	}
	for _, c := range cases {
		got, err := parseTrainMode(c.args)
		if err != nil {
			t.Fatalf("parseTrainMode(%v): %v", c.args, err)
		}
		if got != c.want {
			t.Errorf("parseTrainMode(%v) = %v, want %v", c.args, got, c.want)
		}
	}
	if _, err := parseTrainMode([]string{"bogus"}); err == nil {
		t.Error("expected an error for an unrecognized train mode")
	}
}

func TestMatchesFilter(t *testing.T) {
	var foldOps bv.OperatorSet
	foldOps.Fold = true
	foldProblem := bv.Problem{ID: "p", Operators: foldOps}
	bonusProblem := bv.Problem{ID: "bonus1"}

	if !matchesFilter(foldProblem, "fold") {
		t.Error("expected fold problem to match \"fold\"")
	}
	if matchesFilter(foldProblem, "unfold") {
		t.Error("expected fold problem not to match \"unfold\"")
	}
	if !matchesFilter(bonusProblem, "bonus") {
		t.Error("expected bonus-id problem to match \"bonus\"")
	}
	if matchesFilter(bonusProblem, "nobonus") {
		t.Error("expected bonus-id problem not to match \"nobonus\"")
	}
}

func TestParseProgramRejectsGarbage(t *testing.T) {
	if _, err := parseProgram("not a program"); err == nil {
		t.Error("expected an error parsing garbage input")
	}
}

func TestParseProgramAcceptsValidProgram(t *testing.T) {
	prog, err := parseProgram("(lambda (x) (plus x 1))")
	if err != nil {
		t.Fatalf("parseProgram: %v", err)
	}
	if prog.Eval(41) != 42 {
		t.Errorf("Eval(41) = %d, want 42", prog.Eval(41))
	}
}

func TestInferOperators(t *testing.T) {
	prog := bv.Parse("(lambda (x) (if0 x (not x) (plus x 1)))")
	ops := inferOperators(prog)
	if !ops.If0 || !ops.Allows1(bv.Not) || !ops.Allows2(bv.Plus) {
		t.Errorf("inferOperators missed a used operator: %+v", ops)
	}
	if ops.Allows2(bv.And) {
		t.Error("inferOperators should not enable an unused operator")
	}
}
