package archive

import (
	"testing"

	"bvsynth/internal/bv"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestUpsertAndList(t *testing.T) {
	a := openTestArchive(t)

	var ops bv.OperatorSet
	ops.Add([]string{"not", "and"})
	p := bv.Problem{ID: "p1", Size: 5, Operators: ops}

	if err := a.Upsert(p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	records, err := a.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List returned %d records, want 1", len(records))
	}
	if records[0].Problem.ID != "p1" || records[0].Solved {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestMarkSolved(t *testing.T) {
	a := openTestArchive(t)

	p := bv.Problem{ID: "p2", Size: 3}
	if err := a.Upsert(p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	prog := bv.Program{Id: 0, Expr: bv.Ident{Id: 0}}
	if err := a.MarkSolved("p2", prog); err != nil {
		t.Fatalf("MarkSolved: %v", err)
	}

	records, err := a.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !records[0].Solved || records[0].Solution != prog.String() {
		t.Errorf("unexpected record after MarkSolved: %+v", records[0])
	}
}

func TestMarkSolvedUnknownProblem(t *testing.T) {
	a := openTestArchive(t)
	prog := bv.Program{Id: 0, Expr: bv.Zero{}}
	if err := a.MarkSolved("missing", prog); err == nil {
		t.Fatal("expected an error marking an unknown problem solved")
	}
}
