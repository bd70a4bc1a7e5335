// Package search runs the parallel counter-example-guided candidate
// search: a coordinator actor fans a generation request out across a
// fixed pool of worker goroutines, each sampling size-exact random
// programs from its own generator clone and checking them against
// the current constraint set until one survives, the pool is told to
// stop, or a wall-clock budget expires. The fan-out join uses
// golang.org/x/sync/errgroup with drop-don't-queue, single-winner
// semantics.
package search

import (
	"context"
	"runtime"

	"bvsynth/internal/bv"
	"bvsynth/internal/generator"
)

// Constraint is one (input, output) pair a candidate program must
// satisfy exactly.
type Constraint struct {
	Input  uint64
	Output uint64
}

// Satisfies reports whether candidate matches every constraint.
func Satisfies(candidate bv.Program, constraints []Constraint) bool {
	for _, c := range constraints {
		if candidate.Eval(c.Input) != c.Output {
			return false
		}
	}
	return true
}

// worker repeatedly samples candidates of size from its own generator
// clone, checking each against constraints, until it finds one, ctx
// is cancelled, or it has spent iterLimit candidates without success
// (a worker-local backstop distinct from the coordinator's
// wall-clock budget, preventing a single stalled worker from spinning
// forever on a pathological operator configuration).
func worker(ctx context.Context, gen *generator.State, size int, constraints []Constraint, iterLimit int64) bv.Program {
	var i int64
	for {
		if i%generator.CheckEvery == 0 {
			select {
			case <-ctx.Done():
				return bv.Program{}
			default:
			}
			runtime.Gosched()
		}
		if iterLimit > 0 && i >= iterLimit {
			return bv.Program{}
		}
		candidate := gen.GenProgram(size)
		if Satisfies(candidate, constraints) {
			return candidate
		}
		i++
	}
}

// found reports whether p is a real candidate as opposed to the
// zero-value sentinel worker returns on cancellation/exhaustion.
func found(p bv.Program) bool {
	return p.Expr != nil
}
