// Package refine implements the counter-example-guided refinement
// loop: seed a constraint set from random probes, repeatedly ask the
// search coordinator for a candidate satisfying it, submit the
// candidate as a guess, and fold any returned counter-example back
// into the constraints until the oracle reports a win.
package refine

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"bvsynth/internal/bv"
	"bvsynth/internal/errs"
	"bvsynth/internal/oracle"
	"bvsynth/internal/progress"
	"bvsynth/internal/search"
)

// seedBatchSize is how many random probe inputs are evaluated against
// the oracle before the first search round.
const seedBatchSize = 50

// maxConsecutiveErrors bounds how many oracle "error" guess responses
// in a row the driver tolerates before abandoning a problem.
const maxConsecutiveErrors = 3

// Outcome is the final result of Solve.
type Outcome int

const (
	Solved Outcome = iota
	Abandoned
	TimedOut
)

// Result summarizes a completed refinement run.
type Result struct {
	Outcome Outcome
	Program bv.Program
	Rounds  int
}

// Driver ties an oracle client and a search coordinator together for
// one problem at a time. Notify, if non-nil, receives progress events
// for the optional live feed (a nil Notify is a no-op).
type Driver struct {
	Client oracle.Client
	Notify func(progress.Event)
}

func (d *Driver) notify(ev progress.Event) {
	if d.Notify != nil {
		d.Notify(ev)
	}
}

// Solve runs the refinement loop for problem until the oracle reports
// a win, the problem is abandoned after repeated oracle errors, or
// ctx is cancelled.
func (d *Driver) Solve(ctx context.Context, problem bv.Problem, coordinator *search.Coordinator) (Result, error) {
	d.notify(progress.Event{Kind: "started", ProblemID: problem.ID, At: now()})

	probes := randomProbes(seedBatchSize)
	outputs, err := d.Client.Eval(ctx, problem.ID, probes)
	if err != nil {
		return Result{}, fmt.Errorf("refine: seeding constraints: %w", err)
	}
	constraints := make([]search.Constraint, len(probes))
	for i, x := range probes {
		constraints[i] = search.Constraint{Input: x, Output: outputs[i]}
	}
	coordinator.Reset()
	coordinator.MoreConstraints(constraints)
	d.notify(progress.Event{Kind: "constraint", ProblemID: problem.ID,
		Detail: fmt.Sprintf("seeded %d constraints", len(constraints)), At: now()})

	consecutiveErrors := 0
	rounds := 0
	for {
		select {
		case <-ctx.Done():
			return Result{Outcome: TimedOut, Rounds: rounds}, ctx.Err()
		default:
		}

		candidate, ok, err := coordinator.Generate(int(problem.Size))
		if err != nil {
			return Result{}, fmt.Errorf("refine: search round: %w", err)
		}
		if !ok {
			return Result{Outcome: TimedOut, Rounds: rounds}, nil
		}
		rounds++

		res, err := d.Client.Guess(ctx, problem.ID, candidate)
		if err != nil {
			return Result{}, fmt.Errorf("refine: submitting guess: %w", err)
		}

		switch res.Status {
		case oracle.Win:
			d.notify(progress.Event{Kind: "win", ProblemID: problem.ID, At: now()})
			return Result{Outcome: Solved, Program: candidate, Rounds: rounds}, nil
		case oracle.Mismatch:
			consecutiveErrors = 0
			more := randomProbes(seedBatchSize)
			moreOutputs, err := d.Client.Eval(ctx, problem.ID, more)
			if err != nil {
				return Result{}, fmt.Errorf("refine: re-seeding constraints: %w", err)
			}
			fresh := make([]search.Constraint, 0, len(more)+1)
			fresh = append(fresh, search.Constraint{Input: res.Input, Output: res.Output})
			for i, x := range more {
				fresh = append(fresh, search.Constraint{Input: x, Output: moreOutputs[i]})
			}
			coordinator.MoreConstraints(fresh)
			d.notify(progress.Event{Kind: "guess", ProblemID: problem.ID,
				Detail: fmt.Sprintf("round %d mismatch, %d constraints added", rounds, len(fresh)), At: now()})
		case oracle.Error:
			consecutiveErrors++
			d.notify(progress.Event{Kind: "guess", ProblemID: problem.ID,
				Detail: "oracle error: " + res.Message, At: now()})
			if consecutiveErrors >= maxConsecutiveErrors {
				d.notify(progress.Event{Kind: "abandoned", ProblemID: problem.ID, At: now()})
				return Result{Outcome: Abandoned, Rounds: rounds},
					errs.New(errs.Semantic, "abandoned after repeated oracle errors: "+res.Message)
			}
		}
	}
}

func randomProbes(n int) []uint64 {
	out := make([]uint64, n)
	var buf [8]byte
	for i := range out {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("refine: reading random probe: " + err.Error())
		}
		out[i] = binary.LittleEndian.Uint64(buf[:])
	}
	// Always include 0 and all-ones: they expose the most common
	// degenerate programs (constant-zero, bitwise-not) immediately.
	if n > 0 {
		out[0] = 0
	}
	if n > 1 {
		out[1] = ^uint64(0)
	}
	return out
}

func now() time.Time { return time.Now() }
