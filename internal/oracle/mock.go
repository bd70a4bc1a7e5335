package oracle

import (
	"context"
	"sync"

	"bvsynth/internal/bv"
	"bvsynth/internal/errs"
	"bvsynth/internal/generator"
)

// Mock is an in-memory oracle backing the localtrain and faketrain
// CLI commands and the refinement driver's own tests: it generates a
// hidden reference program itself (localtrain) or accepts one
// supplied by the caller (faketrain), then answers Eval/Guess exactly
// like the real protocol, without any network round trip.
type Mock struct {
	mu       sync.Mutex
	problem  bv.Problem
	hidden   bv.Program
	guessed  bool
}

// NewMockWithProgram builds a mock oracle whose hidden reference
// program is exactly hidden (faketrain).
func NewMockWithProgram(problem bv.Problem, hidden bv.Program) *Mock {
	return &Mock{problem: problem, hidden: hidden}
}

// NewMockGenerated builds a mock oracle that samples its own hidden
// program from problem's operator set (localtrain).
func NewMockGenerated(problem bv.Problem, rng *generator.RNG) *Mock {
	gen := generator.New(problem, rng)
	hidden := gen.GenProgram(int(problem.Size))
	return &Mock{problem: problem, hidden: hidden}
}

func (m *Mock) Status(ctx context.Context) (Status, error) {
	return Status{RequestsAmount: 1000, RequestsLimit: 1000}, nil
}

func (m *Mock) Train(ctx context.Context, size uint8, mode TrainMode) (TrainingProblem, error) {
	return TrainingProblem{}, errs.New(errs.Semantic, "mock oracle does not serve /train")
}

func (m *Mock) Problems(ctx context.Context) ([]bv.Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.guessed {
		return nil, nil
	}
	return []bv.Problem{m.problem}, nil
}

func (m *Mock) Eval(ctx context.Context, programID string, inputs []uint64) ([]uint64, error) {
	return m.evalHidden(inputs)
}

func (m *Mock) EvalProgram(ctx context.Context, program bv.Program, inputs []uint64) ([]uint64, error) {
	out := make([]uint64, len(inputs))
	for i, x := range inputs {
		out[i] = program.Eval(x)
	}
	return out, nil
}

func (m *Mock) evalHidden(inputs []uint64) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint64, len(inputs))
	for i, x := range inputs {
		out[i] = m.hidden.Eval(x)
	}
	return out, nil
}

func (m *Mock) Guess(ctx context.Context, problemID string, program bv.Program) (GuessResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.guessed {
		return GuessResult{}, errs.New(errs.Semantic, "mock oracle: problem already solved")
	}
	for x := uint64(0); x < mismatchSearchSpace; x++ {
		input := probeInput(x)
		want := m.hidden.Eval(input)
		got := program.Eval(input)
		if want != got {
			return GuessResult{Status: Mismatch, Input: input, Output: want, OurOutput: got}, nil
		}
	}
	m.guessed = true
	return GuessResult{Status: Win}, nil
}

// mismatchSearchSpace bounds the mock's exhaustive counter-example
// search over a small structured probe set (zero, one, bit-patterns,
// and a handful of pseudo-random values) — enough to make non-trivial
// candidates fail fast in tests without scanning all 2^64 inputs.
const mismatchSearchSpace = 64

func probeInput(i uint64) uint64 {
	switch {
	case i == 0:
		return 0
	case i == 1:
		return 1
	case i < 10:
		return uint64(1) << (i * 7)
	default:
		// A fixed deterministic pseudo-random stream (splitmix64),
		// avoiding math/rand so repeated calls with the same i are
		// stable without any package-level state.
		z := i*0x9E3779B97F4A7C15 + 0xDEADBEEFCAFEBABE
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
}
