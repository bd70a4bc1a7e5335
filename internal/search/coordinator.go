package search

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bvsynth/internal/bv"
	"bvsynth/internal/generator"
)

// request is one message in the coordinator's typed inbox.
type request struct {
	kind        requestKind
	size        int
	constraints []Constraint
	reply       chan result
}

type requestKind int

const (
	reqGenerate requestKind = iota
	reqReset
	reqMoreConstraints
	reqExit
)

// result is what a Generate request answers with.
type result struct {
	program bv.Program
	ok      bool
	err     error
}

// Coordinator owns a fixed pool of worker generator clones and
// dispatches one Generate-and-filter round at a time; it is not safe
// for concurrent use by multiple driver goroutines (the refinement
// driver is expected to be single-threaded per problem).
type Coordinator struct {
	inbox   chan request
	done    chan struct{}
	workers int
}

// Config controls the coordinator's worker pool and per-round budget.
type Config struct {
	Workers int
	// MaxIterationsPerWorker bounds each worker's candidate count per
	// Generate round (0 means unbounded, governed only by ctx/timeout).
	MaxIterationsPerWorker int64
	// RoundTimeout bounds how long a single Generate round may run
	// before the coordinator reports a timeout and gives up on the
	// round.
	RoundTimeout time.Duration
}

// New starts a coordinator for problem, spinning up cfg.Workers
// generator clones, each from its own independently-seeded RNG —
// RNG state is never shared across workers.
func New(problem bv.Problem, cfg Config) *Coordinator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	base := generator.New(problem, generator.NewRNG())
	seeds := generator.SplitSeeds(cfg.Workers)
	clones := make([]*generator.State, cfg.Workers)
	for i, seed := range seeds {
		clones[i] = base.Clone(seed)
	}

	c := &Coordinator{
		inbox:   make(chan request),
		done:    make(chan struct{}),
		workers: cfg.Workers,
	}
	go c.run(problem, cfg, clones)
	return c
}

func (c *Coordinator) run(problem bv.Problem, cfg Config, clones []*generator.State) {
	defer close(c.done)
	constraints := []Constraint(nil)
	for req := range c.inbox {
		switch req.kind {
		case reqReset:
			constraints = nil
			req.reply <- result{}
		case reqMoreConstraints:
			constraints = append(constraints, req.constraints...)
			req.reply <- result{}
		case reqGenerate:
			prog, ok, err := c.generateRound(req.size, constraints, cfg, clones)
			req.reply <- result{program: prog, ok: ok, err: err}
		case reqExit:
			req.reply <- result{}
			return
		}
	}
}

func (c *Coordinator) generateRound(size int, constraints []Constraint, cfg Config, clones []*generator.State) (bv.Program, bool, error) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if cfg.RoundTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.RoundTimeout)
		defer cancel()
	}
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var stopped atomic.Bool
	win := make(chan bv.Program, 1)

	g, gctx := errgroup.WithContext(ctx)
	for _, gen := range clones {
		gen := gen
		g.Go(func() error {
			for !stopped.Load() {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				prog := worker(gctx, gen, size, constraints, cfg.MaxIterationsPerWorker)
				if !found(prog) {
					return nil
				}
				if stopped.CompareAndSwap(false, true) {
					select {
					case win <- prog:
					default:
					}
					stop()
				}
				return nil
			}
			return nil
		})
	}

	waitErr := g.Wait()
	select {
	case prog := <-win:
		return prog, true, nil
	default:
	}
	if waitErr != nil {
		return bv.Program{}, false, waitErr
	}
	return bv.Program{}, false, nil
}

// Generate asks the pool to search for one program of size satisfying
// the accumulated constraints, blocking until a winner is found, the
// round times out, or every worker exhausts its iteration budget.
func (c *Coordinator) Generate(size int) (bv.Program, bool, error) {
	reply := make(chan result, 1)
	c.inbox <- request{kind: reqGenerate, size: size, reply: reply}
	r := <-reply
	return r.program, r.ok, r.err
}

// Reset clears the accumulated constraint set. The workers' generator
// configuration is left as it is, still built for the problem passed
// to New.
func (c *Coordinator) Reset() {
	reply := make(chan result, 1)
	c.inbox <- request{kind: reqReset, reply: reply}
	<-reply
}

// MoreConstraints folds additional (input, output) pairs into the
// constraint set used by subsequent Generate rounds.
func (c *Coordinator) MoreConstraints(constraints []Constraint) {
	reply := make(chan result, 1)
	c.inbox <- request{kind: reqMoreConstraints, constraints: constraints, reply: reply}
	<-reply
}

// Exit stops the coordinator's actor goroutine. Generate must not be
// called after Exit returns.
func (c *Coordinator) Exit() {
	reply := make(chan result, 1)
	c.inbox <- request{kind: reqExit, reply: reply}
	<-reply
	<-c.done
}
