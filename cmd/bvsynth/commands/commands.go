// Package commands implements the bvsynth CLI's subcommands, one
// func(args []string) error per command.
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"
	"golang.org/x/exp/slices"

	"bvsynth/internal/archive"
	"bvsynth/internal/bv"
	"bvsynth/internal/config"
	"bvsynth/internal/generator"
	"bvsynth/internal/oracle"
	"bvsynth/internal/progress"
	"bvsynth/internal/refine"
	"bvsynth/internal/search"
)

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd())

func colorize(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// StatusCommand prints the oracle's current status.
func StatusCommand(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := oracle.NewHTTPClient(cfg.Server, cfg.AuthKey)
	st, err := client.Status(context.Background())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	fmt.Printf("training solved: %s\n", humanize.Comma(int64(st.TrainingCount)))
	fmt.Printf("eval solved:     %s\n", humanize.Comma(int64(st.EvalCount)))
	fmt.Printf("requests/window: %d / %d\n", st.RequestsWindow, st.RequestsLimit)
	return nil
}

func parseTrainMode(args []string) (oracle.TrainMode, error) {
	if len(args) == 0 {
		return oracle.Empty, nil
	}
	switch args[0] {
	case "fold":
		return oracle.Fold, nil
	case "tfold":
		return oracle.Tfold, nil
	default:
		return 0, fmt.Errorf("unrecognized train mode %q (want fold|tfold)", args[0])
	}
}

// TrainCommand requests a training problem of the given size and
// runs the refinement loop against it.
func TrainCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: train <size> [fold|tfold]")
	}
	size, err := strconv.Atoi(args[0])
	if err != nil || size < 3 || size > 30 {
		return fmt.Errorf("invalid size %q (want 3..30)", args[0])
	}
	mode, err := parseTrainMode(args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := oracle.NewHTTPClient(cfg.Server, cfg.AuthKey)
	ctx := context.Background()
	tp, err := client.Train(ctx, uint8(size), mode)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	return runSolve(cfg, client, tp.Problem)
}

// FakeTrainCommand parses a hand-supplied program and solves against
// an in-process mock oracle that treats it as the hidden program —
// useful for exercising the search loop without any network access.
func FakeTrainCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: faketrain <program>")
	}
	source := strings.Join(args, " ")
	hidden, err := parseProgram(source)
	if err != nil {
		return err
	}

	problem := bv.Problem{ID: "fake-" + uuid.NewString(), Size: uint8(hidden.Size())}
	problem.Operators = inferOperators(hidden)

	client := oracle.NewMockWithProgram(problem, hidden)
	cfg := config.Config{Workers: config.DefaultWorkers, RoundTimeout: config.DefaultRoundTimeout}
	return runSolve(cfg, client, problem)
}

// LocalTrainCommand generates its own hidden program of the given size
// from the full unary/binary/if0 operator set (plus fold, or tfold,
// when the mode argument asks for it) and solves it via the mock
// oracle.
func LocalTrainCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: localtrain <size> [fold|tfold]")
	}
	size, err := strconv.Atoi(args[0])
	if err != nil || size < 3 || size > 30 {
		return fmt.Errorf("invalid size %q (want 3..30)", args[0])
	}
	mode, err := parseTrainMode(args[1:])
	if err != nil {
		return err
	}

	var ops bv.OperatorSet
	ops.Add([]string{"not", "shl1", "shr1", "shr4", "shr16", "and", "or", "xor", "plus", "if0"})
	if mode == oracle.Tfold {
		ops.Tfold = true
		ops.Fold = true
	} else if mode == oracle.Fold {
		ops.Fold = true
	}
	problem := bv.Problem{ID: "local-" + uuid.NewString(), Size: uint8(size), Operators: ops}

	client := oracle.NewMockGenerated(problem, generator.NewRNG())
	cfg := config.Config{Workers: config.DefaultWorkers, RoundTimeout: config.DefaultRoundTimeout}
	return runSolve(cfg, client, problem)
}

// ProblemsCommand fetches the live problem set from the oracle,
// merges it into the local archive, and prints a filtered summary.
func ProblemsCommand(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := oracle.NewHTTPClient(cfg.Server, cfg.AuthKey)
	problems, err := client.Problems(context.Background())
	if err != nil {
		return fmt.Errorf("problems: %w", err)
	}

	a, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer a.Close()
	for _, p := range problems {
		if err := a.Upsert(p); err != nil {
			return err
		}
	}

	// Smallest problems first: they're the cheapest to solve, so
	// presenting them first helps a human skimming the list pick low-
	// hanging fruit.
	slices.SortFunc(problems, func(p, q bv.Problem) int { return int(p.Size) - int(q.Size) })

	count, filter, minSize := -1, "all", 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid count %q", args[0])
		}
		count = n
	}
	if len(args) > 1 {
		filter = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid min-size %q", args[2])
		}
		minSize = n
	}

	printed := 0
	for _, p := range problems {
		if count >= 0 && printed >= count {
			break
		}
		if int(p.Size) < minSize {
			continue
		}
		if !matchesFilter(p, filter) {
			continue
		}
		fmt.Printf("%-20s size=%-3d ops=%v\n", p.ID, p.Size, p.Operators.Names())
		printed++
	}
	return nil
}

func matchesFilter(p bv.Problem, filter string) bool {
	switch filter {
	case "all":
		return true
	case "fold":
		return p.Operators.Fold
	case "tfold":
		return p.Operators.Tfold
	case "unfold":
		return !p.Operators.Fold
	case "bonus":
		return p.IsBonus()
	case "nobonus":
		return !p.IsBonus()
	default:
		return true
	}
}

// ShowProbsCommand prints the locally archived problem set without
// contacting the oracle.
func ShowProbsCommand(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.List()
	if err != nil {
		return err
	}
	for _, r := range records {
		status := colorize("33", "unsolved")
		if r.Solved {
			status = colorize("32", "solved "+formatSolvedAt(r.SolvedAt))
		}
		fmt.Printf("%-20s size=%-3d %s\n", r.Problem.ID, r.Problem.Size, status)
	}
	return nil
}

// formatSolvedAt renders the archive's stored RFC3339 solved_at
// timestamp in a short, human-facing form.
func formatSolvedAt(raw sql.NullString) string {
	if !raw.Valid || raw.String == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, raw.String)
	if err != nil {
		return ""
	}
	return "(" + strftime.Format("%Y-%m-%d %H:%M", t) + ")"
}

// EvalCommand evaluates a hand-written program against the oracle's
// /eval endpoint for a fixed probe set, printing input/output pairs
// in the hex wire format.
func EvalCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: eval <program>")
	}
	source := strings.Join(args, " ")
	prog, err := parseProgram(source)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := oracle.NewHTTPClient(cfg.Server, cfg.AuthKey)
	inputs := []uint64{0, 1, 0xFFFFFFFFFFFFFFFF, 0x0102030405060708}
	outputs, err := client.EvalProgram(context.Background(), prog, inputs)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}
	for i, x := range inputs {
		fmt.Printf("%s -> %s\n", bv.EncodeHexPrefixed(x), bv.EncodeHexPrefixed(outputs[i]))
	}
	return nil
}

// WatchCommand starts a WebSocket listener that relays events
// published to its own broadcaster. The train/localtrain/faketrain
// commands do not publish to it: runSolve leaves the driver's Notify
// unset.
func WatchCommand(args []string) error {
	addr := ":8719"
	if len(args) > 0 {
		addr = args[0]
	}
	broadcaster := progress.New()
	fmt.Printf("watching on ws://%s (Ctrl+C to stop)\n", addr)
	mux := http.NewServeMux()
	mux.HandleFunc("/", broadcaster.Handler)
	return http.ListenAndServe(addr, mux)
}

func runSolve(cfg config.Config, client oracle.Client, problem bv.Problem) error {
	log := logger()
	log.Info("solving", "problem", problem.ID, "size", problem.Size)

	coordinator := search.New(problem, search.Config{
		Workers:      cfg.Workers,
		RoundTimeout: cfg.RoundTimeout,
	})
	defer coordinator.Exit()

	driver := &refine.Driver{Client: client}
	start := time.Now()
	ctx := context.Background()
	result, err := driver.Solve(ctx, problem, coordinator)
	if err != nil {
		return fmt.Errorf("solving %s: %w", problem.ID, err)
	}

	elapsed := time.Since(start)
	switch result.Outcome {
	case refine.Solved:
		fmt.Printf("%s solved %s in %d rounds (%s)\n", colorize("32", "WIN"), problem.ID, result.Rounds, elapsed)
		fmt.Println(result.Program.String())
	case refine.Abandoned:
		fmt.Printf("%s abandoned %s after %d rounds\n", colorize("31", "FAIL"), problem.ID, result.Rounds)
	case refine.TimedOut:
		fmt.Printf("%s timed out on %s after %d rounds\n", colorize("33", "TIMEOUT"), problem.ID, result.Rounds)
	}
	return nil
}

// parseProgram parses source, converting bv.Parse's panic-on-malformed-
// input contract into a plain error at this CLI boundary — a parse
// failure here means a typo in a hand-written faketrain/eval argument,
// not a programming-error invariant violation, so it's worth a
// message instead of a crash.
func parseProgram(source string) (prog bv.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing %q: %v", source, r)
		}
	}()
	prog = bv.Parse(source)
	return prog, nil
}

// inferOperators derives a minimal operator set covering the
// operators actually used in an ad-hoc, hand-written faketrain
// program, so the search isn't needlessly restricted or (worse)
// forbidden from using an operator the hidden program itself needs.
func inferOperators(p bv.Program) bv.OperatorSet {
	var ops bv.OperatorSet
	var walk func(bv.Expr)
	walk = func(e bv.Expr) {
		switch v := e.(type) {
		case bv.Op1:
			ops.Set1(v.Op)
			walk(v.Arg)
		case bv.Op2:
			ops.Set2(v.Op)
			walk(v.Left)
			walk(v.Right)
		case bv.If0:
			ops.If0 = true
			walk(v.Cond)
			walk(v.Then)
			walk(v.Else)
		case bv.Fold:
			ops.Fold = true
			walk(v.Foldee)
			walk(v.Init)
			walk(v.Body)
		}
	}
	walk(p.Expr)
	return ops
}
