package oracle

import "bvsynth/internal/bv"

// TrainMode selects the shape of a requested training problem.
type TrainMode int

const (
	// Empty asks for an unconstrained training problem.
	Empty TrainMode = iota
	// Fold asks for a problem containing exactly one fold.
	Fold
	// Tfold asks for the canonical top-level-fold shape.
	Tfold
)

func (m TrainMode) wireValue() string {
	switch m {
	case Tfold:
		return "tfold"
	case Fold:
		return "fold"
	default:
		return ""
	}
}

// Status is the oracle's /status response: counts of problems solved
// and the training/eval/guess request windows remaining.
type Status struct {
	Easy            int `json:"easyChairId,omitempty"`
	TrainingCount   int `json:"trainingProblemsSolved"`
	EvalCount       int `json:"evalProblemsSolved"`
	EvalRemaining   int `json:"evalProblemsRequested"`
	LightspeedCount int `json:"lightspeedProblemsSolved"`
	CPUTotalTime    int `json:"totalCPUTimeLeft"`
	CPUWindowTime   int `json:"cpuWindowLimitSeconds"`
	RequestsWindow  int `json:"requestWindowCurrentMs"`
	RequestsLimit   int `json:"requestWindowLimitMs"`
	RequestsAmount  int `json:"requestWindowAmount"`
}

// wireProblem is the JSON shape of an oracle problem description,
// translated to bv.Problem by toProblem.
type wireProblem struct {
	ID        string   `json:"id"`
	Size      uint8    `json:"size"`
	Operators []string `json:"operators"`
	Solved    bool     `json:"solved,omitempty"`
	TimeLeft  float64  `json:"timeLeft,omitempty"`
}

func (w wireProblem) toProblem() bv.Problem {
	var ops bv.OperatorSet
	ops.Add(w.Operators)
	return bv.Problem{ID: w.ID, Size: w.Size, Operators: ops}
}

// TrainingProblem is a training problem plus its known solution
// (the oracle hands the solution back immediately for /train,
// unlike /problems which never reveals it).
type TrainingProblem struct {
	Problem   bv.Problem
	Challenge string
}

type wireTrainingProblem struct {
	wireProblem
	Challenge string `json:"challenge"`
}

// GuessStatus is the oracle's verdict on a submitted program.
type GuessStatus int

const (
	Win GuessStatus = iota
	Mismatch
	Error
)

// GuessResult is the response to a /guess request.
type GuessResult struct {
	Status  GuessStatus
	Input   uint64 // only set for Mismatch
	Output  uint64
	// OurOutput is the oracle's "also" value when it tells us what
	// our program produced on the mismatching input.
	OurOutput uint64
	Message   string // only set for Error
}

type wireGuessResult struct {
	Status  string   `json:"status"`
	Values  []string `json:"values,omitempty"`
	Message string   `json:"message,omitempty"`
}
