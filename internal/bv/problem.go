package bv

import "strings"

// Problem is the oracle's description of one synthesis task: a
// target size budget and the operator whitelist a solution must
// respect.
type Problem struct {
	ID        string
	Size      uint8 // 3..30
	Operators OperatorSet
}

// IsBonus reports whether this is a "bonus" problem, whose generator
// mode uses the fixed if0-over-binop shape (§4.3). The oracle does
// not carry a dedicated operator flag for this — bonus problems are
// identified by the "bonus" prefix on their problem id, matching the
// convention the live competition oracle used.
func (p Problem) IsBonus() bool {
	return strings.HasPrefix(p.ID, "bonus")
}
