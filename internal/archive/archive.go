// Package archive persists the locally known problem set and its
// solved status across runs, so showprobs can list it without
// contacting the oracle. The CLI's problems command still fetches the
// live set on every run, and no CLI command calls MarkSolved. It
// wraps database/sql over the pure-Go modernc.org/sqlite driver, one
// *sql.DB per process.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bvsynth/internal/bv"
)

// Archive stores problems and their solved programs.
type Archive struct {
	db *sql.DB
}

// Open creates or attaches to the sqlite database at path, creating
// the schema if it does not already exist.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: opening %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: pinging %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers anyway

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS problems (
	id         TEXT PRIMARY KEY,
	size       INTEGER NOT NULL,
	operators  TEXT NOT NULL,
	solved     INTEGER NOT NULL DEFAULT 0,
	solution   TEXT,
	seen_at    DATETIME NOT NULL,
	solved_at  DATETIME
);`
	_, err := a.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("archive: migrating schema: %w", err)
	}
	return nil
}

// Upsert records a problem as seen, leaving its solved status
// untouched if it already exists.
func (a *Archive) Upsert(p bv.Problem) error {
	const q = `
INSERT INTO problems (id, size, operators, solved, seen_at)
VALUES (?, ?, ?, 0, ?)
ON CONFLICT(id) DO UPDATE SET size = excluded.size, operators = excluded.operators;`
	_, err := a.db.Exec(q, p.ID, p.Size, encodeOperators(p.Operators), nowRFC3339())
	if err != nil {
		return fmt.Errorf("archive: upsert %s: %w", p.ID, err)
	}
	return nil
}

// MarkSolved records program as the accepted solution for problemID.
func (a *Archive) MarkSolved(problemID string, program bv.Program) error {
	const q = `UPDATE problems SET solved = 1, solution = ?, solved_at = ? WHERE id = ?;`
	res, err := a.db.Exec(q, program.String(), nowRFC3339(), problemID)
	if err != nil {
		return fmt.Errorf("archive: mark solved %s: %w", problemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive: mark solved %s: %w", problemID, err)
	}
	if n == 0 {
		return fmt.Errorf("archive: mark solved %s: no such problem", problemID)
	}
	return nil
}

// Record is one row of the archive, with its solved state and
// (if solved) the recorded solution text.
type Record struct {
	Problem  bv.Problem
	Solved   bool
	Solution string
	SolvedAt sql.NullString
}

// List returns every known problem, solved or not.
func (a *Archive) List() ([]Record, error) {
	rows, err := a.db.Query(`SELECT id, size, operators, solved, solution, solved_at FROM problems ORDER BY seen_at;`)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			id, operators string
			size          uint8
			solved        int
			solution      sql.NullString
			solvedAt      sql.NullString
		)
		if err := rows.Scan(&id, &size, &operators, &solved, &solution, &solvedAt); err != nil {
			return nil, fmt.Errorf("archive: scanning row: %w", err)
		}
		var ops bv.OperatorSet
		ops.Add(decodeOperators(operators))
		out = append(out, Record{
			Problem:  bv.Problem{ID: id, Size: size, Operators: ops},
			SolvedAt: solvedAt,
			Solved:   solved != 0,
			Solution: solution.String,
		})
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

func encodeOperators(ops bv.OperatorSet) string {
	names := ops.Names()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

func decodeOperators(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
