package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"bvsynth/internal/bv"
	"bvsynth/internal/errs"
)

// DefaultServer is the oracle's default base URL, the same value as
// config.DefaultServer (which is what config.Load applies when
// BVSYNTH_SERVER is unset).
const DefaultServer = "http://bvsynth-oracle.cloudapp.net/"

// Client is the oracle's request surface: status, training problems,
// the live problem set, batch evaluation and guess submission. An
// interface so the refinement driver can run unmodified against
// Mock for localtrain/faketrain and tests.
type Client interface {
	Status(ctx context.Context) (Status, error)
	Train(ctx context.Context, size uint8, mode TrainMode) (TrainingProblem, error)
	Problems(ctx context.Context) ([]bv.Problem, error)
	Eval(ctx context.Context, programID string, inputs []uint64) ([]uint64, error)
	EvalProgram(ctx context.Context, program bv.Program, inputs []uint64) ([]uint64, error)
	Guess(ctx context.Context, problemID string, program bv.Program) (GuessResult, error)
}

// HTTPClient talks to the real oracle over HTTP, authenticating every
// request with a query-string key.
type HTTPClient struct {
	base    string
	auth    string
	http    *http.Client
	limiter *Limiter
}

// NewHTTPClient builds a client against server, authenticating with
// key. A conservative default rate limit is used until the first
// Status call reports the oracle's real window.
func NewHTTPClient(server, key string) *HTTPClient {
	return &HTTPClient{
		base:    server,
		auth:    key,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: NewLimiter(5, 1*time.Second),
	}
}

func (c *HTTPClient) url(path string) string {
	return c.base + path + "?auth=" + c.auth
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errs.Wrap(errs.RateLimit, "waiting for request window", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(errs.Protocol, "encoding request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return errs.Wrap(errs.Transport, "building request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(errs.Transport, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errs.New(errs.RateLimit, "oracle returned 429")
	}
	if resp.StatusCode >= 500 {
		return errs.New(errs.Transport, "oracle server error: "+strconv.Itoa(resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return errs.New(errs.Semantic, "oracle rejected request: "+strconv.Itoa(resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.Protocol, "decoding response body", err)
	}
	return nil
}

func (c *HTTPClient) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "status", nil, &st); err != nil {
		return Status{}, errors.Wrap(err, "oracle status")
	}
	if st.RequestsAmount > 0 && st.RequestsLimit > 0 {
		c.limiter.Adjust(st.RequestsAmount, time.Duration(st.RequestsLimit)*time.Millisecond)
	}
	return st, nil
}

func (c *HTTPClient) Train(ctx context.Context, size uint8, mode TrainMode) (TrainingProblem, error) {
	body := struct {
		Size      uint8  `json:"size"`
		Operators string `json:"operators"`
	}{Size: size, Operators: mode.wireValue()}

	var wire wireTrainingProblem
	if err := c.do(ctx, http.MethodPost, "train", body, &wire); err != nil {
		return TrainingProblem{}, errors.Wrap(err, "oracle train")
	}
	return TrainingProblem{Problem: wire.wireProblem.toProblem(), Challenge: wire.Challenge}, nil
}

func (c *HTTPClient) Problems(ctx context.Context) ([]bv.Problem, error) {
	var wire []wireProblem
	if err := c.do(ctx, http.MethodGet, "myproblems", nil, &wire); err != nil {
		return nil, errors.Wrap(err, "oracle problems")
	}
	out := make([]bv.Problem, 0, len(wire))
	for _, w := range wire {
		if w.Solved {
			continue
		}
		out = append(out, w.toProblem())
	}
	return out, nil
}

func (c *HTTPClient) Eval(ctx context.Context, programID string, inputs []uint64) ([]uint64, error) {
	return c.eval(ctx, struct {
		ID        string   `json:"id"`
		Arguments []string `json:"arguments"`
	}{ID: programID, Arguments: hexAll(inputs)})
}

func (c *HTTPClient) EvalProgram(ctx context.Context, program bv.Program, inputs []uint64) ([]uint64, error) {
	return c.eval(ctx, struct {
		Program   string   `json:"program"`
		Arguments []string `json:"arguments"`
	}{Program: program.String(), Arguments: hexAll(inputs)})
}

func (c *HTTPClient) eval(ctx context.Context, body interface{}) ([]uint64, error) {
	var wire struct {
		Status  string   `json:"status"`
		Outputs []string `json:"outputs"`
		Message string   `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "eval", body, &wire); err != nil {
		return nil, errors.Wrap(err, "oracle eval")
	}
	if wire.Status != "ok" {
		return nil, errs.New(errs.Semantic, "oracle eval error: "+wire.Message)
	}
	out := make([]uint64, len(wire.Outputs))
	for i, s := range wire.Outputs {
		v, err := bv.DecodeHex(s)
		if err != nil {
			return nil, errs.Wrap(errs.Protocol, "decoding eval output", err)
		}
		out[i] = v
	}
	return out, nil
}

func (c *HTTPClient) Guess(ctx context.Context, problemID string, program bv.Program) (GuessResult, error) {
	body := struct {
		ID      string `json:"id"`
		Program string `json:"program"`
	}{ID: problemID, Program: program.String()}

	var wire wireGuessResult
	if err := c.do(ctx, http.MethodPost, "guess", body, &wire); err != nil {
		return GuessResult{}, errors.Wrap(err, "oracle guess")
	}

	switch wire.Status {
	case "win":
		return GuessResult{Status: Win}, nil
	case "mismatch":
		if len(wire.Values) < 2 {
			return GuessResult{}, errs.New(errs.Protocol, "mismatch response missing values")
		}
		input, err := bv.DecodeHex(wire.Values[0])
		if err != nil {
			return GuessResult{}, errs.Wrap(errs.Protocol, "decoding mismatch input", err)
		}
		output, err := bv.DecodeHex(wire.Values[1])
		if err != nil {
			return GuessResult{}, errs.Wrap(errs.Protocol, "decoding mismatch output", err)
		}
		result := GuessResult{Status: Mismatch, Input: input, Output: output}
		if len(wire.Values) >= 3 {
			if ours, err := bv.DecodeHex(wire.Values[2]); err == nil {
				result.OurOutput = ours
			}
		}
		return result, nil
	case "error":
		return GuessResult{Status: Error, Message: wire.Message}, nil
	default:
		return GuessResult{}, errs.New(errs.Protocol, "unrecognized guess status "+wire.Status)
	}
}

func hexAll(vals []uint64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = bv.EncodeHexPrefixed(v)
	}
	return out
}
