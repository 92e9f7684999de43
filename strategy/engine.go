package strategy

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/pterm/pterm"

	"github.com/imbrut/imbrut/proto"
)

// Reporter receives progress from a run.
type Reporter interface {
	Start(total uint64)
	Advance(c proto.Credential)     // once per credential tried
	Finish(match *proto.Credential) // nil when nothing matched
}

type Status uint8

const (
	Exhausted Status = iota
	Matched
)

func (s Status) String() string {
	if s == Matched {
		return "match"
	}
	return "exhausted"
}

type Result struct {
	Status Status
	Match  proto.Credential // set when Status is Matched

	Checked uint64 // credentials consumed, including failed ones
	Failed  uint64 // credentials skipped after transport errors
}

// Engine drives a Proto through a Plan. It's a single-use driver: one
// goroutine, one request in flight at a time.
type Engine struct {
	Proto    proto.Proto
	Plan     Plan
	Reporter Reporter

	// Extra attempts per credential when the check hits a transport error.
	// -1 means retry forever.
	Retries    int
	RetryDelay time.Duration

	// Defaults to a context-aware time.Sleep
	Sleep func(ctx context.Context, d time.Duration) error
}

// cursor is the single shared position in the credential stream. It can peek
// one credential ahead so a batch that ends exactly at the end of the stream
// finishes the run.
type cursor struct {
	next    func() (proto.Credential, bool)
	pending *proto.Credential
	done    bool
}

func (c *cursor) Next() (proto.Credential, bool) {
	if c.pending != nil {
		cred := *c.pending
		c.pending = nil
		return cred, true
	}
	if c.done {
		return proto.Credential{}, false
	}

	cred, ok := c.next()
	if !ok {
		c.done = true
	}
	return cred, ok
}

func (c *cursor) More() bool {
	if c.pending != nil {
		return true
	}

	cred, ok := c.Next()
	if !ok {
		return false
	}
	c.pending = &cred
	return true
}

// Run checks credentials until one is accepted, the stream is exhausted, or an
// error that isn't a transport error occurs. Transport errors are retried and
// then skipped. A stream that ends on a read error is an error, not an
// exhausted run.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	var res Result

	if e.Proto == nil {
		return res, fmt.Errorf("engine has no protocol")
	}

	next, stop := iter.Pull(e.Proto.Credentials())
	defer stop()
	cur := &cursor{next: next}

	e.report().Start(e.Proto.Workload())

	err := e.drive(ctx, cur, &res)
	if err == nil && cur.done {
		if streamErr := e.Proto.Err(); streamErr != nil {
			err = fmt.Errorf("credential stream: %w", streamErr)
		}
	}

	if res.Status == Matched {
		match := res.Match
		e.report().Finish(&match)
	} else {
		e.report().Finish(nil)
	}

	return res, err
}

func (e *Engine) drive(ctx context.Context, cur *cursor, res *Result) error {
	if len(e.Plan) == 0 {
		_, err := e.checkBatch(ctx, cur, res, math.MaxUint64)
		return err
	}

	for i := 0; ; i = (i + 1) % len(e.Plan) {
		step := e.Plan[i]

		switch step.Kind {
		case StepSleep:
			if err := e.sleep(ctx, step.Duration); err != nil {
				return err
			}
		case StepCheck:
			done, err := e.checkBatch(ctx, cur, res, step.Size)
			if done || err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: step %d has no kind", ErrInvalidPlan, i)
		}
	}
}

// checkBatch checks up to size credentials. It returns true once the run is
// over, either matched or exhausted.
func (e *Engine) checkBatch(ctx context.Context, cur *cursor, res *Result, size uint64) (bool, error) {
	for n := uint64(0); n < size; n++ {
		cred, ok := cur.Next()
		if !ok {
			return true, nil
		}

		accepted, err := e.attempt(ctx, cred, res)
		if err != nil {
			return true, err
		}

		if accepted {
			res.Status = Matched
			res.Match = cred
			return true, nil
		}
	}

	return !cur.More(), nil
}

func (e *Engine) attempt(ctx context.Context, cred proto.Credential, res *Result) (bool, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		outcome, err := e.Proto.Check(ctx, cred)
		if err == nil {
			res.Checked++
			e.report().Advance(cred)
			pterm.Debug.Printf("%s -> %s\n", cred.Credential, outcome)
			return outcome == proto.Accepted, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}

		var transportErr *proto.TransportError
		if !errors.As(err, &transportErr) {
			return false, err
		}

		// Only print an error once while it keeps repeating
		if lastErr == nil || err.Error() != lastErr.Error() {
			pterm.Warning.Printf("check %s: %s\n", cred.Credential, err)
		}
		lastErr = err

		if e.Retries >= 0 && attempt >= e.Retries {
			pterm.Error.Printf("skipping %s after (%d) failed attempts\n", cred.Credential, attempt+1)
			res.Checked++
			res.Failed++
			e.report().Advance(cred)
			return false, nil
		}

		if err := e.sleep(ctx, e.retryDelay()); err != nil {
			return false, err
		}
	}
}

// Retrying forever never goes faster than this
const minForeverRetryDelay = time.Second

func (e *Engine) retryDelay() time.Duration {
	if e.Retries < 0 && e.RetryDelay < minForeverRetryDelay {
		return minForeverRetryDelay
	}
	return e.RetryDelay
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) report() Reporter {
	if e.Reporter == nil {
		return nopReporter{}
	}
	return e.Reporter
}

type nopReporter struct{}

func (nopReporter) Start(uint64)             {}
func (nopReporter) Advance(proto.Credential) {}
func (nopReporter) Finish(*proto.Credential) {}
