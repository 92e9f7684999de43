// Package strategy paces credential checks: it alternates batches of checks
// with sleeps according to a plan, and stops at the first accepted credential
// or when the credentials run out.
package strategy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPlan = errors.New("invalid pacing plan")

type StepKind uint8

const (
	StepCheck StepKind = iota + 1
	StepSleep
)

// Step is one position in the plan cycle.
type Step struct {
	Kind     StepKind
	Size     uint64        // StepCheck: max credentials checked per visit
	Duration time.Duration // StepSleep
}

func Check(size uint64) Step {
	return Step{Kind: StepCheck, Size: size}
}

func Sleep(d time.Duration) Step {
	return Step{Kind: StepSleep, Duration: d}
}

func (s Step) String() string {
	switch s.Kind {
	case StepCheck:
		return fmt.Sprintf("requests(%d)", s.Size)
	case StepSleep:
		return fmt.Sprintf("sleep(%s)", s.Duration)
	default:
		return "invalid"
	}
}

// Plan is visited cyclically. An empty plan checks everything with no pauses.
type Plan []Step

func (p Plan) String() string {
	if len(p) == 0 {
		return "drain all"
	}

	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// RawStep is a plan entry as written in config: kind is "requests" (value is
// a batch size) or "sleep" (value is milliseconds).
type RawStep struct {
	Kind  string
	Value uint64
}

func ParsePlan(raw []RawStep) (Plan, error) {
	plan := make(Plan, 0, len(raw))
	hasCheck := false

	for i, r := range raw {
		switch strings.ToLower(strings.TrimSpace(r.Kind)) {
		case "requests":
			if r.Value == 0 {
				return nil, fmt.Errorf("%w: step %d: requests must be at least 1", ErrInvalidPlan, i)
			}
			plan = append(plan, Check(r.Value))
			hasCheck = true
		case "sleep":
			plan = append(plan, Sleep(time.Duration(r.Value)*time.Millisecond))
		default:
			return nil, fmt.Errorf("%w: step %d: unsupported kind %q", ErrInvalidPlan, i, r.Kind)
		}
	}

	// Only sleeps would cycle forever without checking anything
	if len(plan) > 0 && !hasCheck {
		return nil, fmt.Errorf("%w: no requests step", ErrInvalidPlan)
	}

	return plan, nil
}
