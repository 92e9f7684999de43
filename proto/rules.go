package proto

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/tidwall/gjson"
)

// Per-pattern match timeout, keeps a pathological regex from hanging a run
const regexTimeout = time.Second

// RuleConfig is the uncompiled form of Rules.
type RuleConfig struct {
	SuccessCodes      []int
	SuccessIfContains []string
	FailIfContains    []string
	SuccessIfMatches  []string // regexp2 patterns
	FailIfMatches     []string // regexp2 patterns
	SuccessIfJSON     map[string]string

	// Outcome when the status is a success code but no content rule matched
	AcceptAmbiguous bool
}

// Rules decide whether a response means the credential was accepted.
type Rules struct {
	successCodes      []int
	successIfContains []string
	failIfContains    []string
	successIfMatches  []*regexp2.Regexp
	failIfMatches     []*regexp2.Regexp
	successIfJSON     map[string]string
	acceptAmbiguous   bool
}

func CompileRules(cfg RuleConfig) (*Rules, error) {
	if len(cfg.SuccessCodes) == 0 {
		return nil, fmt.Errorf("%w: no success codes", ErrInvalidTarget)
	}
	for _, code := range cfg.SuccessCodes {
		if code < 100 || code > 599 {
			return nil, fmt.Errorf("%w: status code (%d) out of range", ErrInvalidTarget, code)
		}
	}

	successRe, err := compilePatterns(cfg.SuccessIfMatches)
	if err != nil {
		return nil, err
	}
	failRe, err := compilePatterns(cfg.FailIfMatches)
	if err != nil {
		return nil, err
	}

	return &Rules{
		successCodes:      slices.Clone(cfg.SuccessCodes),
		successIfContains: slices.Clone(cfg.SuccessIfContains),
		failIfContains:    slices.Clone(cfg.FailIfContains),
		successIfMatches:  successRe,
		failIfMatches:     failRe,
		successIfJSON:     cfg.SuccessIfJSON,
		acceptAmbiguous:   cfg.AcceptAmbiguous,
	}, nil
}

func compilePatterns(patterns []string) ([]*regexp2.Regexp, error) {
	out := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %s", ErrInvalidTarget, p, err)
		}
		re.MatchTimeout = regexTimeout
		out = append(out, re)
	}
	return out, nil
}

// Classify applies, in order: the status gate, fail substrings, fail
// patterns, success substrings, success patterns, success JSON fields, and
// finally the ambiguous default.
func (r *Rules) Classify(status int, body string) Outcome {
	if !slices.Contains(r.successCodes, status) {
		return Rejected
	}

	if containsAny(body, r.failIfContains) || matchesAny(body, r.failIfMatches) {
		return Rejected
	}

	if containsAny(body, r.successIfContains) || matchesAny(body, r.successIfMatches) || r.jsonMatches(body) {
		return Accepted
	}

	if r.acceptAmbiguous {
		return Accepted
	}
	return Rejected
}

func containsAny(body string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(body, needle) {
			return true
		}
	}
	return false
}

// A pattern that times out counts as not matching
func matchesAny(body string, patterns []*regexp2.Regexp) bool {
	for _, re := range patterns {
		if ok, err := re.MatchString(body); err == nil && ok {
			return true
		}
	}
	return false
}

// An empty expected value only requires the path to exist.
func (r *Rules) jsonMatches(body string) bool {
	if len(r.successIfJSON) == 0 || !gjson.Valid(body) {
		return false
	}

	for path, want := range r.successIfJSON {
		res := gjson.Get(body, path)
		if !res.Exists() {
			continue
		}
		if want == "" || res.String() == want {
			return true
		}
	}
	return false
}
