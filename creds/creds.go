// Package creds combines username and password sources into streams of
// credential pairs.
package creds

import (
	"fmt"
	"iter"
	"math/bits"

	"github.com/imbrut/imbrut/source"
)

// Credential is a single username/password candidate.
type Credential struct {
	Username string
	Password string
}

func (c Credential) String() string {
	return fmt.Sprintf("%s:%s", c.Username, c.Password)
}

// Stream is a lazy, countable sequence of credentials. Each Iter call is a
// fresh pass.
type Stream interface {
	Count() uint64
	Iter() iter.Seq[Credential]

	// Err reports a read error that ended the last pass early.
	Err() error
}

type product struct {
	usernames source.Provider
	passwords source.Provider

	err error
}

// Product pairs every username with every password. Passwords cycle fully for
// each username before the next username is taken, both in source order.
// Neither side is held in memory; the password source is re-iterated once per
// username.
func Product(usernames, passwords source.Provider) Stream {
	return &product{usernames: usernames, passwords: passwords}
}

// Count saturates at the max uint64 rather than wrapping.
func (p *product) Count() uint64 {
	hi, lo := bits.Mul64(p.usernames.Count(), p.passwords.Count())
	if hi != 0 {
		return ^uint64(0)
	}
	return lo
}

// Err returns the first source error of the last pass. A failing password
// source stops the pass instead of silently moving on to the next username.
func (p *product) Err() error {
	return p.err
}

func (p *product) Iter() iter.Seq[Credential] {
	return func(yield func(Credential) bool) {
		p.err = nil

		for username := range p.usernames.Iter() {
			for password := range p.passwords.Iter() {
				if !yield(Credential{Username: username, Password: password}) {
					return
				}
			}

			if err := p.passwords.Err(); err != nil {
				p.err = fmt.Errorf("passwords: %w", err)
				return
			}
		}

		if err := p.usernames.Err(); err != nil {
			p.err = fmt.Errorf("usernames: %w", err)
		}
	}
}
