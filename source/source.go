// Package source provides the lazy string sequences that usernames and
// passwords are drawn from.
package source

import "iter"

// Provider is implemented by every candidate source (wordlist file, generator,
// inline list).
type Provider interface {
	// Count is the number of strings a full pass of Iter yields. It is used for
	// the workload shown in progress output and for product sizing.
	Count() uint64

	// Iter starts a fresh, independent pass over the sequence.
	Iter() iter.Seq[string]

	// Err reports the error that cut the last pass short, nil if it ran to
	// completion or the caller stopped it.
	Err() error
}
