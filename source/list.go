package source

import (
	"iter"
	"slices"
)

// List is a Provider over a fixed, in-memory set of strings, e.g. usernames
// given inline in the config.
type List struct {
	items []string
}

func NewList(items []string) *List {
	return &List{items: slices.Clone(items)}
}

func (list *List) Count() uint64 {
	return uint64(len(list.items))
}

func (list *List) Err() error {
	return nil
}

func (list *List) Iter() iter.Seq[string] {
	return slices.Values(list.items)
}
