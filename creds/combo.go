package creds

import (
	"iter"
	"strings"

	"github.com/imbrut/imbrut/source"
)

// Combo is a Stream read from a file of "username:password" lines. Lines are
// split on the first colon, so passwords may contain colons. Lines with no
// colon are skipped.
type Combo struct {
	file  *source.File
	count uint64
}

func NewCombo(path string) (*Combo, error) {
	file, err := source.NewFile(path)
	if err != nil {
		return nil, err
	}

	combo := &Combo{file: file}
	for range combo.Iter() {
		combo.count++
	}

	if err := file.Err(); err != nil {
		return nil, err
	}

	return combo, nil
}

func (combo *Combo) Count() uint64 {
	return combo.count
}

// Err reports a read error that ended the last pass early.
func (combo *Combo) Err() error {
	return combo.file.Err()
}

func (combo *Combo) Iter() iter.Seq[Credential] {
	return func(yield func(Credential) bool) {
		for line := range combo.file.Iter() {
			username, password, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}

			if !yield(Credential{Username: username, Password: password}) {
				return
			}
		}
	}
}
