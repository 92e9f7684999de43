package source

// Provider impl for generated candidates

import (
	"fmt"
	"iter"
	"math/bits"
	"strings"
)

// Generator yields every ordered sequence (the full Cartesian power) of its
// charset for each length in [minLen, maxLen]. Order is lexicographic by the
// position of each character in the charset, shortest lengths first.
type Generator struct {
	charset []string
	minLen  int
	maxLen  int
	count   uint64
}

// NewGenerator concatenates the alphabet parts and drops repeated characters,
// keeping the first occurrence of each.
func NewGenerator(alphabet []string, minLen, maxLen int) (*Generator, error) {
	var charset []string
	seen := map[rune]bool{}
	for _, r := range strings.Join(alphabet, "") {
		if seen[r] {
			continue
		}
		seen[r] = true
		charset = append(charset, string(r))
	}

	if len(charset) == 0 {
		return nil, fmt.Errorf("generator charset is empty")
	} else if minLen <= 0 || maxLen <= 0 {
		return nil, fmt.Errorf("generator length must be positive, got (%d-%d)", minLen, maxLen)
	} else if minLen > maxLen {
		return nil, fmt.Errorf("generator min length (%d) is larger than max length (%d)", minLen, maxLen)
	}

	count, err := powerSum(uint64(len(charset)), minLen, maxLen)
	if err != nil {
		return nil, err
	}

	return &Generator{
		charset: charset,
		minLen:  minLen,
		maxLen:  maxLen,
		count:   count,
	}, nil
}

// Charset returns the deduplicated characters in generation order.
func (gen *Generator) Charset() string {
	return strings.Join(gen.charset, "")
}

func (gen *Generator) Count() uint64 {
	return gen.count
}

func (gen *Generator) Err() error {
	return nil
}

func (gen *Generator) Iter() iter.Seq[string] {
	numChars := len(gen.charset)

	return func(yield func(string) bool) {
		var sb strings.Builder

		for length := gen.minLen; length <= gen.maxLen; length++ {
			indices := make([]int, length)

			for {
				sb.Reset()
				for _, i := range indices {
					sb.WriteString(gen.charset[i])
				}

				if !yield(sb.String()) {
					return
				}

				// Odometer step: bump the rightmost index that isn't maxed out
				i := length - 1
				for i >= 0 && indices[i] == numChars-1 {
					i--
				}
				if i < 0 {
					break
				}

				indices[i]++
				for j := i + 1; j < length; j++ {
					indices[j] = 0
				}
			}
		}
	}
}

// powerSum returns base^minLen + ... + base^maxLen, failing on uint64 overflow.
func powerSum(base uint64, minLen, maxLen int) (uint64, error) {
	var total uint64
	for length := minLen; length <= maxLen; length++ {
		var n uint64 = 1
		for i := 0; i < length; i++ {
			hi, lo := bits.Mul64(n, base)
			if hi != 0 {
				return 0, fmt.Errorf("generator space for length (%d) overflows uint64", length)
			}
			n = lo
		}

		var carry uint64
		total, carry = bits.Add64(total, n, 0)
		if carry != 0 {
			return 0, fmt.Errorf("generator space for lengths (%d-%d) overflows uint64", minLen, maxLen)
		}
	}

	return total, nil
}
