package source

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorOrder(t *testing.T) {
	gen, err := NewGenerator([]string{"12"}, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"11", "12", "21", "22"}, slices.Collect(gen.Iter()))
}

// Full Cartesian power rather than combinations with replacement: "112",
// "121" and "211" are all distinct candidates.
func TestGeneratorCartesianPower(t *testing.T) {
	gen, err := NewGenerator([]string{"123"}, 3, 3)
	require.NoError(t, err)

	got := slices.Collect(gen.Iter())
	require.Len(t, got, 27)
	assert.Equal(t, uint64(27), gen.Count())

	assert.Equal(t, "111", got[0])
	assert.Equal(t, "112", got[1])
	assert.Equal(t, "121", got[3])
	assert.Equal(t, "211", got[9])
	assert.Equal(t, "333", got[26])

	unique := map[string]bool{}
	for _, s := range got {
		unique[s] = true
	}
	assert.Len(t, unique, 27)
}

func TestGeneratorCounts(t *testing.T) {
	tests := []struct {
		name     string
		alphabet []string
		min, max int
		want     uint64
	}{
		{"single", []string{"a"}, 3, 3, 1},
		{"binary", []string{"01"}, 4, 4, 16},
		{"split alphabet", []string{"ab", "cd"}, 2, 2, 16},
		{"range", []string{"abc"}, 1, 3, 3 + 9 + 27},
		{"dedup", []string{"aab", "ba"}, 3, 3, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.alphabet, tt.min, tt.max)
			require.NoError(t, err)

			got := slices.Collect(gen.Iter())
			assert.Equal(t, tt.want, gen.Count())
			assert.Len(t, got, int(tt.want))

			seen := map[string]bool{}
			for _, s := range got {
				assert.False(t, seen[s], "duplicate %q", s)
				seen[s] = true
			}
		})
	}
}

func TestGeneratorCharsetKeepsFirstOccurrence(t *testing.T) {
	gen, err := NewGenerator([]string{"cab", "bc", "ß"}, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, "cabß", gen.Charset())
	assert.Equal(t, []string{"c", "a", "b", "ß"}, slices.Collect(gen.Iter()))
}

func TestGeneratorStableAcrossRuns(t *testing.T) {
	a, err := NewGenerator([]string{"xyz"}, 1, 2)
	require.NoError(t, err)
	b, err := NewGenerator([]string{"xyz"}, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, slices.Collect(a.Iter()), slices.Collect(b.Iter()))
}

func TestGeneratorErrors(t *testing.T) {
	_, err := NewGenerator(nil, 1, 1)
	assert.Error(t, err)

	_, err = NewGenerator([]string{"ab"}, 0, 2)
	assert.Error(t, err)

	_, err = NewGenerator([]string{"ab"}, 3, 2)
	assert.Error(t, err)

	_, err = NewGenerator([]string{"0123456789abcdef"}, 17, 17)
	assert.Error(t, err, "16^17 overflows uint64")
}

func TestListProvider(t *testing.T) {
	items := []string{"admin", "root"}
	list := NewList(items)
	items[0] = "changed"

	assert.Equal(t, uint64(2), list.Count())
	assert.Equal(t, []string{"admin", "root"}, slices.Collect(list.Iter()))
}
