package source

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestFileIter(t *testing.T) {
	path := writeFile(t, "test1\ntest2\r\n\ntest3")

	file, err := NewFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"test1", "test2", "test3"}, slices.Collect(file.Iter()))
	assert.Equal(t, uint64(3), file.Count())
	assert.NoError(t, file.Err())
}

func TestFileKeepsSurroundingSpaces(t *testing.T) {
	path := writeFile(t, " pass word \n")

	file, err := NewFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{" pass word "}, slices.Collect(file.Iter()))
}

func TestFileSkipsInvalidUTF8(t *testing.T) {
	path := writeFile(t, "good\n\xff\xfebad\nfine\n")

	file, err := NewFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"good", "fine"}, slices.Collect(file.Iter()))
	assert.Equal(t, uint64(2), file.Count())
}

func TestFileFreshPassesAreIdentical(t *testing.T) {
	path := writeFile(t, "a\nb\nc\n")

	first, err := NewFile(path)
	require.NoError(t, err)
	second, err := NewFile(path)
	require.NoError(t, err)

	assert.Equal(t, slices.Collect(first.Iter()), slices.Collect(second.Iter()))
	assert.Equal(t, slices.Collect(first.Iter()), slices.Collect(first.Iter()))
}

func TestFileEarlyStop(t *testing.T) {
	path := writeFile(t, "a\nb\nc\n")

	file, err := NewFile(path)
	require.NoError(t, err)

	var got []string
	for word := range file.Iter() {
		got = append(got, word)
		if len(got) == 2 {
			break
		}
	}

	assert.Equal(t, []string{"a", "b"}, got)
	assert.NoError(t, file.Err())
}

func TestFileMissing(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileRemovedBetweenPasses(t *testing.T) {
	path := writeFile(t, "a\n")

	file, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	assert.Empty(t, slices.Collect(file.Iter()))
	assert.ErrorIs(t, file.Err(), os.ErrNotExist)
}

func TestFileSkipsOverlongLines(t *testing.T) {
	long := strings.Repeat("x", maxLineSize+10)
	path := writeFile(t, "first\n"+long+"\r\nsecond\n"+long)

	file, err := NewFile(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), file.Count())
	assert.Equal(t, []string{"first", "second"}, slices.Collect(file.Iter()))
	assert.NoError(t, file.Err())
}
