package source

// Provider impl for wordlist files

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"unicode/utf8"
)

// Lines that don't fit in this many bytes are skipped like any other malformed
// line.
const maxLineSize = 1 << 20

type File struct {
	path  string
	count uint64

	// Error from the most recent pass, if it stopped early
	err error
}

// NewFile opens the wordlist at path and pre-scans it once so Count doesn't
// have to walk the file again.
func NewFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist: %w", err)
	}
	defer f.Close()

	var count uint64
	err = scanLines(f, func(string) bool {
		count++
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("read wordlist %q: %w", path, err)
	}

	return &File{path: path, count: count}, nil
}

func (file *File) Path() string {
	return file.path
}

func (file *File) Count() uint64 {
	return file.count
}

// Err returns the error that ended the last pass early, if any.
func (file *File) Err() error {
	return file.err
}

func (file *File) Iter() iter.Seq[string] {
	return func(yield func(string) bool) {
		f, err := os.Open(file.path)
		if err != nil {
			file.err = fmt.Errorf("open wordlist: %w", err)
			return
		}
		defer f.Close()

		file.err = scanLines(f, yield)
	}
}

// scanLines calls fn with every usable line of r until fn returns false.
// bufio.ScanLines already strips the "\r" of CRLF endings.
func scanLines(r io.Reader, fn func(string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split((&lineSplitter{}).split)

	for scanner.Scan() {
		line := scanner.Text()
		if !lineIsWord(line) {
			continue
		}

		if !fn(line) {
			return nil
		}
	}

	return scanner.Err()
}

// lineSplitter is bufio.ScanLines, except a line that fills the whole scanner
// buffer is dropped up to its newline instead of failing with ErrTooLong.
type lineSplitter struct {
	skipping bool
}

func (s *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if s.skipping {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return len(data), nil, nil
		}
		s.skipping = false
		return i + 1, nil, nil
	}

	advance, token, err := bufio.ScanLines(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= maxLineSize {
		s.skipping = true
		return len(data), nil, nil
	}
	return advance, token, err
}

// Empty lines and lines that aren't valid UTF-8 are skipped
func lineIsWord(line string) bool {
	return line != "" && utf8.ValidString(line)
}
