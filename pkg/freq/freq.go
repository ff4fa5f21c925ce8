// Package freq loads character and word frequency tables and uses them to
// order lookup results.
package freq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/japaniel/pime/pkg/dictionary"
)

// ErrFormat is returned for lines that are not "word<TAB>frequency".
var ErrFormat = errors.New("freq: unexpected frequency table data")

// Table maps words to their corpus frequency.
type Table struct {
	freq map[string]int64
}

// Load reads a tab separated word/frequency table. Blank lines are
// ignored; a later line for the same word overrides an earlier one.
func Load(r io.Reader) (*Table, error) {
	t := &Table{freq: make(map[string]int64)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: %w", line, ErrFormat)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrFormat, err)
		}
		t.freq[fields[0]] = n
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile is Load on the named file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frequency table: %w", err)
	}
	defer f.Close()
	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Len returns the number of words in the table.
func (t *Table) Len() int { return len(t.freq) }

// Frequency returns the frequency of word, 0 when it is not listed.
func (t *Table) Frequency(word string) int64 {
	if t == nil {
		return 0
	}
	return t.freq[word]
}

func (t *Table) score(e dictionary.Entry) int64 {
	return max(t.Frequency(e.Simplified), t.Frequency(e.Traditional))
}

// Rank sorts entries by descending frequency of their simplified or
// traditional form. Entries of equal frequency keep their order.
func (t *Table) Rank(entries []dictionary.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return t.score(entries[i]) > t.score(entries[j])
	})
}
