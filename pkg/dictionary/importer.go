package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/pime/pkg/pinyin"
)

// fieldSep separates traditional|simplified|pinyin|definition. Embedded
// separators are not escaped.
const fieldSep = "|"

const maxLineSize = 1024 * 1024

// Load reads a dictionary file and adds its entries tagged with source.
// The whole file is parsed before anything is stored, so on error the
// dictionary is left untouched.
func (d *Dictionary) Load(path string, source SourceID) error {
	f, err := os.Open(path)
	if err != nil {
		return &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	parsed, err := parseEntries(f, path)
	if err != nil {
		return err
	}

	added, skipped := 0, 0
	for _, e := range parsed {
		e.Source = source
		if d.skipDuplicates && d.hasDuplicate(e) {
			skipped++
			continue
		}
		d.insert(e)
		added++
	}
	d.logger.Debug("loaded dictionary",
		zap.String("path", path),
		zap.Uint32("source", uint32(source)),
		zap.Int("added", added),
		zap.Int("skipped", skipped))
	return nil
}

func parseEntries(r io.Reader, path string) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var entries []Entry
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, reason := parseLine(line)
		if reason != "" {
			return nil, &FormatError{Path: path, Line: lineNum, Text: line, Reason: reason}
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return entries, nil
}

// parseLine returns the entry of one line, or the reason it is invalid.
func parseLine(line string) (Entry, string) {
	parts := strings.SplitN(line, fieldSep, 4)
	if len(parts) < 4 {
		return Entry{}, fmt.Sprintf("expected 4 %s-separated fields, got %d", fieldSep, len(parts))
	}
	e := Entry{
		Traditional: parts[0],
		Simplified:  parts[1],
		Pinyin:      parts[2],
		Definition:  parts[3],
	}
	if err := validate(&e); err != nil {
		return Entry{}, err.Error()
	}
	e.Key = pinyin.Key(e.Pinyin)
	return e, ""
}

// Save writes the live entries of source to path in key order, replacing
// the file and creating its directory when missing. Entries of other
// sources are never written. A failed save leaves the in-memory
// dictionary as it was.
func (d *Dictionary) Save(path string, source SourceID) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}

	w := bufio.NewWriter(f)
	written := 0
	var werr error
	d.index.Ascend(func(n node) bool {
		e := d.entries[n.id]
		if e.Source != source {
			return true
		}
		_, werr = fmt.Fprintf(w, "%s|%s|%s|%s\n", e.Traditional, e.Simplified, e.Pinyin, e.Definition)
		written++
		return werr == nil
	})
	if werr == nil {
		werr = w.Flush()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return &IOError{Op: "write", Path: path, Err: werr}
	}

	d.logger.Debug("saved dictionary",
		zap.String("path", path),
		zap.Uint32("source", uint32(source)),
		zap.Int("words", written))
	return nil
}
