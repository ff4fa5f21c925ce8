// Package cedict converts CC-CEDICT text into the pipe separated dictionary
// format read by package dictionary.
package cedict

import (
	"errors"
	"fmt"
	"strings"

	"github.com/japaniel/pime/pkg/pinyin"
)

// ErrSyntax is returned for lines that are not "trad simp [pin yin] /def/".
var ErrSyntax = errors.New("cedict: syntax error")

// Record is one parsed CC-CEDICT line.
type Record struct {
	Traditional string
	Simplified  string
	// Pinyin is the numbered form, e.g. "ban4 fa3".
	Pinyin string
	Senses []string
}

// ParseLine parses a single CC-CEDICT entry line. The trailing "\r" of
// files with CRLF endings is ignored.
func ParseLine(line string) (Record, error) {
	line = strings.TrimSuffix(line, "\r")

	trad, rest, ok := strings.Cut(line, " ")
	if !ok || trad == "" {
		return Record{}, fmt.Errorf("%w: missing simplified form", ErrSyntax)
	}
	simp, rest, ok := strings.Cut(rest, " ")
	if !ok || simp == "" {
		return Record{}, fmt.Errorf("%w: missing pinyin", ErrSyntax)
	}
	if !strings.HasPrefix(rest, "[") {
		return Record{}, fmt.Errorf("%w: expected '['", ErrSyntax)
	}
	pin, rest, ok := strings.Cut(rest[1:], "]")
	if !ok {
		return Record{}, fmt.Errorf("%w: unterminated pinyin", ErrSyntax)
	}
	rest = strings.TrimPrefix(rest, " ")
	if !strings.HasPrefix(rest, "/") || !strings.HasSuffix(rest, "/") || len(rest) < 2 {
		return Record{}, fmt.Errorf("%w: definition must be enclosed in '/'", ErrSyntax)
	}

	return Record{
		Traditional: trad,
		Simplified:  simp,
		Pinyin:      pin,
		Senses:      strings.Split(rest[1:len(rest)-1], "/"),
	}, nil
}

// Convert renders the record as a dictionary file line without the
// newline: traditional|simplified|accented pinyin|senses joined by " / ".
func (r Record) Convert() (string, error) {
	accented, err := pinyin.Accent(r.Pinyin)
	if err != nil {
		return "", fmt.Errorf("pinyin %q: %w", r.Pinyin, err)
	}
	for _, field := range []string{r.Traditional, r.Simplified, accented} {
		if strings.Contains(field, "|") {
			return "", fmt.Errorf("%w: %q contains '|'", ErrSyntax, field)
		}
	}
	return r.Traditional + "|" + r.Simplified + "|" + accented + "|" + strings.Join(r.Senses, " / "), nil
}

// Key returns the lookup key the converted entry will be indexed under.
func (r Record) Key() string {
	return pinyin.Key(r.Pinyin)
}
