package pinyin

import (
	"fmt"
	"strings"
)

// Segment splits whitespace separated numbered pinyin ("ni3 hao3") into
// syllables and tone marks each of them (["nǐ", "hǎo"]). Every token is
// taken to be exactly one syllable; tokens without a digit pass through
// with only the "u:" spelling resolved.
func Segment(raw string) ([]string, error) {
	tokens := strings.Fields(raw)
	out := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		s, err := Mark(tok)
		if err != nil {
			return nil, fmt.Errorf("syllable %d: %w", i+1, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Accent converts numbered pinyin into the joined display form used by
// dictionary files: Accent("ban4 fa3") == "bànfǎ".
func Accent(raw string) (string, error) {
	syllables, err := Segment(raw)
	if err != nil {
		return "", err
	}
	return strings.Join(syllables, ""), nil
}

// HasToneDigits reports whether s looks like numbered pinyin, i.e.
// contains a tone digit.
func HasToneDigits(s string) bool {
	return strings.ContainsAny(s, "12345")
}
