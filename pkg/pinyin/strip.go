package pinyin

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// StripTones removes tone marks and tone digits from romanized text,
// keeping everything else: StripTones("nǐ hǎo") == "ni hao".
//
// Input is NFC normalized first so that a vowel followed by a combining
// accent decodes the same as the precomposed letter.
func StripTones(romanized string) string {
	romanized = norm.NFC.String(romanized)
	var b strings.Builder
	b.Grow(len(romanized))
	for _, r := range romanized {
		if r >= '0' && r <= '9' {
			continue
		}
		b.WriteRune(Decode(r))
	}
	return b.String()
}

// Key derives the dictionary lookup key of a romanized entry: tones are
// stripped, spaces and diaeresis colons removed and ü folded to u.
// Case is preserved. Key("Běijīng") == "Beijing", Key("lu:4") == "lu".
func Key(romanized string) string {
	stripped := StripTones(romanized)
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case unicode.IsSpace(r), r == ':':
			continue
		case r == 'ü':
			b.WriteByte('u')
		case r == 'Ü':
			b.WriteByte('U')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
