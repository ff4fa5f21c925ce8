package pinyin

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrMalformed is the error kind of every syllable that cannot be tone marked.
var ErrMalformed = errors.New("pinyin: malformed syllable")

// SyllableError describes a syllable rejected by PlaceTone or ParseSyllable.
type SyllableError struct {
	Syllable string
	Reason   string
}

func (e *SyllableError) Error() string {
	return fmt.Sprintf("pinyin: malformed syllable %q: %s", e.Syllable, e.Reason)
}

func (e *SyllableError) Unwrap() error { return ErrMalformed }

// PlaceTone puts the tone mark of tone on the right vowel of a single
// syllable given without its tone digit, e.g. PlaceTone("hao", 3) == "hǎo".
//
// The mark goes on "a" if there is one, else on "e", else on the "o" of
// "ou", else on the last vowel. A colon following "u" turns it into "ü"
// ("lu:" -> "lü"). With NoTone or Neutral the vowels are left unmarked.
func PlaceTone(letters string, tone int) (string, error) {
	if tone < NoTone || tone > Neutral {
		return "", &SyllableError{Syllable: letters, Reason: fmt.Sprintf("tone %d out of range", tone)}
	}

	syllable := make([]rune, 0, len(letters))
	pos := -1
	for _, r := range letters {
		if r == ':' {
			n := len(syllable)
			if n == 0 || (syllable[n-1] != 'u' && syllable[n-1] != 'U') {
				return "", &SyllableError{Syllable: letters, Reason: "colon does not follow u"}
			}
			if syllable[n-1] == 'u' {
				syllable[n-1] = 'ü'
			} else {
				syllable[n-1] = 'Ü'
			}
			continue
		}

		var prev rune
		if len(syllable) > 0 {
			prev = syllable[len(syllable)-1]
		}
		syllable = append(syllable, r)
		if pos != -1 {
			continue
		}
		switch r {
		case 'a', 'A', 'e', 'E':
			pos = len(syllable) - 1
		case 'u', 'U':
			if prev == 'o' || prev == 'O' {
				pos = len(syllable) - 2
			}
		}
	}

	if tone == NoTone || tone == Neutral {
		return string(syllable), nil
	}

	if pos == -1 {
		for i := len(syllable) - 1; i >= 0; i-- {
			if IsVowel(syllable[i]) {
				pos = i
				break
			}
		}
	}
	if pos == -1 {
		return "", &SyllableError{Syllable: letters, Reason: fmt.Sprintf("tone %d without a vowel", tone)}
	}
	syllable[pos] = Encode(syllable[pos], tone)
	return string(syllable), nil
}

// ParseSyllable splits a numbered syllable such as "lu:4" into its letters
// and tone. A token without a trailing digit has NoTone.
func ParseSyllable(token string) (string, int, error) {
	runes := []rune(token)
	tone := NoTone
	if n := len(runes); n > 0 && unicode.IsDigit(runes[n-1]) {
		d := runes[n-1]
		if d < '1' || d > '5' {
			return "", NoTone, &SyllableError{Syllable: token, Reason: fmt.Sprintf("tone digit %q out of range", d)}
		}
		tone = int(d - '0')
		runes = runes[:n-1]
	}
	for _, r := range runes {
		if unicode.IsDigit(r) {
			return "", NoTone, &SyllableError{Syllable: token, Reason: "tone digit inside syllable"}
		}
	}
	return string(runes), tone, nil
}

// Mark converts one numbered syllable ("ban4") into its accented form ("bàn").
func Mark(token string) (string, error) {
	letters, tone, err := ParseSyllable(token)
	if err != nil {
		return "", err
	}
	return PlaceTone(letters, tone)
}
