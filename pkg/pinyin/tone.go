// Package pinyin converts between numbered pinyin ("hao3") and pinyin with
// tone marks ("hǎo"), and derives tone-free dictionary keys.
package pinyin

// Tone numbers as used by the numbered romanization (e.g. "ma3").
const (
	NoTone  = 0 // no digit given
	Flat    = 1 // ā, macron
	Rising  = 2 // á, acute
	Dipping = 3 // ǎ, caron
	Falling = 4 // à, grave
	Neutral = 5 // unmarked
)

// vowels lists the base vowels in the row order of marked.
var vowels = [12]rune{
	'a', 'e', 'i', 'o', 'u', 'ü',
	'A', 'E', 'I', 'O', 'U', 'Ü',
}

// marked[v][t-1] is vowel v carrying tone t.
var marked = [12][4]rune{
	{'ā', 'á', 'ǎ', 'à'},
	{'ē', 'é', 'ě', 'è'},
	{'ī', 'í', 'ǐ', 'ì'},
	{'ō', 'ó', 'ǒ', 'ò'},
	{'ū', 'ú', 'ǔ', 'ù'},
	{'ǖ', 'ǘ', 'ǚ', 'ǜ'},
	{'Ā', 'Á', 'Ǎ', 'À'},
	{'Ē', 'É', 'Ě', 'È'},
	{'Ī', 'Í', 'Ǐ', 'Ì'},
	{'Ō', 'Ó', 'Ǒ', 'Ò'},
	{'Ū', 'Ú', 'Ǔ', 'Ù'},
	{'Ǖ', 'Ǘ', 'Ǚ', 'Ǜ'},
}

func vowelIndex(r rune) int {
	switch r {
	case 'a':
		return 0
	case 'e':
		return 1
	case 'i':
		return 2
	case 'o':
		return 3
	case 'u':
		return 4
	case 'ü':
		return 5
	case 'A':
		return 6
	case 'E':
		return 7
	case 'I':
		return 8
	case 'O':
		return 9
	case 'U':
		return 10
	case 'Ü':
		return 11
	}
	return -1
}

// IsVowel reports whether r is an unmarked pinyin vowel in either case.
func IsVowel(r rune) bool {
	return vowelIndex(r) >= 0
}

// Encode returns vowel carrying the given tone. Tones outside 1-4 and
// letters that are not pinyin vowels are returned unchanged.
func Encode(vowel rune, tone int) rune {
	i := vowelIndex(vowel)
	if i < 0 || tone < Flat || tone > Falling {
		return vowel
	}
	return marked[i][tone-1]
}

// Decode returns the unmarked vowel for a tone-marked vowel. Any other
// rune is returned unchanged.
func Decode(r rune) rune {
	base, _ := Split(r)
	return base
}

// Split separates a tone-marked vowel into its base vowel and tone.
// Runes without a tone mark are returned as is with NoTone.
func Split(r rune) (rune, int) {
	// Every marked vowel lives above ASCII.
	if r < 0x80 {
		return r, NoTone
	}
	for i := range marked {
		for t, m := range marked[i] {
			if m == r {
				return vowels[i], t + 1
			}
		}
	}
	return r, NoTone
}

// ToneOf reports the tone carried by an accented syllable: the tone of
// the first marked vowel, or Neutral when nothing is marked.
func ToneOf(syllable string) int {
	for _, r := range syllable {
		if _, tone := Split(r); tone != NoTone {
			return tone
		}
	}
	return Neutral
}
