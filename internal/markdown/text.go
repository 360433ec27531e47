package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Words splits text into words. Inner apostrophes and hyphens are kept.
func Words(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’' || r == '-')
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'’-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// WordCount is len(Words(text)).
func WordCount(text string) int {
	return len(Words(text))
}

var abbreviations = map[string]struct{}{
	"e.g": {}, "i.e": {}, "etc": {}, "vs": {}, "dr": {}, "mr": {}, "mrs": {}, "ms": {},
	"bijv": {}, "o.a": {}, "d.w.z": {}, "nr": {}, "approx": {}, "st": {},
}

// SplitSentences splits prose on terminal punctuation. Decimal points and a
// small set of abbreviations do not end a sentence.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	text = strings.TrimSpace(text)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size
		if r == '\n' && next < len(text) && text[next] == '\n' {
			appendSentence(&out, text[start:i])
			start = next
			i = next
			continue
		}
		if r != '.' && r != '!' && r != '?' {
			i = next
			continue
		}
		for next < len(text) && strings.IndexByte(".!?\"')", text[next]) >= 0 {
			next++
		}
		if next < len(text) && !unicode.IsSpace(rune(text[next])) {
			i = next
			continue
		}
		if r == '.' && isAbbreviation(text[start:i]) {
			i = next
			continue
		}
		appendSentence(&out, text[start:next])
		start = next
		i = next
	}
	appendSentence(&out, text[start:])
	return out
}

func appendSentence(out *[]string, s string) {
	s = strings.Join(strings.Fields(s), " ")
	if s != "" {
		*out = append(*out, s)
	}
}

func isAbbreviation(prefix string) bool {
	idx := strings.LastIndexFunc(prefix, unicode.IsSpace)
	word := strings.ToLower(prefix[idx+1:])
	word = strings.TrimLeft(word, "(\"'")
	if word == "" {
		return false
	}
	if _, ok := abbreviations[word]; ok {
		return true
	}
	// Single initials such as "J." in names.
	first, _ := utf8.DecodeRuneInString(strings.TrimLeft(prefix[idx+1:], "(\"'"))
	return utf8.RuneCountInString(word) == 1 && unicode.IsUpper(first)
}

// FirstSentence returns the first sentence of text, or "".
func FirstSentence(text string) string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	return sentences[0]
}

// CountPhrase counts case-insensitive, word-bounded occurrences of phrase in text.
func CountPhrase(text, phrase string) int {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return 0
	}
	lower := strings.ToLower(text)
	count := 0
	for i := 0; ; {
		j := strings.Index(lower[i:], phrase)
		if j < 0 {
			return count
		}
		pos := i + j
		end := pos + len(phrase)
		if boundaryBefore(lower, pos) && boundaryAfter(lower, end) {
			count++
		}
		i = pos + 1
		if i >= len(lower) {
			return count
		}
	}
}

// ContainsPhrase reports whether CountPhrase(text, phrase) > 0.
func ContainsPhrase(text, phrase string) bool {
	return CountPhrase(text, phrase) > 0
}

func boundaryBefore(s string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:pos])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[pos:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
