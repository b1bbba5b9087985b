// Package casing normalizes report column labels into lower camel case field
// names, e.g. "Merchant ID" -> "merchantId", "UniqueHits" -> "uniqueHits",
// "EPC" -> "epc". Acronyms are split before a trailing capital that starts a
// new word ("XMLHttp" -> "xmlHttp") and a letter after digits is upper-cased.
package casing

import (
	"strings"
	"unicode"
)

// Camel converts s to lower camel case.
func Camel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return strings.ToLower(s)
	}

	if s != strings.ToLower(s) {
		runes = splitCamelHumps(runes)
	}

	start := 0
	for start < len(runes) && isSeparator(runes[start]) {
		start++
	}
	runes = []rune(strings.ToLower(string(runes[start:])))

	return string(upperAfterDigits(joinSeparated(runes)))
}

// splitCamelHumps inserts '-' at lower->upper transitions and before the last
// capital of an acronym that precedes a lowercase letter ("XMLHttp" -> "XML-Http").
func splitCamelHumps(runes []rune) []rune {
	out := append([]rune(nil), runes...)
	lastLower, lastUpper, lastLastUpper := false, false, false
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case lastLower && isASCIILetter(c) && unicode.ToUpper(c) == c:
			out = insertAt(out, i, '-')
			lastLower = false
			lastLastUpper = lastUpper
			lastUpper = true
			i++
		case lastUpper && lastLastUpper && isASCIILetter(c) && unicode.ToLower(c) == c:
			out = insertAt(out, i-1, '-')
			lastLastUpper = lastUpper
			lastUpper = false
			lastLower = true
		default:
			lastLower = unicode.ToLower(c) == c && unicode.ToUpper(c) != c
			lastLastUpper = lastUpper
			lastUpper = unicode.ToUpper(c) == c && unicode.ToLower(c) != c
		}
	}
	return out
}

// joinSeparated drops each run of separators and upper-cases the word character
// that follows it. A trailing run is dropped; a run followed by a non-word
// character is kept as is.
func joinSeparated(runes []rune) []rune {
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		if !isSeparator(runes[i]) {
			out = append(out, runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isSeparator(runes[j]) {
			j++
		}
		switch {
		case j == len(runes):
			i = j
		case isWord(runes[j]):
			out = append(out, unicode.ToUpper(runes[j]))
			i = j + 1
		default:
			out = append(out, runes[i:j]...)
			i = j
		}
	}
	return out
}

func upperAfterDigits(runes []rune) []rune {
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		if !isDigit(runes[i]) {
			out = append(out, runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isDigit(runes[j]) {
			j++
		}
		out = append(out, runes[i:j]...)
		i = j
		if j < len(runes) && isWord(runes[j]) {
			out = append(out, unicode.ToUpper(runes[j]))
			i = j + 1
		}
	}
	return out
}

func insertAt(runes []rune, i int, r rune) []rune {
	runes = append(runes, 0)
	copy(runes[i+1:], runes[i:])
	runes[i] = r
	return runes
}

func isSeparator(r rune) bool {
	return r == '_' || r == '.' || r == '-' || r == ' '
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isWord(r rune) bool {
	return isASCIILetter(r) || isDigit(r) || r == '_'
}
