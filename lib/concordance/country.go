package concordance

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const upperClass = `A-ZÁÉÍÓÚÑÜ`

// trailing punctuation and whitespace allowed between a country token and the
// end of a title
const trailClass = ws + `|[\]).,;:\-]`

var (
	trailingCountryRegex = regexp.MustCompile(
		`(?:^|[^\p{L}\p{N}_])` +
			`([` + upperClass + `]{2,}(?:` + ws + `+[` + upperClass + `]{2,})*)` +
			`(?:` + trailClass + `)*$`,
	)
	romanNumeralRegex = regexp.MustCompile(
		`^(?:I{1,3}|IV|V|VI{0,3}|IX|X|XI{0,3}|XV|XX|XXX|XL|L|LX|LXX|XC|C|CC|CCC|CD|D|DC|DCC|CM|M{1,4})$`,
	)
)

// ExtractCountry removes a trailing country token from a title.
//
// The token is either a run of uppercase words anchored at the end of the
// title (punctuation and whitespace may follow it), or failing that the last
// standalone run of three or more uppercase letters. Roman numerals are never
// reported as countries, so "Tomo III" keeps its volume number. When no token
// is found the title is returned as-is with ok set to false.
func ExtractCountry(title string) (cleaned string, country string, ok bool) {
	candidate := ""
	if m := trailingCountryRegex.FindStringSubmatch(title); m != nil {
		candidate = strings.TrimSpace(m[1])
	} else if runs := upperRuns(title, 3); len(runs) > 0 {
		candidate = runs[len(runs)-1]
	}
	if candidate == "" || isRomanNumeral(candidate) {
		return title, "", false
	}
	return strings.TrimSpace(removeToken(title, candidate)), candidate, true
}

func isRomanNumeral(s string) bool {
	return romanNumeralRegex.MatchString(s)
}

func isUpper(r rune) bool {
	switch r {
	case 'Á', 'É', 'Í', 'Ó', 'Ú', 'Ñ', 'Ü':
		return true
	}
	return r >= 'A' && r <= 'Z'
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

func isTrail(r rune) bool {
	if isSpace(r) {
		return true
	}
	switch r {
	case ']', ')', '.', ',', ';', ':', '-':
		return true
	}
	return false
}

// upperRuns lists the maximal uppercase runs of at least min letters that
// stand as whole words.
func upperRuns(s string, min int) []string {
	var runs []string
	start, count := -1, 0
	prev := rune(-1)
	before := rune(-1)

	flush := func(end int, next rune) {
		if start >= 0 && count >= min && !isWord(before) && !isWord(next) {
			runs = append(runs, s[start:end])
		}
		start, count = -1, 0
	}

	for i, r := range s {
		if isUpper(r) {
			if start < 0 {
				start = i
				before = prev
			}
			count++
		} else {
			flush(i, r)
		}
		prev = r
	}
	flush(len(s), -1)
	return runs
}

// removeToken deletes every occurrence of token along with the whitespace
// directly before it and the trailing punctuation after it.
func removeToken(s, token string) string {
	var b strings.Builder
	cursor := 0
	for {
		idx := strings.Index(s[cursor:], token)
		if idx < 0 {
			break
		}
		start := cursor + idx
		end := start + len(token)

		for start > cursor {
			r, size := utf8.DecodeLastRuneInString(s[:start])
			if !isSpace(r) {
				break
			}
			start -= size
		}
		for end < len(s) {
			r, size := utf8.DecodeRuneInString(s[end:])
			if !isTrail(r) {
				break
			}
			end += size
		}

		b.WriteString(s[cursor:start])
		cursor = end
	}
	b.WriteString(s[cursor:])
	return b.String()
}
