package concordance

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ws matches one whitespace character the way the result pages produce them,
// non-breaking spaces included.
const ws = `[\s\v\x{85}\p{Z}]`

var (
	// a digit followed by a gap of two or more whitespace characters,
	// the gap is captured so the digit stays with the left piece
	digitGapRegex = regexp.MustCompile(`\p{Nd}(` + ws + `{2,})`)
	// the start of a topic/publication block: "12.Title ..."
	topicStartRegex = regexp.MustCompile(`^\p{Nd}+\.[A-Z].`)
	gapRegex        = regexp.MustCompile(ws + `{2,}`)
	// whitespace right before a capitalized word
	capitalBoundaryRegex = regexp.MustCompile(ws + `[A-Z]`)
)

const blockSeparator = "**"

// Segment splits one raw result line into its field tuple.
//
// The result pages carry no column delimiters, fields are only told apart by
// irregular whitespace runs and capitalization. Each stage below resolves one
// of those ambiguities and they must run in this order. Segment never fails:
// malformed input degrades to a best-effort tuple.
func Segment(line string) Tuple {
	if line == "" {
		return Tuple{}
	}

	blocks := strings.Split(line, blockSeparator)
	if len(blocks) != 2 {
		t := newTuple(tupleUnsegmented)
		t.slots[SlotID] = strings.TrimSpace(line)
		return t
	}
	numBlock := strings.TrimSpace(blocks[0])
	yearAuthorTopicBlock := strings.TrimSpace(blocks[1])

	var slots []string
	slots = append(slots, splitAfterDigits(numBlock)...)

	yearAuthorBlock, topicPubBlock := splitTopic(yearAuthorTopicBlock)
	slots = append(slots, gapRegex.Split(yearAuthorBlock, -1)...)

	if topicPubBlock != "" {
		slots = append(slots, splitAtCapital(topicPubBlock)...)
	} else {
		slots = append(slots, "")
	}

	for len(slots) < Width {
		slots = append(slots, Placeholder)
	}

	title, country, ok := ExtractCountry(slots[SlotTitle])
	if ok {
		slots[SlotTitle] = title
		current := slots[SlotCountry]
		if current != Placeholder && current != "" {
			slots = append(slots[:SlotCountry], append([]string{country}, slots[SlotCountry:]...)...)
		} else {
			slots[SlotCountry] = country
		}
	}

	t := Tuple{kind: tupleSegmented}
	copy(t.slots[:], slots[:Width])
	return t
}

func splitAfterDigits(s string) []string {
	matches := digitGapRegex.FindAllStringSubmatchIndex(s, -1)
	parts := make([]string, 0, len(matches)+1)
	last := 0
	for _, m := range matches {
		parts = append(parts, s[last:m[2]])
		last = m[3]
	}
	return append(parts, s[last:])
}

// splitTopic separates "year  author" from "N.Topic Publication". The split
// only happens when there is exactly one candidate boundary.
func splitTopic(s string) (yearAuthor string, topicPub string) {
	boundary := -1
	width := 0
	count := 0
	for i, r := range s {
		if !isSpace(r) {
			continue
		}
		w := utf8.RuneLen(r)
		if !topicStartRegex.MatchString(s[i+w:]) {
			continue
		}
		count++
		boundary = i
		width = w
	}
	if count != 1 {
		return s, ""
	}
	return strings.TrimSpace(s[:boundary]), strings.TrimSpace(s[boundary+width:])
}

func splitAtCapital(s string) []string {
	loc := capitalBoundaryRegex.FindStringIndex(s)
	if loc == nil {
		return []string{s}
	}
	// the capital letter is a single byte, everything before it is the separator
	return []string{s[:loc[0]], s[loc[1]-1:]}
}
