package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize composes text to NFC and unifies line endings. Pages mix
// precomposed and combining accents, so "Ñ" may arrive as "N" + U+0303.
func Normalize(s string) string {
	return norm.NFC.String(lineEndings.Replace(s))
}

// Contains reports whether the normalized form of s contains marker.
func Contains(s, marker string) bool {
	return strings.Contains(Normalize(s), Normalize(marker))
}
