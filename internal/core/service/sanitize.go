package service

import "regexp"

// renderMarkers matches the placeholder and text boundary comments some
// renderers inject, together with one trailing newline.
var renderMarkers = regexp.MustCompile(`<!-- (?:react-empty: \d+|react-text: \d+|/react-text) -->\n?`)

// Sanitize removes nondeterministic render markers from text. Removal is
// repeated until nothing matches, so markers split around another marker
// cannot survive and Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	for {
		out := renderMarkers.ReplaceAllString(text, "")
		if len(out) == len(text) {
			return out
		}
		text = out
	}
}
