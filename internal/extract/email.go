package extract

import "regexp"

var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Email returns the first email address in text.
func Email(text string) (string, bool) {
	m := emailRe.FindString(text)
	return m, m != ""
}
