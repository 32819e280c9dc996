package router

import (
	"regexp"
	"strings"
)

const (
	defaultDriveQuery = "document OR pdf OR image"
	allFilesQuery     = "document OR pdf OR image OR video"
)

var (
	fillerRe    = regexp.MustCompile(`\b(?:for|file|named|called|search|find|look|get|the|content|of|my|url)\b`)
	forRe       = regexp.MustCompile(`\bfor\b`)
	driveWordRe = regexp.MustCompile(`(?i)search for files in google drive|drive`)
	fileExts    = []string{".pdf", ".doc", ".docx", ".xlsx", ".pptx", ".txt"}
	driveNoise  = []string{"in google drive", "in drive", "query:", "and summarize", "and process"}
)

// DriveQuery derives the Drive search text from an utterance.
func DriveQuery(utterance string) string {
	lower := strings.ToLower(utterance)

	var q string
	switch {
	case strings.Contains(lower, "search for files"):
		return allFilesQuery
	case strings.Contains(lower, "search") && strings.Contains(lower, "drive"):
		_, q, _ = strings.Cut(lower, "search")
		q = removeAll(q, "in google drive", "drive", "query:")
		q = forRe.ReplaceAllString(q, "")
	case containsAny(lower, "named", "called", "read", "access", "open", "view"):
		q = fileNameQuery(lower)
	default:
		q = driveWordRe.ReplaceAllString(utterance, "")
	}

	q = strings.Join(strings.Fields(q), " ")
	if q == "" {
		return defaultDriveQuery
	}
	return q
}

// fileNameQuery reduces the text after a naming cue to something that
// looks like a file name.
func fileNameQuery(lower string) string {
	var q string
	switch {
	case strings.Contains(lower, "named"):
		q = lower[strings.LastIndex(lower, "named")+len("named"):]
	case strings.Contains(lower, "called"):
		q = lower[strings.LastIndex(lower, "called")+len("called"):]
	case strings.Contains(lower, "read"):
		_, q, _ = strings.Cut(lower, "read")
	case strings.Contains(lower, "access"):
		_, q, _ = strings.Cut(lower, "access")
	default:
		return defaultDriveQuery
	}

	q = removeAll(q, driveNoise...)
	q = strings.ReplaceAll(q, ".docs.", ".docx")
	q = strings.ReplaceAll(q, ".docs", ".docx")
	q = strings.Trim(strings.TrimSpace(q), `"'`)
	q = fillerRe.ReplaceAllString(q, "")

	words := strings.Fields(q)
	if len(words) <= 3 {
		return strings.Join(words, " ")
	}
	for _, w := range words {
		if containsAny(w, fileExts...) {
			return w
		}
	}
	return strings.Join(words[len(words)-2:], " ")
}

// DriveAlternates lists extra queries tried when the user names a file:
// exact match, base name, individual words and spacing or case variants.
// Duplicates, including q itself, are skipped.
func DriveAlternates(q string) []string {
	seen := map[string]struct{}{q: {}}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if !strings.HasPrefix(q, `"`) && !strings.HasSuffix(q, `"`) {
		add(`"` + q + `"`)
	}
	if base, _, ok := strings.Cut(strings.Trim(q, `"`), "."); ok {
		add(base)
	}
	if words := strings.Fields(q); len(words) > 1 {
		for _, w := range words {
			if len(w) > 2 {
				add(w)
			}
		}
	}

	add(strings.ReplaceAll(q, " ", "_"))
	add(strings.ReplaceAll(q, " ", "-"))
	add(strings.ReplaceAll(q, " ", ""))
	add(strings.ToUpper(q))
	add(strings.ToLower(q))

	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func removeAll(s string, subs ...string) string {
	for _, sub := range subs {
		s = strings.ReplaceAll(s, sub, "")
	}
	return s
}
