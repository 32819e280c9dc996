package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	spaceRe    = regexp.MustCompile(`\s+`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)

	actionRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)please\s+([^.]+)`),
		regexp.MustCompile(`(?i)need\s+([^.]+)`),
		regexp.MustCompile(`(?i)request\s+([^.]+)`),
		regexp.MustCompile(`(?i)urgent\s+([^.]+)`),
		regexp.MustCompile(`(?i)deadline\s+([^.]+)`),
		regexp.MustCompile(`(?i)meeting\s+([^.]+)`),
		regexp.MustCompile(`(?i)call\s+([^.]+)`),
		regexp.MustCompile(`(?i)email\s+([^.]+)`),
		regexp.MustCompile(`(?i)update\s+([^.]+)`),
		regexp.MustCompile(`(?i)confirm\s+([^.]+)`),
	}

	timelineRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:today|tomorrow|next week|this week|this month)\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:am|pm)?\b`),
		regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\s+\d{1,2}\b`),
	}

	topicRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:project|meeting|report|budget|client|team|update|status)\b`),
		regexp.MustCompile(`(?i)\b(?:issue|problem|solution|plan|strategy|goal|target)\b`),
		regexp.MustCompile(`(?i)\b(?:approval|review|feedback|decision|agreement|contract)\b`),
	}
)

const maxHighlights = 5

// Highlights condenses an email body into one short paragraph: action
// items, timeline mentions and topics when present, otherwise the first
// meaningful sentences, otherwise the opening 150 characters.
func Highlights(content string) string {
	if content == "" {
		return ""
	}

	content = strings.TrimSpace(spaceRe.ReplaceAllString(tagRe.ReplaceAllString(content, ""), " "))

	var found []string
	for _, re := range actionRes {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if s := strings.TrimSpace(m[1]); utf8.RuneCountInString(s) > 10 {
				found = append(found, "Action required: "+s)
			}
		}
	}
	for _, re := range timelineRes {
		for _, m := range re.FindAllString(content, -1) {
			found = append(found, "Timeline: "+m)
		}
	}
	for _, re := range topicRes {
		for _, m := range re.FindAllString(content, -1) {
			found = append(found, "Topic: "+titleCase(m))
		}
	}

	if len(found) > 0 {
		return strings.Join(firstUnique(found, maxHighlights), " ") + "."
	}

	var sentences []string
	for _, s := range sentenceRe.Split(content, -1) {
		if s = strings.TrimSpace(s); utf8.RuneCountInString(s) > 20 {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) > 0 {
		if len(sentences) > 3 {
			sentences = sentences[:3]
		}
		return strings.Join(sentences, " ") + "."
	}

	if utf8.RuneCountInString(content) > 150 {
		return string([]rune(content)[:150]) + "..."
	}
	return content
}

func firstUnique(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, limit)
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
