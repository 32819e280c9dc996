package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category groups instructions by the executor that handles them.
type Category string

const (
	CategoryFileOperations Category = "file_operations"
	CategoryCommunication  Category = "communication"
	CategoryCalendar       Category = "calendar"
	CategoryDataProcessing Category = "data_processing"
	CategoryGeneral        Category = "general"
)

// Categories lists every category in execution order.
var Categories = []Category{
	CategoryFileOperations,
	CategoryCommunication,
	CategoryCalendar,
	CategoryDataProcessing,
	CategoryGeneral,
}

// Instruction is an actionable phrase found in a document.
type Instruction struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// clause runs to the end of the sentence. Dots not followed by whitespace
// (email addresses, file names, domains) stay inside the clause.
const clause = `((?:[^.]|\.[^\s.])+)`

var instructionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:please|kindly|can you|could you|would you)\s+` + clause),
	regexp.MustCompile(`(?i)(?:you should|you need to|you must|you have to)\s+` + clause),
	regexp.MustCompile(`(?i)(?:next steps?|action items?|to do|tasks?)\s*:?\s*` + clause),
	regexp.MustCompile(`(?i)(?:instructions?|directions?|guidelines?)\s*:?\s*` + clause),
	regexp.MustCompile(`(?i)(?:send|email|call|contact|schedule|create|make|do|complete|finish|submit|upload|download|save|delete|update|modify|change|edit|review|approve|reject|accept|decline)\s+` + clause),
	regexp.MustCompile(`(?i)(?:urgent|asap|immediately|today|tomorrow|this week|by [^.]*)\s+` + clause),
	regexp.MustCompile(`(?i)(?:save as|download|upload|attach|send the file|open the file|read the file)\s+` + clause),
	regexp.MustCompile(`(?i)(?:reply to|respond to|notify|inform|tell|ask|request)\s+` + clause),
	regexp.MustCompile(`(?i)(?:schedule|book|arrange|set up|create a meeting|add to calendar)\s+` + clause),
	regexp.MustCompile(`(?i)(?:analyze|calculate|compare|review|check|verify|validate|process|format|organize)\s+` + clause),
}

var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryFileOperations, []string{"file", "download", "upload", "save", "attach", "open", "read"}},
	{CategoryCommunication, []string{"email", "send", "reply", "contact", "call", "notify", "inform"}},
	{CategoryCalendar, []string{"schedule", "meeting", "calendar", "book", "arrange"}},
	{CategoryDataProcessing, []string{"analyze", "calculate", "review", "check", "process", "format"}},
}

// Instructions extracts actionable phrases from text, deduplicated and
// grouped by category in Categories order. Within a category the order of
// discovery is kept.
func Instructions(text string) []Instruction {
	if text == "" {
		return nil
	}

	clean := strings.TrimSpace(spaceRe.ReplaceAllString(tagRe.ReplaceAllString(text, ""), " "))

	seen := make(map[string]struct{})
	byCategory := make(map[Category][]Instruction)

	for _, re := range instructionRes {
		for _, m := range re.FindAllStringSubmatch(clean, -1) {
			s := strings.TrimSpace(m[1])
			n := utf8.RuneCountInString(s)
			if n <= 10 || n >= 200 {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}

			c := Categorize(s)
			byCategory[c] = append(byCategory[c], Instruction{Text: s, Category: c})
		}
	}

	var out []Instruction
	for _, c := range Categories {
		out = append(out, byCategory[c]...)
	}
	return out
}

// Categorize assigns an instruction to the first category whose keywords
// it mentions.
func Categorize(instruction string) Category {
	lower := strings.ToLower(instruction)
	for _, ck := range categoryKeywords {
		if containsAny(lower, ck.words...) {
			return ck.category
		}
	}
	return CategoryGeneral
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
