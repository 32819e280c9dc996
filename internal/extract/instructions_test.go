package extract_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mcp-chat/internal/extract"
)

func TestInstructions(t *testing.T) {
	text := "Please send the report to bob@example.com. You should review the budget numbers. " +
		"Schedule a meeting about Q3 planning. Download the file from the shared folder."

	got := extract.Instructions(text)
	require.NotEmpty(t, got)

	for _, want := range []extract.Instruction{
		{Text: "send the report to bob@example.com", Category: extract.CategoryCommunication},
		{Text: "review the budget numbers", Category: extract.CategoryDataProcessing},
		{Text: "a meeting about Q3 planning", Category: extract.CategoryCalendar},
		{Text: "the file from the shared folder", Category: extract.CategoryFileOperations},
	} {
		assert.Contains(t, got, want)
	}

	seen := map[string]bool{}
	last := 0
	for _, in := range got {
		assert.False(t, seen[in.Text], "duplicate %q", in.Text)
		seen[in.Text] = true

		idx := slices.Index(extract.Categories, in.Category)
		assert.GreaterOrEqual(t, idx, last, "categories out of order at %q", in.Text)
		last = idx
	}
}

func TestInstructionsLengthBounds(t *testing.T) {
	assert.Empty(t, extract.Instructions("Please do it."))
	assert.Empty(t, extract.Instructions(""))
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		text     string
		expected extract.Category
	}{
		{text: "upload the slides", expected: extract.CategoryFileOperations},
		{text: "notify the whole team", expected: extract.CategoryCommunication},
		{text: "book a room for Monday", expected: extract.CategoryCalendar},
		{text: "calculate the totals", expected: extract.CategoryDataProcessing},
		{text: "be nice to everyone", expected: extract.CategoryGeneral},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.expected, extract.Categorize(tc.text))
		})
	}
}

func TestHighlights(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:    "patterns",
			content: "Hi team. Please review the attached budget before Friday. The deadline is tomorrow at 10:30 am.",
			expected: "Action required: review the attached budget before Friday " +
				"Action required: is tomorrow at 10:30 am Timeline: tomorrow Timeline: 10:30 am Topic: Team.",
		},
		{
			name:     "sentences",
			content:  "The quarterly numbers look fine overall! Nothing else worth adding here at all",
			expected: "The quarterly numbers look fine overall Nothing else worth adding here at all.",
		},
		{
			name:     "short",
			content:  "<b>ok</b> thanks",
			expected: "ok thanks",
		},
		{
			name:     "empty",
			content:  "",
			expected: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extract.Highlights(tc.content))
		})
	}
}
