package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeetingName(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "after about", text: "schedule a meeting about roadmap review", expected: "roadmap review"},
		{name: "last about wins", text: "schedule a talk about it About Budget", expected: "Budget"},
		{name: "no about", text: "schedule a meeting tomorrow", expected: instructionMeeting},
		{name: "nothing after about", text: "schedule a meeting about", expected: instructionMeeting},
		{name: "runes growing when lowered", text: "schedule a meeting ȺȺȺȺȺȺȺȺȺȺȺȺȺȺȺȺ about budget", expected: "budget"},
		{name: "runes shrinking when lowered", text: "schedule a meeting İİİİİİİİ about budget review", expected: "budget review"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, meetingName(tc.text))
		})
	}
}
