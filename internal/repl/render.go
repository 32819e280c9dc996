package repl

import (
	"fmt"
	"strings"

	"github.com/hal9000y/mcp-chat/internal/chain"
)

const previewChars = 120

// Render prints a chat response as indented sections. Empty sections are
// left out.
func Render(resp chain.Response, s Styles) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Assistant:") + " " + resp.Message + "\n")

	if len(resp.ToolResults) > 0 {
		b.WriteString(s.Title.Render("Tools:") + "\n")
		for _, res := range resp.ToolResults {
			if res.Success {
				fmt.Fprintf(&b, "  %s %s\n", s.Success.Render("✓"), res.Invocation.Name())
				continue
			}
			fmt.Fprintf(&b, "  %s %s %s\n", s.Error.Render("✗"), res.Invocation.Name(), s.Muted.Render(res.Error))
		}
	}

	if len(resp.Emails) > 0 {
		b.WriteString(s.Title.Render("Emails:") + "\n")
		for _, e := range resp.Emails {
			fmt.Fprintf(&b, "  • %s %s\n", e.Subject, s.Muted.Render(e.From))
			if e.Summary != "" {
				fmt.Fprintf(&b, "    %s\n", preview(e.Summary))
			}
		}
	}

	if len(resp.ProcessedURLs) > 0 {
		b.WriteString(s.Title.Render("URLs:") + "\n")
		for _, u := range resp.ProcessedURLs {
			if u.Error != "" {
				fmt.Fprintf(&b, "  %s %s %s\n", s.Error.Render("✗"), u.URL, s.Muted.Render(u.Error))
				continue
			}
			fmt.Fprintf(&b, "  %s %s %s\n", s.Success.Render("✓"), u.URL, s.Accent.Render("("+u.ContentType+")"))
			if u.Title != "" {
				fmt.Fprintf(&b, "    %s\n", u.Title)
			}
			if u.Content != "" {
				fmt.Fprintf(&b, "    %s\n", s.Muted.Render(preview(u.Content)))
			}
		}
	}

	if len(resp.ProcessedImages) > 0 {
		b.WriteString(s.Title.Render("Images:") + "\n")
		for _, img := range resp.ProcessedImages {
			mark := s.Success.Render("✓")
			if img.Error != "" {
				mark = s.Error.Render("✗")
			}
			fmt.Fprintf(&b, "  %s %s %s\n", mark, img.ImageURL,
				s.Muted.Render(fmt.Sprintf("%d search results", len(img.GoogleSearchResults))))
		}
	}

	if len(resp.CalendarUpdates) > 0 {
		b.WriteString(s.Title.Render("Calendar:") + "\n")
		for _, u := range resp.CalendarUpdates {
			fmt.Fprintf(&b, "  • %s%s\n", u.Summary, calendarDetails(u, s))
		}
	}

	if len(resp.Instructions) > 0 {
		b.WriteString(s.Title.Render("Instructions:") + "\n")
		for _, in := range resp.Instructions {
			mark := s.Success.Render("✓")
			if !in.Success {
				mark = s.Error.Render("✗")
			}
			fmt.Fprintf(&b, "  %s [%s] %s", mark, in.Category, preview(in.Instruction))
			if in.Action != "" {
				b.WriteString(" " + s.Accent.Render("("+in.Action+")"))
			}
			if in.Error != "" {
				b.WriteString(" " + s.Muted.Render(in.Error))
			}
			b.WriteString("\n")
		}
	}

	if resp.Error != "" {
		b.WriteString(s.Error.Render("Error:") + " " + resp.Error + "\n")
	}

	return b.String()
}

func calendarDetails(u chain.CalendarUpdate, s Styles) string {
	var parts []string
	if u.StartTime != "" {
		parts = append(parts, "moved to "+u.StartTime)
	}
	if u.Attendees != nil {
		parts = append(parts, "attendees: "+strings.Join(u.Attendees, ", "))
	}
	if len(parts) == 0 {
		parts = append(parts, "no change")
	}

	switch {
	case u.Error != "":
		parts = append(parts, s.Error.Render(u.Error))
	case u.Applied:
		parts = append(parts, s.Success.Render("applied"))
	}

	return " " + s.Muted.Render("- ") + strings.Join(parts, "; ")
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewChars {
		return string(r[:previewChars]) + "..."
	}
	return s
}
