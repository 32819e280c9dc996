package chain

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/extract"
	"github.com/hal9000y/mcp-chat/internal/toolset"
)

const (
	instructionEmailSubject = "Message from file instructions"
	instructionMeeting      = "Meeting from file instructions"
)

// The target runs to the end of the sentence; dots inside names and
// addresses are kept.
const clause = `((?:[^.]|\.[^\s.])+)`

var (
	fileSearchRe = regexp.MustCompile(`(?i)(?:search for|find)\s+` + clause)
	dataSearchRe = regexp.MustCompile(`(?i)(?:search for|look up|find information about)\s+` + clause)
	aboutRe      = regexp.MustCompile(`(?i)about`)
)

// InstructionOutcome is the result of acting on one instruction found in a
// document.
type InstructionOutcome struct {
	File        string           `json:"file"`
	Instruction string           `json:"instruction"`
	Category    extract.Category `json:"category"`
	Success     bool             `json:"success"`
	Action      string           `json:"action,omitempty"`
	Result      any              `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// driveChain reads the first files found, extracts instructions from
// their content and carries them out. URLs in the content are fetched
// like email URLs.
func (r *run) driveChain(ctx context.Context, files []toolset.DriveFile) {
	var (
		urls []string
		seen = make(map[string]struct{})
	)

	for _, f := range capped(files, maxDriveFiles) {
		res := r.dispatch(ctx, dispatch.Invocation{
			Provider:  dispatch.Drive,
			Operation: toolset.OpReadContent,
			Params:    dispatch.Params{"file_id": f.ID, "name": f.Name, "mime_type": f.MimeType},
		})
		content, ok := dispatch.PayloadAs[toolset.ReadContentResponse](res)
		if !res.Success || !ok {
			continue
		}

		for _, ins := range extract.Instructions(content.Content) {
			out := r.runInstruction(ctx, ins)
			out.File = f.Name
			r.resp.Instructions = append(r.resp.Instructions, out)
		}

		for _, u := range extract.URLs(content.Content) {
			if _, dup := seen[u]; !dup {
				seen[u] = struct{}{}
				urls = append(urls, u)
			}
		}
	}

	r.processURLs(ctx, urls)
}

func (r *run) runInstruction(ctx context.Context, ins extract.Instruction) InstructionOutcome {
	out := InstructionOutcome{Instruction: ins.Text, Category: ins.Category}
	lower := strings.ToLower(ins.Text)

	var inv *dispatch.Invocation
	switch ins.Category {
	case extract.CategoryFileOperations:
		if m := fileSearchRe.FindStringSubmatch(ins.Text); m != nil {
			out.Action = "search"
			inv = &dispatch.Invocation{Provider: dispatch.Drive, Operation: toolset.OpSearch,
				Params: dispatch.Params{"query": strings.TrimSpace(m[1])}}
		}

	case extract.CategoryCommunication:
		if email, ok := extract.Email(ins.Text); ok && containsAny(lower, "email", "send") {
			out.Action = "send_email"
			inv = &dispatch.Invocation{Provider: dispatch.Gmail, Operation: toolset.OpSendMessage,
				Params: dispatch.Params{"to": email, "subject": instructionEmailSubject, "body": ins.Text}}
		}

	case extract.CategoryCalendar:
		if containsAny(lower, "meeting", "schedule") {
			start := r.o.now().Add(time.Hour).Truncate(time.Minute)
			out.Action = "create_event"
			inv = &dispatch.Invocation{Provider: dispatch.Calendar, Operation: toolset.OpCreateEvent,
				Params: dispatch.Params{
					"summary":     meetingName(ins.Text),
					"start_time":  start.Format(time.RFC3339),
					"end_time":    start.Add(time.Hour).Format(time.RFC3339),
					"description": "Event created from file instruction: " + ins.Text,
				}}
		}

	case extract.CategoryDataProcessing:
		if m := dataSearchRe.FindStringSubmatch(ins.Text); m != nil {
			out.Action = "search"
			inv = &dispatch.Invocation{Provider: dispatch.Google, Operation: toolset.OpSearch,
				Params: dispatch.Params{"query": strings.TrimSpace(m[1])}}
		}

	default:
		out.Success = true
		out.Action = "acknowledge"
		out.Result = "Instruction noted: " + ins.Text
		return out
	}

	if inv == nil {
		out.Error = string(ins.Category) + " instruction not recognized"
		return out
	}

	res := r.dispatch(ctx, *inv)
	out.Success = res.Success
	out.Result = res.Payload
	out.Error = res.Error

	return out
}

// meetingName is the text after the last "about", matched case-insensitively
// on the text itself.
func meetingName(text string) string {
	m := aboutRe.FindAllStringIndex(text, -1)
	if len(m) == 0 {
		return instructionMeeting
	}
	if name := strings.TrimSpace(text[m[len(m)-1][1]:]); name != "" {
		return name
	}
	return instructionMeeting
}
