package toolset

import (
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// EmailAddress is a mailbox as shown in message headers.
type EmailAddress struct {
	Name  string `json:"name,omitempty" jsonschema:"the display name"`
	Email string `json:"email" jsonschema:"the email address"`
}

func (a EmailAddress) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// MessageSummary is the header view of a message used by listings and as
// the base of a content fetch.
type MessageSummary struct {
	ID        string         `json:"id" jsonschema:"message ID"`
	ThreadID  string         `json:"thread_id" jsonschema:"thread ID"`
	Timestamp string         `json:"timestamp,omitempty" jsonschema:"message date, RFC 3339 when the header parses"`
	From      EmailAddress   `json:"from" jsonschema:"sender"`
	To        []EmailAddress `json:"to,omitempty" jsonschema:"recipients"`
	CC        []EmailAddress `json:"cc,omitempty" jsonschema:"CC recipients"`
	Subject   string         `json:"subject" jsonschema:"email subject"`
	Snippet   string         `json:"snippet" jsonschema:"message preview"`
}

func summarize(msg *gmail.Message) MessageSummary {
	s := MessageSummary{ID: msg.Id, ThreadID: msg.ThreadId, Snippet: msg.Snippet}
	if msg.Payload == nil {
		return s
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			if list := mailboxes(h.Value); len(list) > 0 {
				s.From = list[0]
			}
		case "to":
			s.To = mailboxes(h.Value)
		case "cc":
			s.CC = mailboxes(h.Value)
		case "subject":
			s.Subject = h.Value
		case "date":
			s.Timestamp = h.Value
			if d, err := mail.ParseDate(h.Value); err == nil {
				s.Timestamp = d.Format(time.RFC3339)
			}
		}
	}

	return s
}

// mailboxes parses an address list header. Values net/mail rejects, such
// as unquoted display names with dots, are split on commas and read
// leniently.
func mailboxes(header string) []EmailAddress {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}

	if list, err := mail.ParseAddressList(header); err == nil {
		out := make([]EmailAddress, 0, len(list))
		for _, a := range list {
			out = append(out, EmailAddress{Name: a.Name, Email: a.Address})
		}
		return out
	}

	var out []EmailAddress
	for _, part := range strings.Split(header, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, lenientMailbox(part))
		}
	}
	return out
}

func lenientMailbox(s string) EmailAddress {
	name, rest, ok := strings.Cut(s, "<")
	if !ok {
		return EmailAddress{Email: s}
	}
	email, _, _ := strings.Cut(rest, ">")
	return EmailAddress{
		Name:  strings.Trim(strings.TrimSpace(name), `"`),
		Email: strings.TrimSpace(email),
	}
}
