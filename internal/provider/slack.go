// Package provider holds the direct clients for the non-Google backends:
// Slack, Maps geocoding, Wikipedia, generic web pages and the Gemini model
// used for summaries. Each client reports missing credentials as an
// apierr config failure and maps HTTP level failures to apierr kinds.
package provider

import (
	"context"
	"errors"

	"github.com/slack-go/slack"

	"github.com/hal9000y/mcp-chat/internal/apierr"
)

// SlackPosted identifies a posted message.
type SlackPosted struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}

type Slack struct {
	client *slack.Client
}

// NewSlack creates a client for a bot token. An empty token yields an
// unconfigured client whose calls fail with a config error.
func NewSlack(token string, opts ...slack.Option) *Slack {
	if token == "" {
		return &Slack{}
	}
	return &Slack{client: slack.New(token, opts...)}
}

func (s *Slack) Configured() bool {
	return s.client != nil
}

func (s *Slack) PostMessage(ctx context.Context, channel, text string) (SlackPosted, error) {
	if s.client == nil {
		return SlackPosted{}, apierr.Config("slack bot token")
	}

	ch, ts, err := s.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		return SlackPosted{}, slackError(err)
	}

	return SlackPosted{Channel: ch, Timestamp: ts}, nil
}

func slackError(err error) error {
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		return apierr.Transport("slack rate limited", err)
	}

	var sc slack.StatusCodeError
	if errors.As(err, &sc) {
		return apierr.HTTP("slack request failed", sc.Code, []byte(sc.Status))
	}

	return &apierr.Error{Kind: apierr.KindUpstream, Msg: "slack api error", Err: err}
}
