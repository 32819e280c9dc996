package toolset

import (
	"context"
	"fmt"
	"strings"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/provider"
	"github.com/hal9000y/mcp-chat/internal/safety"
)

const defaultSlackChannel = "#general"

type WikipediaRequest struct {
	Title string `json:"title,omitempty" jsonschema:"article title"`
	URL   string `json:"url,omitempty" jsonschema:"article URL, its title and language win over title and lang"`
	Lang  string `json:"lang,omitempty" jsonschema:"language edition, en by default"`
}

type WebContentRequest struct {
	URL string `json:"url" jsonschema:"page to fetch"`
}

type GeocodeRequest struct {
	Address string `json:"address" jsonschema:"free-form address or place"`
}

type SlackMessageRequest struct {
	Channel string `json:"channel,omitempty" jsonschema:"channel name or ID, defaults to #general"`
	Text    string `json:"text" jsonschema:"message text"`
}

type ChatRequest struct {
	Prompt string `json:"prompt" jsonschema:"text to send to the model"`
	System string `json:"system,omitempty" jsonschema:"optional instruction prepended to the prompt"`
}

type ChatResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type wikipediaSvc interface {
	Page(ctx context.Context, lang, title string) (provider.WikiPage, error)
}

type webSvc interface {
	Fetch(ctx context.Context, u string) (provider.WebPage, error)
}

type mapsSvc interface {
	Geocode(ctx context.Context, address string) (provider.GeocodeResult, error)
}

type slackSvc interface {
	PostMessage(ctx context.Context, channel, text string) (provider.SlackPosted, error)
}

type llmSvc interface {
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
}

func wikipediaPage(svc wikipediaSvc) func(context.Context, WikipediaRequest) (provider.WikiPage, error) {
	return func(ctx context.Context, input WikipediaRequest) (provider.WikiPage, error) {
		title, lang := strings.TrimSpace(input.Title), strings.TrimSpace(input.Lang)
		if t := provider.TitleFromURL(input.URL); t != "" {
			title = t
			if l := provider.LangFromURL(input.URL); l != "" {
				lang = l
			}
		}
		return svc.Page(ctx, lang, title)
	}
}

func webContent(svc webSvc) func(context.Context, WebContentRequest) (provider.WebPage, error) {
	return func(ctx context.Context, input WebContentRequest) (provider.WebPage, error) {
		if strings.TrimSpace(input.URL) == "" {
			return provider.WebPage{}, apierr.InvalidParams("url cannot be empty")
		}
		return svc.Fetch(ctx, input.URL)
	}
}

func geocode(svc mapsSvc) func(context.Context, GeocodeRequest) (provider.GeocodeResult, error) {
	return func(ctx context.Context, input GeocodeRequest) (provider.GeocodeResult, error) {
		if strings.TrimSpace(input.Address) == "" {
			return provider.GeocodeResult{}, apierr.InvalidParams("address cannot be empty")
		}
		return svc.Geocode(ctx, input.Address)
	}
}

func slackMessage(svc slackSvc) func(context.Context, SlackMessageRequest) (provider.SlackPosted, error) {
	return func(ctx context.Context, input SlackMessageRequest) (provider.SlackPosted, error) {
		if input.Channel == "" {
			input.Channel = defaultSlackChannel
		}
		if strings.TrimSpace(input.Text) == "" {
			return provider.SlackPosted{}, apierr.InvalidParams("text cannot be empty")
		}
		return svc.PostMessage(ctx, input.Channel, input.Text)
	}
}

// llmChat sanitizes the prompt before it leaves the process.
func llmChat(svc llmSvc) func(context.Context, ChatRequest) (ChatResponse, error) {
	return func(ctx context.Context, input ChatRequest) (ChatResponse, error) {
		prompt := safety.SanitizeN(input.Prompt, 8000)
		if prompt == "" {
			return ChatResponse{}, apierr.InvalidParams("prompt cannot be empty")
		}
		if input.System != "" {
			prompt = input.System + "\n\n" + prompt
		}

		text, err := svc.Generate(ctx, prompt)
		if err != nil {
			return ChatResponse{}, fmt.Errorf("svc.Generate failed: %w", err)
		}

		return ChatResponse{Text: text, Model: svc.Model()}, nil
	}
}
