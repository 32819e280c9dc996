package chain

import (
	"context"

	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/extract"
	"github.com/hal9000y/mcp-chat/internal/safety"
	"github.com/hal9000y/mcp-chat/internal/toolset"
)

const summaryPrompt = "Summarize the following email in two or three sentences. List any requested actions."

// gmailRead lists recent messages, reads each one and processes the URLs
// and images their bodies mention.
func (r *run) gmailRead(ctx context.Context) {
	list := r.dispatch(ctx, dispatch.Invocation{
		Provider:  dispatch.Gmail,
		Operation: toolset.OpGetMessages,
		Params:    dispatch.Params{"query": "", "max_results": gmailReadLimit},
	})
	if !list.Success || !r.req.EnableToolChaining {
		return
	}

	msgs, ok := dispatch.PayloadAs[toolset.GetMessagesResponse](list)
	if !ok || len(msgs.Messages) == 0 {
		return
	}

	results := fanOut(r.o.fanOut, msgs.Messages, func(m toolset.MessageSummary) dispatch.Result {
		return r.o.d.Dispatch(ctx, dispatch.Invocation{
			Provider:  dispatch.Gmail,
			Operation: toolset.OpGetMessageContent,
			Params:    dispatch.Params{"message_id": m.ID},
		})
	})

	emails := make([]toolset.MessageContent, 0, len(results))
	for i, res := range results {
		r.resp.ToolResults = append(r.resp.ToolResults, res)

		content, ok := dispatch.PayloadAs[toolset.MessageContent](res)
		if !res.Success || !ok {
			m := msgs.Messages[i]
			content = toolset.MessageContent{ID: m.ID, Subject: m.Subject, From: m.From.String(), Snippet: m.Snippet}
		}
		emails = append(emails, content)
	}

	if r.req.EnableSummary {
		r.summarize(ctx, emails)
	}
	r.resp.Emails = emails

	urls, images := collectLinks(emails, r.req.ProcessImages)
	r.processURLs(ctx, urls)
	if r.req.ProcessImages {
		r.processImages(ctx, images)
	}
}

// collectLinks extracts safe URLs and image URLs from every body (or
// snippet when the body is empty), deduplicated across messages. When
// images are processed separately they are left out of the URL list.
func collectLinks(emails []toolset.MessageContent, splitImages bool) ([]string, []imageRef) {
	var (
		urls      []string
		images    []imageRef
		seenURL   = make(map[string]struct{})
		seenImage = make(map[string]struct{})
	)

	for _, e := range emails {
		text := e.Body
		if text == "" {
			text = e.Snippet
		}

		for _, img := range extract.ImageURLs(text) {
			if _, ok := seenImage[img]; ok {
				continue
			}
			seenImage[img] = struct{}{}
			images = append(images, imageRef{url: img, source: e.ID})
		}

		for _, u := range extract.URLs(text) {
			if _, ok := seenImage[u]; ok && splitImages {
				continue
			}
			if _, ok := seenURL[u]; ok {
				continue
			}
			seenURL[u] = struct{}{}
			urls = append(urls, u)
		}
	}

	return urls, images
}

func (r *run) summarize(ctx context.Context, emails []toolset.MessageContent) {
	if !r.o.d.Status().Configured(dispatch.LLM) {
		return
	}

	for i := range emails {
		body := safety.Sanitize(emails[i].Body)
		if body == "" {
			continue
		}

		res := r.dispatch(ctx, dispatch.Invocation{
			Provider:  dispatch.LLM,
			Operation: toolset.OpChat,
			Params:    dispatch.Params{"prompt": body, "system": summaryPrompt},
		})
		if out, ok := dispatch.PayloadAs[toolset.ChatResponse](res); ok && res.Success {
			emails[i].Summary = out.Text
		}
	}
}
