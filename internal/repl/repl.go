// Package repl runs the chat pipeline as an interactive prompt.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hal9000y/mcp-chat/internal/chain"
)

var quitWords = map[string]bool{"quit": true, "exit": true, "bye": true}

type chatSvc interface {
	Chat(ctx context.Context, req chain.Request) chain.Response
}

type REPL struct {
	svc      chatSvc
	template chain.Request
	in       io.Reader
	out      io.Writer
	styles   Styles
}

// New creates a prompt reading lines from in. Every line is sent with the
// options of template.
func New(svc chatSvc, template chain.Request, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		svc:      svc,
		template: template,
		in:       in,
		out:      out,
		styles:   NewStyles(lipgloss.NewRenderer(out)),
	}
}

// Run reads until EOF, a quit word or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, r.styles.Muted.Render("Type a request, or quit to leave."))

	sc := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, r.styles.Prompt.Render("You:")+" ")

		if !sc.Scan() {
			fmt.Fprintln(r.out)
			if err := sc.Err(); err != nil {
				return fmt.Errorf("sc.Scan failed: %w", err)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case quitWords[strings.ToLower(line)]:
			fmt.Fprintln(r.out, r.styles.Muted.Render("Goodbye."))
			return nil
		}

		req := r.template
		req.Message = line
		fmt.Fprint(r.out, Render(r.svc.Chat(ctx, req), r.styles))
	}
}
