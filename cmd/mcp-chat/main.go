// mcp-chat routes plain-language requests to Gmail, Calendar, Drive,
// Custom Search, Slack, Maps, Wikipedia, the web and Gemini, and follows up
// on what the results contain. It runs as a one-shot command, an
// interactive prompt, or an HTTP and MCP server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hal9000y/mcp-chat/internal/chain"
	"github.com/hal9000y/mcp-chat/internal/repl"
)

type rootFlags struct {
	chat           bool
	message        string
	maxURLs        int
	maxImages      int
	toolChaining   bool
	processImages  bool
	enableSummary  bool
	envFile        string
	logFile        string
	logLevel       string
	oauthTokenFile string
	strictDates    bool
	autoApply      bool
}

func (f rootFlags) request(message string) chain.Request {
	return chain.Request{
		Message:            message,
		MaxURLs:            f.maxURLs,
		MaxImages:          f.maxImages,
		EnableToolChaining: f.toolChaining,
		ProcessImages:      f.processImages,
		EnableSummary:      f.enableSummary,
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "mcp-chat",
		Short: "Chat with Google, Slack, Maps, Wikipedia and the web",
		Long: `Routes a plain-language request to the matching providers and follows up on
URLs, images, calendar events and document instructions found in the results.

  mcp-chat --message "read my emails"
  mcp-chat --chat
  mcp-chat serve --http-addr localhost:8080`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.message == "" && !f.chat {
				return cmd.Help()
			}
			return runChat(cmd, f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", "", "Path to env file")
	pf.StringVar(&f.logFile, "log-file", "", "Path to log file, JSON lines")
	pf.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&f.oauthTokenFile, "oauth-token-file", "./data/mcp-chat-token.json", "Path to cache google oauth token, empty to avoid storing")
	pf.BoolVar(&f.strictDates, "strict-dates", false, "Read A/B/YYYY strictly as month/day instead of swapping when the month is above 12")
	pf.BoolVar(&f.autoApply, "calendar-auto-apply", true, "Write calendar changes found in event descriptions back to the calendar")

	fl := cmd.Flags()
	fl.BoolVar(&f.chat, "chat", false, "Start the interactive prompt")
	fl.StringVar(&f.message, "message", "", "Process one message and exit")
	fl.IntVar(&f.maxURLs, "max-urls", chain.DefaultMaxURLs, "Max URLs fetched from results")
	fl.IntVar(&f.maxImages, "max-images", chain.DefaultMaxImages, "Max image URLs analyzed")
	fl.BoolVar(&f.toolChaining, "enable-tool-chaining", true, "Run follow-up calls on results")
	fl.BoolVar(&f.processImages, "process-images", true, "Analyze image URLs separately")
	fl.BoolVar(&f.enableSummary, "enable-summary", false, "Summarize email bodies with the LLM")

	cmd.AddCommand(newServeCmd(&f))

	return cmd
}

func runChat(cmd *cobra.Command, f rootFlags) error {
	level := f.logLevel
	if !cmd.Flags().Changed("log-level") {
		level = "warn"
	}
	persistLogs, err := setupLogger(level, f.logFile, false)
	if err != nil {
		return err
	}
	defer persistLogs()

	if err := loadEnv(f.envFile); err != nil {
		return err
	}
	cfg := loadProviderConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tok, err := newToken(cfg, newOauthCfg(cfg, ""), f.oauthTokenFile)
	if err != nil {
		return err
	}

	st, err := buildStack(ctx, cfg, tok, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.message != "" {
		resp := st.pipeline.Chat(ctx, f.request(f.message))
		fmt.Fprint(out, repl.Render(resp, repl.NewStyles(lipgloss.NewRenderer(out))))
		if !resp.Success {
			return fmt.Errorf("request failed: %s", resp.Error)
		}
		return nil
	}

	return repl.New(st.pipeline, f.request(""), cmd.InOrStdin(), out).Run(ctx)
}

func loadEnv(envFile string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("godotenv.Load failed: %w", err)
	}
	return nil
}

