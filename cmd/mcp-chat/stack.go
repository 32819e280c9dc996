package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/mcp-chat/internal/auth"
	"github.com/hal9000y/mcp-chat/internal/chain"
	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/extract"
	"github.com/hal9000y/mcp-chat/internal/format"
	"github.com/hal9000y/mcp-chat/internal/gservice"
	"github.com/hal9000y/mcp-chat/internal/provider"
	"github.com/hal9000y/mcp-chat/internal/router"
	"github.com/hal9000y/mcp-chat/internal/toolset"
)

const providerTimeout = 10 * time.Second

// providerConfig holds the credentials read from the environment.
type providerConfig struct {
	GoogleAPIKey      string
	GoogleCSEID       string
	GoogleAccessToken string
	SlackBotToken     string
	GeminiAPIKey      string
	GeminiModel       string
	OAuthClientID     string
	OAuthClientSecret string
}

func loadProviderConfig() providerConfig {
	return providerConfig{
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		GoogleCSEID:       os.Getenv("GOOGLE_CSE_ID"),
		GoogleAccessToken: os.Getenv("GOOGLE_ACCESS_TOKEN"),
		SlackBotToken:     os.Getenv("SLACK_BOT_TOKEN"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       os.Getenv("GEMINI_MODEL"),
		OAuthClientID:     os.Getenv("OAUTH_GOOGLE_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("OAUTH_GOOGLE_CLIENT_SECRET"),
	}
}

func (c providerConfig) oauthConfigured() bool {
	return c.OAuthClientID != "" && c.OAuthClientSecret != ""
}

// googleUserAuth reports whether Gmail, Calendar and Drive can get a token,
// now or after the OAuth flow.
func (c providerConfig) googleUserAuth() bool {
	return c.GoogleAccessToken != "" || c.oauthConfigured()
}

// providerStatus maps credentials to the providers allowed to run.
// Wikipedia and web access need none.
func providerStatus(c providerConfig) dispatch.Status {
	return dispatch.Status{
		dispatch.Gmail:     c.googleUserAuth(),
		dispatch.Calendar:  c.googleUserAuth(),
		dispatch.Drive:     c.googleUserAuth(),
		dispatch.Google:    c.GoogleAPIKey != "" && c.GoogleCSEID != "",
		dispatch.Slack:     c.SlackBotToken != "",
		dispatch.Maps:      c.GoogleAPIKey != "",
		dispatch.Wikipedia: true,
		dispatch.WebAccess: true,
		dispatch.LLM:       c.GeminiAPIKey != "",
	}
}

// newOauthCfg returns nil when the OAuth client is not configured.
func newOauthCfg(c providerConfig, redirectURL string) *oauth2.Config {
	if !c.oauthConfigured() {
		return nil
	}

	return &oauth2.Config{
		ClientID:     c.OAuthClientID,
		ClientSecret: c.OAuthClientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			gmail.GmailModifyScope,
			calendar.CalendarScope,
			drive.DriveReadonlyScope,
			docs.DocumentsReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}
}

// newToken prefers a static GOOGLE_ACCESS_TOKEN over the OAuth flow.
func newToken(c providerConfig, oauthCfg *oauth2.Config, tokenFile string) (*auth.Token, error) {
	if c.GoogleAccessToken != "" {
		return auth.NewStaticToken(c.GoogleAccessToken), nil
	}

	tok, err := auth.NewToken(oauthCfg, tokenFile)
	if err != nil {
		return nil, fmt.Errorf("auth.NewToken failed: %w", err)
	}

	return tok, nil
}

type stack struct {
	dispatcher *dispatch.Dispatcher
	pipeline   *chain.Orchestrator
	metrics    *prometheus.Registry
}

func buildStack(ctx context.Context, cfg providerConfig, tok *auth.Token, f rootFlags) (*stack, error) {
	llm, err := provider.NewLLM(ctx, cfg.GeminiAPIKey, provider.WithModel(cfg.GeminiModel))
	if err != nil {
		return nil, fmt.Errorf("provider.NewLLM failed: %w", err)
	}

	g := gservice.NewGoogle(newOauthCfg(cfg, ""), tok)

	reg := dispatch.NewRegistry()
	toolset.Register(reg, toolset.Services{
		Gmail:     gservice.NewGmail(g),
		Calendar:  gservice.NewCalendar(g),
		Drive:     gservice.NewDrive(g),
		Docs:      gservice.NewDocs(g),
		Search:    gservice.NewSearch(cfg.GoogleAPIKey, cfg.GoogleCSEID),
		Slack:     provider.NewSlack(cfg.SlackBotToken),
		Maps:      provider.NewMaps(cfg.GoogleAPIKey),
		Wikipedia: provider.NewWikipedia(provider.WithWikipediaTimeout(providerTimeout)),
		Web:       provider.NewWeb(provider.WithWebTimeout(providerTimeout)),
		LLM:       llm,
		Converter: &format.Converter{},
	})

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	status := providerStatus(cfg)
	d := dispatch.New(reg, status, dispatch.WithRegisterer(metrics))

	var dateOpts []extract.DateOption
	if f.strictDates {
		dateOpts = append(dateOpts, extract.WithoutDayMonthSwap())
	}

	pipeline := chain.New(d,
		router.New(router.WithDateOptions(dateOpts...)),
		chain.WithAutoApply(f.autoApply),
		chain.WithDateOptions(dateOpts...),
	)

	log.Info().
		Interface("providers", status).
		Strs("operations", reg.Operations()).
		Msg("providers configured")

	return &stack{dispatcher: d, pipeline: pipeline, metrics: metrics}, nil
}

// setupLogger points the global logger at a JSON file, a console writer on
// stderr, or nowhere when quiet.
func setupLogger(level, logFile string, quiet bool) (func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("zerolog.ParseLevel failed: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		log.Logger = zerolog.New(f).With().Timestamp().Logger()

		return func() {
			if err := f.Close(); err != nil {
				fmt.Fprintln(os.Stderr, fmt.Errorf("f.Close failed: %w", err))
			}
		}, nil
	}

	if quiet {
		log.Logger = zerolog.Nop()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}

	return func() {}, nil
}
