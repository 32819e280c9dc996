package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hal9000y/mcp-chat/internal/api"
	"github.com/hal9000y/mcp-chat/internal/auth"
	"github.com/hal9000y/mcp-chat/internal/tool"
)

type serveFlags struct {
	httpAddr string
	stdio    bool
	oauthURL string
	origins  []string
}

func newServeCmd(root *rootFlags) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API, the MCP tools and the OAuth flow over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *root, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.httpAddr, "http-addr", "localhost:0", "HTTP SERVER listen addr")
	fl.BoolVar(&f.stdio, "stdio", false, "Enable stdio transport for MCP (disables console logging)")
	fl.StringVar(&f.oauthURL, "oauth-url", "", "OAuth URL")
	fl.StringSliceVar(&f.origins, "allowed-origins", nil, "CORS allowed origins, all when empty")

	return cmd
}

func runServe(ctx context.Context, rf rootFlags, f serveFlags) error {
	persistLogs, err := setupLogger(rf.logLevel, rf.logFile, f.stdio)
	if err != nil {
		return err
	}
	defer persistLogs()

	if err := loadEnv(rf.envFile); err != nil {
		return err
	}
	cfg := loadProviderConfig()

	ln, err := net.Listen("tcp", f.httpAddr)
	if err != nil {
		return fmt.Errorf("net.Listen failed: %w", err)
	}

	oauthURL := fmt.Sprintf("http://%s/oauth", ln.Addr().String())
	if f.oauthURL != "" {
		oauthURL = f.oauthURL
	}
	oauthCfg := newOauthCfg(cfg, oauthURL)

	tok, err := newToken(cfg, oauthCfg, rf.oauthTokenFile)
	if err != nil {
		return err
	}

	defer func() {
		log.Info().Msg("Persisting token if exists")
		if err := tok.Persist(); err != nil {
			log.Error().Err(err).Msg("tok.Persist failed")
		}
	}()

	st, err := buildStack(ctx, cfg, tok, rf)
	if err != nil {
		return err
	}

	mcpServer := tool.NewServer(st.pipeline, st.dispatcher, nil)
	mcpHTTP := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return mcpServer }, nil)

	srv := &http.Server{
		Handler: api.NewRouter(st.pipeline,
			api.WithMCP(mcpHTTP),
			api.WithOAuth(auth.NewHTTPHandler(tok)),
			api.WithMetrics(st.metrics),
			api.WithAllowedOrigins(f.origins...),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	if _, err := tok.OAuthToken(); errors.Is(err, auth.ErrTokenNotSet) && oauthCfg != nil {
		openBrowser(oauthCfg.RedirectURL)
	}

	stopHTTP, errHTTPCh := serveHTTP(srv, ln)
	defer stopHTTP()

	var errStdioCh <-chan error
	if f.stdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(mcpServer)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		log.Error().Err(err).Msg("Error http server")
		return err
	case err := <-errStdioCh:
		log.Error().Err(err).Msg("Error stdio")
		return err
	case <-shutdown:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
	}

	return nil
}

func serveStdio(srv *mcp.Server) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		log.Info().Msg("Starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			err = fmt.Errorf("srv.Run failed: %w", err)
			errStdioCh <- err
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Info().Msg("Stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		log.Info().Str("addr", ln.Addr().String()).Msg("Starting http server")

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("srv.Shutdown failed")
		}

		<-errHTTPCh
		log.Info().Msg("HTTP server stopped")
	}, errHTTPCh
}

func openBrowser(url string) {
	url = fmt.Sprintf("%s?redirect=1", url)
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Could not open browser automatically, please copy and open link in the browser")
	}
}
