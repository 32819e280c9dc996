package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hal9000y/mcp-chat/internal/chain"
)

type handlers struct {
	svc chatSvc
	cfg config
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status             string `json:"status"`
	MCPClientConnected bool   `json:"mcp_client_connected"`
}

type infoResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Features  []string          `json:"features"`
	Examples  []string          `json:"examples"`
}

type routeRequest struct {
	Message string `json:"message"`
}

func (h *handlers) info(w http.ResponseWriter, _ *http.Request) {
	endpoints := map[string]string{
		"GET /":           "API info",
		"GET /health":     "health check",
		"POST /api/chat":  "run a message through the tool-chaining pipeline",
		"POST /api/route": "show the provider calls a message would trigger",
	}
	if h.cfg.gatherer != nil {
		endpoints["GET /metrics"] = "Prometheus metrics"
	}
	if h.cfg.mcp != nil {
		endpoints["/mcp"] = "MCP streamable HTTP transport"
	}
	if h.cfg.oauth != nil {
		endpoints["GET /oauth"] = "Google OAuth flow"
	}

	writeJSON(w, http.StatusOK, infoResponse{
		Name:      Name,
		Version:   Version,
		Endpoints: endpoints,
		Features: []string{
			"URL extraction and safety checks",
			"Wikipedia and web page fetching",
			"image URL analysis",
			"Gmail read, send and summarize",
			"calendar event updates from descriptions",
			"Drive document instructions",
			"Google search, Slack, Maps and LLM summaries",
		},
		Examples: []string{
			"read my emails",
			"show my calendar events",
			"create a calendar event tomorrow at 3pm for 30 minutes called Review",
			"search drive for the budget report and read its instructions",
			"https://en.wikipedia.org/wiki/Go_(programming_language)",
		},
	})
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:             "healthy",
		MCPClientConnected: h.svc.Connected(),
	})
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	req := chain.NewRequest("")
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	resp := h.svc.Chat(r.Context(), req)
	zerolog.Ctx(r.Context()).Debug().
		Str("chat_request_id", resp.RequestID).
		Bool("success", resp.Success).
		Msg("chat handled")

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	writeJSON(w, http.StatusOK, h.svc.Plan(req.Message))
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("json.Encode failed")
	}
}
