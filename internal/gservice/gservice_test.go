package gservice_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/auth"
	"github.com/hal9000y/mcp-chat/internal/gservice"
)

func newTestGoogle(t *testing.T, h http.HandlerFunc) *gservice.Google {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return gservice.NewGoogle(nil, auth.NewStaticToken("test-token"), option.WithEndpoint(srv.URL+"/"))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestMissingTokenIsConfigError(t *testing.T) {
	g := gservice.NewGoogle(nil, auth.NewStaticToken(""))

	_, err := gservice.NewGmail(g).ListMessages(context.Background(), "", "", 5)
	require.Error(t, err)
	assert.Equal(t, apierr.KindConfig, apierr.KindOf(err))
}

func TestGmailSendMessage(t *testing.T) {
	var raw string
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/messages/send"), r.URL.Path)

		var body struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw = body.Raw

		writeJSON(t, w, map[string]string{"id": "m1", "threadId": "t1"})
	})

	msg, err := gservice.NewGmail(g).SendMessage(context.Background(), []byte("To: a@example.com\r\n\r\nhi"))
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.Id)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Equal(t, "To: a@example.com\r\n\r\nhi", string(decoded))
}

func TestGmailUpstreamError(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		writeJSON(t, w, map[string]any{"error": map[string]any{"code": 429, "message": "quota"}})
	})

	_, err := gservice.NewGmail(g).GetMessage(context.Background(), "m1")
	require.Error(t, err)
	assert.Equal(t, apierr.KindTransient, apierr.KindOf(err))
}

func TestCalendarListEvents(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.True(t, strings.HasSuffix(r.URL.Path, "/calendars/primary/events"), r.URL.Path)
		assert.Equal(t, "2025-03-09T12:00:00Z", q.Get("timeMin"))
		assert.Equal(t, "2025-03-11T12:00:00Z", q.Get("timeMax"))
		assert.Equal(t, "20", q.Get("maxResults"))
		assert.Equal(t, "true", q.Get("singleEvents"))

		writeJSON(t, w, map[string]any{"items": []map[string]any{{"id": "e1", "summary": "Standup"}}})
	})

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	events, err := gservice.NewCalendar(g).ListEvents(context.Background(), now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), 20)
	require.NoError(t, err)
	require.Len(t, events.Items, 1)
	assert.Equal(t, "Standup", events.Items[0].Summary)
}

func TestCalendarPatchSendsEmptyAttendees(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "attendees")

		writeJSON(t, w, map[string]any{"id": "e1"})
	})

	ev := &calendar.Event{Attendees: []*calendar.EventAttendee{}, ForceSendFields: []string{"Attendees"}}
	updated, err := gservice.NewCalendar(g).PatchEvent(context.Background(), "e1", ev)
	require.NoError(t, err)
	assert.Equal(t, "e1", updated.Id)
}

func TestDriveSearchFilesMergesStrategies(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()

		switch {
		case q == "name contains 'budget report'":
			writeJSON(t, w, map[string]any{"files": []map[string]string{{"id": "1", "name": "budget report.docx"}}})
		case q == "name contains 'budget_report'":
			writeJSON(t, w, map[string]any{"files": []map[string]string{
				{"id": "1", "name": "budget report.docx"},
				{"id": "2", "name": "budget_report.pdf"},
			}})
		case strings.HasPrefix(q, "fullText"):
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(t, w, map[string]any{"error": map[string]any{"code": 400, "message": "bad"}})
		default:
			writeJSON(t, w, map[string]any{"files": []any{}})
		}
	})

	files, err := gservice.NewDrive(g).SearchFiles(context.Background(), `"budget report"`)
	require.NoError(t, err)

	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.Id)
	}
	assert.Equal(t, []string{"1", "2"}, ids)
	assert.Equal(t, gservice.DriveQueries("budget report"), queries)
}

func TestDriveSearchFilesAllFail(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		writeJSON(t, w, map[string]any{"error": map[string]any{"code": 403, "message": "denied"}})
	})

	_, err := gservice.NewDrive(g).SearchFiles(context.Background(), "report")
	require.Error(t, err)
	assert.Equal(t, apierr.KindUpstream, apierr.KindOf(err))
}

func TestDriveQueries(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "empty",
			query:    "  ",
			expected: nil,
		},
		{
			name:  "single_word",
			query: "Notes",
			expected: []string{
				"name contains 'Notes'",
				"name = 'Notes'",
				"name contains 'notes'",
				"name contains 'NOTES'",
				"fullText contains 'Notes'",
			},
		},
		{
			name:  "multi_word",
			query: "'q3 plan'",
			expected: []string{
				"name contains 'q3 plan'",
				"name = 'q3 plan'",
				"name contains 'Q3 PLAN'",
				"fullText contains 'q3 plan'",
				"name contains 'q3_plan'",
				"name contains 'q3-plan'",
				"name contains 'q3plan'",
				"name contains 'plan'",
			},
		},
		{
			name:  "escapes_quotes",
			query: "bob's",
			expected: []string{
				`name contains 'bob\'s'`,
				`name = 'bob\'s'`,
				`name contains 'BOB\'S'`,
				`fullText contains 'bob\'s'`,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, gservice.DriveQueries(tc.query))
		})
	}
}

func TestSearch(t *testing.T) {
	_, err := gservice.NewSearch("", "cx").Search(context.Background(), "go", 5)
	assert.Equal(t, apierr.KindConfig, apierr.KindOf(err))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "golang", q.Get("q"))
		assert.Equal(t, "engine", q.Get("cx"))
		assert.Equal(t, "10", q.Get("num"))
		assert.Equal(t, "key", q.Get("key"))

		writeJSON(t, w, map[string]any{"items": []map[string]string{{"title": "Go", "link": "https://go.dev"}}})
	}))
	defer srv.Close()

	res, err := gservice.NewSearch("key", "engine", option.WithEndpoint(srv.URL+"/")).Search(context.Background(), "golang", 50)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "https://go.dev", res.Items[0].Link)
}
