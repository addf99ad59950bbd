package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tartampluch/go-nlcep/internal/config"
	"github.com/tartampluch/go-nlcep/internal/engine"
	"github.com/tartampluch/go-nlcep/internal/i18n"
	"github.com/tartampluch/go-nlcep/internal/wire"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

var sundayNoon = time.Date(2024, 11, 17, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*ParseServer, *bytes.Buffer) {
	t.Helper()
	tr, err := i18n.New(nil)
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv := NewParseServer("127.0.0.1:0", time.UTC, tr, logger)
	srv.Clock = engine.FixedClock{At: sundayNoon}
	return srv, &logs
}

func do(t *testing.T, srv *ParseServer, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	resp := w.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decodeResult(t *testing.T, body []byte) wire.Result {
	t.Helper()
	var res wire.Result
	require.NoError(t, json.Unmarshal(body, &res), "body must be a wire.Result: %s", body)
	return res
}

func parseURL(text string, extra ...string) string {
	q := url.Values{config.ParamText: {text}}
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return config.RouteParse + "?" + q.Encode()
}

// -----------------------------------------------------------------------------
// Handler Tests
// -----------------------------------------------------------------------------

func TestHandleParse_Success(t *testing.T) {
	srv, logs := newTestServer(t)

	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, parseURL("Meeting about new duck quotas tomorrow 11:00 @ A769"), nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeJSON, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.CacheControlNone, resp.Header.Get(config.HeaderCacheControl))
	assert.Equal(t, config.ServerHeader, resp.Header.Get(config.HeaderServer))

	res := decodeResult(t, body)
	require.True(t, res.OK)
	assert.Equal(t, wire.EventDTO{
		Summary:  "Meeting about new duck quotas",
		Date:     "2024-11-18",
		Time:     "11:00",
		Location: "A769",
	}, *res.Event)

	assert.Contains(t, logs.String(), config.MsgRequestServed)
}

func TestHandleParse_PostJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{"text":"John's birthday 16.11.","now":"2024-11-17T23:30:00-05:00"}`
	req := httptest.NewRequest(http.MethodPost, config.RouteParse, strings.NewReader(payload))
	req.Header.Set(config.HeaderContentType, "application/json")

	resp, body := do(t, srv, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	res := decodeResult(t, body)
	require.True(t, res.OK)
	assert.Equal(t, "2025-11-16", res.Event.Date)
	assert.Empty(t, res.Event.Time)
}

func TestHandleParse_PostPlainText(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, config.RouteParse, strings.NewReader("lunch next Monday @ Cafe Aalto"))
	req.Header.Set(config.HeaderContentType, "text/plain")

	resp, body := do(t, srv, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	res := decodeResult(t, body)
	assert.Equal(t, "2024-11-25", res.Event.Date)
	assert.Equal(t, "Cafe Aalto", res.Event.Location)
}

func TestHandleParse_ParseFailures(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("Invalid date is localized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, parseURL("meeting 31.02.2025"), nil)
		req.Header.Set(config.HeaderAcceptLanguage, "fr-FR,fr;q=0.9")

		resp, body := do(t, srv, req)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		res := decodeResult(t, body)
		assert.False(t, res.OK)
		require.NotNil(t, res.Error)
		assert.Equal(t, string(engine.FailureInvalidDate), res.Error.Tag)
		assert.Equal(t, &wire.SpanDTO{Start: 8, End: 18}, res.Error.Span)
		assert.Equal(t, "31.02.2025", res.Error.Text)
		assert.Contains(t, res.Error.Message, "pas une date valide")
	})

	t.Run("Explicit language beats the header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, parseURL("meeting 31.02.2025", config.ParamLang, "en"), nil)
		req.Header.Set(config.HeaderAcceptLanguage, "fr")

		_, body := do(t, srv, req)
		assert.Equal(t, `"31.02.2025" is not a valid date.`, decodeResult(t, body).Error.Message)
	})

	t.Run("No date", func(t *testing.T) {
		resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, parseURL("just a note"), nil))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, string(engine.FailureNoDateFound), decodeResult(t, body).Error.Tag)
	})
}

func TestHandleParse_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		req    func() *http.Request
		reason string
	}{
		{
			name:   "Missing text",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, config.RouteParse, nil) },
			reason: "text: required",
		},
		{
			name: "Text too long",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, parseURL(strings.Repeat("a", config.MaxInputLength+1)), nil)
			},
			reason: "text: max",
		},
		{
			name: "Bad reference instant",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, parseURL("tomorrow", config.ParamNow, "yesterday-ish"), nil)
			},
			reason: "now: datetime",
		},
		{
			name: "Bad language tag",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, parseURL("tomorrow", config.ParamLang, "not a tag"), nil)
			},
			reason: "lang: bcp47_language_tag",
		},
		{
			name: "Malformed JSON",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, config.RouteParse, strings.NewReader(`{"text":`))
				r.Header.Set(config.HeaderContentType, "application/json")
				return r
			},
		},
		{
			name: "Body too large",
			req: func() *http.Request {
				big := strings.Repeat("x", config.MaxRequestBody+1)
				return httptest.NewRequest(http.MethodPost, config.RouteParse, strings.NewReader(big))
			},
			reason: config.ErrBodyTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, tt.req())
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			res := decodeResult(t, body)
			require.NotNil(t, res.Error)
			assert.Equal(t, wire.TagInvalidRequest, res.Error.Tag)
			if tt.reason != "" {
				assert.Contains(t, res.Error.Message, tt.reason)
			}
		})
	}
}

func TestHandleParse_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := do(t, srv, httptest.NewRequest(http.MethodDelete, parseURL("tomorrow"), nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, config.AllowedMethods, resp.Header.Get(config.HeaderAllow))
}

func TestHandleParseICS(t *testing.T) {
	srv, _ := newTestServer(t)
	target := strings.Replace(parseURL("standup tomorrow 9:15 @ Room 2"), config.RouteParse, config.RouteParseICS, 1)

	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.Contains(t, string(body), "SUMMARY:standup")
	assert.Contains(t, string(body), "LOCATION:Room 2")
	assert.Contains(t, string(body), "DTSTART:20241118T091500Z")

	etag := resp.Header.Get(config.HeaderETag)
	require.NotEmpty(t, etag, "Server must provide an ETag")

	t.Run("Conditional request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set(config.HeaderIfNoneMatch, etag)

		resp, body := do(t, srv, req)
		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
		assert.Empty(t, body, "Body must be empty on 304 Not Modified")
	})

	t.Run("Failure is JSON", func(t *testing.T) {
		bad := strings.Replace(parseURL("no date"), config.RouteParse, config.RouteParseICS, 1)
		resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, bad, nil))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.False(t, decodeResult(t, body).OK)
	})
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, httptest.NewRequest(http.MethodGet, parseURL("today"), nil))

	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, config.RouteHealth, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, config.HTTPMsgOK, health[config.HealthKeyStatus])
	assert.EqualValues(t, 1, health[config.HealthKeyServed], "the health request itself is counted after it is served")

	resp, _ = do(t, srv, httptest.NewRequest(http.MethodPost, config.RouteHealth, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRecoverer(t *testing.T) {
	srv, logs := newTestServer(t)
	h := srv.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, logs.String(), config.ErrPanicRecovered)
	assert.Contains(t, logs.String(), `"stack"`)
}

func TestNilTranslatorUsesErrorText(t *testing.T) {
	srv := NewParseServer("", nil, nil, slog.New(slog.DiscardHandler))
	srv.Clock = engine.FixedClock{At: sundayNoon}

	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, parseURL("meeting 31.02.2025"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, `invalid date: "31.02.2025" at [8,18)`, decodeResult(t, body).Error.Message)
}

// -----------------------------------------------------------------------------
// Concurrency Tests
// -----------------------------------------------------------------------------

// TestServer_ConcurrentRequests runs many requests through one handler.
// Run this with `go test -race`.
func TestServer_ConcurrentRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, parseURL("lunch next Monday @ Cafe Aalto"), nil))
				if w.Code != http.StatusOK {
					t.Errorf("Unexpected status code during concurrent requests: %d", w.Code)
				}
			}
		}()
	}

	wg.Wait()
	assert.EqualValues(t, 500, srv.served.Load())
}

// -----------------------------------------------------------------------------
// Integration Tests (Real TCP Lifecycle)
// -----------------------------------------------------------------------------

// TestServer_Lifecycle binds a real listener and verifies graceful shutdown.
func TestServer_Lifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ctx, ln)
	}()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + config.RouteHealth)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 50*time.Millisecond, "Server failed to serve in time")

	resp, err := http.Get(base + parseURL("Sauna today"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}

func TestServer_StartRequiresListen(t *testing.T) {
	srv := NewParseServer("", nil, nil, nil)
	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, config.ErrListenRequired, err.Error())
}
