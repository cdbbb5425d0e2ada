package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueltrack/db/mem"
	"fueltrack/ledger"
	"fueltrack/mq/goch"
	"fueltrack/mq/mq"
	"fueltrack/service"
)

type testEnv struct {
	router http.Handler
	queue  *goch.GoChanLedgerMessageQueue
}

func setup(t *testing.T, conf ServiceConfig) *testEnv {
	t.Helper()
	store := mem.NewInMemoryFuelDBWrapper()
	queue := goch.NewGoChanLedgerMessageQueue(16)
	t.Cleanup(func() { queue.Close() })

	svc := service.New(store, ledger.Members{"a", "b"},
		service.WithPublisher(queue),
		service.WithLogger(zerolog.Nop()),
	)
	router, err := NewRouter(svc, store, queue, conf)
	require.NoError(t, err)
	return &testEnv{router: router, queue: queue}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func entry(clock, user, odometer, pay string) ledger.Entry {
	return ledger.Entry{Date: "2024-03-01", Time: clock, User: user, Odometer: odometer, Pay: pay}
}

func TestHealth(t *testing.T) {
	env := setup(t, ServiceConfig{})
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRecordLifecycle(t *testing.T) {
	env := setup(t, ServiceConfig{})

	for _, e := range []ledger.Entry{
		entry("08:00", "a", "100", ""),
		entry("09:00", "b", "130", ""),
		entry("10:00", "a", "150", "20"),
	} {
		w := env.do(t, http.MethodPost, "/api/records", e)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.do(t, http.MethodGet, "/api/records", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []ledger.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, 30, records[0].Trip)

	w = env.do(t, http.MethodGet, "/api/tanks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tanks []ledger.Tank
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tanks))
	require.Len(t, tanks, 1)
	assert.Equal(t, map[string]int{"a": 12, "b": 8}, tanks[0].Shares)

	w = env.do(t, http.MethodGet, "/api/records/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var record ledger.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "b", record.User)

	w = env.do(t, http.MethodPut, "/api/records/2", entry("09:00", "b", "140", ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, 10, record.Trip)

	w = env.do(t, http.MethodDelete, "/api/records/2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/records/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorStatuses(t *testing.T) {
	env := setup(t, ServiceConfig{})
	w := env.do(t, http.MethodPost, "/api/records", entry("10:00", "a", "150", ""))
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		substr string
	}{
		{"out of order", http.MethodPost, "/api/records", entry("11:00", "b", "120", ""), http.StatusBadRequest, "odometer must exceed previous reading"},
		{"unknown member", http.MethodPost, "/api/records", entry("11:00", "zed", "200", ""), http.StatusBadRequest, "zed"},
		{"bad number", http.MethodPost, "/api/records", entry("11:00", "a", "two", ""), http.StatusBadRequest, ""},
		{"bad json", http.MethodPost, "/api/records", "[", http.StatusBadRequest, ""},
		{"edit unknown", http.MethodPut, "/api/records/9", entry("11:00", "a", "200", ""), http.StatusNotFound, ""},
		{"delete unknown", http.MethodDelete, "/api/records/9", nil, http.StatusNotFound, ""},
		{"bad id", http.MethodGet, "/api/records/x", nil, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.substr != "" {
				assert.Contains(t, w.Body.String(), tt.substr)
			}
		})
	}
}

func TestViolationsAndRecompute(t *testing.T) {
	env := setup(t, ServiceConfig{})
	w := env.do(t, http.MethodGet, "/api/violations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report service.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "recompute", report.Action)
	assert.Equal(t, 0, report.Records)
}

func TestSecurityHeaders(t *testing.T) {
	env := setup(t, ServiceConfig{})
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRateLimit(t *testing.T) {
	env := setup(t, ServiceConfig{RateLimit: "2-M"})
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodGet, "/health", nil).Code)

	_, err := NewRouter(nil, nil, nil, ServiceConfig{RateLimit: "lots"})
	assert.Error(t, err)
}

func TestStream(t *testing.T) {
	env := setup(t, ServiceConfig{IsDev: true})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the handler subscribes after the upgrade, keep posting until it listens
	deadline := time.Now().Add(2 * time.Second)
	odometer := 100
	received := make(chan mq.LedgerMessage, 1)
	go func() {
		var msg mq.LedgerMessage
		if err := conn.ReadJSON(&msg); err == nil {
			received <- msg
		}
	}()
	for {
		w := env.do(t, http.MethodPost, "/api/records", entry("", "a", strconv.Itoa(odometer), ""))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		select {
		case msg := <-received:
			assert.Equal(t, mq.ActionCreate, msg.Action)
			return
		case <-time.After(50 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("no ledger message on the stream")
		}
		odometer += 10
	}
}
