package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/finance-ledger/internal/auth"
	"github.com/hongminglow/finance-ledger/internal/config"
	"github.com/hongminglow/finance-ledger/internal/ledger"
	"github.com/hongminglow/finance-ledger/internal/middleware"
	"github.com/hongminglow/finance-ledger/internal/storage/sqlite"
)

func newTestHandler(t *testing.T, logs *bytes.Buffer) http.Handler {
	t.Helper()
	store, err := sqlite.NewStore(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	svc := ledger.New(store, auth.NewPasswordHasher(bcrypt.MinCost))
	cfg := config.Config{Port: "0", CORSOrigins: []string{"https://app.example.com"}}
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	return Handler(cfg, store, svc, logger)
}

func TestHandlerAppliesMiddleware(t *testing.T) {
	var logs bytes.Buffer
	h := newTestHandler(t, &logs)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"email":"m@example.com","password":"pw"}`))
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	requestID := rec.Header().Get(middleware.RequestIDHeader)
	require.NotEmpty(t, requestID)

	var line map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, requestID, line["request_id"])
	assert.Equal(t, float64(http.StatusCreated), line["status"])
}

func TestServeAndShutdown(t *testing.T) {
	var logs bytes.Buffer
	store, err := sqlite.NewStore(sqlite.MemoryPath)
	require.NoError(t, err)
	defer store.Close()

	svc := ledger.New(store, auth.NewPasswordHasher(bcrypt.MinCost))
	srv := New(config.Config{Port: "0"}, store, svc, slog.New(slog.NewTextHandler(&logs, nil)))
	assert.Equal(t, ":0", srv.Addr())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"database":"ok"`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.True(t, errors.Is(<-done, http.ErrServerClosed))
}
