// ABOUTME: Tests for gateway assembly: config wiring, health surface, and
// ABOUTME: end-to-end MCP round trips against fake providers.

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/kyc-gateway/internal/config"
)

// fakeProviders serves minimal endpoints for every provider the gateway
// wires up.
func fakeProviders(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "t", "expires_in": 3600})
	})
	mux.HandleFunc("GET /cases", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"cases": []map[string]any{{"id": "case-1", "subject": "Acme GmbH", "status": "pending"}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, providerURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{HTTPAddr: "127.0.0.1:0"},
		Audit:  config.AuditConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "audit.db")},
		Providers: config.ProvidersConfig{
			Records: config.RecordsConfig{
				BaseURL:  providerURL,
				TokenURL: providerURL + "/token",
			},
			Documents: config.DocumentsConfig{BaseURL: providerURL, APIKey: "k"},
		},
	}
}

func TestNew_AssemblesGateway(t *testing.T) {
	providers := fakeProviders(t)

	g, err := New(testConfig(t, providers.URL), nil)
	require.NoError(t, err)
	require.NotNil(t, g.httpServer)
	require.NotNil(t, g.audit)
	t.Cleanup(func() { _ = g.audit.Close() })
}

func TestGateway_HealthAndMCPRoundTrip(t *testing.T) {
	providers := fakeProviders(t)

	g, err := New(testConfig(t, providers.URL), nil)
	require.NoError(t, err)

	ts := httptest.NewServer(g.httpServer.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = g.audit.Close() })

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	// Initialize an MCP session and list cases through the full stack.
	initResp, err := http.Post(ts.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`))
	require.NoError(t, err)
	initResp.Body.Close()
	sessionID := initResp.Header.Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID)

	callReq, _ := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_pending_cases","arguments":{}}}`))
	callReq.Header.Set("Mcp-Session-Id", sessionID)
	callResp, err := http.DefaultClient.Do(callReq)
	require.NoError(t, err)
	defer callResp.Body.Close()
	require.Equal(t, http.StatusOK, callResp.StatusCode)

	var rpc struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(callResp.Body).Decode(&rpc))
	assert.False(t, rpc.Result.IsError)
	assert.Contains(t, rpc.Result.Content[0].Text, "case-1")

	ready, err := http.Get(ts.URL + "/health/ready")
	require.NoError(t, err)
	defer ready.Body.Close()
	var readiness map[string]any
	require.NoError(t, json.NewDecoder(ready.Body).Decode(&readiness))
	assert.Equal(t, float64(1), readiness["sessions"])
	assert.Equal(t, true, readiness["audit"])
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	providers := fakeProviders(t)

	cfg := testConfig(t, providers.URL)
	cfg.Audit.Enabled = false
	g, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not stop after context cancellation")
	}
}
