package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/api/mcp/query", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(body["prompt"], "fail") {
			_, _ = io.WriteString(w, `{"success":false,"message":"Failed to query LLM"}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"result":2},"toolName":"sub"}`)
	})
	mux.HandleFunc("/api/mcp", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Paris")
	})
	mux.HandleFunc("/api/tools/sub", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"a": "5", "b": "3"}, body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":2}`)
	})
	mux.HandleFunc("/api/metrics/jobs/count", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"count":42}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("TOOLBRIDGE_API_URL", srv.URL)
	return srv
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI("version")
	assert.Equal(t, 0, code)
	assert.Equal(t, version+"\n", out)
}

func TestRun_Commands(t *testing.T) {
	newAPIServer(t)

	code, out, _ := runCLI("health")
	assert.Equal(t, 0, code)
	assert.Equal(t, "ok\n", out)

	code, out, _ = runCLI("query", "subtract", "3", "from", "5")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"toolName": "sub"`)

	code, _, _ = runCLI("query", "please", "fail")
	assert.Equal(t, 2, code)

	code, out, _ = runCLI("ask", "capital of France?")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Paris\n", out)

	code, out, _ = runCLI("sub", "5", "3")
	assert.Equal(t, 0, code)
	assert.Equal(t, "2\n", out)

	code, out, _ = runCLI("count", "jobs")
	assert.Equal(t, 0, code)
	assert.Equal(t, "42\n", out)
}

func TestRun_UsageErrors(t *testing.T) {
	code, _, errOut := runCLI("count")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "emails|jobs|rule-details|rule-templates|unique-emails")

	code, _, errOut = runCLI("count", "users")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `unknown count target "users"`)

	code, _, _ = runCLI("sum", "1")
	assert.Equal(t, 1, code)

	code, _, _ = runCLI("bogus")
	assert.Equal(t, 1, code)
}
