package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ts := httptest.NewServer(NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts
}

func postEval(t *testing.T, ts *httptest.Server, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/eval", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/eval: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestEval(t *testing.T) {
	ts := newTestServer(t, Options{})
	cases := []struct {
		body   string
		result string
		kind   string
	}{
		{`{"noun": [3, 1, 2]}`, "[2,1]", "cell"},
		{`{"noun": [0, 1, 2]}`, "1", "atom"},
		{`{"noun": [1, [1, 2], 3]}`, "[-2,-1]", "cell"},
		{`{"noun": [7, 1], "exec_mode": "treewalker"}`, "null", "error"},
		{`{"noun": null}`, "null", "error"},
		{`{"noun": [4, 5, [0, 1, 99], [1, 99, [10, 3]]]}`, "7", "atom"},
	}
	for _, tc := range cases {
		status, body := postEval(t, ts, tc.body)
		if status != http.StatusOK {
			t.Fatalf("%s: status = %d (%v)", tc.body, status, body)
		}
		result, err := json.Marshal(body["result"])
		if err != nil {
			t.Fatalf("marshal result: %v", err)
		}
		if string(result) != tc.result {
			t.Fatalf("%s: result = %s, want %s", tc.body, result, tc.result)
		}
		if body["kind"] != tc.kind {
			t.Fatalf("%s: kind = %v, want %s", tc.body, body["kind"], tc.kind)
		}
		if steps, _ := body["steps"].(float64); steps < 1 {
			t.Fatalf("%s: steps = %v", tc.body, body["steps"])
		}
	}
}

func TestEvalRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, Options{})
	bodies := []string{
		`not json`,
		`{}`,
		`{"noun": 1.5}`,
		`{"noun": [1]}`,
		`{"noun": "text"}`,
		`{"noun": [0, 1], "exec_mode": "bytecode"}`,
	}
	for _, body := range bodies {
		status, decoded := postEval(t, ts, body)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: status = %d (%v)", body, status, decoded)
		}
		if msg, _ := decoded["error"].(string); msg == "" {
			t.Fatalf("%s: missing error message", body)
		}
	}
}

func TestEvalRejectsOversizedBody(t *testing.T) {
	ts := newTestServer(t, Options{MaxBodyBytes: 64})

	status, decoded := postEval(t, ts, `{"noun": [0, 1]}`)
	if status != http.StatusOK {
		t.Fatalf("small body: status = %d (%v)", status, decoded)
	}

	body := `{"noun": [0` + strings.Repeat(", 1", 100) + `]}`
	status, decoded = postEval(t, ts, body)
	if status != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body: status = %d (%v)", status, decoded)
	}
	if msg, _ := decoded["error"].(string); !strings.Contains(msg, "64 bytes") {
		t.Fatalf("large body: error = %q", msg)
	}
}

func TestEvalLimits(t *testing.T) {
	compose := `{"noun": [4, 5, [0, 0, 0], [0, 1, 0]]}`

	steps := newTestServer(t, Options{Interpreter: interpreter.Options{MaxSteps: 3}})
	status, body := postEval(t, steps, compose)
	if status != http.StatusUnprocessableEntity || body["limit"] != "steps" {
		t.Fatalf("step limit: status = %d body = %v", status, body)
	}

	depth := newTestServer(t, Options{Interpreter: interpreter.Options{MaxDepth: 1}})
	status, body = postEval(t, depth, compose)
	if status != http.StatusUnprocessableEntity || body["limit"] != "depth" {
		t.Fatalf("depth limit: status = %d body = %v", status, body)
	}
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
