package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"reviewd/pkg/types"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestChat_SingleExactPost(t *testing.T) {
	var gotPath string
	var gotBody []byte
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{
			Model:   "m1",
			Message: types.ChatMessage{Role: types.RoleAssistant, Content: "looks fine"},
			Done:    true,
		})
	}))
	defer ts.Close()

	c := New(Config{Endpoint: ts.URL, Model: "m1", RequestTimeout: 5 * time.Second}, testLogger())
	msgs := []types.ChatMessage{
		{Role: types.RoleSystem, Content: "you are terse"},
		{Role: types.RoleUser, Content: "review this"},
	}
	out, err := c.Chat(context.Background(), msgs)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if out != "looks fine" {
		t.Fatalf("content=%q", out)
	}
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
	if gotPath != "/api/chat" {
		t.Fatalf("path=%q", gotPath)
	}
	want, _ := json.Marshal(chatRequest{Model: "m1", Messages: msgs, Stream: false})
	var gotJSON, wantJSON map[string]any
	if err := json.Unmarshal(gotBody, &gotJSON); err != nil {
		t.Fatalf("body json: %v", err)
	}
	_ = json.Unmarshal(want, &wantJSON)
	if !reflect.DeepEqual(gotJSON, wantJSON) {
		t.Fatalf("body=%s want %s", gotBody, want)
	}
}

func TestChat_StreamFlagAlwaysPresent(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(chatResponse{Message: types.ChatMessage{Content: "x"}})
	}))
	defer ts.Close()

	c := New(Config{Endpoint: ts.URL, Model: "m"}, testLogger())
	if _, err := c.Generate(context.Background(), "hi"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("body json: %v", err)
	}
	v, ok := body["stream"]
	if !ok {
		t.Fatalf("stream flag missing from payload: %s", gotBody)
	}
	if v != false {
		t.Fatalf("stream=%v, want false", v)
	}
}

func TestChat_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer ts.Close()

	c := New(Config{Endpoint: ts.URL, Model: "m"}, testLogger())
	_, err := c.Chat(context.Background(), []types.ChatMessage{{Role: types.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatalf("expected error on HTTP 500")
	}
	if !IsUpstream(err) {
		t.Fatalf("expected upstream error, got %T: %v", err, err)
	}
}

func TestChat_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused from here on

	c := New(Config{Endpoint: ts.URL, Model: "m"}, testLogger())
	_, err := c.Generate(context.Background(), "hi")
	if err == nil {
		t.Fatalf("expected error on refused connection")
	}
	if !IsUpstream(err) {
		t.Fatalf("expected upstream error, got %T: %v", err, err)
	}
}

func TestChat_BodyError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{Error: "model not loaded"})
	}))
	defer ts.Close()

	c := New(Config{Endpoint: ts.URL, Model: "m"}, testLogger())
	_, err := c.Generate(context.Background(), "hi")
	if err == nil || !IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestChat_ContextTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(chatResponse{Message: types.ChatMessage{Content: "late"}})
	}))
	defer ts.Close()

	c := New(Config{Endpoint: ts.URL, Model: "m", RequestTimeout: 50 * time.Millisecond}, testLogger())
	_, err := c.Generate(context.Background(), "hi")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, testLogger())
	if c.baseURL != DefaultEndpoint {
		t.Fatalf("baseURL=%q", c.baseURL)
	}
	c2 := New(Config{Endpoint: "http://host:1234/"}, testLogger())
	if c2.baseURL != "http://host:1234" {
		t.Fatalf("trailing slash not trimmed: %q", c2.baseURL)
	}
}
