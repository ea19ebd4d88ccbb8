package push

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendEmptyTokensMakesNoNetworkCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)

	outcome := c.Send(context.Background(), nil, "title", "body", nil)
	if !outcome.Success {
		t.Errorf("outcome = %+v, want success", outcome)
	}
	if outcome.Count != 0 {
		t.Errorf("count = %d, want 0", outcome.Count)
	}
	if called {
		t.Error("gateway was called for an empty token set")
	}
}

func TestSendBatchesOneEnvelopePerToken(t *testing.T) {
	var got []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("payload is not a JSON array: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)

	tokens := []string{"tok-1", "tok-2", "tok-3"}
	outcome := c.Send(context.Background(), tokens, "Novo Relatório Registrado", "corpo", map[string]any{"report_id": 42})
	if !outcome.Success || outcome.Count != 3 {
		t.Fatalf("outcome = %+v, want success with count 3", outcome)
	}

	if len(got) != 3 {
		t.Fatalf("gateway received %d envelopes, want 3", len(got))
	}
	for i, envelope := range got {
		if envelope["to"] != tokens[i] {
			t.Errorf("envelope %d to = %v, want %s", i, envelope["to"], tokens[i])
		}
		if envelope["title"] != "Novo Relatório Registrado" {
			t.Errorf("envelope %d title = %v", i, envelope["title"])
		}
		if envelope["sound"] != "default" {
			t.Errorf("envelope %d sound = %v, want default", i, envelope["sound"])
		}
		if envelope["data"] == nil {
			t.Errorf("envelope %d missing data", i)
		}
	}
}

func TestSendGatewayErrorIsContained(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)

	outcome := c.Send(context.Background(), []string{"tok-1"}, "t", "b", nil)
	if outcome.Success {
		t.Error("outcome reports success for a 502 response")
	}
	if outcome.Error != "upstream unavailable" {
		t.Errorf("outcome error = %q", outcome.Error)
	}
}

func TestSendTimeoutIsContained(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClient(server.URL, 50*time.Millisecond)

	outcome := c.Send(context.Background(), []string{"tok-1"}, "t", "b", nil)
	if outcome.Success {
		t.Error("outcome reports success for a timed out request")
	}
	if outcome.Error == "" {
		t.Error("outcome carries no error detail")
	}
}

func TestSendUnreachableGatewayIsContained(t *testing.T) {
	// Closed server: connection refused must not panic or propagate
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, time.Second)

	outcome := c.Send(context.Background(), []string{"tok-1"}, "t", "b", nil)
	if outcome.Success {
		t.Error("outcome reports success for an unreachable gateway")
	}
}
