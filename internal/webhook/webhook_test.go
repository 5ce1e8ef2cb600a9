package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type payload struct {
	RunID string `json:"run_id"`
	Total int    `json:"total"`
}

func TestSendSuccess(t *testing.T) {
	var received payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL}, false)
	if err := client.Send(context.Background(), payload{RunID: "abc", Total: 24}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if received.RunID != "abc" || received.Total != 24 {
		t.Errorf("received = %+v", received)
	}
}

func TestSendRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{
		URL:        server.URL,
		Retries:    3,
		RetryDelay: 10 * time.Millisecond,
	}, false)

	if err := client.Send(context.Background(), payload{}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{
		URL:        server.URL,
		Retries:    3,
		RetryDelay: 10 * time.Millisecond,
	}, false)

	if err := client.Send(context.Background(), payload{}); err == nil {
		t.Fatal("Send() expected error for 400")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retries on 4xx)", calls.Load())
	}
}

func TestSendGivesUpAfterRetryBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{
		URL:        server.URL,
		Retries:    2,
		RetryDelay: 5 * time.Millisecond,
	}, false)

	if err := client.Send(context.Background(), payload{}); err == nil {
		t.Fatal("Send() expected error after exhausting retries")
	}
}

func TestSendAuthHeaders(t *testing.T) {
	tests := []struct {
		name       string
		authType   string
		wantHeader string
		wantValue  string
	}{
		{"bearer", "bearer", "Authorization", "Bearer secret"},
		{"api key", "api-key", "X-Api-Key", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(tt.wantHeader)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := NewClient(Config{
				URL:       server.URL,
				AuthType:  tt.authType,
				AuthToken: "secret",
			}, false)
			if err := client.Send(context.Background(), payload{}); err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if got != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantHeader, got, tt.wantValue)
			}
		})
	}
}
