package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cardpro/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{APIKey: "test-key", Model: "test-model", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestCompleteParsesResponse(t *testing.T) {
	var captured chatRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  generated card  "}},
			},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 340},
		})
	})

	res, err := c.Complete(context.Background(), "sys", "user", 0.7, 2000)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != "generated card" {
		t.Fatalf("text = %q, want trimmed content", res.Text)
	}
	if res.TokensIn != 120 || res.TokensOut != 340 {
		t.Fatalf("tokens = %d/%d, want 120/340", res.TokensIn, res.TokensOut)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v, want system then user", captured.Messages)
	}
	if captured.MaxTokens != 2000 {
		t.Fatalf("max_tokens = %d, want 2000", captured.MaxTokens)
	}
}

func TestCompleteOmitsEmptySystemPrompt(t *testing.T) {
	var captured chatRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	})

	if _, err := c.Complete(context.Background(), "", "questions please", 0.6, 500); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v, want single user message", captured.Messages)
	}
}

func TestCompleteMapsFailuresToBackendError(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, tc.handler)
			_, err := c.Complete(context.Background(), "s", "u", 0.7, 100)
			if !errors.Is(err, domain.ErrBackendFailure) {
				t.Fatalf("err = %v, want ErrBackendFailure", err)
			}
		})
	}
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Complete(ctx, "s", "u", 0.7, 100); !errors.Is(err, domain.ErrBackendFailure) {
		t.Fatalf("err = %v, want ErrBackendFailure wrapping cancellation", err)
	}
}

func TestCardPromptIncludesDetailsBlockOnlyWhenPresent(t *testing.T) {
	with := CardPrompt("Ozon", "Kettle 1.7L", "stainless, 2200W")
	if !strings.Contains(with, "Seller details:\nstainless, 2200W") {
		t.Fatalf("details block missing: %q", with)
	}

	without := CardPrompt("Ozon", "Kettle 1.7L", "   ")
	if strings.Contains(without, "Seller details") {
		t.Fatalf("blank details must omit the block: %q", without)
	}
}

func TestPromptPlaceholders(t *testing.T) {
	q := QuestionsPrompt("Wildberries", "Running shoes")
	if !strings.Contains(q, "Wildberries") || !strings.Contains(q, "Running shoes") {
		t.Fatalf("questions prompt missing placeholders: %q", q)
	}

	a := AnalyzePrompt("Ozon", "competitor listing body")
	if !strings.Contains(a, "competitor listing body") {
		t.Fatalf("analyze prompt missing competitor text")
	}

	r := RewritePrompt("Ozon", "original card", "Premium tone")
	if !strings.Contains(r, "original card") || !strings.Contains(r, "Premium tone") {
		t.Fatalf("rewrite prompt missing placeholders")
	}
}
