package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
)

func newTestGeminiService(t *testing.T, handler http.Handler) *GeminiService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewGeminiService("test-key", "gemini-1.5-flash")
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	svc.SetBaseURL(server.URL)
	svc.httpClient = server.Client()

	return svc
}

func candidateResponse(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(payload)
}

func TestNewGeminiService(t *testing.T) {
	t.Run("rejects empty api key", func(t *testing.T) {
		if _, err := NewGeminiService("", "model"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("defaults the model", func(t *testing.T) {
		svc, err := NewGeminiService("key", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.model != "gemini-1.5-flash" {
			t.Errorf("unexpected default model %q", svc.model)
		}
	})
}

func TestGeminiGenerateContent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns candidate text", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.URL.Path, "gemini-1.5-flash:generateContent") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			var req geminiRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hola" {
				t.Errorf("unexpected request payload: %+v", req)
			}

			fmt.Fprint(w, candidateResponse(`{"ep1": "Historia"}`))
		})
		svc := newTestGeminiService(t, handler)

		text, err := svc.GenerateContent(ctx, "hola")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if text != `{"ep1": "Historia"}` {
			t.Errorf("unexpected text %q", text)
		}
	})

	t.Run("HTTP 429 maps to quota exhaustion", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		svc := newTestGeminiService(t, handler)

		if _, err := svc.GenerateContent(ctx, "hola"); !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Errorf("expected ErrQuotaExhausted, got %v", err)
		}
	})

	t.Run("RESOURCE_EXHAUSTED body maps to quota exhaustion", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error": {"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"}}`)
		})
		svc := newTestGeminiService(t, handler)

		if _, err := svc.GenerateContent(ctx, "hola"); !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Errorf("expected ErrQuotaExhausted, got %v", err)
		}
	})

	t.Run("server errors map to API errors", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		svc := newTestGeminiService(t, handler)

		if _, err := svc.GenerateContent(ctx, "hola"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("empty candidates map to malformed response", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"candidates": []}`)
		})
		svc := newTestGeminiService(t, handler)

		if _, err := svc.GenerateContent(ctx, "hola"); !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("concatenates multi-part candidates", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "{\"a\": "}, {"text": "\"Uno\"}"}]}}]}`)
		})
		svc := newTestGeminiService(t, handler)

		text, err := svc.GenerateContent(ctx, "hola")
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if text != `{"a": "Uno"}` {
			t.Errorf("unexpected text %q", text)
		}
	})
}

func TestNoopCategorizer(t *testing.T) {
	noop := NoopCategorizer{}

	if noop.Enabled() {
		t.Error("noop categorizer should report disabled")
	}

	text, err := noop.GenerateContent(context.Background(), "hola")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}
