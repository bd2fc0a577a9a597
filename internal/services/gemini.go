// Gemini API implementation of [Categorizer]
//
// Talks to the generateContent REST endpoint directly; responses are free
// text that the caller parses. HTTP 429 (RESOURCE_EXHAUSTED) is mapped to
// [shared.ErrQuotaExhausted] so callers can latch off further calls.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiRequest is the generateContent request payload.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the subset of the generateContent response we read.
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiService implements [Categorizer] against the Gemini REST API.
type GeminiService struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiService creates a Gemini-backed categorizer. Returns an error
// when the API key is empty; callers fall back to [NoopCategorizer].
func NewGeminiService(apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api_key", shared.ErrMissingCredentials)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &GeminiService{
		baseURL: geminiBaseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

func (g *GeminiService) Name() string { return "Gemini" }

func (g *GeminiService) Enabled() bool { return true }

// SetBaseURL overrides the API endpoint. Used in tests.
func (g *GeminiService) SetBaseURL(u string) { g.baseURL = u }

// GenerateContent sends the prompt and returns the first candidate's text.
func (g *GeminiService) GenerateContent(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: status %d", shared.ErrQuotaExhausted, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: gemini status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	// Some quota failures come back as 200 with an embedded error object.
	if parsed.Error != nil {
		if parsed.Error.Status == "RESOURCE_EXHAUSTED" {
			return "", fmt.Errorf("%w: %s", shared.ErrQuotaExhausted, parsed.Error.Message)
		}
		return "", fmt.Errorf("%w: %s", shared.ErrAPIRequest, parsed.Error.Message)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", shared.ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return text.String(), nil
}
