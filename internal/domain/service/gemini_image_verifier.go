package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civicfix/pkg/logger"
)

var (
	// ErrRateLimited is returned when the classifier provider throttles the call.
	ErrRateLimited = errors.New("image verifier: rate limited")
	// ErrMissingCredential is returned when no API key is configured.
	ErrMissingCredential = errors.New("image verifier: missing API credential")
)

// ImageVerifier judges whether an image shows an issue of the given category.
// A false verdict is a legitimate outcome; an error means the verdict is unknown.
type ImageVerifier interface {
	Verify(ctx context.Context, image []byte, mimeType, category string) (bool, error)
}

const verifyPromptTemplate = `You are screening photos submitted to a community issue reporting service.
Does this image clearly show a "%s" problem? Answer strictly with the single word "true" or "false".`

// GeminiImageVerifier calls the Gemini generateContent REST API.
type GeminiImageVerifier struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
}

func NewGeminiImageVerifier(apiKey, model, baseURL string, maxTokens int, timeout time.Duration) *GeminiImageVerifier {
	if maxTokens <= 0 {
		maxTokens = 10
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiImageVerifier{
		apiKey:    apiKey,
		model:     model,
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiImageVerifier) Verify(ctx context.Context, image []byte, mimeType, category string) (bool, error) {
	if g.apiKey == "" {
		return false, ErrMissingCredential
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: fmt.Sprintf(verifyPromptTemplate, category)},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: g.maxTokens,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return false, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warn("Gemini API error (status %d): %s", resp.StatusCode, string(respBody))
		return false, fmt.Errorf("gemini API error: status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return false, fmt.Errorf("gemini API returned no candidates")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	verdict := ParseVerdict(text.String())
	logger.Debug("Image verification for category %q: raw=%q verdict=%v", category, text.String(), verdict)
	return verdict, nil
}

// ParseVerdict is true only for an exact "true" after trimming and lower-casing.
func ParseVerdict(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == "true"
}
