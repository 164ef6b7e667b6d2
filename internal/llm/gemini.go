package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"reportbot/internal/config"
	"reportbot/internal/pkg/httpclient"
)

const apiBase = "https://generativelanguage.googleapis.com/v1beta"

// Completer produces free text for a prompt. Replies carry no format
// guarantee; callers must parse defensively.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiClient talks to the Gemini REST API for both completion and
// embedding requests.
type GeminiClient struct {
	http   *httpclient.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

func NewGeminiClient(cfg config.LLMConfig, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		http:   httpclient.New().WithTimeout(cfg.Timeout),
		cfg:    cfg,
		logger: logger,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type embedRequest struct {
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Complete sends the prompt to the chat model and returns the first
// candidate's text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		apiBase, c.cfg.ChatModel, url.QueryEscape(c.cfg.APIKey))

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	resp, err := c.http.Request().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("gemini generate request failed: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("gemini generate response unreadable: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini generate error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	text := ""
	for _, p := range parsed.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}

// Embed returns the embedding vector for the given text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	endpoint := fmt.Sprintf("%s/models/%s:embedContent?key=%s",
		apiBase, c.cfg.EmbeddingModel, url.QueryEscape(c.cfg.APIKey))

	body := embedRequest{Content: content{Parts: []part{{Text: text}}}}

	resp, err := c.http.Request().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("gemini embed request failed: %w", err)
	}

	var parsed embedResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("gemini embed response unreadable: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("gemini embed error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}

	return parsed.Embedding.Values, nil
}
