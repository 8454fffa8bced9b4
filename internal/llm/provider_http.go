package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wayfare/learnctl/internal/apperr"
)

// HTTPProvider calls an OpenAI-compatible chat completions endpoint. No
// SDK for this appears anywhere in the retrieval pack, so the request is
// built and decoded with stdlib net/http + encoding/json, the same way
// kenaz's own handlers speak HTTP on the server side.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// NewHTTPProvider constructs an HTTPProvider with a default http.Client
// when client is nil.
func NewHTTPProvider(baseURL, apiKey, model string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{BaseURL: baseURL, APIKey: apiKey, Model: model, HTTP: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Provider.
func (p *HTTPProvider) Complete(ctx context.Context, req Request) (Response, error) {
	messages := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = chatMessage{Role: string(m.Role), Content: m.Text}
	}

	model := req.Options.Model
	if model == "" {
		model = p.Model
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Options.Temperature,
		MaxTokens:   req.Options.MaxTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("%w: marshal request: %v", apperr.ErrLLMFatal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: build request: %v", apperr.ErrLLMFatal, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.HTTP.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", apperr.ErrLLMTransient, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: read response: %v", apperr.ErrLLMTransient, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return Response{}, fmt.Errorf("%w: provider status %d: %s", apperr.ErrLLMTransient, resp.StatusCode, string(data))
	}
	if resp.StatusCode >= 400 {
		return Response{}, fmt.Errorf("%w: provider status %d: %s", apperr.ErrLLMFatal, resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Response{}, fmt.Errorf("%w: decode response: %v", apperr.ErrLLMTransient, err)
	}
	if parsed.Error != nil {
		return Response{}, fmt.Errorf("%w: %s", apperr.ErrLLMFatal, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: empty choices", apperr.ErrLLMTransient)
	}

	return Response{
		Content: parsed.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}
