package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/heartbeat-engine/pkg/chat"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	DefaultOpenRouterModel     = "google/gemini-2.5-flash"
	DefaultOpenRouterMaxTokens = 2048
)

// OpenRouterService implements LLMService for OpenRouter's OpenAI-compatible API.
// Every request asks for a JSON object response.
type OpenRouterService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type OpenRouterResponseFormat struct {
	Type string `json:"type"`
}

// OpenRouterChatRequest represents the request structure for chat completions
type OpenRouterChatRequest struct {
	Model          string                    `json:"model"`
	Messages       []chat.ChatMessage        `json:"messages"`
	MaxTokens      int                       `json:"max_tokens,omitempty"`
	Stream         bool                      `json:"stream"`
	ResponseFormat *OpenRouterResponseFormat `json:"response_format,omitempty"`
}

// OpenRouterChatChoice represents a single choice in the response
type OpenRouterChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// OpenRouterChatResponse represents the response structure for chat completions
type OpenRouterChatResponse struct {
	ID      string                 `json:"id"`
	Model   string                 `json:"model"`
	Choices []OpenRouterChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenRouterService creates a new OpenRouter service
func NewOpenRouterService(apiKey string, modelName string, logger *slog.Logger) *OpenRouterService {
	if modelName == "" {
		modelName = DefaultOpenRouterModel
	}
	return &OpenRouterService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   openRouterBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL points the service at a different API root (tests, proxies).
func (o *OpenRouterService) WithBaseURL(url string) *OpenRouterService {
	o.baseURL = strings.TrimRight(url, "/")
	return o
}

// InitModel is a no-op; OpenRouter models need no warm-up.
func (o *OpenRouterService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (o *OpenRouterService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	reqBody, err := json.Marshal(OpenRouterChatRequest{
		Model:          o.modelName,
		Messages:       messages,
		MaxTokens:      DefaultOpenRouterMaxTokens,
		ResponseFormat: &OpenRouterResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var orResp OpenRouterChatResponse
	if err := json.Unmarshal(body, &orResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if orResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", orResp.Error.Message)
	}

	if len(orResp.Choices) == 0 {
		return &chat.ChatResponse{Message: msgNoResponse, Model: o.modelName}, nil
	}

	o.logger.Debug("OpenRouter completion",
		"model", o.modelName,
		"prompt_tokens", orResp.Usage.PromptTokens,
		"completion_tokens", orResp.Usage.CompletionTokens)

	return &chat.ChatResponse{Message: orResp.Choices[0].Message.Content, Model: o.modelName}, nil
}
