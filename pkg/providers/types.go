package providers

import (
	"context"
	"fmt"
)

// APIError is returned when the provider answered with a non-OK HTTP status.
// Transport-level failures (timeouts, connection errors) are plain errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status=%d error=%s", e.StatusCode, e.Message)
}

// Message is one chat-completion message in wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type LLMResponse struct {
	Content      string
	FinishReason string
	Usage        *UsageInfo
}

// LLMProvider is the external text-generation service. Implementations must
// honor ctx cancellation; the persona layer bounds every call with a timeout.
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, model string, options map[string]interface{}) (*LLMResponse, error)
	GetDefaultModel() string
}
