package services

import (
	"context"

	"github.com/jwebster45206/heartbeat-engine/pkg/chat"
)

// LLMService defines the interface for interacting with a text model API
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat sends messages and returns the model's reply
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}
