package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jwebster45206/heartbeat-engine/pkg/chat"
)

const repairSystemPrompt = "You repair invalid JSON. Return only valid RFC8259 JSON. Do not add or remove semantic fields."

var (
	fencePattern  = regexp.MustCompile("(?i)```(json)?")
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// ErrMalformedJSON is returned when neither the reply nor its repair parses.
var ErrMalformedJSON = errors.New("malformed JSON from model")

// extractJSON strips code fences and returns the outermost {...} block.
func extractJSON(raw string) string {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	if m := objectPattern.FindString(cleaned); m != "" {
		return m
	}
	return cleaned
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// CompleteJSON asks the model for a JSON object. If the reply does not parse it
// makes exactly one repair request before giving up.
func CompleteJSON(ctx context.Context, llm LLMService, systemPrompt, userPrompt string) (json.RawMessage, error) {
	resp, err := llm.Chat(ctx, chat.Prompt(systemPrompt, userPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to complete: %w", err)
	}

	candidate := extractJSON(resp.Message)
	if isObject(candidate) {
		return json.RawMessage(candidate), nil
	}

	repair, err := llm.Chat(ctx, chat.Prompt(repairSystemPrompt,
		"Repair this JSON and return only corrected JSON:\n\n"+resp.Message))
	if err != nil {
		return nil, fmt.Errorf("failed to repair JSON: %w", err)
	}

	repaired := extractJSON(repair.Message)
	if !isObject(repaired) {
		return nil, ErrMalformedJSON
	}
	return json.RawMessage(repaired), nil
}
