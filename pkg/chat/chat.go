package chat

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant"
	ChatRoleSystem = "system"
)

// ChatMessage represents a single message sent to or received from a text model.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is the text a model returned for one request.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
	Model   string `json:"model,omitempty"`
}

// Prompt builds the usual system + user message pair. An empty system prompt is omitted.
func Prompt(system, user string) []ChatMessage {
	var msgs []ChatMessage
	if system != "" {
		msgs = append(msgs, ChatMessage{Role: ChatRoleSystem, Content: system})
	}
	return append(msgs, ChatMessage{Role: ChatRoleUser, Content: user})
}
