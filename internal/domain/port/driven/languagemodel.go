package driven

import (
	"context"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// LanguageModel defines the driven port for the hosted chat model.
type LanguageModel interface {
	// Complete sends a single user prompt without tools and returns the
	// reply text.
	Complete(ctx context.Context, prompt string) (string, error)

	// ChatWithTools sends a conversation plus tool definitions and returns
	// the first choice. The adapter prepends its own system prompt.
	ChatWithTools(ctx context.Context, messages []model.ChatMessage, tools []model.ToolDefinition) (*model.ChatCompletion, error)
}
