package model

// ChatMessage is one turn of a conversation with the language model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall is a function invocation requested by the language model.
// Arguments is the raw JSON argument object.
type ToolCall struct {
	Name      string
	Arguments string
}

// ChatCompletion is the first choice of a chat completion. Exactly one of
// ToolCalls or Content is normally populated.
type ChatCompletion struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolDefinition describes a function the language model may call.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatReply is the answer rendered to the chat client.
type ChatReply struct {
	Message string
	Type    ReplyType
	Data    map[string]any
}
