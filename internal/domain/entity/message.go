package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message is the closed set of conversation entries exchanged with an
// LLM backend. Exactly three variants exist: TextMessage,
// ToolInvocationMessage and ToolResultMessage. Sequences are ordered
// dialogue history and are never mutated after construction.
type Message interface {
	isMessage()
}

type TextMessage struct {
	Role MessageRole
	Text string
}

// ToolInvocationMessage is the model asking for a tool to be run.
type ToolInvocationMessage struct {
	Role       MessageRole
	ToolCallID string
	Name       string
	Arguments  map[string]any
}

// ToolResultMessage carries the output of a previously requested tool
// call. ToolCallID must match an earlier ToolInvocationMessage in the
// same sequence; that invariant is owned by the caller.
type ToolResultMessage struct {
	ToolCallID string
	Content    string
}

func (TextMessage) isMessage()           {}
func (ToolInvocationMessage) isMessage() {}
func (ToolResultMessage) isMessage()     {}
