package domain

import "strings"

// Role tags the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleSystem, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// ConversationTurn is one message of a session history.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// FormatTranscript renders user and assistant turns as "You:" and
// "Assistant:" lines. System turns are omitted.
func FormatTranscript(turns []ConversationTurn) string {
	var b strings.Builder
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			b.WriteString("You: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
