package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleSystem.IsValid())
	assert.True(t, RoleAssistant.IsValid())
	assert.False(t, Role("bot").IsValid())
}

func TestFormatTranscript(t *testing.T) {
	turns := []ConversationTurn{
		{Role: RoleUser, Content: "what is a feline?"},
		{Role: RoleSystem, Content: "cats are mammals"},
		{Role: RoleAssistant, Content: "A cat."},
	}

	assert.Equal(t, "You: what is a feline?\nAssistant: A cat.", FormatTranscript(turns))
}

func TestFormatTranscript_Empty(t *testing.T) {
	assert.Equal(t, "", FormatTranscript(nil))
}
