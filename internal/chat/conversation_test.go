package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationIDSymmetric(t *testing.T) {
	assert.Equal(t, ConversationID("u1", "u2"), ConversationID("u2", "u1"))
	assert.Equal(t, "u1_u2", ConversationID("u2", "u1"))
}

func TestConversationIDSorts(t *testing.T) {
	assert.Equal(t, "alpha_zulu", ConversationID("zulu", "alpha"))
}

func TestConversationIDDropsEmpty(t *testing.T) {
	assert.Equal(t, "u1", ConversationID("u1", ""))
	assert.Equal(t, "u1", ConversationID("", "u1"))
	assert.Equal(t, "", ConversationID("", ""))
}

func TestConversationIDDistinctPairs(t *testing.T) {
	assert.NotEqual(t, ConversationID("a", "b"), ConversationID("a", "c"))
}
