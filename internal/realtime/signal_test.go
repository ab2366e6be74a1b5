package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalEncodeCarriesNoPayload(t *testing.T) {
	data, err := Signal{Type: SignalMessageCreated, ChatID: "c1"}.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	// the wire shape is exactly type + chat id: receivers re-fetch state
	assert.Equal(t, map[string]any{
		"type":    "message-created",
		"chat_id": "c1",
	}, decoded)
}

func TestScopes(t *testing.T) {
	assert.Equal(t, "chat:c1", ScopeChat("c1"))
	assert.Equal(t, "board:c1", ScopeBoard("c1"))
	assert.Equal(t, "chats", ScopeChatList)
}
