package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	b, err := Encode(EventUserTyping, Typing{UserID: "u1", IsTyping: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"user-typing","data":{"userId":"u1","isTyping":true}}`, string(b))
}

func TestEncodeNewMessageKeepsPayload(t *testing.T) {
	raw := json.RawMessage(`{"chatId":"room1","content":"hi","userId":"u1","extra":[1,2]}`)
	b, err := Encode(EventNewMessage, NewMessage{ChatID: "room1", Message: raw})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"event":"new-message","data":{"chatId":"room1","message":{"chatId":"room1","content":"hi","userId":"u1","extra":[1,2]}}}`,
		string(b))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		event   string
		data    string
		wantErr bool
	}{
		{name: "string payload", raw: `{"event":"join-chat","data":"room1"}`, event: "join-chat", data: `"room1"`},
		{name: "object payload", raw: `{"event":"typing-start","data":{"userId":"u1","chatId":"r"}}`, event: "typing-start", data: `{"userId":"u1","chatId":"r"}`},
		{name: "no payload", raw: `{"event":"leave-chat"}`, event: "leave-chat"},
		{name: "missing event", raw: `{"data":"x"}`, wantErr: true},
		{name: "not json", raw: `hello`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.event, f.Event)
			if tt.data != "" {
				assert.JSONEq(t, tt.data, string(f.Data))
			} else {
				assert.Empty(t, f.Data)
			}
		})
	}
}
