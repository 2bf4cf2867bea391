package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ID
		wantErr bool
	}{
		{name: "string", raw: `"u1"`, want: "u1"},
		{name: "empty string", raw: `""`, want: ""},
		{name: "integer", raw: `42`, want: "42"},
		{name: "negative", raw: `-7`, want: "-7"},
		{name: "zero is falsy", raw: `0`, want: ""},
		{name: "null", raw: `null`, want: ""},
		{name: "bool", raw: `true`, wantErr: true},
		{name: "object", raw: `{"id":"u1"}`, wantErr: true},
		{name: "array", raw: `["u1"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ID("sentinel")
			err := json.Unmarshal([]byte(tt.raw), &id)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestTypingSignalNumericIDs(t *testing.T) {
	var sig TypingSignal
	require.NoError(t, json.Unmarshal([]byte(`{"userId":17,"chatId":"room1"}`), &sig))
	assert.Equal(t, TypingSignal{UserID: "17", ChatID: "room1"}, sig)
}
