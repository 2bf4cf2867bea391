package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a client-supplied user or chat identity. Clients send strings, but
// numeric ids are accepted too and keep their literal text ("42").
// Falsy values (null, "", 0) decode to the empty ID.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("relay: empty id")
	}
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("relay: bad numeric id %s: %w", b, err)
		}
		if f == 0 {
			*id = ""
		} else {
			*id = ID(b)
		}
	default:
		return fmt.Errorf("relay: id must be a string or number, got %s", b)
	}
	return nil
}
