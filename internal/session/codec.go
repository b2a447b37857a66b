package session

import (
	"encoding/json"
	"fmt"
)

func encode(s *Session) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return b, nil
}

func decode(b []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// clone deep-copies s through its wire form, which is exactly what the redis
// store keeps.
func clone(s *Session) (*Session, error) {
	b, err := encode(s)
	if err != nil {
		return nil, err
	}
	return decode(b)
}
