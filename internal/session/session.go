package session

import "encoding/json"

// SendBuffer is the number of outbound messages queued per client.
const SendBuffer = 64

// Message is the JSON envelope for every event on the wire.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps payload in an envelope.
func Encode(event string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: event, Payload: p})
}

// Client is one live connection.
type Client struct {
	ID   string
	Send chan []byte // outbound messages
}

// trySend queues msg without blocking. It reports false when the buffer is full.
func (c *Client) trySend(msg []byte) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}
