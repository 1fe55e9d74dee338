package model

import "encoding/json"

// FrameType discriminates the JSON frames exchanged on a client connection.
type FrameType string

const (
	// Client to server.
	FrameConnect     FrameType = "connect"
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"

	// Server to client.
	FrameConnected FrameType = "connected"
	FrameMessage   FrameType = "message"
)

// Frame is one protocol frame on a client connection.
//
// A connect frame carries optional credential headers; a subscribe or
// unsubscribe frame carries a destination. Message frames flow only from
// server to client and carry the original broker payload unmodified.
type Frame struct {
	Type        FrameType         `json:"type"`
	Headers     map[string]string `json:"headers,omitempty"`
	Destination string            `json:"destination,omitempty"`
	Session     string            `json:"session,omitempty"`
	Principal   string            `json:"principal,omitempty"`
	Payload     json.RawMessage   `json:"payload,omitempty"`
}

// Header performs a case-sensitive lookup; connect-frame credential headers
// have their accepted spellings enumerated by the auth stage, not here.
func (f *Frame) Header(name string) (string, bool) {
	v, ok := f.Headers[name]
	return v, ok
}
