package broadcast

import (
	"encoding/json"
	"errors"
)

// ErrDropped is returned when the rate limiter rejects a message.
var ErrDropped = errors.New("broadcast: message dropped by rate limiter")

// ErrClosed is returned by SendMessage after Close.
var ErrClosed = errors.New("broadcast: channel closed")

// Message is one broadcast unit.
type Message struct {
	// ID is assigned by the channel when empty.
	ID string `json:"id"`

	// File is the baseline (or stylesheet) the content belongs to.
	File string `json:"file"`

	// Content is the full group content, or a Styles value.
	Content any `json:"content"`
}

// Styles is the content of a stylesheet message.
type Styles struct {
	Styles string `json:"styles"`
}

// Received is a message as decoded by a Receiver. Content is left raw so
// key order of the sender is preserved.
type Received struct {
	ID      string          `json:"id"`
	File    string          `json:"file"`
	Content json.RawMessage `json:"content"`
}

// Channel delivers messages to a live viewer.
type Channel interface {
	SendMessage(msg Message) error
}
