package server

import (
	"encoding/json"
	"time"
)

// MessageType represents a WebSocket message type
type MessageType string

const (
	// Client to server
	MessageTypeCommand     MessageType = "command"
	MessageTypeGetReplays  MessageType = "get_replays"
	MessageTypeAcceptTerms MessageType = "accept_terms"

	// Server to client
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeReplays  MessageType = "replays"
	MessageTypeRejected MessageType = "rejected"
	MessageTypeError    MessageType = "error"
	MessageTypeTerms    MessageType = "terms"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// CommandData carries a table command. Action is only read by
// playerAction.
type CommandData struct {
	Command string `json:"command"`
	Action  string `json:"action,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RejectedData reports a command whose preconditions did not hold
type RejectedData struct {
	Command string `json:"command"`
	Phase   string `json:"phase"`
}

type TermsData struct {
	Accepted bool `json:"accepted"`
}
