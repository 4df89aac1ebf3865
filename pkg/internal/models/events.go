package models

import (
	"gorm.io/datatypes"
)

const (
	EventMessageNew = "messages.new"
	EventCallStart  = "calls.start"
	EventCallEnd    = "calls.end"
)

type Event struct {
	BaseModel

	Uuid string            `json:"uuid"`
	Body datatypes.JSONMap `json:"body"`
	Type string            `json:"type"`

	ThreadID uint   `json:"thread_id"`
	Thread   Thread `json:"thread"`

	SenderID   uint         `json:"sender_id"`
	SenderType ProviderType `json:"sender_type"`
}

type EventMessageBody struct {
	Text         string `json:"text,omitempty"`
	Algorithm    string `json:"algorithm,omitempty"`
	QuoteEventID *uint  `json:"quote_event,omitempty"`
}

// Text pulls the message text out of an event body for trigger matching.
func (v Event) Text() string {
	if val, ok := v.Body["text"].(string); ok {
		return val
	}
	return ""
}
