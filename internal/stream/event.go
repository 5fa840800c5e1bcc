// Package stream consumes newline-framed `data:` event streams and folds the
// events into an ordered, de-duplicated collection of records.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status tags a stream event.
type Status string

const (
	StatusStarted       Status = "started"
	StatusGenerating    Status = "generating"
	StatusItemReady     Status = "item_ready"
	StatusQuestionReady Status = "question_ready"
	StatusItemEnhanced  Status = "item_enhanced"
	StatusCompleted     Status = "completed"
	StatusError         Status = "error"
)

// Terminal reports whether the status ends a stream.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// DoneToken is the payload that ends a stream without a JSON event.
const DoneToken = "[DONE]"

// Event is one parsed `data:` line. Record payloads stay raw until a Domain
// decodes them.
type Event struct {
	Status      Status            `json:"status"`
	StreamID    string            `json:"streamId,omitempty"`
	Item        json.RawMessage   `json:"item,omitempty"`
	Question    json.RawMessage   `json:"question,omitempty"`
	Items       []json.RawMessage `json:"items,omitempty"`
	Chunk       string            `json:"chunk,omitempty"`
	Message     string            `json:"message,omitempty"`
	Progress    int               `json:"progress,omitempty"`
	Total       int               `json:"total,omitempty"`
	ChecklistID string            `json:"checklistId,omitempty"`
}

// Encode renders the event as a single framed line, newline included.
func (e Event) Encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Status, err)
	}
	line := make([]byte, 0, len(payload)+8)
	line = append(line, "data: "...)
	line = append(line, payload...)
	line = append(line, '\n')
	return line, nil
}

// EncodeDone renders the terminating `[DONE]` line.
func EncodeDone() []byte {
	return []byte("data: " + DoneToken + "\n")
}

// ErrTruncated is reported when the body ends before a terminal event.
var ErrTruncated = errors.New("stream ended before a terminal event")

// EventError carries the message of a terminal `error` event.
type EventError struct {
	Message string
}

func (e *EventError) Error() string {
	if e.Message == "" {
		return "stream reported an error"
	}
	return e.Message
}
