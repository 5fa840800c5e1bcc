package stream

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed event.schema.json
var eventSchemaJSON []byte

// LineKind classifies a raw line.
type LineKind int

const (
	// LineSkip is an empty line, SSE comment or SSE framing field.
	LineSkip LineKind = iota
	// LineEvent carries a schema-conforming JSON event.
	LineEvent
	// LineDone is the `[DONE]` terminator.
	LineDone
	// LineRaw is anything else, surfaced as a generating chunk.
	LineRaw
)

// Parser validates `data:` payloads against the StreamEvent schema.
type Parser struct {
	schema *gojsonschema.Schema
}

// NewParser compiles the embedded StreamEvent schema.
func NewParser() (*Parser, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(eventSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile stream event schema: %w", err)
	}
	return &Parser{schema: schema}, nil
}

var (
	defaultParserOnce sync.Once
	defaultParser     *Parser
	defaultParserErr  error
)

// DefaultParser returns a shared parser compiled on first use.
func DefaultParser() (*Parser, error) {
	defaultParserOnce.Do(func() {
		defaultParser, defaultParserErr = NewParser()
	})
	return defaultParser, defaultParserErr
}

// ParseLine classifies one line. Raw lines come back as a generating event
// whose Chunk holds the text.
func (p *Parser) ParseLine(line string) (Event, LineKind) {
	if strings.TrimSpace(line) == "" {
		return Event{}, LineSkip
	}
	if strings.HasPrefix(line, ":") || isFramingField(line) {
		return Event{}, LineSkip
	}
	payload, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return rawEvent(line), LineRaw
	}
	payload = strings.TrimPrefix(payload, " ")
	trimmed := strings.TrimSpace(payload)
	if trimmed == DoneToken {
		return Event{}, LineDone
	}
	if !strings.HasPrefix(trimmed, "{") {
		return rawEvent(payload), LineRaw
	}
	if err := p.Validate([]byte(trimmed)); err != nil {
		return rawEvent(payload), LineRaw
	}
	var ev Event
	if err := json.Unmarshal([]byte(trimmed), &ev); err != nil {
		return rawEvent(payload), LineRaw
	}
	return ev, LineEvent
}

// Validate checks a JSON payload against the StreamEvent schema.
func (p *Parser) Validate(payload []byte) error {
	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("stream event: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("stream event: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func rawEvent(text string) Event {
	return Event{Status: StatusGenerating, Chunk: text}
}

// isFramingField reports SSE fields other than data. They carry no payload
// and are dropped rather than shown as chunks.
func isFramingField(line string) bool {
	for _, field := range []string{"event:", "id:", "retry:"} {
		if strings.HasPrefix(line, field) {
			return true
		}
	}
	return false
}
