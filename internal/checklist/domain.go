package checklist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goalcheck/goalcheck/internal/stream"
)

var errMissingID = errors.New("record has no id")

// QuestionDomain plugs questions into the stream consumer. Questions are
// immutable once received, so a repeated id keeps the first copy.
type QuestionDomain struct{}

func (QuestionDomain) Ready() stream.Status { return stream.StatusQuestionReady }

func (d QuestionDomain) Decode(ev stream.Event) (Question, error) {
	raw := ev.Question
	if len(raw) == 0 {
		raw = ev.Item
	}
	return d.DecodeRecord(raw)
}

func (QuestionDomain) DecodeRecord(raw []byte) (Question, error) {
	var q Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return Question{}, fmt.Errorf("decode question: %w", err)
	}
	if q.ID == "" {
		return Question{}, errMissingID
	}
	if q.Type == "" {
		q.Type = QuestionText
	}
	return q, nil
}

// DecodeEnhancement always fails; questions are never enriched.
func (QuestionDomain) DecodeEnhancement(stream.Event) (string, Question, error) {
	return "", Question{}, errors.New("questions do not accept enhancements")
}

func (QuestionDomain) ID(q Question) string        { return q.ID }
func (QuestionDomain) Order(q Question) int        { return q.Order }
func (QuestionDomain) Replace() bool               { return false }
func (QuestionDomain) Merge(q, _ Question) Question { return q }

// ItemDomain plugs checklist items into the stream consumer. A repeated id
// replaces the stored item and enrichment is merged by id.
type ItemDomain struct{}

func (ItemDomain) Ready() stream.Status { return stream.StatusItemReady }

func (d ItemDomain) Decode(ev stream.Event) (Item, error) {
	return d.DecodeRecord(ev.Item)
}

func (ItemDomain) DecodeRecord(raw []byte) (Item, error) {
	var it Item
	if err := json.Unmarshal(raw, &it); err != nil {
		return Item{}, fmt.Errorf("decode item: %w", err)
	}
	if it.ID == "" {
		return Item{}, errMissingID
	}
	return it, nil
}

// DecodeEnhancement accepts either an item carrying an `enrichment` object or
// an item whose tips, links and price sit next to item_id.
func (ItemDomain) DecodeEnhancement(ev stream.Event) (string, Item, error) {
	var payload struct {
		ID     string      `json:"item_id"`
		Nested *Enrichment `json:"enrichment"`
		Tips   []string    `json:"tips"`
		Links  []Link      `json:"links"`
		Price  *Price      `json:"price"`
	}
	if err := json.Unmarshal(ev.Item, &payload); err != nil {
		return "", Item{}, fmt.Errorf("decode enhancement: %w", err)
	}
	if payload.ID == "" {
		return "", Item{}, errMissingID
	}
	patch := Enrichment{Tips: payload.Tips, Links: payload.Links, Price: payload.Price}
	if payload.Nested != nil {
		patch = *payload.Nested
	}
	return payload.ID, Item{ID: payload.ID, Enrichment: &patch}, nil
}

func (ItemDomain) ID(it Item) string { return it.ID }
func (ItemDomain) Order(it Item) int { return it.Order }
func (ItemDomain) Replace() bool     { return true }

// Merge applies the patch's enrichment to it.
func (ItemDomain) Merge(it, patch Item) Item {
	if patch.Enrichment == nil {
		return it
	}
	return Merge(it, *patch.Enrichment)
}

// Merge returns a copy of it with the non-empty fields of e applied. Position
// fields are never touched.
func Merge(it Item, e Enrichment) Item {
	var merged Enrichment
	if it.Enrichment != nil {
		merged = *it.Enrichment
	}
	if len(e.Tips) > 0 {
		merged.Tips = append([]string(nil), e.Tips...)
	}
	if len(e.Links) > 0 {
		merged.Links = append([]Link(nil), e.Links...)
	}
	if e.Price != nil {
		p := *e.Price
		merged.Price = &p
	}
	if merged.Empty() {
		it.Enrichment = nil
		return it
	}
	it.Enrichment = &merged
	return it
}
