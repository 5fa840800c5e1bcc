// Package checklist holds the goal, question and checklist item model shared
// by the client, the terminal front end and the development backend.
package checklist

import (
	"time"
)

// QuestionType enumerates how a question is answered.
type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionText     QuestionType = "text"
)

// Valid reports whether the type is one of the known kinds.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingle, QuestionMultiple, QuestionText:
		return true
	}
	return false
}

// Question is a clarifying question asked before a checklist is generated.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required"`
	Order    int          `json:"order,omitempty"`
}

// Link is a reference attached to an item.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Price is an estimated cost attached to an item.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Enrichment carries the fields that may arrive after the item itself.
type Enrichment struct {
	Tips  []string `json:"tips,omitempty"`
	Links []Link   `json:"links,omitempty"`
	Price *Price   `json:"price,omitempty"`
}

// Empty reports whether no enrichment field is set.
func (e Enrichment) Empty() bool {
	return len(e.Tips) == 0 && len(e.Links) == 0 && e.Price == nil
}

// Item is one checklist entry.
type Item struct {
	ID          string      `json:"item_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Order       int         `json:"order"`
	Enrichment  *Enrichment `json:"enrichment,omitempty"`
}

// Checklist is a generated and possibly saved checklist.
type Checklist struct {
	ID        string    `json:"id"`
	Goal      string    `json:"goal"`
	Locale    string    `json:"locale,omitempty"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// Answers maps a question id to the selected or typed values.
type Answers map[string][]string

// QuestionsRequest asks the backend for clarifying questions.
type QuestionsRequest struct {
	Goal   string `json:"goal"`
	Locale string `json:"locale,omitempty"`
}

// ChecklistRequest asks the backend to generate a checklist.
type ChecklistRequest struct {
	Goal    string  `json:"goal"`
	Answers Answers `json:"answers,omitempty"`
	Locale  string  `json:"locale,omitempty"`
	Save    bool    `json:"save"`
}

// QuestionsResponse is the non-streaming questions payload.
type QuestionsResponse struct {
	Questions []Question `json:"questions"`
}

// ChecklistResponse is the non-streaming checklist payload.
type ChecklistResponse struct {
	Checklist Checklist `json:"checklist"`
}
