package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/goalcheck/goalcheck/internal/checklist"
)

// StreamQuestions opens the clarifying questions stream.
func (c *Client) StreamQuestions(ctx context.Context, req checklist.QuestionsRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, "/questions/stream", c.withLocale(req))
}

// Questions fetches all clarifying questions in one response.
func (c *Client) Questions(ctx context.Context, req checklist.QuestionsRequest) ([]checklist.Question, error) {
	var resp checklist.QuestionsResponse
	if err := c.postJSON(ctx, "/questions", c.withLocale(req), &resp, true); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// StreamChecklist opens the checklist generation stream.
func (c *Client) StreamChecklist(ctx context.Context, req checklist.ChecklistRequest) (io.ReadCloser, error) {
	if req.Locale == "" {
		req.Locale = c.Locale().String()
	}
	return c.openStream(ctx, "/checklists/stream", req)
}

// Checklist generates a checklist in one response.
func (c *Client) Checklist(ctx context.Context, req checklist.ChecklistRequest) (*checklist.Checklist, error) {
	if req.Locale == "" {
		req.Locale = c.Locale().String()
	}
	var resp checklist.ChecklistResponse
	if err := c.postJSON(ctx, "/checklists", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp.Checklist, nil
}

// SavedChecklists lists the user's saved checklists, newest first.
func (c *Client) SavedChecklists(ctx context.Context, limit int) ([]checklist.Checklist, error) {
	path := "/checklists"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp struct {
		Checklists []checklist.Checklist `json:"checklists"`
	}
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Checklists, nil
}

// SavedChecklist loads one saved checklist.
func (c *Client) SavedChecklist(ctx context.Context, id string) (*checklist.Checklist, error) {
	var resp checklist.ChecklistResponse
	if err := c.getJSON(ctx, "/checklists/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Checklist, nil
}

// DeleteSavedChecklist removes a saved checklist.
func (c *Client) DeleteSavedChecklist(ctx context.Context, id string) error {
	return c.deleteJSON(ctx, "/checklists/"+url.PathEscape(id))
}

func (c *Client) withLocale(req checklist.QuestionsRequest) checklist.QuestionsRequest {
	if req.Locale == "" {
		req.Locale = c.Locale().String()
	}
	return req
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
