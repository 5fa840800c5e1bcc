package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goalcheck/goalcheck/internal/checklist"
)

// SaveChecklist inserts or replaces a checklist owned by owner. A missing id
// or creation time is filled in.
func (s *Store) SaveChecklist(ctx context.Context, owner string, c *checklist.Checklist) error {
	if c == nil {
		return errors.New("checklist required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.timestamp()
	}
	items, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO checklists (id, owner, goal, locale, items, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET goal = excluded.goal, locale = excluded.locale, items = excluded.items`,
		c.ID, owner, c.Goal, c.Locale, string(items), c.CreatedAt.UTC(),
	)
	return err
}

// GetChecklist loads a checklist by id. An empty owner matches any owner.
func (s *Store) GetChecklist(ctx context.Context, owner, id string) (*checklist.Checklist, error) {
	query := `SELECT id, goal, locale, items, created_at FROM checklists WHERE id=?`
	args := []interface{}{id}
	if owner != "" {
		query += ` AND owner=?`
		args = append(args, owner)
	}
	c, err := scanChecklist(s.queryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// ListChecklists returns the newest checklists first. An empty owner lists
// every owner.
func (s *Store) ListChecklists(ctx context.Context, owner string, limit int) ([]checklist.Checklist, error) {
	query := `SELECT id, goal, locale, items, created_at FROM checklists`
	var args []interface{}
	if owner != "" {
		query += ` WHERE owner=?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []checklist.Checklist
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteChecklist removes a checklist. It returns ErrNotFound when nothing
// matched.
func (s *Store) DeleteChecklist(ctx context.Context, owner, id string) error {
	query := `DELETE FROM checklists WHERE id=?`
	args := []interface{}{id}
	if owner != "" {
		query += ` AND owner=?`
		args = append(args, owner)
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChecklist(row scanner) (*checklist.Checklist, error) {
	var (
		c     checklist.Checklist
		items string
	)
	if err := row.Scan(&c.ID, &c.Goal, &c.Locale, &items, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &c.Items); err != nil {
		return nil, fmt.Errorf("decode checklist %s items: %w", c.ID, err)
	}
	return &c, nil
}
