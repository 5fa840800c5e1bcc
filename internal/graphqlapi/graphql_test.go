package graphqlapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/store"
)

type fakeStore struct {
	lists map[string][]checklist.Checklist
	users map[string]*store.User
}

func (f *fakeStore) GetChecklist(_ context.Context, owner, id string) (*checklist.Checklist, error) {
	for _, c := range f.lists[owner] {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListChecklists(_ context.Context, owner string, limit int) ([]checklist.Checklist, error) {
	lists := f.lists[owner]
	if limit > 0 && len(lists) > limit {
		lists = lists[:limit]
	}
	return lists, nil
}

func (f *fakeStore) GetUser(_ context.Context, email string) (*store.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func newFake() *fakeStore {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeStore{
		lists: map[string][]checklist.Checklist{
			"ana@example.com": {
				{ID: "c2", Goal: "learn to sail", Locale: "de-AT", CreatedAt: created, Items: []checklist.Item{
					{ID: "i1", Title: "Find a club", Order: 1, Enrichment: &checklist.Enrichment{
						Tips:  []string{"Ask about trial days"},
						Price: &checklist.Price{Amount: 75, Currency: "EUR"},
					}},
				}},
				{ID: "c1", Goal: "run a marathon", CreatedAt: created.Add(-time.Hour)},
			},
			"bob@example.com": {{ID: "b1", Goal: "bake bread", CreatedAt: created}},
		},
		users: map[string]*store.User{
			"ana@example.com": {Email: "ana@example.com", Plan: "premium", Credits: 4},
		},
	}
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func query(t *testing.T, h http.Handler, owner, q string) gqlResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(EncodeGraphQLQuery(q)))
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req = req.WithContext(WithOwner(req.Context(), owner))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var resp gqlResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, w.Body.String())
	}
	return resp
}

func TestChecklistQueriesAreScopedToOwner(t *testing.T) {
	t.Parallel()

	h, err := NewHandler(Config{Store: newFake()})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	resp := query(t, h, "ana@example.com", `{ checklists(limit: 5) { id goal } me { email plan credits } }`)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors %+v", resp.Errors)
	}
	var lists []struct {
		ID   string `json:"id"`
		Goal string `json:"goal"`
	}
	if err := json.Unmarshal(resp.Data["checklists"], &lists); err != nil {
		t.Fatalf("decode checklists: %v", err)
	}
	want := []struct {
		ID   string `json:"id"`
		Goal string `json:"goal"`
	}{{"c2", "learn to sail"}, {"c1", "run a marathon"}}
	if diff := cmp.Diff(want, lists); diff != "" {
		t.Fatalf("checklists mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(resp.Data["me"]), `"premium"`) {
		t.Fatalf("unexpected me %s", resp.Data["me"])
	}

	resp = query(t, h, "bob@example.com", `{ checklist(id: "c2") { id } }`)
	if string(resp.Data["checklist"]) != "null" {
		t.Fatalf("foreign checklist leaked: %s", resp.Data["checklist"])
	}
}

func TestChecklistEnrichmentFields(t *testing.T) {
	t.Parallel()

	h, err := NewHandler(Config{Store: newFake()})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	resp := query(t, h, "ana@example.com", `{ checklist(id: "c2") { locale createdAt items { title tips price { amount currency } } } }`)
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors %+v", resp.Errors)
	}
	got := string(resp.Data["checklist"])
	for _, want := range []string{`"de-AT"`, `"2026-03-01T12:00:00Z"`, `"Ask about trial days"`, `"EUR"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("checklist missing %s: %s", want, got)
		}
	}
}

func TestQueriesRequireOwner(t *testing.T) {
	t.Parallel()

	h, err := NewHandler(Config{Store: newFake()})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	resp := query(t, h, "", `{ checklists { id } }`)
	if len(resp.Errors) == 0 || resp.Errors[0].Message != "unauthorized" {
		t.Fatalf("expected unauthorized error, got %+v", resp.Errors)
	}
}
