package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/graphqlapi"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/store"
	"github.com/goalcheck/goalcheck/internal/stream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	t      *testing.T
	store  *store.Store
	engine *gin.Engine
}

func newTestEnv(t *testing.T, mutate func(*Options)) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "gc.db"), store.DriverSQLite)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	gql, err := graphqlapi.NewHandler(graphqlapi.Config{Store: st})
	if err != nil {
		t.Fatalf("graphqlapi.NewHandler: %v", err)
	}
	opts := Options{
		Store:          st,
		Logger:         logutil.Discard(),
		GraphQLHandler: gql,
		InitialCredits: 3,
		BcryptCost:     bcrypt.MinCost,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return &testEnv{t: t, store: st, engine: NewServer(opts).Engine()}
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(email string) tokenPair {
	e.t.Helper()
	w := e.do(http.MethodPost, "/auth/register", "", credentials{Email: email, Password: "correct horse", Name: "Ann"})
	if w.Code != http.StatusCreated {
		e.t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	var resp authResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		e.t.Fatalf("decode register: %v", err)
	}
	return resp.tokenPair
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestAuthLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	pair := env.register("Ann@Example.com")
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", pair)
	}

	if w := env.do(http.MethodPost, "/auth/register", "", credentials{Email: "ann@example.com", Password: "another one"}); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/auth/register", "", credentials{Email: "bob@example.com", Password: "short"}); w.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/auth/login", "", credentials{Email: "ann@example.com", Password: "wrong password"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}
	w := env.do(http.MethodPost, "/auth/login", "", credentials{Email: "ANN@example.com", Password: "correct horse"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/auth/me", pair.AccessToken, nil)
	var user store.User
	decode(t, w, &user)
	if user.Email != "ann@example.com" || user.Credits != 3 || user.Plan != store.PlanFree {
		t.Fatalf("unexpected me %+v", user)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}

	w = env.do(http.MethodPost, "/auth/refresh", "", refreshBody{RefreshToken: pair.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", w.Code)
	}
	var rotated tokenPair
	decode(t, w, &rotated)
	if w := env.do(http.MethodPost, "/auth/refresh", "", refreshBody{RefreshToken: pair.RefreshToken}); w.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: expected 401, got %d", w.Code)
	}

	if w := env.do(http.MethodPost, "/auth/logout", rotated.AccessToken, refreshBody{RefreshToken: rotated.RefreshToken}); w.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/auth/me", rotated.AccessToken, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked access token: expected 401, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	for _, path := range []string{"/auth/me", "/checklists"} {
		w := env.do(http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
		var body map[string]string
		decode(t, w, &body)
		if body["error"] == "" {
			t.Fatalf("%s: missing error message", path)
		}
	}
	if w := env.do(http.MethodGet, "/auth/me", "made-up", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token: expected 401, got %d", w.Code)
	}
}

func TestQuestionsStreamIsConsumable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	pair := env.register("q@example.com")
	w := env.do(http.MethodPost, "/questions/stream", pair.AccessToken, checklist.QuestionsRequest{Goal: "learn to swim", Locale: "es"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasSuffix(w.Body.String(), "data: [DONE]\n") {
		t.Fatalf("stream should end with [DONE]: %q", w.Body.String())
	}

	res, err := stream.NewConsumer[checklist.Question](checklist.QuestionDomain{}).Consume(context.Background(), w.Body, stream.Callbacks[checklist.Question]{})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(res.Items) != 4 || res.Items[0].ID != "timeline" || res.Items[0].Text != "¿Cuándo quieres alcanzar esta meta?" {
		t.Fatalf("unexpected questions %+v", res.Items)
	}
}

func TestChecklistStreamSavesAndChargesCredit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	pair := env.register("c@example.com")
	req := checklist.ChecklistRequest{Goal: "move to Berlin", Locale: "de-DE", Save: true, Answers: checklist.Answers{"budget": {"Hoch"}, "timeline": {"Keine Eile"}}}
	w := env.do(http.MethodPost, "/checklists/stream", pair.AccessToken, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var chunks int
	res, err := stream.NewConsumer[checklist.Item](checklist.ItemDomain{}).Consume(context.Background(), w.Body, stream.Callbacks[checklist.Item]{
		OnChunk: func(string) { chunks++ },
	})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if chunks != 2 || res.ChecklistID == "" || len(res.Orphaned) != 0 {
		t.Fatalf("unexpected result chunks=%d %+v", chunks, res)
	}
	for i, it := range res.Items {
		if it.Order != i+1 {
			t.Fatalf("items not ordered: %+v", res.Items)
		}
		if it.Enrichment == nil || len(it.Enrichment.Tips) == 0 {
			t.Fatalf("item %s not enriched", it.ID)
		}
	}
	if price := res.Items[2].Enrichment.Price; price == nil || price.Currency != "EUR" {
		t.Fatalf("expected EUR price on budget step, got %+v", price)
	}

	user, err := env.store.GetUser(context.Background(), "c@example.com")
	if err != nil || user.Credits != 2 {
		t.Fatalf("expected 2 credits left, got %+v %v", user, err)
	}

	w = env.do(http.MethodGet, "/checklists/"+res.ChecklistID, pair.AccessToken, nil)
	var saved checklist.ChecklistResponse
	decode(t, w, &saved)
	if saved.Checklist.Goal != "move to Berlin" || saved.Checklist.Locale != "de-DE" || len(saved.Checklist.Items) != len(res.Items) {
		t.Fatalf("unexpected saved checklist %+v", saved.Checklist)
	}
	if saved.Checklist.Items[0].Enrichment == nil {
		t.Fatal("saved checklist lost enrichment")
	}

	w = env.do(http.MethodGet, "/checklists?limit=5", pair.AccessToken, nil)
	var list struct {
		Checklists []checklist.Checklist `json:"checklists"`
	}
	decode(t, w, &list)
	if len(list.Checklists) != 1 {
		t.Fatalf("expected 1 saved checklist, got %d", len(list.Checklists))
	}

	if w := env.do(http.MethodDelete, "/checklists/"+res.ChecklistID, pair.AccessToken, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := env.do(http.MethodGet, "/checklists/"+res.ChecklistID, pair.AccessToken, nil); w.Code != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", w.Code)
	}
}

func TestChecklistRejectsWhenCreditsRunOut(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(o *Options) { o.InitialCredits = 1 })
	pair := env.register("poor@example.com")
	req := checklist.ChecklistRequest{Goal: "save money"}
	w := env.do(http.MethodPost, "/checklists", pair.AccessToken, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first generation: expected 200, got %d", w.Code)
	}
	var resp checklist.ChecklistResponse
	decode(t, w, &resp)
	if len(resp.Checklist.Items) == 0 || resp.Checklist.Items[0].Enrichment == nil {
		t.Fatalf("non-streaming checklist should be complete: %+v", resp.Checklist)
	}

	for _, path := range []string{"/checklists", "/checklists/stream"} {
		w = env.do(http.MethodPost, path, pair.AccessToken, req)
		if w.Code != http.StatusPaymentRequired {
			t.Fatalf("%s: expected 402, got %d", path, w.Code)
		}
	}
}

func TestChecklistValidatesAnswers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	pair := env.register("v@example.com")
	w := env.do(http.MethodPost, "/checklists/stream", pair.AccessToken, checklist.ChecklistRequest{
		Goal:    "paint the house",
		Answers: checklist.Answers{"budget": {"Enormous"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body struct {
		Problems []string `json:"problems"`
	}
	decode(t, w, &body)
	if len(body.Problems) == 0 {
		t.Fatalf("expected problems, got %s", w.Body.String())
	}
	if w := env.do(http.MethodPost, "/questions", pair.AccessToken, checklist.QuestionsRequest{Goal: "   "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank goal: expected 400, got %d", w.Code)
	}
}

func TestGraphQLListsOwnChecklists(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	ann := env.register("ann@example.com")
	bob := env.register("bob@example.com")
	if w := env.do(http.MethodPost, "/checklists", ann.AccessToken, checklist.ChecklistRequest{Goal: "bake bread", Save: true}); w.Code != http.StatusOK {
		t.Fatalf("generate: %d", w.Code)
	}

	query := `{"query":"{ me { email credits } checklists { goal items { id price { currency } } } }"}`
	for _, tc := range []struct {
		token string
		want  int
	}{{ann.AccessToken, 1}, {bob.AccessToken, 0}} {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(query))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tc.token)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)

		var resp struct {
			Data struct {
				Me         struct{ Email string }
				Checklists []struct{ Goal string }
			}
			Errors []interface{}
		}
		decode(t, w, &resp)
		if len(resp.Errors) != 0 || len(resp.Data.Checklists) != tc.want {
			t.Fatalf("unexpected graphql response %s", w.Body.String())
		}
	}
}

func TestHealthAndOpenAPI(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"sqlite"`) {
		t.Fatalf("healthz: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
	w = env.do(http.MethodGet, "/openapi", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"/checklists/stream"`) {
		t.Fatalf("openapi: %d", w.Code)
	}
	w = env.do(http.MethodGet, "/openapi?format=yaml", "", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/yaml" || !strings.Contains(w.Body.String(), "openapi: 3.0.3") {
		t.Fatalf("openapi yaml: %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	w = env.do(http.MethodGet, "/openapi?format=xml", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("openapi xml: %d", w.Code)
	}
}
