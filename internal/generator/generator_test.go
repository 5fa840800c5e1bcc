package generator

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/locale"
)

func TestItemsAreDeterministic(t *testing.T) {
	t.Parallel()

	g := New()
	loc := locale.Default()
	answers := checklist.Answers{QuestionBudget: {"High"}}

	a := g.Items("Run a marathon", answers, loc)
	b := g.Items("  run a MARATHON ", answers, loc)
	if diff := cmp.Diff(idsOf(a), idsOf(b)); diff != "" {
		t.Fatalf("ids differ for normalized goals:\n%s", diff)
	}
	if len(a) < 6 || len(a) > 8 {
		t.Fatalf("unexpected item count %d", len(a))
	}
	if !strings.Contains(a[2].Title, "high") {
		t.Fatalf("budget answer not reflected: %q", a[2].Title)
	}
	for i, it := range a {
		if it.Order != i+1 {
			t.Fatalf("item %d has order %d", i, it.Order)
		}
	}
}

func TestQuestionsAreLocalized(t *testing.T) {
	t.Parallel()

	de := locale.Locale{Tag: language.German, Region: "DE", Timezone: "UTC"}
	qs := New().Questions("Umzug", de)
	if len(qs) != 4 || qs[0].Text != "Bis wann möchtest du das Ziel erreichen?" {
		t.Fatalf("unexpected questions %+v", qs)
	}
	if !qs[0].Required || qs[2].Type != checklist.QuestionMultiple {
		t.Fatalf("unexpected question shape %+v", qs)
	}
	if err := checklist.ValidateAnswers(qs, checklist.Answers{
		QuestionTimeline: {qs[0].Options[1]},
		QuestionBudget:   {qs[1].Options[0]},
	}); err != nil {
		t.Fatalf("generated options should validate: %v", err)
	}
}

func TestEnrichPricesBudgetStep(t *testing.T) {
	t.Parallel()

	g := New()
	loc := locale.Locale{Tag: language.French, Region: "FR", Timezone: "UTC"}
	items := g.Items("Apprendre le piano", nil, loc)

	budget := g.Enrich("Apprendre le piano", items[2], loc)
	if budget.Price == nil || budget.Price.Currency != "EUR" || budget.Price.Amount < 50 {
		t.Fatalf("expected EUR price, got %+v", budget.Price)
	}
	other := g.Enrich("Apprendre le piano", items[0], loc)
	if other.Price != nil || len(other.Tips) != 2 || len(other.Links) != 2 {
		t.Fatalf("unexpected enrichment %+v", other)
	}
	if !strings.HasPrefix(other.Links[1].URL, "https://fr.wikipedia.org/") {
		t.Fatalf("guide link not localized: %s", other.Links[1].URL)
	}
}

func TestEmissionOrderIsPermutation(t *testing.T) {
	t.Parallel()

	order := EmissionOrder("plan a trip", 7)
	if diff := cmp.Diff(order, EmissionOrder("plan a trip", 7)); diff != "" {
		t.Fatalf("order not deterministic:\n%s", diff)
	}
	sorted := append([]int(nil), order...)
	sort.Ints(sorted)
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4, 5, 6}, sorted); diff != "" {
		t.Fatalf("not a permutation:\n%s", diff)
	}
}

func TestCurrency(t *testing.T) {
	t.Parallel()

	for region, want := range map[string]string{"us": "USD", "AT": "EUR", "RU": "RUB", "": "USD", "JP": "USD"} {
		if got := Currency(region); got != want {
			t.Fatalf("Currency(%q) = %q, want %q", region, got, want)
		}
	}
}

func idsOf(items []checklist.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
