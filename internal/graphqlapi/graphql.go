package graphqlapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/goalcheck/goalcheck/internal/checklist"
	"github.com/goalcheck/goalcheck/internal/store"
)

// Store exposes read-only access to the owner's data.
type Store interface {
	GetChecklist(ctx context.Context, owner, id string) (*checklist.Checklist, error)
	ListChecklists(ctx context.Context, owner string, limit int) ([]checklist.Checklist, error)
	GetUser(ctx context.Context, email string) (*store.User, error)
}

// Config wires the GraphQL schema.
type Config struct {
	Store Store
}

type ownerKey struct{}

// WithOwner scopes queries in ctx to the given account.
func WithOwner(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ownerKey{}, email)
}

func ownerFrom(ctx context.Context) (string, error) {
	if email, ok := ctx.Value(ownerKey{}).(string); ok && email != "" {
		return email, nil
	}
	return "", errors.New("unauthorized")
}

// NewHandler returns an http.Handler that serves /graphql requests.
func NewHandler(cfg Config) (http.Handler, error) {
	builder := schemaBuilder{cfg: cfg}
	schema, err := builder.buildSchema()
	if err != nil {
		return nil, err
	}

	return handler.New(&handler.Config{
		Schema:   schema,
		Pretty:   true,
		GraphiQL: true,
	}), nil
}

type schemaBuilder struct {
	cfg Config
}

func (b schemaBuilder) buildSchema() (*graphql.Schema, error) {
	linkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Link",
		Fields: graphql.Fields{
			"title": {Type: graphql.String},
			"url":   {Type: graphql.NewNonNull(graphql.String)},
		},
	})

	priceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Price",
		Fields: graphql.Fields{
			"amount":   {Type: graphql.NewNonNull(graphql.Float)},
			"currency": {Type: graphql.NewNonNull(graphql.String)},
		},
	})

	itemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Item",
		Fields: graphql.Fields{
			"id":          {Type: graphql.NewNonNull(graphql.String)},
			"title":       {Type: graphql.NewNonNull(graphql.String)},
			"description": {Type: graphql.String},
			"order":       {Type: graphql.Int},
			"tips":        {Type: graphql.NewList(graphql.String)},
			"links":       {Type: graphql.NewList(linkType)},
			"price":       {Type: priceType},
		},
	})

	checklistType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Checklist",
		Fields: graphql.Fields{
			"id":        {Type: graphql.NewNonNull(graphql.String)},
			"goal":      {Type: graphql.NewNonNull(graphql.String)},
			"locale":    {Type: graphql.String},
			"createdAt": {Type: graphql.String},
			"items":     {Type: graphql.NewList(itemType)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"email":   {Type: graphql.NewNonNull(graphql.String)},
			"name":    {Type: graphql.String},
			"plan":    {Type: graphql.String},
			"credits": {Type: graphql.Int},
		},
	})

	queryFields := graphql.Fields{
		"me": &graphql.Field{
			Type: userType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				owner, err := ownerFrom(p.Context)
				if err != nil {
					return nil, err
				}
				user, err := b.cfg.Store.GetUser(p.Context, owner)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"email":   user.Email,
					"name":    user.Name,
					"plan":    user.Plan,
					"credits": user.Credits,
				}, nil
			},
		},
		"checklists": &graphql.Field{
			Type: graphql.NewList(checklistType),
			Args: graphql.FieldConfigArgument{
				"limit": {Type: graphql.Int},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				owner, err := ownerFrom(p.Context)
				if err != nil {
					return nil, err
				}
				limit := 20
				if l, ok := p.Args["limit"].(int); ok && l > 0 {
					limit = l
				}
				lists, err := b.cfg.Store.ListChecklists(p.Context, owner, limit)
				if err != nil {
					return nil, err
				}
				return mapChecklists(lists), nil
			},
		},
		"checklist": &graphql.Field{
			Type: checklistType,
			Args: graphql.FieldConfigArgument{
				"id": {Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				owner, err := ownerFrom(p.Context)
				if err != nil {
					return nil, err
				}
				id, _ := p.Args["id"].(string)
				list, err := b.cfg.Store.GetChecklist(p.Context, owner, id)
				if errors.Is(err, store.ErrNotFound) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				return mapChecklist(list), nil
			},
		},
	}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: queryFields,
		}),
	})
	if err != nil {
		return nil, err
	}
	return &schema, nil
}

func mapChecklists(lists []checklist.Checklist) []interface{} {
	out := make([]interface{}, 0, len(lists))
	for i := range lists {
		out = append(out, mapChecklist(&lists[i]))
	}
	return out
}

func mapChecklist(c *checklist.Checklist) map[string]interface{} {
	if c == nil {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, mapItem(it))
	}
	return map[string]interface{}{
		"id":        c.ID,
		"goal":      c.Goal,
		"locale":    c.Locale,
		"createdAt": c.CreatedAt.Format(time.RFC3339),
		"items":     items,
	}
}

func mapItem(it checklist.Item) map[string]interface{} {
	entry := map[string]interface{}{
		"id":          it.ID,
		"title":       it.Title,
		"description": it.Description,
		"order":       it.Order,
	}
	if e := it.Enrichment; e != nil {
		entry["tips"] = e.Tips
		links := make([]map[string]interface{}, 0, len(e.Links))
		for _, l := range e.Links {
			links = append(links, map[string]interface{}{"title": l.Title, "url": l.URL})
		}
		entry["links"] = links
		if e.Price != nil {
			entry["price"] = map[string]interface{}{"amount": e.Price.Amount, "currency": e.Price.Currency}
		}
	}
	return entry
}

// EncodeGraphQLQuery is a helper for GraphQL testing (JSON bodies).
func EncodeGraphQLQuery(query string) string {
	query = strings.TrimSpace(query)
	data, _ := json.Marshal(map[string]string{"query": query})
	return string(data)
}
