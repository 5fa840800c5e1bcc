package openapi

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONDocumentsRoutes(t *testing.T) {
	t.Parallel()

	data, err := JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.OpenAPI != "3.0.3" {
		t.Fatalf("unexpected version %q", doc.OpenAPI)
	}
	for _, path := range []string{"/auth/login", "/questions/stream", "/checklists/stream", "/checklists/{id}", "/graphql"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Fatalf("missing path %s", path)
		}
	}
}

func TestDocumentFormats(t *testing.T) {
	t.Parallel()

	data, contentType, err := Document("yaml")
	if err != nil || contentType != "application/yaml" {
		t.Fatalf("Document(yaml) = %q, %v", contentType, err)
	}
	if !strings.Contains(string(data), "/checklists/stream:") {
		t.Fatalf("yaml document missing stream path")
	}

	data, contentType, err = Document("")
	if err != nil || contentType != "application/json" || !json.Valid(data) {
		t.Fatalf("Document(\"\") = %q, %v", contentType, err)
	}

	if _, _, err := Document("xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
