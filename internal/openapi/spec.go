// Package openapi embeds the development backend's HTTP contract.
package openapi

import (
	_ "embed"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

//go:embed spec.yaml
var contract []byte

// Formats served by Document.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document renders the contract in format ("" means JSON) and returns the
// matching content type.
func Document(format string) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		data, err := JSON()
		return data, "application/json", err
	case FormatYAML, "yml":
		return contract, "application/yaml", nil
	default:
		return nil, "", fmt.Errorf("unsupported contract format %q", format)
	}
}

// JSON converts the embedded YAML contract to JSON.
func JSON() ([]byte, error) {
	return yaml.YAMLToJSON(contract)
}
