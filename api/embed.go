// Package api carries the OpenAPI document of the view API.
package api

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// OpenAPISpec holds the raw OpenAPI 3.0 document.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// Operations lists every documented "METHOD /path" pair, sorted.
func Operations() ([]string, error) {
	var doc struct {
		Paths map[string]map[string]yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(OpenAPISpec, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi: %w", err)
	}
	var ops []string
	for path, item := range doc.Paths {
		for method := range item {
			switch method {
			case "get", "post", "patch", "delete":
				ops = append(ops, fmt.Sprintf("%s %s", strings.ToUpper(method), path))
			}
		}
	}
	sort.Strings(ops)
	return ops, nil
}
