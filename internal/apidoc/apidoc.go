// Package apidoc serves the OpenAPI description of the browser-facing API.
package apidoc

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/m1z23r/drift/pkg/drift"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var source []byte

// Doc is a loaded and validated API description.
type Doc struct {
	api  *openapi3.T
	json []byte
	yaml []byte
}

// Load parses the embedded description and validates it.
func Load(ctx context.Context) (*Doc, error) {
	return parse(ctx, source)
}

func parse(ctx context.Context, content []byte) (*Doc, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	api, err := loader.LoadFromData(content)
	if err != nil {
		// Older loaders only take JSON; go through yaml.v3 the slow way.
		var yamlData any
		if yamlErr := yaml.Unmarshal(content, &yamlData); yamlErr != nil {
			return nil, fmt.Errorf("failed to parse API description: %w", err)
		}
		jsonContent, jsonErr := json.Marshal(yamlData)
		if jsonErr != nil {
			return nil, fmt.Errorf("failed to convert YAML to JSON: %w", jsonErr)
		}
		api, err = loader.LoadFromData(jsonContent)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API description: %w", err)
		}
	}

	if err := api.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid API description: %w", err)
	}

	rendered, err := json.Marshal(api)
	if err != nil {
		return nil, fmt.Errorf("failed to render API description: %w", err)
	}

	return &Doc{api: api, json: rendered, yaml: content}, nil
}

func (d *Doc) Title() string {
	if d.api.Info == nil {
		return ""
	}
	return d.api.Info.Title
}

// Operations lists "METHOD /path" for every documented operation, sorted.
// Paths use drift's ":param" form so they can be compared with the router.
func (d *Doc) Operations() []string {
	var ops []string
	for path, item := range d.api.Paths.Map() {
		for method := range item.Operations() {
			ops = append(ops, method+" "+driftPath(path))
		}
	}
	sort.Strings(ops)
	return ops
}

// Operation returns the documented operation for method and a drift-style path.
func (d *Doc) Operation(method, path string) *openapi3.Operation {
	for p, item := range d.api.Paths.Map() {
		if driftPath(p) == path {
			return item.GetOperation(strings.ToUpper(method))
		}
	}
	return nil
}

func driftPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			parts[i] = ":" + strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}")
		}
	}
	return strings.Join(parts, "/")
}

// Serve writes the description as JSON, or as YAML with ?format=yaml.
func (d *Doc) Serve(c *drift.Context) {
	if strings.EqualFold(c.QueryParam("format"), "yaml") {
		c.Response.Header().Set("Content-Type", "application/yaml")
		c.Response.WriteHeader(http.StatusOK)
		_, _ = c.Response.Write(d.yaml)
		return
	}
	c.Response.Header().Set("Content-Type", "application/json")
	c.Response.WriteHeader(http.StatusOK)
	_, _ = c.Response.Write(d.json)
}
