// Package openapi provides reflective OpenAPI 3.0 specification generation.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// Generator
// =============================================================================

// Generator produces OpenAPI 3.0 specifications by reflecting on registered resources.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	resources   []ResourceInfo
	operations  []pathOperation
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// ResourceInfo holds information about a registered resource for OpenAPI generation.
type ResourceInfo struct {
	Name           string      // Resource path name (e.g., "scenarios")
	Model          interface{} // The model struct for schema extraction
	IDParam        string      // Path parameter name; defaults to "id"
	SupportsList   bool        // GET /{type}
	SupportsGet    bool        // GET /{type}/{id}
	SupportsCreate bool        // POST /{type}
	SupportsUpdate bool        // PUT /{type}/{id}
	SupportsDelete bool        // DELETE /{type}/{id}
	RequiresAuth   bool        // Operations require a bearer token
}

// pathOperation is an explicitly registered operation for routes that do not
// follow the collection/item pattern.
type pathOperation struct {
	method string
	path   string
	op     *openapi3.Operation
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "PitchLab API",
		version:     "1.0.0",
		description: "Sales roleplay training and feedback API",
		servers:     []string{"http://localhost:8000"},
		resources:   make([]ResourceInfo, 0),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// RegisterResource adds a resource to the generator for spec generation.
func (g *Generator) RegisterResource(info ResourceInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if info.IDParam == "" {
		info.IDParam = "id"
	}
	g.resources = append(g.resources, info)
	g.cachedSpec = nil // Invalidate cache
}

// RegisterOperation adds a single operation at an explicit path for routes the
// collection/item pattern cannot express. Path parameters written as {name}
// are declared on the operation automatically.
func (g *Generator) RegisterOperation(method, path string, op *openapi3.Operation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operations = append(g.operations, pathOperation{method: method, path: path, op: op})
	g.cachedSpec = nil
}

// NewOperation builds a minimal operation for explicit registration.
func NewOperation(id, summary, tag string, secured bool) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: id,
		Summary:     summary,
		Tags:        []string{tag},
		Responses:   &openapi3.Responses{},
	}
	if secured {
		op.Security = openapi3.NewSecurityRequirements().
			With(openapi3.NewSecurityRequirement().Authenticate("bearerAuth"))
	}
	return op
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Servers: make(openapi3.Servers, 0, len(g.servers)),
		Paths:   &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas:         make(openapi3.Schemas),
			SecuritySchemes: make(openapi3.SecuritySchemes),
		},
	}

	// Add servers
	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	// Add common schemas and the bearer security scheme
	g.addCommonSchemas(spec)

	// Process each registered resource
	for _, res := range g.resources {
		g.addResourceToSpec(spec, res)
	}

	// Explicitly registered operations
	for _, po := range g.operations {
		g.addOperationToSpec(spec, po)
	}

	g.cachedSpec = spec
	return spec
}

// Handler returns an HTTP handler that serves the OpenAPI specification.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.Generate()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Schema Generation
// =============================================================================

// addCommonSchemas adds shared schemas and security schemes to the spec.
func (g *Generator) addCommonSchemas(spec *openapi3.T) {
	// Error schema
	spec.Components.Schemas["Error"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"code": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
			},
			Required: []string{"error"},
		},
	}

	spec.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
}

// addResourceToSpec adds paths and schemas for a resource.
func (g *Generator) addResourceToSpec(spec *openapi3.T, res ResourceInfo) {
	basePath := "/api/v1/" + res.Name

	schemaName := capitalize(singularize(res.Name))
	spec.Components.Schemas[schemaName] = g.extractSchema(res.Model)

	var security *openapi3.SecurityRequirements
	if res.RequiresAuth {
		security = openapi3.NewSecurityRequirements().
			With(openapi3.NewSecurityRequirement().Authenticate("bearerAuth"))
	}

	// Collection path; only emitted when the router actually mounts it
	collectionPath := &openapi3.PathItem{}

	if res.SupportsList {
		collectionPath.Get = g.createListOperation(res, schemaName, security)
	}
	if res.SupportsCreate {
		collectionPath.Post = g.createCreateOperation(res, schemaName, security)
	}

	if collectionPath.Get != nil || collectionPath.Post != nil {
		spec.Paths.Set(basePath, collectionPath)
	}

	// Item path
	itemPath := &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name:     res.IDParam,
					In:       "path",
					Required: true,
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
					},
				},
			},
		},
	}

	if res.SupportsGet {
		itemPath.Get = g.createGetOperation(res, schemaName, security)
	}
	if res.SupportsUpdate {
		itemPath.Put = g.createUpdateOperation(res, schemaName, security)
	}
	if res.SupportsDelete {
		itemPath.Delete = g.createDeleteOperation(res, schemaName, security)
	}

	if itemPath.Get != nil || itemPath.Put != nil || itemPath.Delete != nil {
		spec.Paths.Set(basePath+"/{"+res.IDParam+"}", itemPath)
	}
}

// addOperationToSpec merges an explicitly registered operation into the spec,
// declaring any {name} path parameters on the operation.
func (g *Generator) addOperationToSpec(spec *openapi3.T, po pathOperation) {
	item := spec.Paths.Value(po.path)
	if item == nil {
		item = &openapi3.PathItem{}
		spec.Paths.Set(po.path, item)
	}

	op := po.op
	for _, segment := range strings.Split(po.path, "/") {
		if !strings.HasPrefix(segment, "{") || !strings.HasSuffix(segment, "}") {
			continue
		}
		name := segment[1 : len(segment)-1]
		if hasPathParam(item.Parameters, name) {
			continue
		}
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     name,
				In:       "path",
				Required: true,
				Schema: &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
			},
		})
	}

	item.SetOperation(strings.ToUpper(po.method), op)
}

func hasPathParam(params openapi3.Parameters, name string) bool {
	for _, p := range params {
		if p.Value != nil && p.Value.In == "path" && p.Value.Name == name {
			return true
		}
	}
	return false
}

// extractSchema extracts an OpenAPI schema from a Go struct.
func (g *Generator) extractSchema(model interface{}) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		// Get JSON tag
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		// Parse JSON tag for name
		name := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
		}

		// Convert Go type to OpenAPI type
		propSchema := g.goTypeToSchema(field.Type)
		if propSchema != nil {
			schema.Properties[name] = propSchema
		}
	}

	return &openapi3.SchemaRef{Value: schema}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}

	case reflect.Float32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "float"}}

	case reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "double"}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Slice, reflect.Array:
		elemSchema := g.goTypeToSchema(t.Elem())
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: elemSchema,
			},
		}

	case reflect.Map:
		valueSchema := g.goTypeToSchema(t.Elem())
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: valueSchema},
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		// Handle time.Time specially
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
			}
		}
		// For other structs, extract recursively
		return g.extractSchema(reflect.New(t).Interface())

	default:
		// Unknown type, return generic object
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}

// =============================================================================
// Operation Generation
// =============================================================================

func (g *Generator) createListOperation(res ResourceInfo, schemaName string, security *openapi3.SecurityRequirements) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "list" + capitalize(res.Name),
		Summary:     "List " + res.Name,
		Tags:        []string{capitalize(res.Name)},
		Security:    security,
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name: "limit",
					In:   "query",
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Default: 100},
					},
				},
			},
			&openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name: "offset",
					In:   "query",
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Default: 0},
					},
				},
			},
		},
		Responses: &openapi3.Responses{},
	}
}

func (g *Generator) createGetOperation(res ResourceInfo, schemaName string, security *openapi3.SecurityRequirements) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "get" + schemaName,
		Summary:     "Get a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		Security:    security,
		Responses:   &openapi3.Responses{},
	}
}

func (g *Generator) createCreateOperation(res ResourceInfo, schemaName string, security *openapi3.SecurityRequirements) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "create" + schemaName,
		Summary:     "Create a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		Security:    security,
		RequestBody: &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content: openapi3.Content{
					"application/json": &openapi3.MediaType{
						Schema: &openapi3.SchemaRef{
							Ref: "#/components/schemas/" + schemaName,
						},
					},
				},
			},
		},
		Responses: &openapi3.Responses{},
	}
}

func (g *Generator) createUpdateOperation(res ResourceInfo, schemaName string, security *openapi3.SecurityRequirements) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "update" + schemaName,
		Summary:     "Update a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		Security:    security,
		RequestBody: &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content: openapi3.Content{
					"application/json": &openapi3.MediaType{
						Schema: &openapi3.SchemaRef{
							Ref: "#/components/schemas/" + schemaName,
						},
					},
				},
			},
		},
		Responses: &openapi3.Responses{},
	}
}

func (g *Generator) createDeleteOperation(res ResourceInfo, schemaName string, security *openapi3.SecurityRequirements) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "delete" + schemaName,
		Summary:     "Delete a " + singularize(res.Name),
		Tags:        []string{capitalize(res.Name)},
		Security:    security,
		Responses:   &openapi3.Responses{},
	}
}

// =============================================================================
// Helpers
// =============================================================================

// capitalize returns the string with the first letter capitalized.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// singularize performs basic singularization (removes trailing 's').
func singularize(s string) string {
	if strings.HasSuffix(s, "ies") {
		return s[:len(s)-3] + "y"
	}
	if strings.HasSuffix(s, "es") {
		return s[:len(s)-2]
	}
	if strings.HasSuffix(s, "s") {
		return s[:len(s)-1]
	}
	return s
}
