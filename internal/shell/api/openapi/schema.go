package openapi

import (
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

const schemaPrefix = "#/components/schemas/"

var timeType = reflect.TypeOf(time.Time{})

// =============================================================================
// Common Schemas
// =============================================================================

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}
}

func uriSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("uri")}
}

func integerSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: openapi3.NewIntegerSchema()}
}

func ref(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: schemaPrefix + name}
}

// addCommonSchemas adds the error and JSON:API envelope schemas.
func (g *Generator) addCommonSchemas(spec *openapi3.T) {
	schemas := spec.Components.Schemas

	schemas["FieldError"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"field":   stringSchema(),
				"message": stringSchema(),
			},
		},
	}

	schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": stringSchema(),
				"code":  stringSchema(),
				"errors": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: ref("FieldError"),
					},
				},
			},
			Required: []string{"error", "code"},
		},
	}

	schemas["Links"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"self":    uriSchema(),
				"related": uriSchema(),
			},
		},
	}

	schemas["PaginationMeta"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"total":  integerSchema(),
				"limit":  integerSchema(),
				"offset": integerSchema(),
			},
		},
	}

	schemas["JSONAPIErrors"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"errors": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"array"},
						Items: &openapi3.SchemaRef{
							Value: &openapi3.Schema{
								Type: &openapi3.Types{"object"},
								Properties: openapi3.Schemas{
									"status": stringSchema(),
									"title":  stringSchema(),
									"detail": stringSchema(),
								},
							},
						},
					},
				},
			},
		},
	}
}

// =============================================================================
// Reflection
// =============================================================================

// modelRef registers the named struct types reachable from model as
// component schemas and returns a reference to model's schema.
func (g *Generator) modelRef(spec *openapi3.T, model interface{}) *openapi3.SchemaRef {
	return g.typeRef(spec, reflect.TypeOf(model))
}

func (g *Generator) typeRef(spec *openapi3.T, t reflect.Type) *openapi3.SchemaRef {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch {
	case t.Kind() == reflect.Slice:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.typeRef(spec, t.Elem()),
			},
		}
	case t.Kind() == reflect.Struct && t != timeType && t.Name() != "":
		if _, ok := spec.Components.Schemas[t.Name()]; !ok {
			spec.Components.Schemas[t.Name()] = g.extractSchema(reflect.New(t).Interface())
		}
		return ref(t.Name())
	default:
		return g.goTypeToSchema(t)
	}
}

// extractSchema extracts an OpenAPI schema from a Go struct. Fields tagged
// validate:"required" are listed as required.
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
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
		}

		propSchema := g.goTypeToSchema(field.Type)
		if propSchema == nil {
			continue
		}
		rules := strings.Split(field.Tag.Get("validate"), ",")
		if slices.Contains(rules, "email") {
			propSchema.Value.Format = "email"
		}
		if slices.Contains(rules, "required") {
			schema.Required = append(schema.Required, name)
		}
		schema.Properties[name] = propSchema
	}

	return &openapi3.SchemaRef{Value: schema}
}

// goTypeToSchema converts a Go type to an inline OpenAPI schema.
func (g *Generator) goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: openapi3.NewInt32Schema()}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: openapi3.NewIntegerSchema()}

	case reflect.Float32:
		return &openapi3.SchemaRef{Value: openapi3.NewFloat64Schema().WithFormat("float")}

	case reflect.Float64:
		return &openapi3.SchemaRef{Value: openapi3.NewFloat64Schema().WithFormat("double")}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: g.goTypeToSchema(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: g.goTypeToSchema(t.Elem())},
			},
		}

	case reflect.Ptr:
		schema := g.goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		if t == timeType {
			return &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
		}
		return g.extractSchema(reflect.New(t).Interface())

	default:
		return &openapi3.SchemaRef{Value: openapi3.NewObjectSchema()}
	}
}
