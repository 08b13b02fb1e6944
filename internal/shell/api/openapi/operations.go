package openapi

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const jsonAPIContentType = "application/vnd.api+json"

var pathParamPattern = regexp.MustCompile(`\{([^}]+)\}`)

// =============================================================================
// Plain Operations
// =============================================================================

func (g *Generator) addOperationToSpec(spec *openapi3.T, op Operation) {
	item := spec.Paths.Value(op.Path)
	if item == nil {
		item = &openapi3.PathItem{}
		spec.Paths.Set(op.Path, item)
	}

	operation := &openapi3.Operation{
		OperationID: op.ID,
		Summary:     op.Summary,
		Responses:   openapi3.NewResponsesWithCapacity(len(op.Errors) + 1),
	}
	if op.Tag != "" {
		operation.Tags = []string{op.Tag}
	}

	for _, m := range pathParamPattern.FindAllStringSubmatch(op.Path, -1) {
		operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(m[1]).WithSchema(openapi3.NewStringSchema()),
		})
	}
	for _, name := range op.QueryParams {
		operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter(name).WithSchema(openapi3.NewStringSchema()),
		})
	}

	switch {
	case op.FileField != "":
		file := openapi3.NewStringSchema().WithFormat("binary")
		var field *openapi3.Schema
		if op.MultipleFile {
			field = openapi3.NewArraySchema().WithItems(file)
		} else {
			field = file
		}
		form := openapi3.NewObjectSchema().
			WithProperty(op.FileField, field).
			WithRequired([]string{op.FileField})
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithSchema(form, []string{"multipart/form-data"}),
		}
	case op.Body != nil:
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(g.modelRef(spec, op.Body)),
		}
	}

	status := op.Status
	if status == 0 {
		status = http.StatusOK
	}
	success := openapi3.NewResponse().WithDescription(http.StatusText(status))
	switch {
	case op.Produces != "":
		success.WithContent(openapi3.NewContentWithSchema(
			openapi3.NewStringSchema().WithFormat("binary"), []string{op.Produces}))
	case op.Response != nil:
		success.WithJSONSchemaRef(g.modelRef(spec, op.Response))
	}
	operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: success})

	for _, code := range op.Errors {
		operation.Responses.Set(strconv.Itoa(code), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(http.StatusText(code)).
				WithJSONSchemaRef(ref("ErrorResponse")),
		})
	}

	item.SetOperation(strings.ToUpper(op.Method), operation)
}

// =============================================================================
// JSON:API Resources
// =============================================================================

// addResourceToSpec adds paths and schemas for a JSON:API resource.
func (g *Generator) addResourceToSpec(spec *openapi3.T, res ResourceInfo) {
	basePath := "/api/v1/" + res.Name
	schemaName := "JSONAPI" + capitalize(singularize(res.Name))
	schemas := spec.Components.Schemas

	schemas[schemaName+"Attributes"] = g.extractSchema(res.Model)

	schemas[schemaName] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"type": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"string"},
						Enum: []interface{}{res.Name},
					},
				},
				"id":         stringSchema(),
				"attributes": ref(schemaName + "Attributes"),
			},
			Required: []string{"type"},
		},
	}

	schemas[schemaName+"Response"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"data":  ref(schemaName),
				"links": ref("Links"),
			},
		},
	}

	schemas[schemaName+"ListResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"data": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: ref(schemaName),
					},
				},
				"meta": ref("PaginationMeta"),
			},
		},
	}

	collectionPath := &openapi3.PathItem{}
	if res.SupportsFind {
		collectionPath.Get = g.createListOperation(res, schemaName)
	}
	if res.SupportsCreate {
		collectionPath.Post = g.createCreateOperation(res, schemaName)
	}
	spec.Paths.Set(basePath, collectionPath)

	itemPath := &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema()),
			},
		},
	}
	if res.SupportsFind {
		itemPath.Get = g.createGetOperation(res, schemaName)
	}
	if res.SupportsUpdate {
		itemPath.Patch = g.createUpdateOperation(res, schemaName)
	}
	if res.SupportsDelete {
		itemPath.Delete = g.createDeleteOperation(res, schemaName)
	}
	spec.Paths.Set(basePath+"/{id}", itemPath)
}

func jsonAPIResponse(description, schema string) *openapi3.ResponseRef {
	resp := openapi3.NewResponse().WithDescription(description)
	resp.Content = openapi3.Content{
		jsonAPIContentType: &openapi3.MediaType{Schema: ref(schema)},
	}
	return &openapi3.ResponseRef{Value: resp}
}

func jsonAPIBody(schema string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithSchemaRef(ref(schema), []string{jsonAPIContentType}),
	}
}

func jsonAPIResponses(success int, schema string, errors ...int) *openapi3.Responses {
	opts := []openapi3.NewResponsesOption{
		openapi3.WithStatus(success, jsonAPIResponse(http.StatusText(success), schema)),
	}
	for _, code := range errors {
		opts = append(opts, openapi3.WithStatus(code, jsonAPIResponse(http.StatusText(code), "JSONAPIErrors")))
	}
	return openapi3.NewResponses(opts...)
}

func (g *Generator) createListOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	params := openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("page[size]").WithSchema(openapi3.NewIntegerSchema())},
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("page[number]").WithSchema(openapi3.NewIntegerSchema())},
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("page[offset]").WithSchema(openapi3.NewIntegerSchema())},
	}
	for _, f := range res.Filters {
		params = append(params, &openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("filter[" + f + "]").WithSchema(openapi3.NewStringSchema()),
		})
	}
	return &openapi3.Operation{
		OperationID: "jsonapiList" + capitalize(res.Name),
		Summary:     "List " + res.Name,
		Tags:        []string{"JSON:API"},
		Parameters:  params,
		Responses:   jsonAPIResponses(http.StatusOK, schemaName+"ListResponse", http.StatusInternalServerError),
	}
}

func (g *Generator) createGetOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "jsonapiGet" + capitalize(singularize(res.Name)),
		Summary:     "Get a " + singularize(res.Name),
		Tags:        []string{"JSON:API"},
		Responses:   jsonAPIResponses(http.StatusOK, schemaName+"Response", http.StatusNotFound),
	}
}

func (g *Generator) createCreateOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "jsonapiCreate" + capitalize(singularize(res.Name)),
		Summary:     "Create a " + singularize(res.Name),
		Tags:        []string{"JSON:API"},
		RequestBody: jsonAPIBody(schemaName + "Response"),
		Responses:   jsonAPIResponses(http.StatusCreated, schemaName+"Response", http.StatusBadRequest),
	}
}

func (g *Generator) createUpdateOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "jsonapiUpdate" + capitalize(singularize(res.Name)),
		Summary:     "Update a " + singularize(res.Name),
		Tags:        []string{"JSON:API"},
		RequestBody: jsonAPIBody(schemaName + "Response"),
		Responses:   jsonAPIResponses(http.StatusOK, schemaName+"Response", http.StatusBadRequest, http.StatusNotFound),
	}
}

func (g *Generator) createDeleteOperation(res ResourceInfo, schemaName string) *openapi3.Operation {
	responses := openapi3.NewResponses(
		openapi3.WithStatus(http.StatusNoContent, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription(http.StatusText(http.StatusNoContent)),
		}),
		openapi3.WithStatus(http.StatusNotFound, jsonAPIResponse(http.StatusText(http.StatusNotFound), "JSONAPIErrors")),
	)
	return &openapi3.Operation{
		OperationID: "jsonapiDelete" + capitalize(singularize(res.Name)),
		Summary:     "Delete a " + singularize(res.Name),
		Tags:        []string{"JSON:API"},
		Responses:   responses,
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
	if strings.HasSuffix(s, "s") {
		return s[:len(s)-1]
	}
	return s
}
