package schema

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Resource pairs a collection name with the schema served under it
type Resource struct {
	Collection string
	Schema     *Schema
}

// OpenAPI describes the CRUD routes of every resource
func (c *Codec) OpenAPI(title, version string, resources []Resource) *openapi3.T {
	paths := openapi3.NewPaths()

	for _, r := range resources {
		record := c.objectSchema(r.Schema)
		tag := []string{r.Collection}
		errResp := openapi3.NewResponse().WithDescription("validation error")

		collection := &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "list_" + r.Collection,
				Tags:        tag,
			},
			Post: &openapi3.Operation{
				OperationID: "create_" + r.Collection,
				Tags:        tag,
				RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithJSONSchema(record)},
			},
		}
		collection.Get.AddResponse(http.StatusOK,
			openapi3.NewResponse().WithDescription("list").
				WithJSONSchema(openapi3.NewArraySchema().WithItems(record)))
		collection.Post.AddResponse(http.StatusCreated, openapi3.NewResponse().WithDescription("created").WithJSONSchema(record))
		collection.Post.AddResponse(http.StatusBadRequest, errResp)

		notFound := openapi3.NewResponse().WithDescription("not found")
		item := &openapi3.PathItem{
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewIntegerSchema())},
			},
		}
		for method, op := range map[string]*openapi3.Operation{
			http.MethodGet:    {OperationID: "retrieve_" + r.Collection, Tags: tag},
			http.MethodPut:    {OperationID: "update_" + r.Collection, Tags: tag},
			http.MethodPatch:  {OperationID: "partial_update_" + r.Collection, Tags: tag},
			http.MethodDelete: {OperationID: "destroy_" + r.Collection, Tags: tag},
		} {
			switch method {
			case http.MethodDelete:
				op.AddResponse(http.StatusNoContent, openapi3.NewResponse().WithDescription("deleted"))
			case http.MethodGet:
				op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("record").WithJSONSchema(record))
			default:
				op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithJSONSchema(record)}
				op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("updated").WithJSONSchema(record))
				op.AddResponse(http.StatusBadRequest, errResp)
			}
			op.AddResponse(http.StatusNotFound, notFound)
			item.SetOperation(method, op)
		}

		paths.Set("/"+r.Collection+"/", collection)
		paths.Set("/"+r.Collection+"/{id}/", item)
	}

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   paths,
	}
}

func (c *Codec) objectSchema(s *Schema) *openapi3.Schema {
	obj := openapi3.NewObjectSchema()
	obj.Title = s.Name
	obj.AdditionalProperties = openapi3.AdditionalProperties{Has: new(bool)}
	for _, f := range s.Fields {
		prop := fieldSchema(f)
		switch f.Visibility {
		case ReadOnly, Computed:
			prop.ReadOnly = true
		case WriteOnly:
			prop.WriteOnly = true
		}
		if f.Ref != "" {
			prop.Description = "identifier in " + f.Ref
		}
		obj.WithProperty(f.Name, prop)
		if f.Required && f.Visibility.Writable() {
			obj.Required = append(obj.Required, f.Name)
		}
	}
	return obj
}

func fieldSchema(f *Field) *openapi3.Schema {
	t := f.Type
	nullable := t.Kind() == reflect.Pointer
	if nullable {
		t = t.Elem()
	}

	var s *openapi3.Schema
	switch {
	case t == decimalType:
		s = openapi3.NewStringSchema().WithFormat("decimal").WithPattern(`^\d{1,8}(\.\d{1,2})?$`)
	case t == dateType:
		s = openapi3.NewStringSchema().WithFormat("date")
	case t == dateTimeType, t == timeType:
		s = openapi3.NewDateTimeSchema()
	case f.File:
		s = openapi3.NewStringSchema().WithFormat("uri")
	case t.Kind() == reflect.Slice:
		s = openapi3.NewArraySchema().WithItems(openapi3.NewIntegerSchema())
	case t.Kind() == reflect.Bool:
		s = openapi3.NewBoolSchema()
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Uint64:
		s = openapi3.NewIntegerSchema()
	default:
		s = openapi3.NewStringSchema()
	}

	if choices := f.Choices(); len(choices) > 0 {
		enum := make([]any, 0, len(choices))
		for _, c := range choices {
			if n, err := strconv.Atoi(c); err == nil && t.Kind() != reflect.String {
				enum = append(enum, n)
				continue
			}
			enum = append(enum, c)
		}
		s.WithEnum(enum...)
	}
	for _, rule := range strings.Split(f.Rules, ",") {
		if rule == "email" {
			s.WithFormat("email")
		}
	}
	s.Nullable = nullable
	return s
}
