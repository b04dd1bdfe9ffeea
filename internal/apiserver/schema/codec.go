package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/amoylab/casamento/internal/apiserver/model"
	"github.com/amoylab/casamento/internal/common/errorx"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Mode selects how Decode treats absent fields
type Mode int

const (
	// ModeCreate requires every required field.
	ModeCreate Mode = iota
	// ModeReplace is a full update and requires every required field.
	ModeReplace
	// ModePartial writes only the fields present in the body.
	ModePartial
)

// Record is the wire representation of one model
type Record map[string]any

var (
	decimalType  = reflect.TypeOf(decimal.Decimal{})
	dateType     = reflect.TypeOf(model.Date{})
	dateTimeType = reflect.TypeOf(model.DateTime{})
	timeType     = reflect.TypeOf(time.Time{})
)

// Codec converts models to and from their wire representation
type Codec struct {
	mediaURL string
	validate *validator.Validate

	mu      sync.RWMutex
	schemas map[reflect.Type]*Schema
}

// NewCodec creates a Codec. File fields are emitted prefixed with mediaURL.
func NewCodec(mediaURL string) *Codec {
	return &Codec{
		mediaURL: mediaURL,
		validate: newValidator(),
		schemas:  make(map[reflect.Type]*Schema),
	}
}

// MediaURL returns the prefix applied to file fields
func (c *Codec) MediaURL() string {
	return c.mediaURL
}

// Schema returns the cached Schema of a model
func (c *Codec) Schema(m any) (*Schema, error) {
	typ := reflect.Indirect(reflect.ValueOf(m)).Type()

	c.mu.RLock()
	s, ok := c.schemas[typ]
	c.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := Parse(m)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.schemas[typ] = s
	c.mu.Unlock()
	return s, nil
}

// MustSchema is Schema for models known at compile time
func (c *Codec) MustSchema(m any) *Schema {
	s, err := c.Schema(m)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode writes the fields of a JSON object body into dst, a pointer to a
// model of schema s. It returns the fields that were written.
func (c *Codec) Decode(s *Schema, body []byte, dst any, mode Mode) ([]*Field, error) {
	if !gjson.ValidBytes(body) {
		return nil, errorx.NewValidationError(errorx.NonFieldErrors, errorx.CodeInvalidBody, nil)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, errorx.NewValidationError(errorx.NonFieldErrors, errorx.CodeInvalidBody, nil)
	}

	v := reflect.ValueOf(dst).Elem()
	verr := &errorx.ValidationError{}
	present := make(map[string]bool)
	var written []*Field

	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		present[name] = true

		f, ok := s.Field(name)
		if !ok {
			verr.Add(name, errorx.CodeUnknownField, nil)
			return true
		}
		if !f.Visibility.Writable() {
			return true
		}
		if err := c.decodeField(f, value, v.FieldByIndex(f.Index)); err != nil {
			verr.Merge(err)
			return true
		}
		written = append(written, f)
		return true
	})

	if mode != ModePartial {
		for _, f := range s.Fields {
			if f.Required && f.Visibility.Writable() && !present[f.Name] {
				verr.Add(f.Name, errorx.CodeRequired, nil)
			}
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return written, nil
}

func (c *Codec) decodeField(f *Field, value gjson.Result, dst reflect.Value) *errorx.ValidationError {
	if f.Ref != "" && (value.IsObject() || (f.Many && value.IsArray() && hasObject(value))) {
		return errorx.NewValidationError(f.Name, errorx.CodeNestedWrite, nil)
	}

	if value.Type == gjson.Null {
		if f.Required || !f.Nullable() {
			return errorx.NewValidationError(f.Name, errorx.CodeNull, nil)
		}
		dst.Set(reflect.Zero(f.Type))
		return nil
	}

	raw := value.Raw
	if f.File && value.Type == gjson.String {
		stripped := strings.TrimPrefix(value.String(), c.mediaURL)
		b, _ := json.Marshal(stripped)
		raw = string(b)
	}

	ptr := reflect.New(f.Type)
	if err := json.Unmarshal([]byte(raw), ptr.Interface()); err != nil {
		return errorx.NewValidationError(f.Name, errorx.CodeInvalid, map[string]any{"Type": typeLabel(f.Type)})
	}
	dst.Set(ptr.Elem())
	return nil
}

func hasObject(list gjson.Result) bool {
	found := false
	list.ForEach(func(_, item gjson.Result) bool {
		found = item.IsObject()
		return !found
	})
	return found
}

// Validate checks the value constraints of the written fields of m
func (c *Codec) Validate(s *Schema, m any, fields []*Field) error {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Rules != "" {
			names = append(names, f.GoName)
		}
	}
	if len(names) == 0 {
		return nil
	}

	err := c.validate.StructPartial(m, names...)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate %s: %w", s.Name, err)
	}

	verr := &errorx.ValidationError{}
	for _, fe := range errs {
		name := fe.Field()
		var kind reflect.Kind
		if f := s.fieldByGoName(fe.StructField()); f != nil {
			name = f.Name
			kind = f.Type.Kind()
		}
		code, params := ruleCode(fe.Tag(), fe.Param(), kind)
		verr.Add(name, code, params)
	}
	return verr
}

func (s *Schema) fieldByGoName(goName string) *Field {
	for _, f := range s.Fields {
		if f.GoName == goName {
			return f
		}
	}
	return nil
}

func ruleCode(tag, param string, kind reflect.Kind) (string, map[string]any) {
	isString := kind == reflect.String
	switch tag {
	case "required":
		return errorx.CodeBlank, nil
	case "max":
		if isString {
			return errorx.CodeMaxLength, map[string]any{"Limit": param}
		}
		return errorx.CodeMaxValue, map[string]any{"Limit": param}
	case "min":
		return errorx.CodeMinValue, map[string]any{"Limit": param}
	case "oneof":
		return errorx.CodeChoice, map[string]any{"Choices": strings.Join(strings.Fields(param), ", ")}
	case "email":
		return errorx.CodeEmail, nil
	case "money":
		return errorx.CodeMoney, nil
	case "username":
		return errorx.CodeUsername, nil
	case "bcryptlen":
		return errorx.CodeMaxBytes, map[string]any{"Limit": maxPasswordBytes}
	default:
		return errorx.CodeInvalid, map[string]any{"Type": tag}
	}
}

// Encode renders src, a pointer to a model of schema s, to its wire record
func (c *Codec) Encode(s *Schema, src any) Record {
	v := reflect.Indirect(reflect.ValueOf(src))
	out := make(Record, len(s.Fields))

	for _, f := range s.Fields {
		switch {
		case f.Visibility == WriteOnly:
			continue
		case f.Visibility == Computed:
			out[f.Name] = c.encodeValue(nil, resolve(v, f.Source))
		case f.Nested != "":
			assoc := v.FieldByName(f.Nested)
			if assoc.IsValid() && !isNil(assoc) {
				nested, err := c.Schema(assoc.Interface())
				if err == nil {
					out[f.Name] = c.Encode(nested, assoc.Interface())
					continue
				}
			}
			out[f.Name] = c.encodeValue(f, v.FieldByIndex(f.Index))
		default:
			out[f.Name] = c.encodeValue(f, v.FieldByIndex(f.Index))
		}
	}
	return out
}

// EncodeList renders a slice of model pointers
func (c *Codec) EncodeList(s *Schema, list any) []Record {
	v := reflect.Indirect(reflect.ValueOf(list))
	out := make([]Record, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		out = append(out, c.Encode(s, v.Index(i).Interface()))
	}
	return out
}

func (c *Codec) encodeValue(f *Field, v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Slice {
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
		return v.Interface()
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Type() {
	case decimalType:
		return v.Interface().(decimal.Decimal).StringFixed(2)
	case dateType:
		d := v.Interface().(model.Date)
		if d.IsZero() {
			return nil
		}
		return d.String()
	case dateTimeType:
		d := v.Interface().(model.DateTime)
		if d.IsZero() {
			return nil
		}
		return d.String()
	}

	if f != nil && f.File {
		name := v.String()
		if name == "" {
			return nil
		}
		return c.mediaURL + name
	}
	return v.Interface()
}

// resolve follows an association path through pointers. It returns an
// invalid Value when a link is missing.
func resolve(v reflect.Value, path []string) reflect.Value {
	for _, name := range path {
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}
		}
		v = v.FieldByName(name)
		if !v.IsValid() {
			return reflect.Value{}
		}
	}
	return v
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}

func typeLabel(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case decimalType:
		return "decimal"
	case dateType:
		return "date"
	case dateTimeType, timeType:
		return "datetime"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Slice:
		return "list"
	default:
		return "string"
	}
}
