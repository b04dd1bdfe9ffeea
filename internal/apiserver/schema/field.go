package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	gormschema "gorm.io/gorm/schema"
)

// Visibility decides in which direction a field crosses the wire
type Visibility int

const (
	// ReadWrite fields are accepted on input and emitted on output.
	ReadWrite Visibility = iota
	// WriteOnly fields are accepted on input and never emitted.
	WriteOnly
	// ReadOnly fields are emitted and ignored on input.
	ReadOnly
	// Computed fields are derived from related records on output.
	Computed
)

func (v Visibility) String() string {
	switch v {
	case WriteOnly:
		return "write_only"
	case ReadOnly:
		return "read_only"
	case Computed:
		return "computed"
	default:
		return "read_write"
	}
}

// Writable reports whether input may set the field
func (v Visibility) Writable() bool {
	return v == ReadWrite || v == WriteOnly
}

// Field describes one wire field of a model
type Field struct {
	Name       string
	GoName     string
	Column     string
	Index      []int
	Type       reflect.Type
	Visibility Visibility
	Required   bool
	Unique     bool
	Immutable  bool
	File       bool
	Primary    bool
	// Ref is the collection a reference field points at.
	Ref string
	// Many marks a list of references.
	Many bool
	// Nested names the association rendered in place of the identifier.
	Nested string
	// Source is the association path a computed field is read from.
	Source []string
	// Rules is the validate tag of the field.
	Rules string
}

// Nullable reports whether the field accepts null
func (f *Field) Nullable() bool {
	k := f.Type.Kind()
	return k == reflect.Pointer || k == reflect.Slice
}

// Stored reports whether the field has a column
func (f *Field) Stored() bool {
	return f.Column != ""
}

// Choices returns the values allowed by a oneof rule
func (f *Field) Choices() []string {
	for _, rule := range strings.Split(f.Rules, ",") {
		if v, ok := strings.CutPrefix(rule, "oneof="); ok {
			return strings.Fields(v)
		}
	}
	return nil
}

// Schema is the parsed wire contract of a model type
type Schema struct {
	Name       string
	Table      string
	Type       reflect.Type
	Fields     []*Field
	PrimaryKey *Field
	byName     map[string]*Field
}

// Field looks a field up by wire name
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Column returns the storage column behind a wire name
func (s *Schema) Column(name string) (string, error) {
	f, ok := s.byName[name]
	if !ok || !f.Stored() {
		return "", fmt.Errorf("%s has no stored field %q", s.Name, name)
	}
	return f.Column, nil
}

// New allocates a zero model of the schema's type
func (s *Schema) New() any {
	return reflect.New(s.Type).Interface()
}

// NewSlice allocates a pointer to an empty slice of model pointers
func (s *Schema) NewSlice() any {
	return reflect.New(reflect.SliceOf(reflect.PointerTo(s.Type))).Interface()
}

// PrimaryValue reads the primary key of a model
func (s *Schema) PrimaryValue(model any) any {
	return reflect.Indirect(reflect.ValueOf(model)).FieldByIndex(s.PrimaryKey.Index).Interface()
}

// Preloads lists the associations needed to encode nested and computed fields
func (s *Schema) Preloads() []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range s.Fields {
		name := f.Nested
		if f.Visibility == Computed && len(f.Source) > 1 {
			name = f.Source[0]
		}
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// References returns the single-valued reference fields
func (s *Schema) References() []*Field {
	var out []*Field
	for _, f := range s.Fields {
		if f.Ref != "" && !f.Many {
			out = append(out, f)
		}
	}
	return out
}

var gormCache = &sync.Map{}

// Parse builds the Schema of a model struct from its json, gorm, field and
// validate tags
func Parse(model any) (*Schema, error) {
	typ := reflect.Indirect(reflect.ValueOf(model)).Type()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", typ.Kind())
	}

	gs, err := gormschema.Parse(model, gormCache, gormschema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", typ.Name(), err)
	}

	s := &Schema{
		Name:   typ.Name(),
		Table:  gs.Table,
		Type:   typ,
		byName: make(map[string]*Field),
	}

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		f := &Field{
			Name:   name,
			GoName: sf.Name,
			Index:  sf.Index,
			Type:   sf.Type,
			Rules:  sf.Tag.Get("validate"),
		}
		if err := f.parseOptions(sf.Tag.Get("field")); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", typ.Name(), sf.Name, err)
		}
		if gf := gs.LookUpField(sf.Name); gf != nil && gf.DBName != "" {
			f.Column = gf.DBName
			f.Primary = gf.PrimaryKey
		}
		if f.Primary && s.PrimaryKey == nil {
			s.PrimaryKey = f
		}

		s.Fields = append(s.Fields, f)
		s.byName[name] = f
	}

	if s.PrimaryKey == nil {
		return nil, fmt.Errorf("%s has no wire visible primary key", typ.Name())
	}
	return s, nil
}

func (f *Field) parseOptions(tag string) error {
	if tag == "" {
		return nil
	}
	for _, opt := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "read_only":
			f.Visibility = ReadOnly
		case "write_only":
			f.Visibility = WriteOnly
		case "computed":
			f.Visibility = Computed
			f.Source = strings.Split(value, ".")
		case "required":
			f.Required = true
		case "unique":
			f.Unique = true
		case "immutable":
			f.Immutable = true
		case "file":
			f.File = true
		case "ref":
			f.Ref = value
			f.Many = f.Type.Kind() == reflect.Slice
		case "nested":
			f.Nested = value
		default:
			return fmt.Errorf("unknown field option %q", key)
		}
	}
	return nil
}
