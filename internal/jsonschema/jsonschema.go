package jsonschema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema that backends accept for tool
// parameter declarations. The same struct describes both hand-written
// schemas attached to [ai.ToolDeclaration] values and schemas derived from
// Go types via [GenerateJSONSchema].
type Schema struct {
	// Type names the JSON data type ("object", "array", "string",
	// "number", "integer", "boolean").
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties maps each object property to its own schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items is the element schema for array types.
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties carries the value schema for map-shaped objects.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
	Default              any `json:"default,omitempty"`
	Enum                 []any `json:"enum,omitempty"`
	// Ref and Defs implement recursive type references: a self-referential
	// struct field becomes {"$ref": "#/$defs/<name>"} with the definition
	// hoisted to the root schema's Defs.
	Ref  string             `json:"$ref,omitempty"`
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// String renders the schema as compact JSON, for logs and debugging.
func (s *Schema) String() string {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(payload)
}

// GenerateJSONSchema derives a Schema from the Go type T by reflection.
// Struct fields map to object properties named by their json tag; fields
// tagged json:"-" and unexported fields are skipped. A field is required
// unless it is a pointer or carries omitempty, and the jsonschema struct tag
// refines the result further:
//
//	Query string `json:"query" jsonschema:"description=Search terms,required"`
//	Limit int    `json:"limit,omitempty" jsonschema:"enum=10,enum=25"`
//
// Self-referential struct types are hoisted into $defs and referenced via
// $ref so generation terminates. Unsupported kinds (chan, func, interface)
// degrade to a bare "object" schema rather than failing; tool declarations
// built from ordinary data structs never hit that path.
func GenerateJSONSchema[T any]() *Schema {
	g := &generator{
		named: make(map[reflect.Type]string),
		defs:  make(map[string]*Schema),
	}

	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := g.typeSchema(t, true)
	if len(g.defs) > 0 {
		schema.Defs = g.defs
	}
	return schema
}

// generator tracks struct types already assigned a $defs entry so that
// recursive references terminate.
type generator struct {
	named map[reflect.Type]string
	defs  map[string]*Schema
}

func (g *generator) typeSchema(t reflect.Type, isRoot bool) *Schema {
	switch t.Kind() {
	case reflect.Ptr:
		return g.typeSchema(t.Elem(), isRoot)
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: g.typeSchema(t.Elem(), false)}
	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: g.typeSchema(t.Elem(), false)}
	case reflect.Struct:
		return g.structSchema(t, isRoot)
	default:
		return &Schema{Type: "object"}
	}
}

func (g *generator) structSchema(t reflect.Type, isRoot bool) *Schema {
	if name, seen := g.named[t]; seen {
		return &Schema{Ref: "#/$defs/" + name}
	}

	recursive := refersToItself(t, t, make(map[reflect.Type]bool))
	if recursive {
		// Register before descending so the self-reference resolves.
		name := defName(t)
		g.named[t] = name
		schema := g.objectSchema(t)
		g.defs[name] = schema
		if isRoot {
			return schema
		}
		return &Schema{Ref: "#/$defs/" + name}
	}

	return g.objectSchema(t)
}

func (g *generator) objectSchema(t reflect.Type) *Schema {
	schema := &Schema{Type: "object", Properties: map[string]*Schema{}}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitEmpty := jsonName(field)
		if name == "" {
			continue
		}

		fieldSchema := g.typeSchema(field.Type, false)
		schema.Properties[name] = fieldSchema

		requiredByTag := false
		if fieldSchema.Ref == "" {
			requiredByTag = applyTag(field, fieldSchema)
		}
		if requiredByTag || (field.Type.Kind() != reflect.Ptr && !omitEmpty) {
			required = append(required, name)
		}
	}

	schema.Required = required
	return schema
}

// jsonName resolves the wire name of a struct field from its json tag.
// An empty return means the field is excluded.
func jsonName(field reflect.StructField) (name string, omitEmpty bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	if tag == "" {
		return field.Name, false
	}

	name = tag
	if comma := strings.Index(tag, ","); comma != -1 {
		name = tag[:comma]
		omitEmpty = strings.Contains(tag[comma:], "omitempty")
		if name == "" {
			name = field.Name
		}
	}
	return name, omitEmpty
}

// applyTag folds the jsonschema struct tag into the field's schema and
// reports whether the tag marks the field required. Enum values are coerced
// to the field's Go type; a value that does not coerce is dropped rather
// than failing the whole generation.
func applyTag(field reflect.StructField, schema *Schema) (requiredByTag bool) {
	tag := field.Tag.Get("jsonschema")
	if tag == "" {
		return false
	}

	for _, item := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(item, "=")
		switch {
		case key == "required" && !hasValue:
			requiredByTag = true
		case key == "description" && hasValue:
			schema.Description = value
		case key == "enum" && hasValue:
			if coerced, ok := coerceEnum(field.Type, value); ok {
				schema.Enum = append(schema.Enum, coerced)
			}
		}
	}
	return requiredByTag
}

func coerceEnum(t reflect.Type, value string) (any, bool) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return value, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseInt(value, 10, 64)
		return v, err == nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(value, 64)
		return v, err == nil
	case reflect.Bool:
		v, err := strconv.ParseBool(value)
		return v, err == nil
	default:
		return nil, false
	}
}

// refersToItself reports whether target appears, directly or through
// pointers, slices, arrays, maps or nested structs, among current's fields.
func refersToItself(target, current reflect.Type, visited map[reflect.Type]bool) bool {
	for current.Kind() == reflect.Ptr || current.Kind() == reflect.Slice ||
		current.Kind() == reflect.Array || current.Kind() == reflect.Map {
		current = current.Elem()
	}
	if current.Kind() != reflect.Struct || visited[current] {
		return false
	}
	visited[current] = true

	for i := 0; i < current.NumField(); i++ {
		field := current.Field(i)
		if !field.IsExported() {
			continue
		}

		ft := field.Type
		for ft.Kind() == reflect.Ptr || ft.Kind() == reflect.Slice ||
			ft.Kind() == reflect.Array || ft.Kind() == reflect.Map {
			ft = ft.Elem()
		}
		if ft == target {
			return true
		}
		if ft.Kind() == reflect.Struct && refersToItself(target, ft, visited) {
			return true
		}
	}
	return false
}

func defName(t reflect.Type) string {
	if t.Name() != "" {
		return strings.ToLower(t.Name())
	}
	return "anonymous"
}
