// Package jsonschema models the JSON Schema subset that backends accept for
// tool parameter declarations, and derives such schemas from Go types by
// reflection.
//
// [Schema] is the shared declaration type: adapters marshal it straight into
// each backend's tool/function wire format. [GenerateJSONSchema] turns a Go
// struct into a Schema, honoring json tags for naming and the jsonschema
// struct tag for descriptions, enums and required overrides. Recursive types
// resolve through $ref/$defs so generation always terminates.
package jsonschema
