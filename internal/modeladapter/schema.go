package modeladapter

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ReflectSchema reflects a Go value's type into a JSON-schema-like
// description suitable for passing to CompleteStructured, using the same
// reflector the teacher uses to publish its config schema. v is typically a
// zero value or pointer to the target type, never marshaled itself.
func ReflectSchema(v any) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	schema := r.Reflect(v)
	return json.Marshal(schema)
}
