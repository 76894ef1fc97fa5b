package bundle

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// metaSchema describes the minimum contract of meta-info.json. The
// descriptor carries many more optional fields that are passed through
// to the catalog verbatim; only the fields this package depends on are
// constrained here.
const metaSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["intent-type", "version"],
  "properties": {
    "intent-type": {
      "type": "string",
      "minLength": 1
    },
    "version": {
      "type": ["integer", "string"]
    },
    "custom-field": {},
    "targetted-device": {
      "type": "array",
      "items": {
        "type": "object"
      }
    },
    "module": false,
    "script-content": false
  }
}`

var compiledMetaSchema = jsonschema.MustCompileString("meta-info.schema.json", metaSchema)

// ValidateMeta checks a decoded meta-info.json document against the
// descriptor schema. The "module" and "script-content" keys are rejected:
// they are derived from the bundle files, a descriptor carrying them is
// almost certainly a catalog export rather than a source bundle.
func ValidateMeta(meta map[string]any) error {
	return compiledMetaSchema.Validate(map[string]any(meta))
}
