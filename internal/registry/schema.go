package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// descriptorSchema constrains the declarative part of a module descriptor.
// Registration refuses descriptors that do not validate, so a module cannot
// smuggle in an entry with a missing safety class or a capability-gated
// function without capabilities.
const descriptorSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "functions"],
  "properties": {
    "name": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
    "runtime": {"type": "string"},
    "functions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "kind", "safety"],
        "properties": {
          "name": {"type": "string", "pattern": "^[a-zA-Z_][a-zA-Z0-9_]*$"},
          "kind": {"enum": ["function", "attribute", "method"]},
          "owner": {"type": "string"},
          "safety": {"enum": ["safe", "capability-gated", "denied"]},
          "capabilities": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["capability", "resource_arg"],
              "properties": {
                "capability": {"type": "string", "minLength": 1},
                "resource_arg": {"type": "integer", "minimum": -1}
              }
            }
          }
        },
        "allOf": [
          {
            "if": {"properties": {"safety": {"const": "capability-gated"}}},
            "then": {"required": ["capabilities"]}
          },
          {
            "if": {"properties": {"kind": {"enum": ["attribute", "method"]}}},
            "then": {"required": ["owner"]}
          }
        ]
      }
    }
  }
}`

var compiledDescriptorSchema = jsonschema.MustCompileString("descriptor.schema.json", descriptorSchema)

// validateDescriptor checks the declarative fields of a descriptor against
// the embedded schema. Implementation funcs carry `json:"-"` and are not part
// of the validated document.
func validateDescriptor(desc *ModuleDescriptor) error {
	raw, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("module %s: marshal descriptor: %w", desc.Name, err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("module %s: decode descriptor: %w", desc.Name, err)
	}
	if err := compiledDescriptorSchema.Validate(doc); err != nil {
		return fmt.Errorf("module %s: descriptor schema validation failed: %w", desc.Name, err)
	}
	return nil
}
