package domain

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

const promptField = "prompt"

// Merge applies the override policy to userInput and returns the payload sent
// to the remote endpoint. The order is fixed: defaults, locks, hidden fields,
// prompt wrapping. userInput is never modified. A nil receiver returns a copy.
func (o *ConfigOverrides) Merge(userInput map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(userInput))
	for k, v := range userInput {
		merged[k] = v
	}
	if o == nil {
		return merged
	}

	for k, v := range o.DefaultInputs {
		if isEmptyInput(merged, k) {
			merged[k] = v
		}
	}

	for k, v := range o.LockedInputs {
		merged[k] = v
	}

	for _, name := range o.HiddenFields {
		delete(merged, name)
	}

	if prompt, ok := merged[promptField].(string); ok {
		merged[promptField] = stringOrEmpty(o.PromptPrefix) + prompt + stringOrEmpty(o.PromptSuffix)
	}

	return merged
}

// TransformSchema returns the consumer-facing copy of a JSON-schema-like input
// descriptor: hidden fields are removed from properties and required, locked
// fields become readOnly with their fixed value as default, and default inputs
// fill in a default where the property has none. base must hold JSON-decoded
// values and is never modified.
func (o *ConfigOverrides) TransformSchema(base map[string]interface{}) map[string]interface{} {
	if base == nil {
		return nil
	}
	schema := runtime.DeepCopyJSON(base)
	if o == nil {
		return schema
	}

	for _, name := range o.HiddenFields {
		unstructured.RemoveNestedField(schema, "properties", name)
	}
	if len(o.HiddenFields) > 0 {
		removeRequired(schema, o.HiddenFields)
	}

	for k, v := range o.LockedInputs {
		if prop := schemaProperty(schema, k); prop != nil {
			prop["readOnly"] = true
			prop["default"] = v
		}
	}

	for k, v := range o.DefaultInputs {
		if _, locked := o.LockedInputs[k]; locked {
			continue
		}
		prop := schemaProperty(schema, k)
		if prop == nil {
			continue
		}
		if _, has := prop["default"]; !has {
			prop["default"] = v
		}
	}

	return schema
}

func isEmptyInput(input map[string]interface{}, key string) bool {
	v, ok := input[key]
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func schemaProperty(schema map[string]interface{}, name string) map[string]interface{} {
	v, found, err := unstructured.NestedFieldNoCopy(schema, "properties", name)
	if err != nil || !found {
		return nil
	}
	prop, _ := v.(map[string]interface{})
	return prop
}

func removeRequired(schema map[string]interface{}, hidden []string) {
	required, found, err := unstructured.NestedStringSlice(schema, "required")
	if err != nil || !found {
		return
	}

	drop := make(map[string]struct{}, len(hidden))
	for _, h := range hidden {
		drop[h] = struct{}{}
	}

	kept := make([]interface{}, 0, len(required))
	for _, r := range required {
		if _, hide := drop[r]; !hide {
			kept = append(kept, r)
		}
	}
	schema["required"] = kept
}
