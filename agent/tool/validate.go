package tool

import (
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// Validate checks args against the definition's parameter schema: required
// fields first, then a primitive type check for every declared parameter
// that is present. Unknown extra keys are ignored for forward compatibility.
// It fails fast on the first violation.
func Validate(def *Definition, args map[string]any) error {
	for name, info := range def.Params {
		if info == nil || !info.Required {
			continue
		}
		if _, ok := args[name]; !ok {
			return fmt.Errorf("%w: missing required parameter %q", contractx.ErrToolValidation, name)
		}
	}

	for name, val := range args {
		info, ok := def.Params[name]
		if !ok || info == nil {
			continue
		}
		if err := checkType(name, val, info.Type); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name string, val any, want schema.DataType) error {
	switch want {
	case schema.String:
		if _, ok := val.(string); !ok {
			return fmt.Errorf("%w: parameter %q must be a string", contractx.ErrToolValidation, name)
		}
	case schema.Number, schema.Integer:
		switch val.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("%w: parameter %q must be a number", contractx.ErrToolValidation, name)
		}
	case schema.Boolean:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("%w: parameter %q must be a boolean", contractx.ErrToolValidation, name)
		}
	case schema.Array:
		if _, ok := val.([]any); !ok {
			return fmt.Errorf("%w: parameter %q must be an array", contractx.ErrToolValidation, name)
		}
	case schema.Object:
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("%w: parameter %q must be an object", contractx.ErrToolValidation, name)
		}
	}
	return nil
}
