package expr

import (
	"fmt"
	"strconv"
)

// stringify renders a resolved value for embedding inside a larger
// string template, using the engine's canonical JSON-like form: integers
// without a trailing ".0", booleans lowercase, and nil (missing data) as
// the text "null".
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return stringify(float64(val))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// truthy implements the minimal-language's notion of truthiness for
// evaluateCondition: nil, false, "", a zero float64 or int, and an empty
// []interface{} or map[string]interface{} are falsy; every other value,
// including a zero of any other numeric type, is truthy.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}
