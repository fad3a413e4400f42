package models

import (
	"fmt"
	"strconv"
)

// stringify renders a payload value for filter comparison. JSON numbers
// decode as float64, so integral floats print without a fraction.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
