package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// EvalCondition evaluates a restricted expression against a variable set.
// Supported forms: the literals "true" and "false", and a single numeric
// comparison "<name> <op> <number>" with op one of >, <, >=, <=, ==.
// Anything else is an error; callers fail instead of defaulting to true.
func EvalCondition(expression string, variables map[string]any) (bool, error) {
	expr := strings.TrimSpace(expression)

	switch expr {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	fields := strings.Fields(expr)
	if len(fields) != 3 {
		return false, fmt.Errorf("%w: %q", ErrUnsupportedExpression, expression)
	}

	name, op, rawNumber := fields[0], fields[1], fields[2]

	threshold, err := strconv.ParseFloat(rawNumber, 64)
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a number", ErrUnsupportedExpression, rawNumber)
	}

	raw, ok := variables[name]
	if !ok {
		return false, fmt.Errorf("condition references unknown variable %q", name)
	}

	value, ok := toFloat(raw)
	if !ok {
		return false, fmt.Errorf("variable %q is not numeric", name)
	}

	switch op {
	case ">":
		return value > threshold, nil
	case "<":
		return value < threshold, nil
	case ">=":
		return value >= threshold, nil
	case "<=":
		return value <= threshold, nil
	case "==":
		return value == threshold, nil
	default:
		return false, fmt.Errorf("%w: operator %q", ErrUnsupportedExpression, op)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)

		return parsed, err == nil
	default:
		return 0, false
	}
}
