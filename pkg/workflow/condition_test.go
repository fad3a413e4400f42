package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalCondition(t *testing.T) {
	variables := map[string]any{
		"count":  float64(5),
		"limit":  10,
		"label":  "hello",
		"amount": "3.5",
	}

	tests := []struct {
		name       string
		expression string
		want       bool
	}{
		{"literal true", "true", true},
		{"literal false", "false", false},
		{"literal with whitespace", "  true  ", true},
		{"greater than", "count > 3", true},
		{"greater than false", "count > 9", false},
		{"less than", "count < 10", true},
		{"greater or equal boundary", "count >= 5", true},
		{"less or equal boundary", "count <= 5", true},
		{"equality", "limit == 10", true},
		{"numeric string variable", "amount > 3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalCondition(tt.expression, variables)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalConditionErrors(t *testing.T) {
	variables := map[string]any{
		"count": 5,
		"label": "hello",
	}

	tests := []struct {
		name       string
		expression string
	}{
		{"empty expression", ""},
		{"garbage", "count >>> banana"},
		{"too many tokens", "count > 3 and more"},
		{"unknown operator", "count ~ 3"},
		{"non numeric threshold", "count > banana"},
		{"unknown variable", "missing > 3"},
		{"non numeric variable", "label > 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvalCondition(tt.expression, variables)
			require.Error(t, err)
		})
	}
}
