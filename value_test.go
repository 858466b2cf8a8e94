package lakeq

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected Kind
	}{
		{"nil", nil, KindNull},
		{"bool", true, KindBool},
		{"number", 3.5, KindNumber},
		{"string", "abc", KindString},
		{"array", []any{1.0}, KindArray},
		{"object", map[string]any{"a": 1.0}, KindObject},
		{"unknown type counts as null", struct{}{}, KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.value))
		})
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{"null is falsy", nil, false},
		{"false is falsy", false, false},
		{"true is truthy", true, true},
		{"zero is truthy", 0.0, true},
		{"empty string is truthy", "", true},
		{"empty array is truthy", []any{}, true},
		{"empty object is truthy", map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTruthy(tt.value))
		})
	}
}

func TestCompare_KindRank(t *testing.T) {
	// null < boolean < number < string < array < object
	ranked := []any{
		nil,
		false,
		42.0,
		"text",
		[]any{1.0},
		map[string]any{"k": 1.0},
	}

	for i := range ranked {
		for j := range ranked {
			got := Compare(ranked[i], ranked[j])
			switch {
			case i < j:
				assert.Equal(t, -1, got)
			case i > j:
				assert.Equal(t, 1, got)
			}
		}
	}
}

func TestCompare_WithinKind(t *testing.T) {
	tests := []struct {
		name     string
		a, b     any
		expected int
	}{
		{"false before true", false, true, -1},
		{"numbers natural", 1.0, 2.0, -1},
		{"equal numbers", 2.5, 2.5, 0},
		{"strings byte-wise", "a", "b", -1},
		{"byte order not locale order", "B", "a", -1},
		{"equal strings", "x", "x", 0},
		{"arrays tie at rank", []any{1.0}, []any{2.0, 3.0}, 0},
		{"objects tie at rank", map[string]any{"a": 1.0}, map[string]any{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compare(tt.a, tt.b))
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     any
		expected bool
	}{
		{"nulls equal", nil, nil, true},
		{"number equality", 1.0, 1.0, true},
		{"number inequality", 1.0, 2.0, false},
		{"cross kind never equal", 1.0, "1", false},
		{"arrays element-wise", []any{1.0, "a"}, []any{1.0, "a"}, true},
		{"array length matters", []any{1.0}, []any{1.0, 2.0}, false},
		{"array order matters", []any{1.0, 2.0}, []any{2.0, 1.0}, false},
		{
			"objects key-wise",
			map[string]any{"a": 1.0, "b": []any{"x"}},
			map[string]any{"b": []any{"x"}, "a": 1.0},
			true,
		},
		{
			"object extra key",
			map[string]any{"a": 1.0},
			map[string]any{"a": 1.0, "b": 2.0},
			false,
		},
		{
			"nested difference",
			map[string]any{"a": map[string]any{"x": 1.0}},
			map[string]any{"a": map[string]any{"x": 2.0}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Equal(tt.a, tt.b))
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	in := map[string]any{
		"int":    7,
		"int64":  int64(9),
		"uint":   uint(3),
		"float":  float32(1.5),
		"nested": []any{1, int64(2), map[string]any{"n": 4}},
		"str":    "unchanged",
	}

	out := NormalizeValue(in).(map[string]any)

	assert.Equal(t, 7.0, out["int"].(float64))
	assert.Equal(t, 9.0, out["int64"].(float64))
	assert.Equal(t, 3.0, out["uint"].(float64))
	assert.Equal(t, 1.5, out["float"].(float64))
	assert.Equal(t, "unchanged", out["str"].(string))

	nested := out["nested"].([]any)
	assert.Equal(t, 1.0, nested[0].(float64))
	assert.Equal(t, 2.0, nested[1].(float64))
	assert.Equal(t, 4.0, nested[2].(map[string]any)["n"].(float64))
}
