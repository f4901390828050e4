package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		today     map[string]struct{}
		yesterday map[string]struct{}
		want      Partition
	}{
		{
			name:      "bootstrap",
			today:     set("b", "a"),
			yesterday: set(),
			want:      Partition{New: []string{"a", "b"}, Removed: []string{}, Persisting: []string{}},
		},
		{
			name:      "everything removed",
			today:     set(),
			yesterday: set("x", "y"),
			want:      Partition{New: []string{}, Removed: []string{"x", "y"}, Persisting: []string{}},
		},
		{
			name:      "mixed",
			today:     set("B", "C"),
			yesterday: set("A", "B"),
			want:      Partition{New: []string{"C"}, Removed: []string{"A"}, Persisting: []string{"B"}},
		},
		{
			name:      "keys match exactly",
			today:     set("abc"),
			yesterday: set("ABC", "abc "),
			want:      Partition{New: []string{"abc"}, Removed: []string{"ABC", "abc "}, Persisting: []string{}},
		},
		{
			name:      "both empty",
			today:     set(),
			yesterday: nil,
			want:      Partition{New: []string{}, Removed: []string{}, Persisting: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.today, tt.yesterday)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(union(tt.today, tt.yesterday)), got.Len())
		})
	}
}

func TestDiff_SortedByteOrder(t *testing.T) {
	got := Diff(set("b", "B", "a", "_", "10", "9"), nil)
	assert.Equal(t, []string{"10", "9", "B", "_", "a", "b"}, got.New)
}

func union(a, b map[string]struct{}) map[string]struct{} {
	u := make(map[string]struct{})
	for k := range a {
		u[k] = struct{}{}
	}
	for k := range b {
		u[k] = struct{}{}
	}
	return u
}
