package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		max  int
		want int
	}{
		{"", "", 2, 0},
		{"abc", "abc", 2, 0},
		{"factsale", "factsales", 2, 1},
		{"dimprodcut", "dimproduct", 2, 2},
		{"kitten", "sitting", 3, 3},
		{"abc", "xyz", 2, -1},
		{"short", "muchlongername", 2, -1}, // length gap alone exceeds the bound
		{"ab", "", 2, 2},
		{"abcd", "", 2, -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshtein(tt.a, tt.b, tt.max))
			assert.Equal(t, tt.want, levenshtein(tt.b, tt.a, tt.max), "distance must be symmetric")
		})
	}
}
