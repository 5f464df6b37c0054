package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"only spaces", "   ", nil},
		{"commas only", ",,", nil},
		{"wildcard", "*", []string{"*"}},
		{"two origins", "https://a.example, https://b.example", []string{"https://a.example", "https://b.example"}},
		{"stray commas", ",https://a.example,,", []string{"https://a.example"}},
		{"duplicates keep first", "b, a, b , a", []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}
