package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"It's", "a", "well-known", "fact", "42"}, Words("It's a well-known fact: 42!"))
	assert.Empty(t, Words("  -- ... "))
	assert.Equal(t, 3, WordCount("één twee drie"))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "basic",
			in:   "Solar works. It is cheap! Is it safe?",
			want: []string{"Solar works.", "It is cheap!", "Is it safe?"},
		},
		{
			name: "decimal and abbreviation",
			in:   "Panels cost 2.5 euro per watt, e.g. in Spain. Prices fall.",
			want: []string{"Panels cost 2.5 euro per watt, e.g. in Spain.", "Prices fall."},
		},
		{
			name: "no terminal punctuation",
			in:   "A fragment without a stop",
			want: []string{"A fragment without a stop"},
		},
		{
			name: "paragraph break",
			in:   "First line\n\nSecond line.",
			want: []string{"First line", "Second line."},
		},
		{
			name: "empty",
			in:   "   ",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

func TestCountPhrase(t *testing.T) {
	text := "Solar panels help. A solar panel array uses solar panels; solarpanels is not a word."
	assert.Equal(t, 2, CountPhrase(text, "solar panels"))
	assert.Equal(t, 1, CountPhrase(text, "Solar Panel"))
	assert.Equal(t, 0, CountPhrase(text, ""))
	assert.True(t, ContainsPhrase(text, "array"))
	assert.Equal(t, "Solar panels help.", FirstSentence(text))
}
