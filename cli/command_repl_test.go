package cli

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCompleteInputDirectives(t *testing.T) {
	assert.Equal(t, []string{"\\dataset"}, completeInput("\\da"))
	assert.Equal(t, []string{"\\h", "\\help"}, completeInput("\\h"))
	assert.Equal(t, 0, len(completeInput("\\nope")))
}

func TestCompleteInputWords(t *testing.T) {
	matches := completeInput(`*[_type == "post"] | or`)
	assert.Equal(t, []string{`*[_type == "post"] | order`}, matches)

	assert.Equal(t, []string{"*[defined", "*[desc"}, completeInput("*[de"))

	assert.Equal(t, 0, len(completeInput("count(")))
	assert.Equal(t, 0, len(completeInput("")))
}

func TestCompletionWordsIncludeFunctionTable(t *testing.T) {
	words := completionWords()

	seen := make(map[string]bool, len(words))
	for _, word := range words {
		seen[word] = true
	}

	assert.True(t, seen["count"])
	assert.True(t, seen["references"])
	assert.True(t, seen["coalesce"])
	assert.True(t, seen["order"])
}
