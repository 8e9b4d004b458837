package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatError(t *testing.T) {
	out := FormatError(ErrorOptions{
		Context:      "invalid filter",
		Problem:      "2 filter parameters were rejected",
		Details:      []string{"filter{a}: bad", "filter{b}: worse"},
		Suggestions:  []string{"user"},
		HelpCommands: []string{"List fields: drest schema"},
		NoColor:      true,
	})

	assert.Equal(t, "✗ INVALID FILTER: 2 filter parameters were rejected\n"+
		"   filter{a}: bad\n"+
		"   filter{b}: worse\n"+
		"\n"+
		"   Did you mean: user?\n"+
		"\n"+
		"   → List fields: drest schema\n", out)
}

func TestFormatErrorWarning(t *testing.T) {
	out := FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: "cycle detected", NoColor: true})
	assert.Equal(t, "! cycle detected\n", out)
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	WriteError(&buf, ErrorOptions{Problem: "boom", NoColor: true})
	assert.Equal(t, "✗ boom\n", buf.String())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "✓ done", FormatSuccess("done", true))

	out := ResourceNotFoundError("usr", []string{"group", "user", "event"}, true)
	assert.Contains(t, out, "RESOURCE NOT FOUND: Cannot find resource 'usr'.")
	assert.Contains(t, out, "Did you mean: user?")

	assert.Contains(t, FilterError([]string{"x"}, true), "1 filter parameter was rejected")
	assert.Contains(t, FilterError([]string{"x", "y"}, true), "2 filter parameters were rejected")
	assert.Contains(t, ConfigError(errors.New("no such file"), true), "CONFIGURATION ERROR: no such file")
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"displayName", "display", "uid", "groups"}

	assert.Equal(t, []string{"display"}, FindSimilar("dispay", candidates, nil))
	assert.Equal(t, []string{"uid"}, FindSimilar("UID", candidates, nil))
	assert.Empty(t, FindSimilar("UID", candidates, &FuzzyMatchOptions{CaseSensitive: true, MaxDistance: 1}))
	assert.Len(t, FindSimilar("a", []string{"b", "c", "d", "e"}, &FuzzyMatchOptions{MaxSuggestions: 2}), 2)
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"groups", "groups", 0},
		{"über", "uber", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "%q -> %q", tt.a, tt.b)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "FIELD", "SOURCE")
	table.AddRow("displayName", "name")
	table.AddRow("uid")
	table.Render()

	assert.Equal(t, "FIELD        SOURCE\n"+
		"───────────  ──────\n"+
		"displayName  name\n"+
		"uid\n", buf.String())
}
