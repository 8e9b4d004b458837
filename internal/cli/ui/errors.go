// Package ui renders colored terminal output for the drest CLI.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

func newColor(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError creates a standardized error message
//
// Example output:
//
//	✗ INVALID FILTER: 2 filter parameters were rejected
//	   filter{nope}: Invalid filter field: nope
//	   filter{uid.sub}: Invalid nested filter field: uid
//
//	   → List fields: drest schema
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	headerAttrs, bodyAttrs := []color.Attribute{color.FgRed, color.Bold}, []color.Attribute{color.FgRed}
	symbol := "✗"
	if opts.Level == ErrorLevelWarning {
		headerAttrs, bodyAttrs = []color.Attribute{color.FgYellow, color.Bold}, []color.Attribute{color.FgYellow}
		symbol = "!"
	}
	header := newColor(opts.NoColor, headerAttrs...)
	body := newColor(opts.NoColor, bodyAttrs...)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, detail := range opts.Details {
		body.Fprintf(&b, "   %s\n", detail)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		newColor(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := newColor(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return newColor(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// ResourceNotFoundError reports an unknown resource with close matches
func ResourceNotFoundError(resource string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:      "resource not found",
		Problem:      fmt.Sprintf("Cannot find resource '%s'.", resource),
		Suggestions:  FindSimilar(resource, known, nil),
		HelpCommands: []string{"See all resources: drest schema"},
		NoColor:      noColor,
	})
}

// FilterError reports every rejected filter parameter, one per line
func FilterError(messages []string, noColor bool) string {
	problem := "1 filter parameter was rejected"
	if len(messages) != 1 {
		problem = fmt.Sprintf("%d filter parameters were rejected", len(messages))
	}
	return FormatError(ErrorOptions{
		Context:      "invalid filter",
		Problem:      problem,
		Details:      messages,
		HelpCommands: []string{"List fields: drest schema"},
		NoColor:      noColor,
	})
}

// ConfigError reports a configuration or schema loading failure
func ConfigError(err error, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "configuration error",
		Problem: err.Error(),
		HelpCommands: []string{
			"Config file: drest.yaml or --config <path>",
			"Environment overrides: DREST_<SECTION>_<KEY>",
		},
		NoColor: noColor,
	})
}
