package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/labbookdb/labbookdb/internal/orm/crud"
	"github.com/labbookdb/labbookdb/internal/orm/identifier"
	"github.com/labbookdb/labbookdb/internal/orm/query"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ UNKNOWN CATEGORY: Cgae
//	   No category named 'Cgae'.
//
//	   Did you mean: Cage?
//
//	   → See all categories: labbookdb schema
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	default:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	}

	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(opts.Context))
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		bodyColor.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
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
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// Warning creates a standardized warning message
func Warning(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelWarning,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     noColor,
	})
}

// DescribeError maps an error of the resolution layer to display options.
// Unknown names get suggestions from the registry.
func DescribeError(err error, reg *schema.Registry, noColor bool) ErrorOptions {
	opts := ErrorOptions{Level: ErrorLevelError, Problem: err.Error(), NoColor: noColor}

	var (
		unknownCategory *schema.UnknownCategoryError
		unknownField    *schema.UnknownFieldError
		notFound        *identifier.NotFoundError
		malformed       *identifier.MalformedExpressionError
		ambiguous       *query.AmbiguousJoinError
	)

	switch {
	case errors.As(err, &unknownCategory):
		opts.Context = "unknown category"
		opts.Problem = fmt.Sprintf("No category named '%s'.", unknownCategory.Name)
		if reg != nil {
			opts.Suggestions = FindSimilar(unknownCategory.Name, reg.Categories(), nil)
		}
		opts.HelpCommands = []string{"See all categories: labbookdb schema"}

	case errors.As(err, &unknownField):
		opts.Context = "unknown field"
		opts.Problem = fmt.Sprintf("%s has no field or relationship '%s'.", unknownField.Category, unknownField.Field)
		if reg != nil {
			if t, rerr := reg.Resolve(unknownField.Category); rerr == nil {
				opts.Suggestions = FindSimilar(unknownField.Field, t.SettableFields(), nil)
			}
		}
		opts.HelpCommands = []string{fmt.Sprintf("See its fields: labbookdb schema %s", unknownField.Category)}

	case errors.As(err, &notFound):
		opts.Context = "not found"
		opts.Problem = notFound.Error()
		opts.Consequence = "Nothing was written."

	case errors.As(err, &malformed):
		opts.Context = "malformed identifier"
		opts.Problem = fmt.Sprintf("%s: %s", malformed.Input, malformed.Reason)
		opts.HelpCommands = []string{"Identifiers look like Category:field.value&&field.value"}

	case errors.As(err, &ambiguous):
		opts.Context = "ambiguous join"

	case errors.Is(err, query.ErrInvalidSpec), errors.Is(err, query.ErrNotJoined), errors.Is(err, query.ErrNoJoinPath):
		opts.Context = "invalid query"

	case errors.Is(err, crud.ErrMissingCategory):
		opts.Context = "missing category"
		opts.Problem = "The parameter tree has no CATEGORY key."
		opts.HelpCommands = []string{"See all categories: labbookdb schema"}

	case errors.Is(err, crud.ErrInvalidParameter), errors.Is(err, schema.ErrMalformedValue):
		opts.Context = "invalid parameter"
		opts.Consequence = "Nothing was written."

	case errors.Is(err, crud.ErrUniqueViolation), errors.Is(err, crud.ErrForeignKeyViolation),
		errors.Is(err, crud.ErrNotNullViolation), errors.Is(err, crud.ErrCheckViolation):
		opts.Context = "constraint violation"
		opts.Consequence = "The transaction was rolled back."
	}

	return opts
}
