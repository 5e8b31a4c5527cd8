package identifier

import (
	"fmt"
	"strings"
)

const (
	separator   = "&&"
	escapeOnce  = "&#&"
	escapeTwice = "&##&"
)

// Parse parses an identifier expression
func Parse(input string) (*Expr, error) {
	category, rest, ok := strings.Cut(input, ":")
	if !ok {
		return nil, &MalformedExpressionError{Input: input, Reason: "expected Category:field.value"}
	}
	if category == "" {
		return nil, &MalformedExpressionError{Input: input, Reason: "empty category"}
	}
	if rest == "" {
		return nil, &MalformedExpressionError{Input: input, Reason: "no conditions"}
	}

	e := &Expr{Category: category}
	for _, part := range strings.Split(rest, separator) {
		field, raw, ok := strings.Cut(part, ".")
		if !ok || field == "" {
			return nil, &MalformedExpressionError{Input: input, Reason: fmt.Sprintf("condition %q is not of the form field.value", part)}
		}

		value := unescape(raw)
		if !strings.Contains(value, ":") {
			e.Conditions = append(e.Conditions, Condition{Field: field, Value: Literal{Text: value}})
			continue
		}

		nested, err := Parse(value)
		if err != nil {
			return nil, err
		}
		e.Conditions = append(e.Conditions, Condition{Field: field, Value: Nested{Expr: nested}})
	}
	return e, nil
}

// unescape unwraps one nesting level of condition separators
func unescape(value string) string {
	value = strings.ReplaceAll(value, escapeOnce, separator)
	return strings.ReplaceAll(value, escapeTwice, escapeOnce)
}

// escape wraps an encoded expression for use one level down
func escape(value string) string {
	value = strings.ReplaceAll(value, escapeOnce, escapeTwice)
	return strings.ReplaceAll(value, separator, escapeOnce)
}
