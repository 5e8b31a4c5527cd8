package identifier

import (
	"fmt"
	"strings"
)

// Format encodes an expression so that Parse returns an equal one.
// Condition lists may be nested at most two levels below the top.
func Format(e *Expr) (string, error) {
	if e == nil {
		return "", &MalformedExpressionError{Reason: "nil expression"}
	}

	var firstErr error
	fail := func(reason string) {
		if firstErr == nil {
			firstErr = &MalformedExpressionError{Input: e.Category, Reason: reason}
		}
	}

	if e.Category == "" || strings.Contains(e.Category, ":") {
		fail(fmt.Sprintf("invalid category %q", e.Category))
	}
	if len(e.Conditions) == 0 {
		fail("no conditions")
	}

	parts := make([]string, len(e.Conditions))
	for i, c := range e.Conditions {
		if c.Field == "" || strings.ContainsAny(c.Field, ".:") || strings.Contains(c.Field, "&") {
			fail(fmt.Sprintf("invalid field %q", c.Field))
		}

		var text string
		switch v := c.Value.(type) {
		case Literal:
			if strings.Contains(v.Text, ":") || hasToken(v.Text) {
				fail(fmt.Sprintf("value %q of %s cannot be encoded", v.Text, c.Field))
			}
			text = v.Text
		case Nested:
			inner, err := Format(v.Expr)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			if strings.Contains(inner, escapeTwice) {
				fail("condition lists nest at most two levels deep")
			}
			text = escape(inner)
		default:
			fail(fmt.Sprintf("field %s has no value", c.Field))
		}
		parts[i] = c.Field + "." + text
	}

	return e.Category + ":" + strings.Join(parts, separator), firstErr
}

func hasToken(s string) bool {
	return strings.Contains(s, separator) || strings.Contains(s, escapeOnce) || strings.Contains(s, escapeTwice)
}
