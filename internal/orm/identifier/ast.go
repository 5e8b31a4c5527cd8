// Package identifier parses and evaluates identifier expressions, the
// path language used to name existing records:
//
//	Category:field.value&&field.value
//
// A value containing ':' is itself an expression whose keys constrain the
// field. Nested condition lists are escaped one level down as &#&, and
// &##& one level further.
package identifier

// Expr is a parsed identifier expression
type Expr struct {
	Category   string
	Conditions []Condition
}

// Condition constrains one field of the category
type Condition struct {
	Field string
	Value Value
}

// Value is either a Literal or a Nested expression
type Value interface {
	isValue()
}

// Literal is a plain value compared with equality
type Literal struct {
	Text string
}

// Nested is an expression whose resolved keys constrain the field
type Nested struct {
	Expr *Expr
}

func (Literal) isValue() {}
func (Nested) isValue()  {}

// String re-encodes the expression. Expressions that cannot be encoded
// render best effort; use Format to detect them.
func (e *Expr) String() string {
	s, _ := Format(e)
	return s
}

func valueText(v Value) string {
	switch v := v.(type) {
	case Literal:
		return v.Text
	case Nested:
		return v.Expr.String()
	default:
		return ""
	}
}
