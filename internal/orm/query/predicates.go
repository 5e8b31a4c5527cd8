package query

import (
	"fmt"
	"strings"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
)

// Operator represents a SQL comparison operator
type Operator int

const (
	OpEqual Operator = iota
	OpIn
	OpIsNull
	OpExists
)

// String returns the SQL representation of the operator
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpIn:
		return "IN"
	case OpIsNull:
		return "IS NULL"
	case OpExists:
		return "EXISTS"
	default:
		return "="
	}
}

// Condition represents a single WHERE condition. Column is an already
// qualified column reference.
type Condition struct {
	Column   string
	Operator Operator
	Value    interface{}
	Exists   *Subquery
}

// Subquery is a correlated EXISTS probe against a link table:
// SELECT 1 FROM Table AS Alias WHERE Correlation AND Alias.KeyColumn IN (Keys)
type Subquery struct {
	Table       string
	Alias       string
	Correlation string
	KeyColumn   string
	Keys        []interface{}
}

// PredicateGroup represents a group of conditions joined by AND, or by OR
// when Or is set
type PredicateGroup struct {
	Conditions []*Condition
	Groups     []*PredicateGroup
	Or         bool
}

// params numbers placeholders in render order and collects their arguments
type params struct {
	dialect dialect.Dialect
	args    []interface{}
}

func (p *params) add(v interface{}) string {
	p.args = append(p.args, v)
	return p.dialect.Placeholder(len(p.args))
}

func (p *params) list(values []interface{}) string {
	if len(values) == 0 {
		return ""
	}
	holders := make([]string, len(values))
	for i, v := range values {
		holders[i] = p.add(v)
	}
	return strings.Join(holders, ", ")
}

// ToSQL converts a predicate group to SQL, appending its arguments to p
func (pg *PredicateGroup) ToSQL(p *params) (string, error) {
	var parts []string

	for _, cond := range pg.Conditions {
		sql, err := conditionToSQL(cond, p)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	for _, group := range pg.Groups {
		sql, err := group.ToSQL(p)
		if err != nil {
			return "", err
		}
		if sql != "" {
			parts = append(parts, "("+sql+")")
		}
	}

	if len(parts) == 0 {
		return "", nil
	}

	connector := " AND "
	if pg.Or {
		connector = " OR "
	}
	return strings.Join(parts, connector), nil
}

func conditionToSQL(cond *Condition, p *params) (string, error) {
	switch cond.Operator {
	case OpEqual:
		if cond.Value == nil {
			return fmt.Sprintf("%s IS NULL", cond.Column), nil
		}
		return fmt.Sprintf("%s = %s", cond.Column, p.add(cond.Value)), nil

	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", cond.Column), nil

	case OpIn:
		values, ok := cond.Value.([]interface{})
		if !ok {
			return "", fmt.Errorf("IN operator requires a slice value")
		}
		if len(values) == 0 {
			return "1 = 0", nil
		}
		return fmt.Sprintf("%s IN (%s)", cond.Column, p.list(values)), nil

	case OpExists:
		sq := cond.Exists
		if sq == nil {
			return "", fmt.Errorf("EXISTS operator requires a subquery")
		}
		if len(sq.Keys) == 0 {
			return "1 = 0", nil
		}
		return fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE %s AND %s IN (%s))",
			dialect.QuoteIdentifier(sq.Table),
			dialect.QuoteIdentifier(sq.Alias),
			sq.Correlation,
			dialect.Qualify(sq.Alias, sq.KeyColumn),
			p.list(sq.Keys),
		), nil

	default:
		return "", fmt.Errorf("unsupported operator: %v", cond.Operator)
	}
}

// And groups conditions with AND
func And(conds ...*Condition) *PredicateGroup {
	return &PredicateGroup{Conditions: conds}
}

// Or groups conditions with OR
func Or(conds ...*Condition) *PredicateGroup {
	return &PredicateGroup{Conditions: conds, Or: true}
}
