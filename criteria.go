package strata

import (
	"fmt"
	"strings"

	"github.com/zoobzio/astql"
)

// operatorMap translates string operators to ASTQL operators.
var operatorMap = map[string]astql.Operator{
	"=":  astql.EQ,
	"!=": astql.NE,
	">":  astql.GT,
	">=": astql.GE,
	"<":  astql.LT,
	"<=": astql.LE,

	"LIKE":      astql.LIKE,
	"NOT LIKE":  astql.NotLike,
	"ILIKE":     astql.ILIKE,
	"NOT ILIKE": astql.NotILike,

	"IN":     astql.IN,
	"NOT IN": astql.NotIn,
}

// directionMap translates string directions to ASTQL directions.
var directionMap = map[string]astql.Direction{
	"asc":  astql.ASC,
	"desc": astql.DESC,
}

// validateOperator converts a string operator to an ASTQL operator.
func validateOperator(op string) (astql.Operator, error) {
	astqlOp, ok := operatorMap[strings.ToUpper(op)]
	if !ok {
		// Symbolic operators are case-sensitive as written.
		astqlOp, ok = operatorMap[op]
	}
	if !ok {
		return "", newOperatorError(op)
	}
	return astqlOp, nil
}

// validateDirection converts a string direction to an ASTQL direction.
func validateDirection(dir string) (astql.Direction, error) {
	astqlDir, ok := directionMap[strings.ToLower(dir)]
	if !ok {
		return "", newDirectionError(dir)
	}
	return astqlDir, nil
}

// Criteria accumulates predicates, ordering, and limits for one verb call.
// It is the target that filter and mask hooks write into: hooks translate
// carrier fields into schema-validated conditions, and the bound values are
// carried alongside so the verb can execute with named parameters.
//
// A Criteria is created fresh at the top of every verb, so conditions from a
// prior call can never leak into the next.
type Criteria struct {
	instance *astql.ASTQL
	builder  *astql.Builder
	binds    map[string]any
	hasWhere bool
	err      error
}

func newCriteria(instance *astql.ASTQL, builder *astql.Builder) *Criteria {
	return &Criteria{
		instance: instance,
		builder:  builder,
		binds:    make(map[string]any),
	}
}

// bindName reserves a unique named-parameter slot derived from base.
func (c *Criteria) bindName(base string) string {
	name := base
	for n := 2; ; n++ {
		if _, taken := c.binds[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
}

// Where adds a single condition with the field operator value pattern.
// Multiple calls are combined with AND. The value is bound to a named
// parameter automatically.
//
// Example:
//
//	c.Where("status", "=", "active")
func (c *Criteria) Where(field, operator string, value any) *Criteria {
	if c.err != nil {
		return c
	}

	astqlOp, err := validateOperator(operator)
	if err != nil {
		c.err = err
		return c
	}

	f, err := c.instance.TryF(field)
	if err != nil {
		c.err = newFieldError(field, err)
		return c
	}

	name := c.bindName(field)
	p, err := c.instance.TryP(name)
	if err != nil {
		c.err = newParamError(name, err)
		return c
	}

	condition, err := c.instance.TryC(f, astqlOp, p)
	if err != nil {
		c.err = newConditionError(err)
		return c
	}

	c.builder = c.builder.Where(condition)
	c.binds[name] = value
	c.hasWhere = true
	return c
}

// WhereNull adds a WHERE field IS NULL condition.
func (c *Criteria) WhereNull(field string) *Criteria {
	if c.err != nil {
		return c
	}

	f, err := c.instance.TryF(field)
	if err != nil {
		c.err = newFieldError(field, err)
		return c
	}

	condition, err := c.instance.TryNull(f)
	if err != nil {
		c.err = newConditionError(err)
		return c
	}

	c.builder = c.builder.Where(condition)
	c.hasWhere = true
	return c
}

// WhereNotNull adds a WHERE field IS NOT NULL condition.
func (c *Criteria) WhereNotNull(field string) *Criteria {
	if c.err != nil {
		return c
	}

	f, err := c.instance.TryF(field)
	if err != nil {
		c.err = newFieldError(field, err)
		return c
	}

	condition, err := c.instance.TryNotNull(f)
	if err != nil {
		c.err = newConditionError(err)
		return c
	}

	c.builder = c.builder.Where(condition)
	c.hasWhere = true
	return c
}

// WhereBetween adds a WHERE field BETWEEN low AND high condition.
func (c *Criteria) WhereBetween(field string, low, high any) *Criteria {
	if c.err != nil {
		return c
	}

	f, err := c.instance.TryF(field)
	if err != nil {
		c.err = newFieldError(field, err)
		return c
	}

	lowName := c.bindName(field + "_low")
	lowP, err := c.instance.TryP(lowName)
	if err != nil {
		c.err = newParamError(lowName, err)
		return c
	}
	c.binds[lowName] = low

	highName := c.bindName(field + "_high")
	highP, err := c.instance.TryP(highName)
	if err != nil {
		c.err = newParamError(highName, err)
		return c
	}
	c.binds[highName] = high

	c.builder = c.builder.Where(astql.Between(f, lowP, highP))
	c.hasWhere = true
	return c
}

// Set adds a SET clause entry for UPDATE builders. The value is bound to a
// dedicated named parameter so it cannot collide with WHERE binds on the
// same column.
func (c *Criteria) Set(field string, value any) *Criteria {
	if c.err != nil {
		return c
	}

	f, err := c.instance.TryF(field)
	if err != nil {
		c.err = newFieldError(field, err)
		return c
	}

	name := c.bindName("set_" + field)
	p, err := c.instance.TryP(name)
	if err != nil {
		c.err = newParamError(name, err)
		return c
	}

	c.builder = c.builder.Set(f, p)
	c.binds[name] = value
	return c
}

// OrderBy adds an ORDER BY clause. Direction is "asc" or "desc".
func (c *Criteria) OrderBy(field, direction string) *Criteria {
	if c.err != nil {
		return c
	}

	f, err := c.instance.TryF(field)
	if err != nil {
		c.err = newFieldError(field, err)
		return c
	}

	astqlDir, err := validateDirection(direction)
	if err != nil {
		c.err = err
		return c
	}

	c.builder = c.builder.OrderBy(f, astqlDir)
	return c
}

// Limit restricts the number of rows returned.
func (c *Criteria) Limit(limit int) *Criteria {
	if c.err != nil {
		return c
	}
	c.builder = c.builder.Limit(limit)
	return c
}

// Offset skips rows before returning results.
func (c *Criteria) Offset(offset int) *Criteria {
	if c.err != nil {
		return c
	}
	c.builder = c.builder.Offset(offset)
	return c
}

// Bind attaches an extra named parameter value without adding a condition.
// Useful for hooks that add conditions through the underlying builder.
func (c *Criteria) Bind(name string, value any) *Criteria {
	c.binds[name] = value
	return c
}

// HasWhere reports whether at least one condition has been added.
func (c *Criteria) HasWhere() bool {
	return c.hasWhere
}

// Err returns the first error encountered while building, if any.
func (c *Criteria) Err() error {
	return c.err
}
