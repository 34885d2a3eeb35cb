package store

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

// sqlBuilder wraps squirrel with the placeholder style of the active driver
type sqlBuilder struct {
	sq squirrel.StatementBuilderType
}

func newSQLBuilder(driver string) *sqlBuilder {
	var format squirrel.PlaceholderFormat = squirrel.Question
	if driver == "pgx" {
		format = squirrel.Dollar
	}
	return &sqlBuilder{
		sq: squirrel.StatementBuilder.PlaceholderFormat(format),
	}
}

// buildInsert builds a safe INSERT query
func (b *sqlBuilder) buildInsert(table string, columns []string, values []interface{}) (string, []interface{}, error) {
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("no columns specified for insert")
	}
	if len(columns) != len(values) {
		return "", nil, fmt.Errorf("column count (%d) does not match value count (%d)", len(columns), len(values))
	}
	return b.sq.Insert(table).Columns(columns...).Values(values...).ToSql()
}

// buildSelect builds a SELECT with an optional condition and ordering
func (b *sqlBuilder) buildSelect(table string, columns []string, where squirrel.Sqlizer, orderBy ...string) (string, []interface{}, error) {
	q := b.sq.Select(columns...).From(table)
	if where != nil {
		q = q.Where(where)
	}
	if len(orderBy) > 0 {
		q = q.OrderBy(orderBy...)
	}
	return q.ToSql()
}

// buildUpdate builds an UPDATE with a mandatory condition
func (b *sqlBuilder) buildUpdate(table string, set map[string]interface{}, where squirrel.Eq) (string, []interface{}, error) {
	if len(set) == 0 {
		return "", nil, fmt.Errorf("no columns specified for update")
	}
	if len(where) == 0 {
		return "", nil, fmt.Errorf("no condition specified for update")
	}
	return b.sq.Update(table).SetMap(set).Where(where).ToSql()
}

// buildDelete builds a DELETE with a mandatory condition
func (b *sqlBuilder) buildDelete(table string, where squirrel.Eq) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, fmt.Errorf("no condition specified for delete")
	}
	return b.sq.Delete(table).Where(where).ToSql()
}
