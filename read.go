package strata

import (
	"context"

	"github.com/zoobzio/astql"
	"github.com/zoobzio/capitan"
)

// All returns every record matching the filter hook's predicates.
//
// Example:
//
//	users, err := repo.All(ctx, strata.NewParams(map[string]any{"status": "active"}, nil))
func (r *Repository[T]) All(ctx context.Context, p *Params) ([]*T, error) {
	c, err := r.selectCriteria(p)
	if err != nil {
		return nil, err
	}

	result, err := c.builder.Render(r.renderer)
	if err != nil {
		return nil, newRenderError("SELECT", err)
	}

	return execRows[T](ctx, r.db, result.SQL, c.binds, r.tableName, "SELECT")
}

// Count returns the number of records matching the filter hook's predicates.
func (r *Repository[T]) Count(ctx context.Context, p *Params) (int64, error) {
	c, err := r.countCriteria(p)
	if err != nil {
		return 0, err
	}

	result, err := c.builder.Render(r.renderer)
	if err != nil {
		return 0, newRenderError("COUNT", err)
	}

	return execScalar(ctx, r.db, result.SQL, c.binds, r.tableName, "COUNT")
}

// GetList returns one page of records matching the filter hook's
// predicates. The page size comes from the per_page option, falling back to
// the configured default; the page number comes from the page option,
// defaulting to 1. The total is counted under the same filter.
func (r *Repository[T]) GetList(ctx context.Context, p *Params) (*Page[T], error) {
	p = emptyParams(p)
	perPage := p.OptionInt("per_page", r.perPage)
	if perPage <= 0 {
		perPage = r.perPage
	}
	page := p.OptionInt("page", 1)
	if page < 1 {
		page = 1
	}

	total, err := r.Count(ctx, p)
	if err != nil {
		return nil, err
	}

	c, err := r.selectCriteria(p)
	if err != nil {
		return nil, err
	}
	c.Limit(perPage).Offset((page - 1) * perPage)

	result, err := c.builder.Render(r.renderer)
	if err != nil {
		return nil, newRenderError("GETLIST", err)
	}

	items, err := execRows[T](ctx, r.db, result.SQL, c.binds, r.tableName, "GETLIST")
	if err != nil {
		return nil, err
	}

	capitan.Debug(ctx, QueryCompleted,
		TableKey.Field(r.tableName),
		OperationKey.Field("GETLIST"),
		PageKey.Field(page),
		PerPageKey.Field(perPage),
		RowsReturnedKey.Field(len(items)),
	)

	return &Page[T]{
		Items:    items,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		LastPage: lastPage(total, perPage),
	}, nil
}

// Find returns the record with the given primary key value. No hook is
// applied. Returns ErrNotFound when the id matches nothing.
func (r *Repository[T]) Find(ctx context.Context, id any) (*T, error) {
	t, err := r.instance.TryT(r.tableName)
	if err != nil {
		return nil, newTableError(r.tableName, err)
	}

	c := newCriteria(r.instance, astql.Select(t))
	c.Where(r.pkColumn, "=", id)
	if err := c.Err(); err != nil {
		return nil, err
	}

	result, err := c.builder.Render(r.renderer)
	if err != nil {
		return nil, newRenderError("FIND", err)
	}

	return execSingle[T](ctx, r.db, result.SQL, c.binds, r.tableName, "FIND")
}

// First returns the first record matching the filter hook's predicates.
// Returns ErrNotFound when nothing matches.
func (r *Repository[T]) First(ctx context.Context, p *Params) (*T, error) {
	c, err := r.selectCriteria(p)
	if err != nil {
		return nil, err
	}
	c.Limit(1)

	result, err := c.builder.Render(r.renderer)
	if err != nil {
		return nil, newRenderError("FIRST", err)
	}

	records, err := execRows[T](ctx, r.db, result.SQL, c.binds, r.tableName, "FIRST")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}
