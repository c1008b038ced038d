package strata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql"
	"github.com/zoobzio/capitan"
)

// Create inserts a single record and returns it with generated columns
// populated (primary key, defaults).
func (r *Repository[T]) Create(ctx context.Context, record *T) (*T, error) {
	builder, err := r.insertBuilder(false)
	if err != nil {
		return nil, err
	}

	result, err := builder.Render(r.renderer)
	if err != nil {
		return nil, newRenderError("INSERT", err)
	}

	created, err := execSingle[T](ctx, r.db, result.SQL, record, r.tableName, "INSERT")
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrStoreFailed
		}
		return nil, err
	}
	return created, nil
}

// Insert bulk-inserts records, executing the rendered statement once per
// record. Returns the number of rows inserted; a mid-batch failure reports
// the count inserted so far alongside the error.
func (r *Repository[T]) Insert(ctx context.Context, records []*T) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	builder, err := r.insertBuilder(false)
	if err != nil {
		return 0, err
	}

	result, err := builder.Render(r.renderer)
	if err != nil {
		return 0, newRenderError("INSERT_BATCH", err)
	}

	capitan.Debug(ctx, QueryStarted,
		TableKey.Field(r.tableName),
		OperationKey.Field("INSERT_BATCH"),
		SQLKey.Field(result.SQL),
	)

	startTime := time.Now()

	var count int64
	for _, record := range records {
		res, err := sqlx.NamedExecContext(ctx, r.db, result.SQL, record)
		if err != nil {
			emitFailed(ctx, r.tableName, "INSERT_BATCH", startTime, err)
			return count, fmt.Errorf("batch INSERT failed after %d records: %w", count, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			emitFailed(ctx, r.tableName, "INSERT_BATCH", startTime, err)
			return count, fmt.Errorf("failed to get rows affected: %w", err)
		}
		count += affected
	}

	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(r.tableName),
		OperationKey.Field("INSERT_BATCH"),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		RowsAffectedKey.Field(count),
	)

	return count, nil
}

// Update sets every data field of the carrier on the rows selected by the
// mask hook and returns the affected-row count. At least one WHERE condition
// is required, so a repository with the default no-op mask refuses
// unconditional full-table updates.
func (r *Repository[T]) Update(ctx context.Context, p *Params) (int64, error) {
	p = emptyParams(p)

	c, err := r.updateCriteria()
	if err != nil {
		return 0, err
	}

	keys := p.Data()
	if len(keys) == 0 {
		return 0, fmt.Errorf("UPDATE requires at least one field to set")
	}
	for _, key := range keys {
		c.Set(key, p.Get(key))
	}
	if err := c.Err(); err != nil {
		return 0, err
	}

	if err := r.applyMask(c, p); err != nil {
		return 0, err
	}

	if !c.HasWhere() {
		return 0, newOpError("UPDATE", http.StatusInternalServerError, ErrWhereRequired)
	}

	result, err := c.builder.Render(r.renderer)
	if err != nil {
		return 0, newRenderError("UPDATE", err)
	}

	return execAffected(ctx, r.db, result.SQL, c.binds, r.tableName, "UPDATE")
}

// UpdateOrCreate updates the rows matching the carrier's data fields with
// the record's values, or inserts the record when nothing matches. The
// record is expected to carry the match values itself.
func (r *Repository[T]) UpdateOrCreate(ctx context.Context, match *Params, record *T) (*T, error) {
	match = emptyParams(match)

	matchKeys := match.Data()
	if len(matchKeys) == 0 {
		return r.Create(ctx, record)
	}

	values := NewParams(record, nil)

	c, err := r.updateCriteria()
	if err != nil {
		return nil, err
	}

	for _, key := range values.Data() {
		if key == r.pkColumn {
			continue
		}
		c.Set(key, values.Get(key))
	}
	for _, key := range matchKeys {
		c.Where(key, "=", match.Get(key))
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	result, err := c.builder.Render(r.renderer)
	if err != nil {
		return nil, newRenderError("UPDATE", err)
	}

	affected, err := execAffected(ctx, r.db, result.SQL, c.binds, r.tableName, "UPDATE")
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return r.Create(ctx, record)
	}

	return r.firstWhere(ctx, match)
}

// Upsert inserts the record, updating the non-conflict columns in place when
// the given conflict columns collide. With no conflict columns the primary
// key is used.
func (r *Repository[T]) Upsert(ctx context.Context, record *T, conflictColumns ...string) (*T, error) {
	onPK := len(conflictColumns) == 0
	if onPK {
		conflictColumns = []string{r.pkColumn}
	}

	builder, err := r.insertBuilder(onPK)
	if err != nil {
		return nil, err
	}

	fields := r.instance.Fields()
	conflictSet := make(map[string]bool, len(conflictColumns))
	for _, col := range conflictColumns {
		f, err := r.instance.TryF(col)
		if err != nil {
			return nil, newFieldError(col, err)
		}
		fields = append(fields, f)
		conflictSet[col] = true
	}

	update := builder.OnConflict(fields...).DoUpdate()
	updatable := 0
	for _, field := range r.metadata.Fields {
		dbCol := field.Tags["db"]
		if dbCol == "" || dbCol == "-" || conflictSet[dbCol] {
			continue
		}
		if isPrimaryKey(field.Tags["constraints"]) {
			continue
		}

		f, err := r.instance.TryF(dbCol)
		if err != nil {
			return nil, newFieldError(dbCol, err)
		}
		p, err := r.instance.TryP(dbCol)
		if err != nil {
			return nil, newParamError(dbCol, err)
		}
		update = update.Set(f, p)
		updatable++
	}
	if updatable == 0 {
		return nil, fmt.Errorf("UPSERT has no updatable columns outside the conflict set")
	}
	builder = update.Build()

	result, err := builder.Render(r.renderer)
	if err != nil {
		return nil, newRenderError("UPSERT", err)
	}

	upserted, err := execSingle[T](ctx, r.db, result.SQL, record, r.tableName, "UPSERT")
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrStoreFailed
		}
		return nil, err
	}
	return upserted, nil
}

// Destroy deletes the rows selected by the filter hook and returns the
// deleted-row count. At least one WHERE condition is required to prevent an
// accidental full-table delete.
func (r *Repository[T]) Destroy(ctx context.Context, p *Params) (int64, error) {
	c, err := r.deleteCriteria(p)
	if err != nil {
		return 0, err
	}

	if !c.HasWhere() {
		return 0, newOpError("DELETE", http.StatusInternalServerError, ErrWhereRequired)
	}

	result, err := c.builder.Render(r.renderer)
	if err != nil {
		return 0, newRenderError("DELETE", err)
	}

	return execAffected(ctx, r.db, result.SQL, c.binds, r.tableName, "DELETE")
}

// firstWhere fetches one record by direct column equality, bypassing hooks.
func (r *Repository[T]) firstWhere(ctx context.Context, match *Params) (*T, error) {
	t, err := r.instance.TryT(r.tableName)
	if err != nil {
		return nil, newTableError(r.tableName, err)
	}

	c := newCriteria(r.instance, astql.Select(t))
	for _, key := range match.Data() {
		c.Where(key, "=", match.Get(key))
	}
	c.Limit(1)
	if err := c.Err(); err != nil {
		return nil, err
	}

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
