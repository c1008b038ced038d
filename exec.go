package strata

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/capitan"
)

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

// execRows executes a query returning multiple rows scanned into T.
// arg may be a named-parameter map or a struct with db tags.
func execRows[T any](
	ctx context.Context,
	execer sqlx.ExtContext,
	sql string,
	arg any,
	tableName string,
	operation string,
) ([]*T, error) {
	capitan.Debug(ctx, QueryStarted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		SQLKey.Field(sql),
	)

	startTime := time.Now()

	rows, err := sqlx.NamedQueryContext(ctx, execer, sql, arg)
	if err != nil {
		emitFailed(ctx, tableName, operation, startTime, err)
		return nil, newQueryError(operation, err)
	}
	defer func() { _ = rows.Close() }()

	var records []*T
	for rows.Next() {
		var record T
		if err := rows.StructScan(&record); err != nil {
			emitFailed(ctx, tableName, operation, startTime, err)
			return nil, newScanError(operation, err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		emitFailed(ctx, tableName, operation, startTime, err)
		return nil, newIterationError(err)
	}

	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		RowsReturnedKey.Field(len(records)),
	)

	return records, nil
}

// execSingle executes a query expected to return exactly one row.
// Returns ErrNotFound on zero rows and ErrMultipleRows past the first.
func execSingle[T any](
	ctx context.Context,
	execer sqlx.ExtContext,
	sql string,
	arg any,
	tableName string,
	operation string,
) (*T, error) {
	capitan.Debug(ctx, QueryStarted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		SQLKey.Field(sql),
	)

	startTime := time.Now()

	rows, err := sqlx.NamedQueryContext(ctx, execer, sql, arg)
	if err != nil {
		emitFailed(ctx, tableName, operation, startTime, err)
		return nil, newQueryError(operation, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			emitFailed(ctx, tableName, operation, startTime, err)
			return nil, newIterationError(err)
		}
		emitFailed(ctx, tableName, operation, startTime, ErrNotFound)
		return nil, ErrNotFound
	}

	var record T
	if err := rows.StructScan(&record); err != nil {
		emitFailed(ctx, tableName, operation, startTime, err)
		return nil, newScanError(operation, err)
	}

	if rows.Next() {
		emitFailed(ctx, tableName, operation, startTime, ErrMultipleRows)
		return nil, ErrMultipleRows
	}

	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		RowsReturnedKey.Field(1),
	)

	return &record, nil
}

// execScalar executes a query returning a single integer value, such as a
// COUNT aggregate.
func execScalar(
	ctx context.Context,
	execer sqlx.ExtContext,
	sql string,
	arg any,
	tableName string,
	operation string,
) (int64, error) {
	capitan.Debug(ctx, QueryStarted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		SQLKey.Field(sql),
	)

	startTime := time.Now()

	rows, err := sqlx.NamedQueryContext(ctx, execer, sql, arg)
	if err != nil {
		emitFailed(ctx, tableName, operation, startTime, err)
		return 0, newQueryError(operation, err)
	}
	defer func() { _ = rows.Close() }()

	var value int64
	if rows.Next() {
		if err := rows.Scan(&value); err != nil {
			emitFailed(ctx, tableName, operation, startTime, err)
			return 0, newScanError(operation, err)
		}
	}

	if err := rows.Err(); err != nil {
		emitFailed(ctx, tableName, operation, startTime, err)
		return 0, newIterationError(err)
	}

	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		RowsReturnedKey.Field(1),
	)

	return value, nil
}

// execAffected executes a mutation and returns the affected-row count.
func execAffected(
	ctx context.Context,
	execer sqlx.ExtContext,
	sql string,
	arg any,
	tableName string,
	operation string,
) (int64, error) {
	capitan.Debug(ctx, QueryStarted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		SQLKey.Field(sql),
	)

	startTime := time.Now()

	res, err := sqlx.NamedExecContext(ctx, execer, sql, arg)
	if err != nil {
		emitFailed(ctx, tableName, operation, startTime, err)
		return 0, newQueryError(operation, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		emitFailed(ctx, tableName, operation, startTime, err)
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	capitan.Info(ctx, QueryCompleted,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		RowsAffectedKey.Field(affected),
	)

	return affected, nil
}

func emitFailed(ctx context.Context, tableName, operation string, startTime time.Time, err error) {
	capitan.Error(ctx, QueryFailed,
		TableKey.Field(tableName),
		OperationKey.Field(operation),
		DurationMsKey.Field(time.Since(startTime).Milliseconds()),
		ErrorKey.Field(err.Error()),
	)
}
