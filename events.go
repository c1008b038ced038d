package strata

import "github.com/zoobzio/capitan"

// Query execution signals emitted by repository verbs.
var (
	// QueryStarted fires when a verb begins executing against the database.
	// Fields: TableKey, OperationKey, SQLKey.
	QueryStarted = capitan.NewSignal("db.query.started", "Database query execution started")

	// QueryCompleted fires when a verb completes successfully.
	// Fields: TableKey, OperationKey, DurationMsKey, RowsAffectedKey or RowsReturnedKey.
	QueryCompleted = capitan.NewSignal("db.query.completed", "Database query completed successfully")

	// QueryFailed fires when a verb fails.
	// Fields: TableKey, OperationKey, DurationMsKey, ErrorKey.
	QueryFailed = capitan.NewSignal("db.query.failed", "Database query failed with error")
)

// Event field keys.
var (
	// TableKey identifies the table being operated on.
	TableKey = capitan.NewStringKey("table")

	// OperationKey identifies the repository verb (SELECT, COUNT, FIND, INSERT, UPDATE, DELETE, ...).
	OperationKey = capitan.NewStringKey("operation")

	// SQLKey contains the rendered SQL.
	SQLKey = capitan.NewStringKey("sql")

	// DurationMsKey contains the execution duration in milliseconds.
	DurationMsKey = capitan.NewInt64Key("duration_ms")

	// RowsAffectedKey contains the affected-row count for mutations.
	RowsAffectedKey = capitan.NewInt64Key("rows_affected")

	// RowsReturnedKey contains the returned-row count for reads.
	RowsReturnedKey = capitan.NewIntKey("rows_returned")

	// PageKey and PerPageKey describe pagination for GetList.
	PageKey    = capitan.NewIntKey("page")
	PerPageKey = capitan.NewIntKey("per_page")

	// ErrorKey contains the failure message.
	ErrorKey = capitan.NewStringKey("error")
)
