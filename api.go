// Package strata provides a repository/service base layer over a
// schema-validated query builder.
//
// A Repository binds one model type to one table and forwards CRUD-style
// verbs to ASTQL, executed over sqlx. Struct tags describe the schema;
// reflection (via Sentinel) runs once at construction, then verbs build
// validated queries with named parameters.
//
// # Quick Start
//
// Define a model with struct tags:
//
//	type User struct {
//	    ID    int    `db:"id" type:"integer" constraints:"primarykey"`
//	    Email string `db:"email" type:"text" constraints:"notnull,unique"`
//	    Name  string `db:"name" type:"text"`
//	    Age   *int   `db:"age" type:"integer"`
//	}
//
// Create a repository:
//
//	users, err := strata.New[User](db, "users", postgres.New(),
//	    strata.WithFilter[User](func(c *strata.Criteria, p *strata.Params) error {
//	        if p.Has("email") {
//	            c.Where("email", "=", p.Get("email"))
//	        }
//	        return nil
//	    }),
//	)
//
// Call verbs:
//
//	all, err := users.All(ctx, nil)
//	one, err := users.Find(ctx, 123)
//	page, err := users.GetList(ctx, strata.NewParams(nil, map[string]any{"per_page": 10}))
//	created, err := users.Create(ctx, &User{Email: "a@b.co", Name: "A"})
//
// UPDATE and DELETE refuse to run without at least one WHERE condition, so a
// repository with a no-op mask hook cannot accidentally mutate a full table.
//
// Wrap a repository in a Service to translate empty results into domain
// failures with HTTP-style status codes.
package strata

import (
	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql"
	"github.com/zoobzio/sentinel"
)

// DefaultPerPage is the paginate limit used when neither the per_page option
// nor WithPerPage overrides it.
const DefaultPerPage = 20

// Hook translates carrier fields into query predicates. Filter hooks run
// before reads and deletes; mask hooks run before updates. The default for
// both is a no-op.
type Hook func(c *Criteria, p *Params) error

// Option configures a Repository at construction.
type Option[T any] func(*Repository[T])

// WithFilter sets the read-side predicate hook.
func WithFilter[T any](h Hook) Option[T] {
	return func(r *Repository[T]) { r.filter = h }
}

// WithMask sets the write-side predicate hook.
func WithMask[T any](h Hook) Option[T] {
	return func(r *Repository[T]) { r.mask = h }
}

// WithPerPage overrides the default paginate limit.
func WithPerPage[T any](n int) Option[T] {
	return func(r *Repository[T]) {
		if n > 0 {
			r.perPage = n
		}
	}
}

// Repository provides the CRUD verb surface for one model type bound to one
// table. Each verb builds a fresh query from the validated schema, applies
// the relevant hook, then delegates to the builder. Hook side effects from
// one call never leak into the next.
type Repository[T any] struct {
	db        sqlx.ExtContext
	tableName string
	metadata  sentinel.Metadata
	instance  *astql.ASTQL
	renderer  astql.Renderer
	pkColumn  string
	filter    Hook
	mask      Hook
	perPage   int
}

// New creates a Repository for type T. Type inspection and schema building
// happen once here, not on the verb hot path. If db is nil the repository
// can still render queries but not execute them.
//
// The db parameter accepts sqlx.ExtContext, satisfied by both *sqlx.DB and
// *sqlx.Tx, so callers can scope a repository to a transaction.
//
// Available renderers from astql:
//   - postgres.New() for PostgreSQL
//   - mariadb.New() for MariaDB
//   - sqlite.New() for SQLite
//   - mssql.New() for Microsoft SQL Server
func New[T any](db sqlx.ExtContext, tableName string, renderer astql.Renderer, opts ...Option[T]) (*Repository[T], error) {
	if tableName == "" {
		return nil, ErrEmptyTableName
	}
	if renderer == nil {
		return nil, ErrNilRenderer
	}

	// Register the tags the schema builder reads.
	sentinel.Tag("db")
	sentinel.Tag("type")
	sentinel.Tag("constraints")
	sentinel.Tag("default")

	// Inspect type via Sentinel (cached after first call).
	metadata := sentinel.Inspect[T]()

	project, err := buildSchema(metadata, tableName)
	if err != nil {
		return nil, err
	}

	instance, err := astql.NewFromDBML(project)
	if err != nil {
		return nil, newTableError(tableName, err)
	}

	pk := primaryKeyColumn(metadata)
	if pk == "" {
		var zero T
		return nil, &ModelError{Model: typeName(zero), Reason: "no primary key column"}
	}

	r := &Repository[T]{
		db:        db,
		tableName: tableName,
		metadata:  metadata,
		instance:  instance,
		renderer:  renderer,
		pkColumn:  pk,
		perPage:   DefaultPerPage,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// TableName returns the bound table name.
func (r *Repository[T]) TableName() string {
	return r.tableName
}

// PrimaryKey returns the primary key column name.
func (r *Repository[T]) PrimaryKey() string {
	return r.pkColumn
}

// Metadata returns the Sentinel metadata for type T.
func (r *Repository[T]) Metadata() sentinel.Metadata {
	return r.metadata
}

// Instance returns the underlying ASTQL instance for advanced query
// building outside the verb surface.
func (r *Repository[T]) Instance() *astql.ASTQL {
	return r.instance
}

// selectCriteria builds a fresh SELECT criteria and applies the filter hook.
func (r *Repository[T]) selectCriteria(p *Params) (*Criteria, error) {
	t, err := r.instance.TryT(r.tableName)
	if err != nil {
		return nil, newTableError(r.tableName, err)
	}

	c := newCriteria(r.instance, astql.Select(t))
	if err := r.applyFilter(c, p); err != nil {
		return nil, err
	}
	return c, nil
}

// countCriteria builds a fresh COUNT criteria and applies the filter hook.
func (r *Repository[T]) countCriteria(p *Params) (*Criteria, error) {
	t, err := r.instance.TryT(r.tableName)
	if err != nil {
		return nil, newTableError(r.tableName, err)
	}

	c := newCriteria(r.instance, astql.Count(t))
	if err := r.applyFilter(c, p); err != nil {
		return nil, err
	}
	return c, nil
}

// deleteCriteria builds a fresh DELETE criteria and applies the filter hook.
func (r *Repository[T]) deleteCriteria(p *Params) (*Criteria, error) {
	t, err := r.instance.TryT(r.tableName)
	if err != nil {
		return nil, newTableError(r.tableName, err)
	}

	c := newCriteria(r.instance, astql.Delete(t))
	if err := r.applyFilter(c, p); err != nil {
		return nil, err
	}
	return c, nil
}

// updateCriteria builds a fresh UPDATE criteria; the mask hook is applied by
// the Update verb after SET clauses are in place.
func (r *Repository[T]) updateCriteria() (*Criteria, error) {
	t, err := r.instance.TryT(r.tableName)
	if err != nil {
		return nil, newTableError(r.tableName, err)
	}
	return newCriteria(r.instance, astql.Update(t)), nil
}

func (r *Repository[T]) applyFilter(c *Criteria, p *Params) error {
	if r.filter == nil {
		return nil
	}
	if err := r.filter(c, emptyParams(p)); err != nil {
		return err
	}
	return c.Err()
}

func (r *Repository[T]) applyMask(c *Criteria, p *Params) error {
	if r.mask == nil {
		return nil
	}
	if err := r.mask(c, emptyParams(p)); err != nil {
		return err
	}
	return c.Err()
}

// insertBuilder prepares an INSERT with VALUES for every db column and
// RETURNING for all columns. includePK keeps primary key columns in the
// VALUES list, which upserts need for conflict matching.
func (r *Repository[T]) insertBuilder(includePK bool) (*astql.Builder, error) {
	t, err := r.instance.TryT(r.tableName)
	if err != nil {
		return nil, newTableError(r.tableName, err)
	}

	builder := astql.Insert(t)

	values := r.instance.ValueMap()
	for _, field := range r.metadata.Fields {
		dbCol := field.Tags["db"]
		if dbCol == "" || dbCol == "-" {
			continue
		}
		if !includePK && isPrimaryKey(field.Tags["constraints"]) {
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
		values[f] = p
	}
	builder = builder.Values(values)

	// RETURNING all columns so generated keys and defaults come back.
	for _, field := range r.metadata.Fields {
		dbCol := field.Tags["db"]
		if dbCol == "" || dbCol == "-" {
			continue
		}
		f, err := r.instance.TryF(dbCol)
		if err != nil {
			return nil, newFieldError(dbCol, err)
		}
		builder = builder.Returning(f)
	}

	return builder, nil
}
