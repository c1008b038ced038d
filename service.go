package strata

import (
	"context"
	"errors"
	"net/http"
)

// Repo is the verb surface a Service consumes. *Repository[T] satisfies it;
// tests substitute stubs.
type Repo[T any] interface {
	All(ctx context.Context, p *Params) ([]*T, error)
	Count(ctx context.Context, p *Params) (int64, error)
	GetList(ctx context.Context, p *Params) (*Page[T], error)
	Find(ctx context.Context, id any) (*T, error)
	First(ctx context.Context, p *Params) (*T, error)
	Create(ctx context.Context, record *T) (*T, error)
	Insert(ctx context.Context, records []*T) (int64, error)
	Update(ctx context.Context, p *Params) (int64, error)
	UpdateOrCreate(ctx context.Context, match *Params, record *T) (*T, error)
	Upsert(ctx context.Context, record *T, conflictColumns ...string) (*T, error)
	Destroy(ctx context.Context, p *Params) (int64, error)
}

// Service wraps a repository and translates empty results into domain
// failures carrying HTTP-style status codes. Handlers can switch on the
// OpError status without knowing which verb produced it.
//
// Verbs accept raw data and options in any shape NewParams accepts, so a
// handler can pass a decoded JSON map, an ordered []KV, or a tagged struct
// without converting first.
type Service[T any] struct {
	repo Repo[T]
}

// NewService creates a Service over the given repository.
func NewService[T any](repo Repo[T]) *Service[T] {
	return &Service[T]{repo: repo}
}

// Repo returns the wrapped repository for callers that need verbs the
// service does not re-expose, such as bulk Insert.
func (s *Service[T]) Repo() Repo[T] {
	return s.repo
}

// Index returns every record matching the data fields. An empty result is
// not a failure here; listings are allowed to be empty.
func (s *Service[T]) Index(ctx context.Context, data, options any) ([]*T, error) {
	return s.repo.All(ctx, NewParams(data, options))
}

// List returns one page of records matching the data fields. Page size and
// number come from the per_page and page options.
func (s *Service[T]) List(ctx context.Context, data, options any) (*Page[T], error) {
	return s.repo.GetList(ctx, NewParams(data, options))
}

// Show returns the record with the given primary key value, or a 404 OpError
// when it does not exist.
func (s *Service[T]) Show(ctx context.Context, id any) (*T, error) {
	record, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newOpError("SHOW", http.StatusNotFound, ErrNotFound)
		}
		return nil, err
	}
	return record, nil
}

// First returns the first record matching the data fields, or a 404 OpError
// when nothing matches.
func (s *Service[T]) First(ctx context.Context, data, options any) (*T, error) {
	record, err := s.repo.First(ctx, NewParams(data, options))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newOpError("FIRST", http.StatusNotFound, ErrNotFound)
		}
		return nil, err
	}
	return record, nil
}

// Store creates the record, or a 500 OpError when the insert produced no
// row.
func (s *Service[T]) Store(ctx context.Context, record *T) (*T, error) {
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if errors.Is(err, ErrStoreFailed) {
			return nil, newOpError("STORE", http.StatusInternalServerError, ErrStoreFailed)
		}
		return nil, err
	}
	return created, nil
}

// StoreOrUpdate updates the rows matching the data fields with the record's
// values, creating the record when nothing matches.
func (s *Service[T]) StoreOrUpdate(ctx context.Context, match any, record *T) (*T, error) {
	result, err := s.repo.UpdateOrCreate(ctx, NewParams(match, nil), record)
	if err != nil {
		if errors.Is(err, ErrStoreFailed) {
			return nil, newOpError("STORE", http.StatusInternalServerError, ErrStoreFailed)
		}
		return nil, err
	}
	return result, nil
}

// Update applies the data fields to the rows the mask hook selects. Zero
// affected rows becomes a 404 OpError; repository-level failures, the
// missing-WHERE guard included, pass through unchanged.
func (s *Service[T]) Update(ctx context.Context, data, options any) (int64, error) {
	affected, err := s.repo.Update(ctx, NewParams(data, options))
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, newOpError("UPDATE", http.StatusNotFound, ErrNothingAffected)
	}
	return affected, nil
}

// Destroy deletes the rows the filter hook selects. Zero deleted rows
// becomes a 404 OpError; repository-level failures pass through unchanged.
func (s *Service[T]) Destroy(ctx context.Context, data, options any) (int64, error) {
	affected, err := s.repo.Destroy(ctx, NewParams(data, options))
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, newOpError("DELETE", http.StatusNotFound, ErrNothingAffected)
	}
	return affected, nil
}
