package strata

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type serviceTestUser struct {
	ID    int    `db:"id"`
	Email string `db:"email"`
}

// stubRepo scripts repository results per verb.
type stubRepo struct {
	allResult     []*serviceTestUser
	findResult    *serviceTestUser
	findErr       error
	firstResult   *serviceTestUser
	firstErr      error
	createResult  *serviceTestUser
	createErr     error
	updateCount   int64
	updateErr     error
	destroyCount  int64
	destroyErr    error
	receivedParam *Params
}

func (s *stubRepo) All(ctx context.Context, p *Params) ([]*serviceTestUser, error) {
	s.receivedParam = p
	return s.allResult, nil
}

func (s *stubRepo) Count(ctx context.Context, p *Params) (int64, error) {
	return int64(len(s.allResult)), nil
}

func (s *stubRepo) GetList(ctx context.Context, p *Params) (*Page[serviceTestUser], error) {
	s.receivedParam = p
	return &Page[serviceTestUser]{Items: s.allResult, Total: int64(len(s.allResult)), Page: 1, PerPage: 20, LastPage: 1}, nil
}

func (s *stubRepo) Find(ctx context.Context, id any) (*serviceTestUser, error) {
	return s.findResult, s.findErr
}

func (s *stubRepo) First(ctx context.Context, p *Params) (*serviceTestUser, error) {
	s.receivedParam = p
	return s.firstResult, s.firstErr
}

func (s *stubRepo) Create(ctx context.Context, record *serviceTestUser) (*serviceTestUser, error) {
	return s.createResult, s.createErr
}

func (s *stubRepo) Insert(ctx context.Context, records []*serviceTestUser) (int64, error) {
	return int64(len(records)), nil
}

func (s *stubRepo) Update(ctx context.Context, p *Params) (int64, error) {
	s.receivedParam = p
	return s.updateCount, s.updateErr
}

func (s *stubRepo) UpdateOrCreate(ctx context.Context, match *Params, record *serviceTestUser) (*serviceTestUser, error) {
	return s.createResult, s.createErr
}

func (s *stubRepo) Upsert(ctx context.Context, record *serviceTestUser, conflictColumns ...string) (*serviceTestUser, error) {
	return s.createResult, s.createErr
}

func (s *stubRepo) Destroy(ctx context.Context, p *Params) (int64, error) {
	s.receivedParam = p
	return s.destroyCount, s.destroyErr
}

func assertOpError(t *testing.T, err error, wantStatus int, wantCause error) {
	t.Helper()
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("err = %v, want OpError", err)
	}
	if opErr.Status != wantStatus {
		t.Errorf("Status = %d, want %d", opErr.Status, wantStatus)
	}
	if !errors.Is(err, wantCause) {
		t.Errorf("err = %v, want cause %v", err, wantCause)
	}
}

func TestService_Index(t *testing.T) {
	repo := &stubRepo{allResult: []*serviceTestUser{{ID: 1}}}
	svc := NewService[serviceTestUser](repo)

	got, err := svc.Index(context.Background(), map[string]any{"email": "a@b.co"}, nil)
	if err != nil {
		t.Fatalf("Index() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Index() returned %d records, want 1", len(got))
	}
	if repo.receivedParam.Get("email") != "a@b.co" {
		t.Error("data not normalized into params")
	}

	// Empty listing is not a failure.
	repo.allResult = nil
	got, err = svc.Index(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Index() on empty set failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Index() = %v, want empty", got)
	}
}

func TestService_List(t *testing.T) {
	repo := &stubRepo{allResult: []*serviceTestUser{{ID: 1}, {ID: 2}}}
	svc := NewService[serviceTestUser](repo)

	page, err := svc.List(context.Background(), nil, map[string]any{"per_page": 2})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}
	if repo.receivedParam.OptionInt("per_page", 0) != 2 {
		t.Error("options not normalized into params")
	}
}

func TestService_Show(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := &stubRepo{findResult: &serviceTestUser{ID: 7}}
		svc := NewService[serviceTestUser](repo)

		got, err := svc.Show(context.Background(), 7)
		if err != nil {
			t.Fatalf("Show() failed: %v", err)
		}
		if got.ID != 7 {
			t.Errorf("ID = %d, want 7", got.ID)
		}
	})

	t.Run("missing becomes 404", func(t *testing.T) {
		repo := &stubRepo{findErr: ErrNotFound}
		svc := NewService[serviceTestUser](repo)

		_, err := svc.Show(context.Background(), 99)
		assertOpError(t, err, http.StatusNotFound, ErrNotFound)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		repo := &stubRepo{findErr: dbErr}
		svc := NewService[serviceTestUser](repo)

		_, err := svc.Show(context.Background(), 1)
		if !errors.Is(err, dbErr) {
			t.Errorf("err = %v, want passthrough", err)
		}
		var opErr *OpError
		if errors.As(err, &opErr) {
			t.Error("infrastructure error must not be wrapped in OpError")
		}
	})
}

func TestService_First(t *testing.T) {
	repo := &stubRepo{firstErr: ErrNotFound}
	svc := NewService[serviceTestUser](repo)

	_, err := svc.First(context.Background(), map[string]any{"email": "x@y.z"}, nil)
	assertOpError(t, err, http.StatusNotFound, ErrNotFound)
}

func TestService_Store(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := &stubRepo{createResult: &serviceTestUser{ID: 1}}
		svc := NewService[serviceTestUser](repo)

		got, err := svc.Store(context.Background(), &serviceTestUser{Email: "a@b.co"})
		if err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
		if got.ID != 1 {
			t.Errorf("ID = %d, want 1", got.ID)
		}
	})

	t.Run("no row becomes 500", func(t *testing.T) {
		repo := &stubRepo{createErr: ErrStoreFailed}
		svc := NewService[serviceTestUser](repo)

		_, err := svc.Store(context.Background(), &serviceTestUser{})
		assertOpError(t, err, http.StatusInternalServerError, ErrStoreFailed)
	})
}

func TestService_Update(t *testing.T) {
	t.Run("zero affected becomes 404", func(t *testing.T) {
		repo := &stubRepo{updateCount: 0}
		svc := NewService[serviceTestUser](repo)

		_, err := svc.Update(context.Background(), map[string]any{"email": "n@e.w"}, nil)
		assertOpError(t, err, http.StatusNotFound, ErrNothingAffected)
	})

	t.Run("guard error passes through", func(t *testing.T) {
		guardErr := newOpError("UPDATE", http.StatusInternalServerError, ErrWhereRequired)
		repo := &stubRepo{updateErr: guardErr}
		svc := NewService[serviceTestUser](repo)

		_, err := svc.Update(context.Background(), map[string]any{"email": "n@e.w"}, nil)
		assertOpError(t, err, http.StatusInternalServerError, ErrWhereRequired)
	})

	t.Run("affected count returned", func(t *testing.T) {
		repo := &stubRepo{updateCount: 3}
		svc := NewService[serviceTestUser](repo)

		affected, err := svc.Update(context.Background(), map[string]any{"email": "n@e.w"}, nil)
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if affected != 3 {
			t.Errorf("affected = %d, want 3", affected)
		}
	})
}

func TestService_Destroy(t *testing.T) {
	t.Run("zero deleted becomes 404", func(t *testing.T) {
		repo := &stubRepo{destroyCount: 0}
		svc := NewService[serviceTestUser](repo)

		_, err := svc.Destroy(context.Background(), map[string]any{"id": 1}, nil)
		assertOpError(t, err, http.StatusNotFound, ErrNothingAffected)
	})

	t.Run("deleted count returned", func(t *testing.T) {
		repo := &stubRepo{destroyCount: 2}
		svc := NewService[serviceTestUser](repo)

		deleted, err := svc.Destroy(context.Background(), map[string]any{"id": 1}, nil)
		if err != nil {
			t.Fatalf("Destroy() failed: %v", err)
		}
		if deleted != 2 {
			t.Errorf("deleted = %d, want 2", deleted)
		}
	})
}
