package strata

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql/postgres"
)

type criteriaTestUser struct {
	ID     int    `db:"id" type:"integer" constraints:"primarykey"`
	Email  string `db:"email" type:"text" constraints:"notnull,unique"`
	Name   string `db:"name" type:"text"`
	Age    *int   `db:"age" type:"integer"`
	Status string `db:"status" type:"text"`
}

func newCriteriaTestRepo(t *testing.T, opts ...Option[criteriaTestUser]) *Repository[criteriaTestUser] {
	t.Helper()
	repo, err := New[criteriaTestUser](&sqlx.DB{}, "users", postgres.New(), opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return repo
}

func TestCriteria_Where(t *testing.T) {
	repo := newCriteriaTestRepo(t)

	t.Run("single condition", func(t *testing.T) {
		c, err := repo.selectCriteria(nil)
		if err != nil {
			t.Fatalf("selectCriteria() failed: %v", err)
		}
		c.Where("status", "=", "active")
		if err := c.Err(); err != nil {
			t.Fatalf("Where() failed: %v", err)
		}

		result, err := c.builder.Render(repo.renderer)
		if err != nil {
			t.Fatalf("Render() failed: %v", err)
		}

		if !strings.Contains(result.SQL, "WHERE") {
			t.Errorf("SQL missing WHERE: %s", result.SQL)
		}
		if !strings.Contains(result.SQL, `"status"`) {
			t.Errorf("SQL missing status field: %s", result.SQL)
		}
		if got := c.binds["status"]; got != "active" {
			t.Errorf("binds[status] = %v, want active", got)
		}
	})

	t.Run("multiple conditions AND", func(t *testing.T) {
		c, _ := repo.selectCriteria(nil)
		c.Where("status", "=", "active").Where("age", ">=", 18)
		if err := c.Err(); err != nil {
			t.Fatalf("Where() chain failed: %v", err)
		}

		result, err := c.builder.Render(repo.renderer)
		if err != nil {
			t.Fatalf("Render() failed: %v", err)
		}
		if !strings.Contains(result.SQL, "AND") {
			t.Errorf("SQL missing AND: %s", result.SQL)
		}
	})

	t.Run("duplicate column gets fresh bind", func(t *testing.T) {
		c, _ := repo.selectCriteria(nil)
		c.Where("age", ">=", 18).Where("age", "<=", 65)
		if err := c.Err(); err != nil {
			t.Fatalf("Where() chain failed: %v", err)
		}

		if c.binds["age"] != 18 {
			t.Errorf("binds[age] = %v, want 18", c.binds["age"])
		}
		if c.binds["age_2"] != 65 {
			t.Errorf("binds[age_2] = %v, want 65", c.binds["age_2"])
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		c, _ := repo.selectCriteria(nil)
		c.Where("no_such_column", "=", 1)
		if c.Err() == nil {
			t.Error("Where() with unknown field should set error")
		}
	})

	t.Run("unknown operator", func(t *testing.T) {
		c, _ := repo.selectCriteria(nil)
		c.Where("status", "<>", "active")
		if c.Err() == nil {
			t.Error("Where() with unsupported operator should set error")
		}
	})

	t.Run("error sticks", func(t *testing.T) {
		c, _ := repo.selectCriteria(nil)
		c.Where("bad", "=", 1)
		first := c.Err()
		c.Where("status", "=", "active")
		if !errors.Is(c.Err(), first) && c.Err() != first {
			t.Error("later calls must not replace the first error")
		}
		if c.HasWhere() {
			t.Error("HasWhere() = true after failed condition only")
		}
	})
}

func TestCriteria_NullChecks(t *testing.T) {
	repo := newCriteriaTestRepo(t)

	c, _ := repo.selectCriteria(nil)
	c.WhereNull("age")
	if err := c.Err(); err != nil {
		t.Fatalf("WhereNull() failed: %v", err)
	}

	result, err := c.builder.Render(repo.renderer)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !strings.Contains(result.SQL, "IS NULL") {
		t.Errorf("SQL missing IS NULL: %s", result.SQL)
	}

	c2, _ := repo.selectCriteria(nil)
	c2.WhereNotNull("age")
	result2, err := c2.builder.Render(repo.renderer)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !strings.Contains(result2.SQL, "IS NOT NULL") {
		t.Errorf("SQL missing IS NOT NULL: %s", result2.SQL)
	}
}

func TestCriteria_Between(t *testing.T) {
	repo := newCriteriaTestRepo(t)

	c, _ := repo.selectCriteria(nil)
	c.WhereBetween("age", 18, 65)
	if err := c.Err(); err != nil {
		t.Fatalf("WhereBetween() failed: %v", err)
	}

	result, err := c.builder.Render(repo.renderer)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !strings.Contains(result.SQL, "BETWEEN") {
		t.Errorf("SQL missing BETWEEN: %s", result.SQL)
	}
	if c.binds["age_low"] != 18 || c.binds["age_high"] != 65 {
		t.Errorf("bounds not bound: %v", c.binds)
	}
}

func TestCriteria_Set(t *testing.T) {
	repo := newCriteriaTestRepo(t)

	c, err := repo.updateCriteria()
	if err != nil {
		t.Fatalf("updateCriteria() failed: %v", err)
	}
	// SET and WHERE on the same column must not collide.
	c.Set("status", "archived").Where("status", "=", "active")
	if err := c.Err(); err != nil {
		t.Fatalf("Set()/Where() failed: %v", err)
	}

	result, err := c.builder.Render(repo.renderer)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !strings.Contains(result.SQL, "UPDATE") || !strings.Contains(result.SQL, "SET") {
		t.Errorf("SQL missing UPDATE SET: %s", result.SQL)
	}
	if c.binds["set_status"] != "archived" {
		t.Errorf("binds[set_status] = %v, want archived", c.binds["set_status"])
	}
	if c.binds["status"] != "active" {
		t.Errorf("binds[status] = %v, want active", c.binds["status"])
	}
}

func TestCriteria_OrderLimitOffset(t *testing.T) {
	repo := newCriteriaTestRepo(t)

	c, _ := repo.selectCriteria(nil)
	c.OrderBy("name", "desc").Limit(10).Offset(20)
	if err := c.Err(); err != nil {
		t.Fatalf("chain failed: %v", err)
	}

	result, err := c.builder.Render(repo.renderer)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	for _, want := range []string{"ORDER BY", "DESC", "LIMIT", "OFFSET"} {
		if !strings.Contains(result.SQL, want) {
			t.Errorf("SQL missing %s: %s", want, result.SQL)
		}
	}

	c2, _ := repo.selectCriteria(nil)
	c2.OrderBy("name", "sideways")
	if c2.Err() == nil {
		t.Error("OrderBy() with bad direction should set error")
	}
}
