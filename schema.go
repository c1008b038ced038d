package strata

import (
	"fmt"
	"strings"

	"github.com/zoobzio/dbml"
	"github.com/zoobzio/sentinel"
)

// buildSchema creates a DBML project from a struct's Sentinel metadata so the
// ASTQL instance can validate fields and parameters at build time.
func buildSchema(metadata sentinel.Metadata, tableName string) (*dbml.Project, error) {
	project := dbml.NewProject(tableName).
		WithDatabaseType("PostgreSQL")

	table := dbml.NewTable(tableName).
		WithSchema("public")

	columns := 0
	for _, field := range metadata.Fields {
		dbTag, ok := field.Tags["db"]
		if !ok || dbTag == "" || dbTag == "-" {
			continue
		}
		columns++

		sqlType := field.Tags["type"]
		if sqlType == "" {
			sqlType = inferSQLType(field.Type)
		}

		col := dbml.NewColumn(dbTag, sqlType)

		notNull, unique, primaryKey := parseConstraints(field.Tags["constraints"])
		if primaryKey {
			col.WithPrimaryKey()
		}
		if unique {
			col.WithUnique()
		}
		if !notNull {
			// DBML defaults to NOT NULL; only flip when nullable.
			col.WithNull()
		}

		if defaultVal, ok := field.Tags["default"]; ok {
			col.WithDefault(defaultVal)
		}

		table.AddColumn(col)
	}

	if columns == 0 {
		return nil, &ModelError{Model: tableName, Reason: "no db-tagged columns"}
	}

	project.AddTable(table)

	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("generated schema is invalid: %w", err)
	}

	return project, nil
}

// primaryKeyColumn returns the db column marked as primary key, or "".
func primaryKeyColumn(metadata sentinel.Metadata) string {
	for _, field := range metadata.Fields {
		dbTag := field.Tags["db"]
		if dbTag == "" || dbTag == "-" {
			continue
		}
		if isPrimaryKey(field.Tags["constraints"]) {
			return dbTag
		}
	}
	return ""
}

// isPrimaryKey accepts both constraint spellings found in struct tags.
func isPrimaryKey(constraints string) bool {
	lower := strings.ToLower(constraints)
	return strings.Contains(lower, "primarykey") || strings.Contains(lower, "primary_key")
}

// parseConstraints splits the constraints tag into individual flags.
func parseConstraints(constraintsTag string) (notNull, unique, primaryKey bool) {
	if constraintsTag == "" {
		return false, false, false
	}

	for _, c := range strings.Split(constraintsTag, ",") {
		switch strings.TrimSpace(strings.ToLower(c)) {
		case "unique":
			unique = true
		case "notnull", "not_null":
			notNull = true
		case "primarykey", "primary_key":
			primaryKey = true
		}
	}

	return notNull, unique, primaryKey
}

const sqlTypeSmallInt = "SMALLINT"

// inferSQLType maps Go types to default SQL types when no type tag is given.
func inferSQLType(goType string) string {
	goType = strings.TrimPrefix(goType, "*")

	if strings.HasPrefix(goType, "[]") {
		elementType := strings.TrimPrefix(goType, "[]")
		if elementType == "byte" || elementType == "uint8" {
			return "BYTEA"
		}
		return inferSQLType(elementType) + "[]"
	}

	switch goType {
	case "string":
		return "TEXT"
	case "int", "int32", "uint", "uint32":
		return "INTEGER"
	case "int64", "uint64":
		return "BIGINT"
	case "int16", "int8", "uint16", "uint8":
		return sqlTypeSmallInt
	case "float32":
		return "REAL"
	case "float64":
		return "DOUBLE PRECISION"
	case "bool":
		return "BOOLEAN"
	case "time.Time":
		return "TIMESTAMPTZ"
	default:
		return "JSONB"
	}
}
