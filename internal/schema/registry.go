// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package schema

import (
	"fmt"
	"strings"
)

const (
	// BaseVersion is the schema version created by the first migration.
	BaseVersion = 1

	// LatestVersion is the newest schema version known to the registry.
	LatestVersion = 2
)

// Registry holds the table schemas in dependency order (referenced tables
// first).
type Registry struct {
	tables []TableSchema
	byName map[Table]int
}

// NewRegistry builds a registry from the given table schemas. The order of
// tables is kept and treated as the dependency order.
func NewRegistry(tables ...TableSchema) *Registry {
	r := &Registry{
		tables: make([]TableSchema, 0, len(tables)),
		byName: make(map[Table]int, len(tables)),
	}
	for _, t := range tables {
		r.byName[t.Name] = len(r.tables)
		r.tables = append(r.tables, t)
	}
	return r
}

// Default returns the registry of the Spacefy local store.
func Default() *Registry {
	return NewRegistry(usersTable(), spacesTable(), favoriteSpacesTable())
}

func usersTable() TableSchema {
	return TableSchema{
		Name: Users,
		Columns: []Column{
			{Name: "id", Kind: KindText, Constraints: "NOT NULL", Since: 1},
			{Name: "email", Kind: KindText, Constraints: "NOT NULL", Since: 1},
			{Name: "token", Kind: KindText, Constraints: "NOT NULL", Default: "''", Since: 1},
			{Name: "last_login", Kind: KindTimestamp, Constraints: "NOT NULL", Default: "0", Since: 1},
			{Name: "is_logged_in", Kind: KindBoolean, Constraints: "NOT NULL", Default: "0", Since: 1},
		},
		PrimaryKey: []string{"id"},
		Indexes: []Index{
			{Name: "idx_users_email", Columns: []string{"email"}},
		},
	}
}

func spacesTable() TableSchema {
	return TableSchema{
		Name: Spaces,
		Columns: []Column{
			{Name: "id", Kind: KindText, Constraints: "NOT NULL", Since: 1},
			{Name: "name", Kind: KindText, Constraints: "NOT NULL", Default: "''", Since: 1},
			{Name: "image_urls", Kind: KindJSONArray, Constraints: "NOT NULL", Default: "'[]'", Since: 1},
			{Name: "location", Kind: KindJSONObject, Constraints: "NOT NULL", Default: "''", Since: 1},
			{Name: "price_per_hour", Kind: KindReal, Constraints: "NOT NULL", Default: "0", Since: 1},
			{Name: "description", Kind: KindText, Constraints: "NOT NULL", Default: "''", Since: 1},
			{Name: "amenities", Kind: KindJSONArray, Constraints: "NOT NULL", Default: "'[]'", Since: 1},
			{Name: "type", Kind: KindText, Constraints: "NOT NULL", Default: "''", Since: 1},
			{Name: "max_people", Kind: KindInteger, Constraints: "NOT NULL", Default: "0", Since: 1},
			{Name: "week_days", Kind: KindJSONArray, Constraints: "NOT NULL", Default: "'[]'", Since: 1},
			{Name: "rules", Kind: KindJSONArray, Constraints: "NOT NULL", Default: "'[]'", Since: 2},
			{Name: "last_updated", Kind: KindTimestamp, Constraints: "NOT NULL", Default: "0", Since: 2},
		},
		PrimaryKey: []string{"id"},
		Indexes: []Index{
			{Name: "idx_spaces_type", Columns: []string{"type"}},
		},
	}
}

func favoriteSpacesTable() TableSchema {
	return TableSchema{
		Name: FavoriteSpaces,
		Columns: []Column{
			{Name: "id", Kind: KindInteger, Since: 1},
			{Name: "space_id", Kind: KindText, Constraints: "NOT NULL", Since: 1},
			{Name: "user_id", Kind: KindText, Constraints: "NOT NULL", Since: 1},
			{Name: "created_at", Kind: KindTimestamp, Constraints: "NOT NULL", Default: "0", Since: 1},
			{Name: "last_viewed", Kind: KindTimestamp, Constraints: "NOT NULL", Default: "0", Since: 2},
		},
		PrimaryKey:    []string{"id"},
		AutoIncrement: true,
		Unique:        [][]string{{"space_id", "user_id"}},
		ForeignKeys: []ForeignKey{
			{Column: "space_id", RefTable: Spaces, RefColumn: "id", OnDelete: "CASCADE"},
			{Column: "user_id", RefTable: Users, RefColumn: "id", OnDelete: "CASCADE"},
		},
		Indexes: []Index{
			{Name: "idx_favorite_spaces_user", Columns: []string{"user_id"}},
		},
	}
}

// TableNames returns every registered table in dependency order.
func (r *Registry) TableNames() []Table {
	names := make([]Table, 0, len(r.tables))
	for _, t := range r.tables {
		names = append(names, t.Name)
	}
	return names
}

// Table returns the schema of the named table.
func (r *Registry) Table(name Table) (TableSchema, error) {
	i, ok := r.byName[name]
	if !ok {
		return TableSchema{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return r.tables[i], nil
}

// Columns returns the columns of the named table in declaration order.
func (r *Registry) Columns(name Table) ([]Column, error) {
	t, err := r.Table(name)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	return cols, nil
}

// ValidateColumn returns ErrUnknownColumn when column is not part of table.
func (r *Registry) ValidateColumn(name Table, column string) error {
	t, err := r.Table(name)
	if err != nil {
		return err
	}
	if _, ok := t.Column(column); !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, name, column)
	}
	return nil
}

// CreateStatement returns the CREATE TABLE IF NOT EXISTS statement for the
// named table at BaseVersion. Columns introduced later are added by
// AddColumnStatements.
func (r *Registry) CreateStatement(name Table) (string, error) {
	t, err := r.Table(name)
	if err != nil {
		return "", err
	}

	defs := make([]string, 0, len(t.Columns)+len(t.Unique)+len(t.ForeignKeys)+1)
	for _, c := range t.Columns {
		if c.Since > BaseVersion {
			continue
		}
		defs = append(defs, columnDefinition(t, c))
	}

	if !t.AutoIncrement && len(t.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(t.PrimaryKey, ", ")))
	}
	for _, u := range t.Unique {
		defs = append(defs, fmt.Sprintf("UNIQUE (%s)", strings.Join(u, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)", fk.Column, fk.RefTable, fk.RefColumn)
		if fk.OnDelete != "" {
			clause += " ON DELETE " + fk.OnDelete
		}
		defs = append(defs, clause)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(defs, ",\n\t")), nil
}

func columnDefinition(t TableSchema, c Column) string {
	parts := []string{c.Name, c.Kind.SQLType()}
	if t.AutoIncrement && len(t.PrimaryKey) == 1 && t.PrimaryKey[0] == c.Name {
		parts = append(parts, "PRIMARY KEY AUTOINCREMENT")
	}
	if c.Constraints != "" {
		parts = append(parts, c.Constraints)
	}
	if c.Default != "" {
		parts = append(parts, "DEFAULT "+c.Default)
	}
	return strings.Join(parts, " ")
}

// AddColumnStatements returns the ALTER TABLE ADD COLUMN statements for every
// column introduced at the given version, in table and declaration order.
func (r *Registry) AddColumnStatements(version int) []string {
	var stmts []string
	for _, t := range r.tables {
		for _, c := range t.Columns {
			if c.Since != version || version <= BaseVersion {
				continue
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", t.Name, columnDefinition(t, c)))
		}
	}
	return stmts
}

// IndexStatements returns CREATE INDEX IF NOT EXISTS statements for every
// declared index.
func (r *Registry) IndexStatements() []string {
	var stmts []string
	for _, t := range r.tables {
		for _, idx := range t.Indexes {
			kind := "INDEX"
			if idx.Unique {
				kind = "UNIQUE INDEX"
			}
			stmts = append(stmts, fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)",
				kind, idx.Name, t.Name, strings.Join(idx.Columns, ", ")))
		}
	}
	return stmts
}

// ConflictKey returns the columns an upsert on the named table is keyed on.
func (r *Registry) ConflictKey(name Table) ([]string, error) {
	t, err := r.Table(name)
	if err != nil {
		return nil, err
	}
	return t.ConflictKey(), nil
}
