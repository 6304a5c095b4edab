// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package schema

import "errors"

var (
	// ErrUnknownTable is returned for a table name that is not registered.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned for a column that does not belong to the table.
	ErrUnknownColumn = errors.New("unknown column")
)

// Table names a registered table. The set is closed: only the constants below
// are accepted by the registry.
type Table string

const (
	Users          Table = "users"
	Spaces         Table = "spaces"
	FavoriteSpaces Table = "favorite_spaces"
)

// String implements fmt.Stringer.
func (t Table) String() string {
	return string(t)
}

// Kind is the logical type of a column. It decides both the SQL type used in
// DDL and how the record codec converts values.
type Kind int

const (
	// KindText is a plain TEXT value.
	KindText Kind = iota
	// KindInteger is an INTEGER value.
	KindInteger
	// KindReal is a floating point value.
	KindReal
	// KindBoolean is stored as INTEGER 0/1.
	KindBoolean
	// KindTimestamp is stored as INTEGER unix nanoseconds.
	KindTimestamp
	// KindJSONArray is a sequence serialized to JSON TEXT.
	KindJSONArray
	// KindJSONObject is a structured value serialized to JSON TEXT (or a
	// plain string for values that have a scalar form).
	KindJSONObject
)

// SQLType returns the SQLite storage type for the kind.
func (k Kind) SQLType() string {
	switch k {
	case KindInteger, KindBoolean, KindTimestamp:
		return "INTEGER"
	case KindReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// IsJSON reports whether values of this kind are serialized as JSON text.
func (k Kind) IsJSON() bool {
	return k == KindJSONArray || k == KindJSONObject
}

// Column describes one column of a table.
type Column struct {
	// Name is the SQL column name.
	Name string
	// Kind is the logical type.
	Kind Kind
	// Constraints is appended verbatim after the SQL type (e.g. "NOT NULL").
	Constraints string
	// Default is the SQL literal used in DEFAULT clauses; empty means none.
	Default string
	// Since is the schema version that introduced the column. Columns with
	// Since <= BaseVersion are part of the CREATE TABLE statement.
	Since int
}

// ForeignKey is a table level REFERENCES clause.
type ForeignKey struct {
	Column    string
	RefTable  Table
	RefColumn string
	OnDelete  string
}

// Index is a secondary index on one or more columns.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// TableSchema is the full description of one table.
type TableSchema struct {
	Name          Table
	Columns       []Column
	PrimaryKey    []string
	AutoIncrement bool
	Unique        [][]string
	ForeignKeys   []ForeignKey
	Indexes       []Index
}

// Column returns the column with the given name.
func (s TableSchema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (s TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return names
}

// ConflictKey returns the columns an upsert is keyed on: the first declared
// uniqueness constraint for tables with a surrogate auto-increment key,
// otherwise the primary key.
func (s TableSchema) ConflictKey() []string {
	if s.AutoIncrement && len(s.Unique) > 0 {
		return s.Unique[0]
	}
	return s.PrimaryKey
}
