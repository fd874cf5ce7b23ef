package statement

import (
	"fmt"
	"strings"
)

// Param is a value bound to a named placeholder. User supplied values only ever reach the
// store through Params.
type Param struct {
	Name  string
	Value any
}

// Kind returns the store-neutral type name of the parameter value.
func (x Param) Kind() Kind {
	switch x.Value.(type) {
	case int, int32, int64, uint32, uint64:
		return KindInt
	default:
		return KindString
	}
}

type Kind int

const (
	KindString Kind = iota
	KindInt
)

// Statement is a query text plus its bound parameters.
type Statement struct {
	SQL    string
	Params []Param

	// Paginated marks statements that already carry the deterministic sort and window.
	Paginated bool
}

func (x *Statement) String() string {
	if len(x.Params) == 0 {
		return x.SQL
	}
	parts := make([]string, len(x.Params))
	for i, p := range x.Params {
		parts[i] = fmt.Sprintf("%s=%v", p.Name, p.Value)
	}
	return x.SQL + " [" + strings.Join(parts, ", ") + "]"
}

// Param returns the bound value for name.
func (x *Statement) Param(name string) (any, bool) {
	for _, p := range x.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Column is one column of the live table schema.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is the live table definition used to ground and check translated queries.
type Schema struct {
	Table   string   `json:"table"`
	DDL     string   `json:"ddl"`
	Columns []Column `json:"columns"`
}

// HasColumn reports whether name is a column of the table, ignoring case.
func (x *Schema) HasColumn(name string) bool {
	for _, c := range x.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// ColumnNames returns column names in schema order.
func (x *Schema) ColumnNames() []string {
	names := make([]string, len(x.Columns))
	for i, c := range x.Columns {
		names[i] = c.Name
	}
	return names
}
