package statement

import (
	"fmt"
	"strings"
)

// Dialect renders the store specific parts of a query.
type Dialect interface {
	// Name is the dialect name given to the translator, e.g. "ClickHouse".
	Name() string
	// Source is the FROM target that reads a snapshot-consistent (latest version per key) view.
	Source() string
	// Tables lists the table identifiers a query may read from.
	Tables() []string
	// RequiresFinal reports whether every table reference must carry the FINAL modifier.
	RequiresFinal() bool
	// Placeholder renders the reference to a bound parameter.
	Placeholder(p Param) string
	// ContainsFold renders a case-insensitive substring match of column against a LIKE pattern.
	ContainsFold(column, pattern string) string
	// EqualFold renders a case-insensitive equality of column against a value.
	EqualFold(column, value string) string
	// SnapshotRule is the instruction given to the translator about snapshot reads.
	SnapshotRule() string
	// Functions lists dialect specific functions allowed in translated queries, lower case.
	Functions() []string
}

// ClickHouse reads a ReplacingMergeTree table through FINAL.
type ClickHouse struct {
	Table string
}

var _ Dialect = ClickHouse{}

func (x ClickHouse) Name() string { return "ClickHouse" }
func (x ClickHouse) Source() string { return x.Table + " FINAL" }
func (x ClickHouse) Tables() []string { return []string{x.Table} }
func (x ClickHouse) RequiresFinal() bool { return true }
func (x ClickHouse) Functions() []string { return clickHouseFunctions }

func (x ClickHouse) Placeholder(p Param) string {
	switch p.Kind() {
	case KindInt:
		return "{" + p.Name + ":Int64}"
	default:
		return "{" + p.Name + ":String}"
	}
}

func (x ClickHouse) ContainsFold(column, pattern string) string {
	return column + " ILIKE " + pattern
}

func (x ClickHouse) EqualFold(column, value string) string {
	return "lower(" + column + ") = lower(" + value + ")"
}

func (x ClickHouse) SnapshotRule() string {
	return fmt.Sprintf("The table keeps historical versions of each row. Always read it with the FINAL modifier: SELECT ... FROM %s FINAL WHERE ...", x.Table)
}

// BigQuery reads the latest-version view of an append-only table.
type BigQuery struct {
	Table string
	View  string
}

var _ Dialect = BigQuery{}

func (x BigQuery) Name() string { return "BigQuery Standard SQL" }
func (x BigQuery) Source() string { return "`" + x.View + "`" }
func (x BigQuery) Tables() []string { return []string{x.View} }
func (x BigQuery) RequiresFinal() bool { return false }
func (x BigQuery) Functions() []string { return bigQueryFunctions }

func (x BigQuery) Placeholder(p Param) string {
	return "@" + p.Name
}

func (x BigQuery) ContainsFold(column, pattern string) string {
	return "LOWER(" + column + ") LIKE LOWER(" + pattern + ")"
}

func (x BigQuery) EqualFold(column, value string) string {
	return "LOWER(" + column + ") = LOWER(" + value + ")"
}

func (x BigQuery) SnapshotRule() string {
	return fmt.Sprintf("The table `%s` keeps historical versions of each row. Never read it directly. Always read the latest-version view: SELECT ... FROM `%s` WHERE ...", x.Table, x.View)
}

// SQLite reads the latest-version view of a versioned table.
type SQLite struct {
	Table string
	View  string
}

var _ Dialect = SQLite{}

func (x SQLite) Name() string { return "SQLite" }
func (x SQLite) Source() string { return x.View }
func (x SQLite) Tables() []string { return []string{x.View} }
func (x SQLite) RequiresFinal() bool { return false }
func (x SQLite) Functions() []string { return sqliteFunctions }

func (x SQLite) Placeholder(p Param) string {
	return ":" + p.Name
}

func (x SQLite) ContainsFold(column, pattern string) string {
	return "LOWER(" + column + ") LIKE LOWER(" + pattern + ") ESCAPE '\\'"
}

func (x SQLite) EqualFold(column, value string) string {
	return "LOWER(" + column + ") = LOWER(" + value + ")"
}

func (x SQLite) SnapshotRule() string {
	return fmt.Sprintf("The table %s keeps historical versions of each row. Never read it directly. Always read the latest-version view: SELECT ... FROM %s WHERE ...", x.Table, x.View)
}

// EscapeLike escapes LIKE metacharacters so value matches literally. It is the only routine
// that prepares user input for pattern matching.
func EscapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}

var commonFunctions = []string{
	"lower", "upper", "length", "coalesce", "ifnull", "abs", "round",
	"count", "sum", "avg", "min", "max",
	"concat", "substr", "substring", "trim", "cast", "extract",
}

var clickHouseFunctions = append([]string{
	"lowercase", "uppercase", "position", "positioncaseinsensitive", "like", "ilike",
	"notlike", "notilike", "match", "multisearchany", "multisearchanycaseinsensitive",
	"has", "hasany", "hasall", "arrayexists", "arraymap", "arrayfilter", "arrayjoin",
	"empty", "notempty", "startswith", "endswith", "lengthutf8",
	"now", "today", "yesterday", "todate", "todatetime", "toyear", "tomonth",
	"tostartofday", "tostartofweek", "tostartofmonth", "tostartofyear",
	"datediff", "date_diff", "subtractdays", "subtractweeks", "subtractmonths", "subtractyears",
	"adddays", "toint64", "touint64", "tostring", "tointervalday", "tointervalmonth",
	"tointervalyear", "ifnull", "if", "multiif", "countif", "uniq",
}, commonFunctions...)

var bigQueryFunctions = append([]string{
	"current_date", "current_timestamp", "date", "timestamp", "datetime",
	"date_sub", "date_add", "timestamp_sub", "timestamp_add", "date_diff", "timestamp_diff",
	"extract", "unnest", "array_length", "contains_substr", "regexp_contains",
	"starts_with", "ends_with", "safe_cast", "if", "countif", "strpos",
}, commonFunctions...)

var sqliteFunctions = append([]string{
	"datetime", "date", "julianday", "strftime", "instr", "json_each",
	"json_array_length", "like", "glob", "iif",
}, commonFunctions...)
