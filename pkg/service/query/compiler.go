package query

import (
	"strconv"
	"strings"

	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
)

const (
	termParam     = "term"
	languageParam = "language"
)

// Compiler turns structured filters into parameterized statements for one dialect.
type Compiler struct {
	dialect statement.Dialect
}

func NewCompiler(dialect statement.Dialect) *Compiler {
	return &Compiler{dialect: dialect}
}

// Compile builds the filtered, sorted and windowed query for req. Filter values are bound
// parameters; req must already be normalized and validated.
func (x *Compiler) Compile(req search.Request) *statement.Statement {
	clauses, params := x.filter(req)
	return Paginate(x.selectFrom(strings.Join(catalog.Columns, ", "), clauses, params), req.Window)
}

// Default builds the unfiltered listing.
func (x *Compiler) Default(w search.Window) *statement.Statement {
	return Paginate(x.selectFrom(strings.Join(catalog.Columns, ", "), nil, nil), w)
}

// Count builds a row count over the snapshot view with the same filters as Compile.
func (x *Compiler) Count(req search.Request) *statement.Statement {
	clauses, params := x.filter(req)
	return x.selectFrom("count(*) AS total", clauses, params)
}

func (x *Compiler) filter(req search.Request) ([]string, []statement.Param) {
	var (
		clauses []string
		params  []statement.Param
	)

	if req.Term != "" {
		p := statement.Param{Name: termParam, Value: "%" + statement.EscapeLike(req.Term) + "%"}
		clauses = append(clauses, x.dialect.ContainsFold("description", x.dialect.Placeholder(p)))
		params = append(params, p)
	}

	if req.Language != "" && !strings.EqualFold(req.Language, search.LanguageAll) {
		p := statement.Param{Name: languageParam, Value: req.Language}
		clauses = append(clauses, x.dialect.EqualFold("language", x.dialect.Placeholder(p)))
		params = append(params, p)
	}

	return clauses, params
}

func (x *Compiler) selectFrom(columns string, clauses []string, params []statement.Param) *statement.Statement {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM ")
	b.WriteString(x.dialect.Source())
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	return &statement.Statement{SQL: b.String(), Params: params}
}

// tieBreaker is the last sort key of every paginated statement. full_name is unique in the
// snapshot view, so windows never overlap.
const tieBreaker = "full_name ASC"

// orderBy is the deterministic sort.
const orderBy = "ORDER BY " + catalog.SortColumn + " DESC, " + tieBreaker

// Paginate appends the deterministic sort and the window to stmt. Offset and limit are
// validated integers and are rendered as literals.
func Paginate(stmt *statement.Statement, w search.Window) *statement.Statement {
	return &statement.Statement{
		SQL:       stmt.SQL + " " + orderBy + windowClause(w),
		Params:    stmt.Params,
		Paginated: true,
	}
}

func windowClause(w search.Window) string {
	return " LIMIT " + strconv.Itoa(w.Limit) + " OFFSET " + strconv.Itoa(w.Offset)
}
