package query

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/utils/logging"
)

// Executor runs finished statements with a deterministic sort and window.
type Executor struct {
	warehouse interfaces.Warehouse
}

func NewExecutor(warehouse interfaces.Warehouse) *Executor {
	return &Executor{warehouse: warehouse}
}

// Run executes stmt over window w and returns at most w.Limit repositories. Failures are
// tagged as execution failures.
func (x *Executor) Run(ctx context.Context, stmt *statement.Statement, w search.Window) ([]*catalog.Repository, error) {
	windowed, err := x.ApplyWindow(stmt, w)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Debug("executing query",
		"warehouse", x.warehouse.Kind(),
		"query", windowed.SQL,
		"params", len(windowed.Params),
	)

	rows, err := x.warehouse.Query(ctx, windowed)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to execute query",
			goerr.V("query", windowed.SQL), goerr.T(errs.TagExecutionFailure))
	}

	if len(rows) > w.Limit {
		rows = rows[:w.Limit]
	}

	repos := make([]*catalog.Repository, 0, len(rows))
	for i, row := range rows {
		repo, err := catalog.FromRow(row)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode row",
				goerr.V("row", i), goerr.T(errs.TagExecutionFailure))
		}
		repos = append(repos, repo)
	}

	return repos, nil
}

// Count runs a statement returning a single "total" column.
func (x *Executor) Count(ctx context.Context, stmt *statement.Statement) (int64, error) {
	rows, err := x.warehouse.Query(ctx, stmt)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count rows",
			goerr.V("query", stmt.SQL), goerr.T(errs.TagExecutionFailure))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	total, err := catalog.ParseInt(rows[0]["total"])
	if err != nil {
		return 0, goerr.Wrap(err, "invalid count result", goerr.T(errs.TagExecutionFailure))
	}
	return total, nil
}

// ApplyWindow makes stmt sorted and bounded by w. full_name always breaks ties last so
// consecutive windows never share a row:
//   - statements already paginated by the compiler run as they are
//   - no ORDER BY and no LIMIT: the deterministic sort and window are appended
//   - ORDER BY without LIMIT: the query's own order is kept, extended by the tie-breaker
//   - LIMIT present: the query is wrapped so its own limit caps the result set and w pages it,
//     sorted again by the query's own order when it has one, otherwise by the deterministic sort
func (x *Executor) ApplyWindow(stmt *statement.Statement, w search.Window) (*statement.Statement, error) {
	if stmt.Paginated {
		return stmt, nil
	}

	_, doubleQuotedStrings := x.warehouse.Dialect().(statement.BigQuery)
	tokens, err := lex(stmt.SQL, doubleQuotedStrings)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse query",
			goerr.V("query", stmt.SQL), goerr.T(errs.TagExecutionFailure))
	}

	orderAt, limitAt := topLevelClauses(tokens)
	sql := strings.TrimSpace(stmt.SQL)

	switch {
	case limitAt >= 0 && orderAt >= 0 && orderAt < limitAt:
		keys := unqualified([]rune(stmt.SQL), tokens, orderAt+2, limitAt)
		sql = "SELECT * FROM (" + sql + ") AS windowed ORDER BY " + keys + ", " + tieBreaker + windowClause(w)
	case limitAt >= 0:
		sql = "SELECT * FROM (" + sql + ") AS windowed " + orderBy + windowClause(w)
	case orderAt >= 0:
		sql = sql + ", " + tieBreaker + windowClause(w)
	default:
		sql = sql + " " + orderBy + windowClause(w)
	}

	return &statement.Statement{SQL: sql, Params: stmt.Params, Paginated: true}, nil
}

// topLevelClauses returns the token index of ORDER (of ORDER BY) and of the first LIMIT or
// OFFSET outside any parenthesis, or -1 when absent.
func topLevelClauses(tokens []token) (orderAt, limitAt int) {
	orderAt, limitAt = -1, -1
	depth := 0
	for i, t := range tokens {
		switch {
		case t.isSymbol("("):
			depth++
		case t.isSymbol(")"):
			depth--
		case depth != 0:
		case t.isKeyword("ORDER") && i+1 < len(tokens) && tokens[i+1].isKeyword("BY"):
			orderAt = i
		case t.isKeyword("LIMIT"), t.isKeyword("OFFSET"):
			if limitAt < 0 {
				limitAt = i
			}
		}
	}
	return orderAt, limitAt
}

// unqualified returns the source text of tokens[from:to] with table qualifiers (r.stars)
// dropped, so sort keys of an inner query can be repeated over its result set.
func unqualified(rs []rune, tokens []token, from, to int) string {
	var b strings.Builder
	for k := from; k < to; k++ {
		if tokens[k].isName() && k+2 < to && tokens[k+1].isSymbol(".") && tokens[k+2].isName() {
			k++
			continue
		}
		end := len(rs)
		if k+1 < len(tokens) {
			end = tokens[k+1].pos
		}
		b.WriteString(string(rs[tokens[k].pos:end]))
	}
	return strings.TrimSpace(b.String())
}
