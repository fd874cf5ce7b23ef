package query

import (
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
)

// Guard checks translated queries before they reach the store. The translator is untrusted:
// a query passes only if it is a single read statement over the snapshot view that references
// nothing but schema columns, known functions and names it defines itself.
type Guard struct {
	dialect statement.Dialect
}

func NewGuard(dialect statement.Dialect) *Guard {
	return &Guard{dialect: dialect}
}

var forbiddenKeywords = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "ALTER": {}, "DROP": {}, "CREATE": {},
	"TRUNCATE": {}, "ATTACH": {}, "DETACH": {}, "GRANT": {}, "REVOKE": {}, "RENAME": {},
	"OPTIMIZE": {}, "SYSTEM": {}, "KILL": {}, "SET": {}, "INTO": {}, "OUTFILE": {},
	"EXCHANGE": {}, "MERGE": {}, "PRAGMA": {}, "VACUUM": {}, "REINDEX": {}, "CALL": {},
	"EXECUTE": {}, "DECLARE": {}, "BEGIN": {}, "COMMIT": {}, "ROLLBACK": {}, "SETTINGS": {},
}

var keywords = toSet(
	"SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "IN", "LIKE", "ILIKE", "BETWEEN", "IS",
	"NULL", "TRUE", "FALSE", "AS", "ON", "USING", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER",
	"CROSS", "FULL", "ARRAY", "GROUP", "BY", "ORDER", "ASC", "DESC", "NULLS", "FIRST", "LAST",
	"LIMIT", "OFFSET", "HAVING", "DISTINCT", "CASE", "WHEN", "THEN", "ELSE", "END", "WITH",
	"UNION", "ALL", "INTERSECT", "EXCEPT", "EXISTS", "ANY", "SOME", "CAST", "ESCAPE", "COLLATE",
	"NOCASE", "GLOB", "REGEXP", "FINAL", "PREWHERE", "SAMPLE", "INTERVAL", "OVER", "PARTITION",
	"ROWS", "RANGE", "PRECEDING", "FOLLOWING", "UNBOUNDED", "CURRENT", "ROW", "QUALIFY",
	"SECOND", "MINUTE", "HOUR", "DAY", "WEEK", "MONTH", "QUARTER", "YEAR",
	"DATE", "DATETIME", "DATETIME64", "TIMESTAMP", "TIME", "STRING", "BOOL", "BOOLEAN",
	"INT", "INTEGER", "INT32", "INT64", "UINT32", "UINT64", "FLOAT", "FLOAT64", "NUMERIC",
	"REAL", "TEXT", "NULLABLE", "CURRENT_DATE", "CURRENT_TIMESTAMP", "BOTH", "LEADING",
	"TRAILING",
)

// functionsWithFrom take FROM inside their argument list, e.g. EXTRACT(YEAR FROM pushed_at).
var functionsWithFrom = toSet("EXTRACT", "SUBSTRING", "TRIM", "POSITION")

// tableFunctions may appear in FROM clauses and define extra column names.
var tableFunctions = map[string][]string{
	"UNNEST":    {"topic"},
	"JSON_EACH": {"key", "value", "type", "atom", "id", "parent", "fullkey", "path"},
}

var allowedOperators = toSet(
	"=", "==", "!=", "<>", ">", "<", ">=", "<=",
	"LIKE", "NOT LIKE", "ILIKE", "NOT ILIKE", "IN", "NOT IN", "BETWEEN", "NOT BETWEEN",
	"IS", "IS NOT", "IS NULL", "IS NOT NULL", "HAS", "CONTAINS", "MATCH",
)

func toSet(items ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Check validates the translated result against the live schema and returns the statement to
// execute. Every failure is tagged as a translation failure.
func (x *Guard) Check(result *search.AIQueryResult, schema *statement.Schema) (*statement.Statement, error) {
	if !result.Executable() {
		return nil, goerr.New("translation is not executable", goerr.T(errs.TagTranslationFailure))
	}
	if err := x.CheckConditions(result.Conditions, schema); err != nil {
		return nil, err
	}

	sql := strings.TrimSpace(result.GeneratedQuery)
	sql = strings.TrimSpace(strings.TrimSuffix(sql, ";"))
	if sql == "" {
		return nil, rejectf("empty query", 0)
	}

	if err := x.checkSQL(sql, schema); err != nil {
		return nil, goerr.Wrap(err, "unsafe translated query",
			goerr.V("query", sql), goerr.T(errs.TagTranslationFailure))
	}

	return &statement.Statement{SQL: sql}, nil
}

// CheckConditions validates advisory conditions against the schema columns and the
// operator allow-list.
func (x *Guard) CheckConditions(conds []search.Condition, schema *statement.Schema) error {
	for _, c := range conds {
		field := strings.Trim(c.Field, "`\" ")
		if idx := strings.LastIndex(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		if !schema.HasColumn(field) {
			return goerr.New("condition references unknown column",
				goerr.V("field", c.Field), goerr.T(errs.TagTranslationFailure))
		}

		op := strings.Join(strings.Fields(strings.ToUpper(c.Operator)), " ")
		if _, ok := allowedOperators[op]; !ok {
			return goerr.New("condition uses unsupported operator",
				goerr.V("operator", c.Operator), goerr.T(errs.TagTranslationFailure))
		}
	}
	return nil
}

type scope struct {
	defined   map[string]struct{} // aliases, CTE names and lambda parameters, lower case
	ctes      map[string]struct{} // CTE names only; the one kind of name a table reference may use
	consumed  map[int]struct{}    // token indexes already validated as table references
	readsView bool
}

func (x *Guard) checkSQL(sql string, schema *statement.Schema) error {
	_, doubleQuotedStrings := x.dialect.(statement.BigQuery)
	tokens, err := lex(sql, doubleQuotedStrings)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return rejectf("empty query", 0)
	}

	first := tokens[0].upper()
	if tokens[0].kind != tokIdent || (first != "SELECT" && first != "WITH") {
		return rejectf("query must start with SELECT or WITH", tokens[0].pos)
	}

	for _, t := range tokens {
		if t.isSymbol(";") {
			return rejectf("multiple statements are not allowed", t.pos)
		}
		if t.kind == tokIdent {
			if _, ng := forbiddenKeywords[t.upper()]; ng {
				return rejectf("keyword "+t.upper()+" is not allowed", t.pos)
			}
		}
	}

	sc := &scope{
		defined:  collectDefinitions(tokens),
		ctes:     collectCTEs(tokens),
		consumed: map[int]struct{}{},
	}

	if err := x.checkTableRefs(tokens, sc); err != nil {
		return err
	}
	if !sc.readsView {
		return rejectf("query must read "+x.dialect.Source(), 0)
	}

	return x.checkIdentifiers(tokens, schema, sc)
}

// collectDefinitions gathers names the query defines itself: CTE names (name AS (...)),
// aliases (AS name, or a bare name after a table reference) and lambda parameters (x -> ...).
func collectDefinitions(tokens []token) map[string]struct{} {
	defined := map[string]struct{}{}
	for i, t := range tokens {
		if !t.isName() {
			continue
		}
		if i > 0 && tokens[i-1].isKeyword("AS") {
			defined[strings.ToLower(t.text)] = struct{}{}
		}
		if i+2 < len(tokens) && tokens[i+1].isKeyword("AS") && tokens[i+2].isSymbol("(") {
			defined[strings.ToLower(t.text)] = struct{}{}
		}
		if i+1 < len(tokens) && tokens[i+1].isSymbol("->") {
			defined[strings.ToLower(t.text)] = struct{}{}
		}
	}
	return defined
}

// collectCTEs gathers the names bound by WITH name AS (...).
func collectCTEs(tokens []token) map[string]struct{} {
	ctes := map[string]struct{}{}
	for i, t := range tokens {
		if t.isName() && i+2 < len(tokens) && tokens[i+1].isKeyword("AS") && tokens[i+2].isSymbol("(") {
			ctes[strings.ToLower(t.text)] = struct{}{}
		}
	}
	return ctes
}

// fromListEnd lists the clauses that close a FROM list at the same nesting level.
var fromListEnd = toSet(
	"SELECT", "WHERE", "PREWHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET", "UNION",
	"INTERSECT", "EXCEPT", "QUALIFY", "WINDOW",
)

func (x *Guard) checkTableRefs(tokens []token, sc *scope) error {
	var parens []string // function name (upper) owning each open paren, "" for grouping
	// inFrom[d] reports whether nesting level d is inside a FROM list.
	inFrom := []bool{false}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		depth := len(parens)

		switch {
		case t.isSymbol("("):
			owner := ""
			if i > 0 && tokens[i-1].kind == tokIdent {
				owner = tokens[i-1].upper()
			}
			parens = append(parens, owner)
			inFrom = append(inFrom, false)
			continue
		case t.isSymbol(")"):
			if len(parens) == 0 {
				return rejectf("unbalanced parenthesis", t.pos)
			}
			parens = parens[:len(parens)-1]
			inFrom = inFrom[:len(inFrom)-1]
			continue
		case t.kind == tokIdent:
			if _, ok := fromListEnd[t.upper()]; ok {
				inFrom[depth] = false
			}
		}

		// every item of a comma separated FROM list is a table reference
		listItem := t.isSymbol(",") && inFrom[depth]
		if !listItem && !t.isKeyword("FROM") && !t.isKeyword("JOIN") {
			continue
		}
		if t.isKeyword("FROM") && depth > 0 {
			if _, ok := functionsWithFrom[parens[depth-1]]; ok {
				continue
			}
		}
		inFrom[depth] = true

		next, err := x.checkTableRef(tokens, i+1, sc)
		if err != nil {
			return err
		}
		i = next - 1
	}

	if len(parens) != 0 {
		return rejectf("unbalanced parenthesis", 0)
	}
	return nil
}

// checkTableRef validates the reference starting at tokens[i] and returns the index after it.
func (x *Guard) checkTableRef(tokens []token, i int, sc *scope) (int, error) {
	if i >= len(tokens) {
		return i, rejectf("missing table after FROM", 0)
	}
	if tokens[i].isSymbol("(") {
		return i, nil
	}
	if !tokens[i].isName() {
		return i, rejectf("invalid table reference", tokens[i].pos)
	}

	// qualified name: a.b.c
	start := i
	parts := []string{tokens[i].text}
	i++
	for i+1 < len(tokens) && tokens[i].isSymbol(".") && tokens[i+1].isName() {
		parts = append(parts, tokens[i+1].text)
		i += 2
	}
	name := strings.Join(parts, ".")
	for j := start; j < i; j++ {
		sc.consumed[j] = struct{}{}
	}

	if i < len(tokens) && tokens[i].isSymbol("(") {
		if _, ok := tableFunctions[strings.ToUpper(name)]; ok {
			for _, col := range tableFunctions[strings.ToUpper(name)] {
				sc.defined[col] = struct{}{}
			}
			return i, nil
		}
		return i, rejectf("table function "+name+" is not allowed", tokens[start].pos)
	}

	if _, ok := sc.ctes[strings.ToLower(name)]; ok && len(parts) == 1 {
		return i, nil
	}

	if !x.allowedTable(name) {
		return i, rejectf("table "+name+" is not allowed", tokens[start].pos)
	}
	sc.readsView = true

	// optional alias, then FINAL where the dialect requires it
	j := i
	if j < len(tokens) && tokens[j].isKeyword("AS") {
		j += 2
	} else if j < len(tokens) && tokens[j].isName() && !isKeyword(tokens[j]) {
		sc.defined[strings.ToLower(tokens[j].text)] = struct{}{}
		j++
	}
	if x.dialect.RequiresFinal() {
		if j >= len(tokens) || !tokens[j].isKeyword("FINAL") {
			return i, rejectf("table "+name+" must be read with FINAL", tokens[start].pos)
		}
	}
	return i, nil
}

func (x *Guard) allowedTable(name string) bool {
	name = strings.ToLower(name)
	for _, table := range x.dialect.Tables() {
		table = strings.ToLower(table)
		if name == table || strings.HasSuffix(table, "."+name) || strings.HasSuffix(name, "."+table) {
			return true
		}
	}
	return false
}

func isKeyword(t token) bool {
	if t.kind != tokIdent {
		return false
	}
	_, ok := keywords[t.upper()]
	return ok
}

func (x *Guard) checkIdentifiers(tokens []token, schema *statement.Schema, sc *scope) error {
	functions := x.dialect.Functions()
	tableParts := map[string]struct{}{}
	for _, table := range x.dialect.Tables() {
		for _, part := range strings.Split(strings.ToLower(table), ".") {
			tableParts[part] = struct{}{}
		}
	}

	for i, t := range tokens {
		if !t.isName() {
			continue
		}
		if _, ok := sc.consumed[i]; ok {
			continue
		}

		lower := strings.ToLower(t.text)
		isCall := i+1 < len(tokens) && tokens[i+1].isSymbol("(")

		switch {
		case t.kind == tokIdent && isCall && !isKeyword(t):
			if !slices.Contains(functions, lower) {
				return rejectf("function "+t.text+" is not allowed", t.pos)
			}
		case isKeyword(t):
			continue
		case schema.HasColumn(t.text):
			continue
		default:
			if _, ok := sc.defined[lower]; ok {
				continue
			}
			if _, ok := tableParts[lower]; ok {
				continue
			}
			return rejectf("unknown identifier "+t.text, t.pos)
		}
	}
	return nil
}
