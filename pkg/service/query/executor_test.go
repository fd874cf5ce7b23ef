package query_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/adapter/sqlite"
	"github.com/secmon-lab/starfinder/pkg/domain/mock"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/service/query"
	"github.com/secmon-lab/starfinder/pkg/utils/test"
)

func TestApplyWindow(t *testing.T) {
	w := search.Window{Offset: 50, Limit: 50}
	testCases := map[string]struct {
		stmt statement.Statement
		want string
	}{
		"no order and no limit": {
			stmt: statement.Statement{SQL: "SELECT * FROM repos FINAL WHERE language = 'Go'"},
			want: "SELECT * FROM repos FINAL WHERE language = 'Go' ORDER BY stars DESC, full_name ASC LIMIT 50 OFFSET 50",
		},
		"own order extended by tie-breaker": {
			stmt: statement.Statement{SQL: "SELECT * FROM repos FINAL ORDER BY forks DESC"},
			want: "SELECT * FROM repos FINAL ORDER BY forks DESC, full_name ASC LIMIT 50 OFFSET 50",
		},
		"own limit wrapped": {
			stmt: statement.Statement{SQL: "SELECT * FROM repos FINAL LIMIT 10"},
			want: "SELECT * FROM (SELECT * FROM repos FINAL LIMIT 10) AS windowed ORDER BY stars DESC, full_name ASC LIMIT 50 OFFSET 50",
		},
		"own order and limit wrapped": {
			stmt: statement.Statement{SQL: "SELECT * FROM repos FINAL ORDER BY forks DESC LIMIT 10"},
			want: "SELECT * FROM (SELECT * FROM repos FINAL ORDER BY forks DESC LIMIT 10) AS windowed ORDER BY forks DESC, full_name ASC LIMIT 50 OFFSET 50",
		},
		"qualified sort keys repeated outside": {
			stmt: statement.Statement{SQL: "SELECT * FROM repos AS r FINAL ORDER BY r.stars DESC, lower(r.name) LIMIT 10 OFFSET 5"},
			want: "SELECT * FROM (SELECT * FROM repos AS r FINAL ORDER BY r.stars DESC, lower(r.name) LIMIT 10 OFFSET 5) AS windowed ORDER BY stars DESC, lower(name), full_name ASC LIMIT 50 OFFSET 50",
		},
		"limit inside subquery is not top level": {
			stmt: statement.Statement{SQL: "SELECT * FROM (SELECT * FROM repos FINAL ORDER BY stars DESC LIMIT 5) AS top"},
			want: "SELECT * FROM (SELECT * FROM repos FINAL ORDER BY stars DESC LIMIT 5) AS top ORDER BY stars DESC, full_name ASC LIMIT 50 OFFSET 50",
		},
		"paginated statement untouched": {
			stmt: statement.Statement{SQL: "SELECT * FROM repos FINAL LIMIT 1 OFFSET 0", Paginated: true},
			want: "SELECT * FROM repos FINAL LIMIT 1 OFFSET 0",
		},
	}

	executor := query.NewExecutor(mock.NewWarehouse())
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := executor.ApplyWindow(&tc.stmt, w)
			gt.NoError(t, err).Required()
			gt.Equal(t, got.SQL, tc.want)
			gt.True(t, got.Paginated)
		})
	}
}

func TestRunTruncatesToLimit(t *testing.T) {
	wh := mock.NewWarehouse()
	wh.QueryFunc = func(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
		rows := make([]map[string]any, 0, 5)
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			rows = append(rows, map[string]any{"name": name, "user_name": "o", "stars": "1"})
		}
		return rows, nil
	}

	repos, err := query.NewExecutor(wh).Run(context.Background(),
		&statement.Statement{SQL: "SELECT * FROM repos FINAL"}, search.Window{Limit: 3})
	gt.NoError(t, err).Required()
	gt.A(t, repos).Length(3)
	gt.Equal(t, repos[0].FullName, "o/a")
	gt.Equal(t, repos[2].Name, "c")

	queries := wh.QueryCalls()
	gt.A(t, queries).Length(1)
	gt.Equal(t, queries[0].Stmt.SQL, "SELECT * FROM repos FINAL ORDER BY stars DESC, full_name ASC LIMIT 3 OFFSET 0")
}

func TestRunTagsWarehouseFailure(t *testing.T) {
	wh := mock.NewWarehouse()
	wh.QueryFunc = func(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
		return nil, errors.New("connection refused")
	}
	executor := query.NewExecutor(wh)

	_, err := executor.Run(context.Background(),
		&statement.Statement{SQL: "SELECT * FROM repos FINAL"}, search.Window{Limit: 50})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagExecutionFailure))

	_, err = executor.Count(context.Background(), &statement.Statement{SQL: "SELECT count(*) AS total FROM repos FINAL"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagExecutionFailure))
}

func TestRunRejectsUnparsableQuery(t *testing.T) {
	wh := mock.NewWarehouse()
	_, err := query.NewExecutor(wh).Run(context.Background(),
		&statement.Statement{SQL: "SELECT * FROM repos FINAL WHERE name = 'open"}, search.Window{Limit: 50})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagExecutionFailure))
	gt.A(t, wh.QueryCalls()).Length(0)
}

func TestCountParsesQuotedTotal(t *testing.T) {
	wh := mock.NewWarehouse()
	wh.QueryFunc = func(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
		return []map[string]any{{"total": "1234"}}, nil
	}
	total, err := query.NewExecutor(wh).Count(context.Background(), &statement.Statement{SQL: "SELECT count(*) AS total FROM repos FINAL"})
	gt.NoError(t, err)
	gt.Equal(t, total, int64(1234))
}

func TestPaginationWindowsDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	wh, err := sqlite.Open(ctx, ":memory:")
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = wh.Close() })
	gt.NoError(t, wh.Insert(ctx, test.Repositories(120)...)).Required()

	executor := query.NewExecutor(wh)
	compiler := query.NewCompiler(wh.Dialect())

	t.Run("default listing", func(t *testing.T) {
		seen := map[string]struct{}{}
		w := search.Window{Offset: 0, Limit: 50}
		for range 3 {
			repos, err := executor.Run(ctx, compiler.Default(w), w)
			gt.NoError(t, err).Required()
			for _, repo := range repos {
				_, dup := seen[repo.FullName]
				gt.False(t, dup)
				seen[repo.FullName] = struct{}{}
			}
			w = w.Next()
		}
		gt.Equal(t, len(seen), 120)
	})

	t.Run("translated query windows", func(t *testing.T) {
		stmt := &statement.Statement{SQL: "SELECT * FROM repos_latest WHERE stars > 0"}

		first, err := executor.Run(ctx, stmt, search.Window{Offset: 0, Limit: 50})
		gt.NoError(t, err).Required()
		second, err := executor.Run(ctx, stmt, search.Window{Offset: 50, Limit: 50})
		gt.NoError(t, err).Required()
		third, err := executor.Run(ctx, stmt, search.Window{Offset: 100, Limit: 50})
		gt.NoError(t, err).Required()

		gt.A(t, first).Length(50)
		gt.A(t, second).Length(50)
		gt.A(t, third).Length(20)

		seen := map[string]struct{}{}
		for _, page := range [][]string{names(first), names(second), names(third)} {
			for _, name := range page {
				_, dup := seen[name]
				gt.False(t, dup)
				seen[name] = struct{}{}
			}
		}
		gt.Equal(t, len(seen), 120)

		// stars are non-increasing across the page boundary
		gt.True(t, first[49].Stars >= second[0].Stars)
	})

	t.Run("own order with tied stars", func(t *testing.T) {
		// only 12 distinct star counts, so every page boundary falls inside a tie
		tied, err := sqlite.Open(ctx, ":memory:")
		gt.NoError(t, err).Required()
		t.Cleanup(func() { _ = tied.Close() })
		repos := test.Repositories(120)
		for i, repo := range repos {
			repo.Stars = int64(i%12) * 100
		}
		gt.NoError(t, tied.Insert(ctx, repos...)).Required()
		tiedExecutor := query.NewExecutor(tied)

		for _, sql := range []string{
			"SELECT * FROM repos_latest ORDER BY stars DESC",
			"SELECT * FROM repos_latest ORDER BY stars DESC LIMIT 100",
		} {
			seen := map[string]struct{}{}
			var last int64 = -1
			for w := (search.Window{Offset: 0, Limit: 25}); w.Offset < 100; w = w.Next() {
				page, err := tiedExecutor.Run(ctx, &statement.Statement{SQL: sql}, w)
				gt.NoError(t, err).Required()
				gt.A(t, page).Length(25)
				for _, repo := range page {
					_, dup := seen[repo.FullName]
					gt.False(t, dup)
					seen[repo.FullName] = struct{}{}
					if last >= 0 {
						gt.True(t, repo.Stars <= last)
					}
					last = repo.Stars
				}
			}
			gt.Equal(t, len(seen), 100)
		}
	})

	t.Run("load more twice", func(t *testing.T) {
		w := search.Window{Offset: 50, Limit: 50}
		w = w.Next()
		gt.Equal(t, w, search.Window{Offset: 100, Limit: 50})

		repos, err := executor.Run(ctx, compiler.Default(w), w)
		gt.NoError(t, err).Required()
		gt.A(t, repos).Length(20)
		w = w.Next()
		gt.Equal(t, w.Offset, 150)
	})
}

func names(repos []*catalog.Repository) []string {
	out := make([]string, len(repos))
	for i, repo := range repos {
		out[i] = repo.FullName
	}
	return out
}
