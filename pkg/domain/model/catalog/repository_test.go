package catalog_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
)

func TestFromRow(t *testing.T) {
	t.Run("clickhouse style row with quoted 64bit integers", func(t *testing.T) {
		repo, err := catalog.FromRow(map[string]any{
			"name":        "ripgrep",
			"user_id":     "4249",
			"user_name":   "BurntSushi",
			"description": "recursively search directories",
			"topics":      []any{"cli", "search"},
			"stars":       json.Number("51234"),
			"forks":       float64(2100),
			"language":    "Rust",
			"pushed_at":   "2024-05-01 10:20:30",
			"extra":       "ignored",
		})
		gt.NoError(t, err).Required()

		gt.Equal(t, repo.Name, "ripgrep")
		gt.Equal(t, repo.UserID, int64(4249))
		gt.Equal(t, repo.FullName, "BurntSushi/ripgrep")
		gt.Equal(t, repo.Stars, int64(51234))
		gt.Equal(t, repo.Forks, int64(2100))
		gt.A(t, repo.Topics).Length(2).At(1, func(t testing.TB, v string) {
			gt.Equal(t, v, "search")
		})
		gt.Equal(t, repo.PushedAt, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC))
		gt.True(t, repo.CreatedAt.IsZero())
	})

	t.Run("timestamps and comma separated topics", func(t *testing.T) {
		created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
		repo, err := catalog.FromRow(map[string]any{
			"full_name":  "golang/go",
			"topics":     "go, language ,",
			"created_at": created,
			"updated_at": "2024-01-01T00:00:00Z",
			"stars":      int64(120000),
		})
		gt.NoError(t, err).Required()
		gt.A(t, repo.Topics).Length(2)
		gt.Equal(t, repo.CreatedAt, created)
		gt.Equal(t, repo.UpdatedAt, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		gt.Equal(t, repo.FullName, "golang/go")
	})

	t.Run("null values decode to zero values", func(t *testing.T) {
		repo, err := catalog.FromRow(map[string]any{
			"name":        "x",
			"description": nil,
			"language":    nil,
			"topics":      nil,
			"stars":       nil,
		})
		gt.NoError(t, err).Required()
		gt.Equal(t, repo.Description, "")
		gt.A(t, repo.Topics).Length(0)
		gt.Equal(t, repo.Stars, int64(0))
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		_, err := catalog.FromRow(map[string]any{"stars": "many"})
		gt.Error(t, err)

		_, err = catalog.FromRow(map[string]any{"pushed_at": "yesterday"})
		gt.Error(t, err)
	})
}
