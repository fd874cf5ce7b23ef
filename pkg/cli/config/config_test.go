package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/cli/config"
	"github.com/secmon-lab/starfinder/pkg/domain/model/category"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/secmon-lab/starfinder/pkg/usecase"
	"github.com/secmon-lab/starfinder/pkg/utils/test"
	"github.com/urfave/cli/v3"
)

// runFlags parses args into flags and calls action, the way subcommands consume configs.
func runFlags(t *testing.T, flags []cli.Flag, args []string, action func(ctx context.Context) error) error {
	t.Helper()
	cmd := &cli.Command{
		Name:  "test",
		Flags: flags,
		Action: func(ctx context.Context, _ *cli.Command) error {
			return action(ctx)
		},
	}
	return cmd.Run(context.Background(), append([]string{"test"}, args...))
}

func TestLanguagesDefault(t *testing.T) {
	var cfg config.Languages
	var langs []string
	gt.NoError(t, runFlags(t, cfg.Flags(), nil, func(ctx context.Context) error {
		var err error
		langs, err = cfg.Configure()
		return err
	}))
	gt.Equal(t, langs, usecase.DefaultLanguages)
}

func TestLanguagesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("languages:\n  - Go\n  - \" Zig \"\n  - go\n  - \"\"\n"), 0600))

	var cfg config.Languages
	var langs []string
	gt.NoError(t, runFlags(t, cfg.Flags(), []string{"--language-file", path}, func(ctx context.Context) error {
		var err error
		langs, err = cfg.Configure()
		return err
	}))
	gt.Equal(t, langs, []string{"Go", "Zig"})
}

func TestLanguagesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	gt.NoError(t, os.WriteFile(path, []byte("languages: []\n"), 0600))

	var cfg config.Languages
	err := runFlags(t, cfg.Flags(), []string{"--language-file", path}, func(ctx context.Context) error {
		_, err := cfg.Configure()
		return err
	})
	gt.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	gt.NoError(t, os.WriteFile(path, []byte("STARFINDER_TEST_DOTENV=loaded\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("STARFINDER_TEST_DOTENV") })

	loaded, err := config.LoadEnvFile([]string{"starfinder", "--env-file", path, "serve"}, "")
	gt.NoError(t, err)
	gt.Equal(t, loaded, path)
	gt.Equal(t, os.Getenv("STARFINDER_TEST_DOTENV"), "loaded")
}

func TestLoadEnvFileKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	gt.NoError(t, os.WriteFile(path, []byte("STARFINDER_TEST_DOTENV_KEEP=file\n"), 0600))
	t.Setenv("STARFINDER_TEST_DOTENV_KEEP", "env")

	_, err := config.LoadEnvFile([]string{"starfinder", "--env-file=" + path}, "")
	gt.NoError(t, err)
	gt.Equal(t, os.Getenv("STARFINDER_TEST_DOTENV_KEEP"), "env")
}

func TestLoadEnvFileMissing(t *testing.T) {
	loaded, err := config.LoadEnvFile(nil, filepath.Join(t.TempDir(), "missing.env"))
	gt.NoError(t, err)
	gt.Equal(t, loaded, "")
}

func TestWarehouseSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.db")
	args := []string{"--warehouse", "sqlite", "--sqlite-path", path}

	var cfg config.Warehouse
	gt.NoError(t, runFlags(t, cfg.Flags(), args, func(ctx context.Context) error {
		wh, err := cfg.OpenSQLite(ctx, false)
		if err != nil {
			return err
		}
		defer wh.Close()
		return wh.Insert(ctx, test.Repositories(3)...)
	}))

	var kind types.WarehouseKind
	gt.NoError(t, runFlags(t, cfg.Flags(), args, func(ctx context.Context) error {
		wh, err := cfg.Configure(ctx)
		if err != nil {
			return err
		}
		defer wh.Close()
		kind = wh.Kind()
		_, err = wh.Schema(ctx)
		return err
	}))
	gt.Equal(t, kind, types.WarehouseSQLite)
}

func TestWarehouseRequiresSettings(t *testing.T) {
	testCases := map[string][]string{
		"unknown":              {"--warehouse", "oracle"},
		"clickhouse endpoint":  {"--warehouse", "clickhouse"},
		"bigquery project":     {"--warehouse", "bigquery", "--bigquery-dataset-id", "ds"},
		"clickhouse bad table": {"--warehouse", "clickhouse", "--clickhouse-endpoint", "http://localhost:8123", "--warehouse-table", "repos;drop"},
	}

	for name, args := range testCases {
		t.Run(name, func(t *testing.T) {
			var cfg config.Warehouse
			err := runFlags(t, cfg.Flags(), args, func(ctx context.Context) error {
				_, err := cfg.Configure(ctx)
				return err
			})
			gt.Error(t, err)
		})
	}
}

func TestCategoryStoreMemory(t *testing.T) {
	var cfg config.CategoryStore
	gt.NoError(t, runFlags(t, cfg.Flags(), nil, func(ctx context.Context) error {
		repo, err := cfg.Configure(ctx)
		if err != nil {
			return err
		}
		c := category.New(ctx, "alice", "tools", "", false)
		if err := repo.PutCategory(ctx, c); err != nil {
			return err
		}
		got, err := repo.ListCategories(ctx, "alice")
		if err != nil {
			return err
		}
		gt.A(t, got).Length(1)
		return nil
	}))
}

func TestCategoryStoreRequiresSettings(t *testing.T) {
	for _, args := range [][]string{
		{"--category-store", "redis"},
		{"--category-store", "firestore"},
		{"--category-store", "mongo"},
	} {
		var cfg config.CategoryStore
		err := runFlags(t, cfg.Flags(), args, func(ctx context.Context) error {
			_, err := cfg.Configure(ctx)
			return err
		})
		gt.Error(t, err)
	}
}

func TestGitHub(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		var cfg config.GitHub
		gt.NoError(t, runFlags(t, cfg.Flags(), []string{"--github-disabled"}, func(ctx context.Context) error {
			client, err := cfg.Configure()
			gt.V(t, client).Nil()
			return err
		}))
	})

	t.Run("token", func(t *testing.T) {
		var cfg config.GitHub
		gt.NoError(t, runFlags(t, cfg.Flags(), []string{"--github-token", "ghp_test"}, func(ctx context.Context) error {
			client, err := cfg.Configure()
			gt.V(t, client).NotNil()
			return err
		}))
	})

	t.Run("app without key", func(t *testing.T) {
		var cfg config.GitHub
		err := runFlags(t, cfg.Flags(), []string{"--github-app-id", "1"}, func(ctx context.Context) error {
			_, err := cfg.Configure()
			return err
		})
		gt.Error(t, err)
	})
}

func TestLLMProvider(t *testing.T) {
	testCases := map[string]struct {
		args     []string
		provider string
	}{
		"none":   {nil, "none"},
		"gemini": {[]string{"--gemini-project-id", "p"}, "gemini"},
		"claude": {[]string{"--gemini-project-id", "p", "--claude-project-id", "q"}, "claude"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var cfg config.LLM
			gt.NoError(t, runFlags(t, cfg.Flags(), tc.args, func(ctx context.Context) error { return nil }))
			gt.Equal(t, cfg.Provider(), tc.provider)
		})
	}

	var cfg config.LLM
	gt.NoError(t, runFlags(t, cfg.Flags(), nil, func(ctx context.Context) error {
		client, err := cfg.Configure(ctx)
		gt.V(t, client).Nil()
		return err
	}))
}

func TestAuditDisabled(t *testing.T) {
	var cfg config.Audit
	gt.NoError(t, runFlags(t, cfg.Flags(), nil, func(ctx context.Context) error {
		auditor, client, err := cfg.Configure(ctx)
		gt.V(t, auditor).Nil()
		gt.V(t, client).Nil()
		return err
	}))
}
