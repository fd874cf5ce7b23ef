package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/adapter/bigquery"
	"github.com/secmon-lab/starfinder/pkg/adapter/clickhouse"
	"github.com/secmon-lab/starfinder/pkg/adapter/sqlite"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Warehouse builds the columnar store searched by every path.
type Warehouse struct {
	kind  string
	table string

	clickhouseEndpoint string
	clickhouseDatabase string
	clickhouseUser     string
	clickhousePassword string
	clickhouseTimeout  time.Duration

	bigqueryProjectID string
	bigqueryDatasetID string
	bigqueryView      string
	bigqueryQuota     string

	sqlitePath string
}

func (x *Warehouse) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "warehouse",
			Usage:       "Warehouse backend [clickhouse|bigquery|sqlite]",
			Category:    "Warehouse",
			Value:       types.WarehouseSQLite.String(),
			Destination: &x.kind,
			Sources:     cli.EnvVars("STARFINDER_WAREHOUSE"),
		},
		&cli.StringFlag{
			Name:        "warehouse-table",
			Usage:       "Table holding repository rows",
			Category:    "Warehouse",
			Value:       "repos",
			Destination: &x.table,
			Sources:     cli.EnvVars("STARFINDER_WAREHOUSE_TABLE"),
		},
		&cli.StringFlag{
			Name:        "clickhouse-endpoint",
			Usage:       "ClickHouse HTTP endpoint (e.g. http://localhost:8123)",
			Category:    "ClickHouse",
			Destination: &x.clickhouseEndpoint,
			Sources:     cli.EnvVars("STARFINDER_CLICKHOUSE_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "clickhouse-database",
			Usage:       "ClickHouse database",
			Category:    "ClickHouse",
			Destination: &x.clickhouseDatabase,
			Sources:     cli.EnvVars("STARFINDER_CLICKHOUSE_DATABASE"),
		},
		&cli.StringFlag{
			Name:        "clickhouse-user",
			Usage:       "ClickHouse user",
			Category:    "ClickHouse",
			Destination: &x.clickhouseUser,
			Sources:     cli.EnvVars("STARFINDER_CLICKHOUSE_USER"),
		},
		&cli.StringFlag{
			Name:        "clickhouse-password",
			Usage:       "ClickHouse password",
			Category:    "ClickHouse",
			Destination: &x.clickhousePassword,
			Sources:     cli.EnvVars("STARFINDER_CLICKHOUSE_PASSWORD"),
		},
		&cli.DurationFlag{
			Name:        "clickhouse-timeout",
			Usage:       "ClickHouse request timeout",
			Category:    "ClickHouse",
			Value:       30 * time.Second,
			Destination: &x.clickhouseTimeout,
			Sources:     cli.EnvVars("STARFINDER_CLICKHOUSE_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "bigquery-project-id",
			Usage:       "BigQuery project ID",
			Category:    "BigQuery",
			Destination: &x.bigqueryProjectID,
			Sources:     cli.EnvVars("STARFINDER_BIGQUERY_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset-id",
			Usage:       "BigQuery dataset ID",
			Category:    "BigQuery",
			Destination: &x.bigqueryDatasetID,
			Sources:     cli.EnvVars("STARFINDER_BIGQUERY_DATASET_ID"),
		},
		&cli.StringFlag{
			Name:        "bigquery-view",
			Usage:       "Latest-version view (default <table>_latest)",
			Category:    "BigQuery",
			Destination: &x.bigqueryView,
			Sources:     cli.EnvVars("STARFINDER_BIGQUERY_VIEW"),
		},
		&cli.StringFlag{
			Name:        "bigquery-quota-project",
			Usage:       "Project billed for BigQuery quota",
			Category:    "BigQuery",
			Destination: &x.bigqueryQuota,
			Sources:     cli.EnvVars("STARFINDER_BIGQUERY_QUOTA_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database file",
			Category:    "SQLite",
			Value:       "starfinder.db",
			Destination: &x.sqlitePath,
			Sources:     cli.EnvVars("STARFINDER_SQLITE_PATH"),
		},
	}
}

func (x Warehouse) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", x.kind),
		slog.String("table", x.table),
	}

	switch types.WarehouseKind(x.kind) {
	case types.WarehouseClickHouse:
		attrs = append(attrs,
			slog.String("endpoint", x.clickhouseEndpoint),
			slog.String("database", x.clickhouseDatabase),
			slog.String("user", x.clickhouseUser),
			slog.Duration("timeout", x.clickhouseTimeout),
		)
	case types.WarehouseBigQuery:
		attrs = append(attrs,
			slog.String("project_id", x.bigqueryProjectID),
			slog.String("dataset_id", x.bigqueryDatasetID),
			slog.String("view", x.bigqueryView),
		)
	case types.WarehouseSQLite:
		attrs = append(attrs, slog.String("path", x.sqlitePath))
	}

	return slog.GroupValue(attrs...)
}

// Configure opens the warehouse read-only. The caller owns Close.
func (x *Warehouse) Configure(ctx context.Context) (interfaces.Warehouse, error) {
	switch types.WarehouseKind(x.kind) {
	case types.WarehouseClickHouse:
		if x.clickhouseEndpoint == "" {
			return nil, goerr.New("clickhouse-endpoint is required")
		}
		opts := []clickhouse.Option{
			clickhouse.WithTable(x.table),
			clickhouse.WithTimeout(x.clickhouseTimeout),
		}
		if x.clickhouseDatabase != "" {
			opts = append(opts, clickhouse.WithDatabase(x.clickhouseDatabase))
		}
		if x.clickhouseUser != "" {
			opts = append(opts, clickhouse.WithCredentials(x.clickhouseUser, x.clickhousePassword))
		}
		wh, err := clickhouse.New(x.clickhouseEndpoint, opts...)
		if err != nil {
			return nil, err
		}
		return wh, nil

	case types.WarehouseBigQuery:
		if x.bigqueryProjectID == "" || x.bigqueryDatasetID == "" {
			return nil, goerr.New("bigquery-project-id and bigquery-dataset-id are required")
		}
		opts := []bigquery.Option{bigquery.WithTable(x.table)}
		if x.bigqueryView != "" {
			opts = append(opts, bigquery.WithView(x.bigqueryView))
		}
		if x.bigqueryQuota != "" {
			opts = append(opts, bigquery.WithClientOptions(option.WithQuotaProject(x.bigqueryQuota)))
		}
		wh, err := bigquery.New(ctx, x.bigqueryProjectID, x.bigqueryDatasetID, opts...)
		if err != nil {
			return nil, err
		}
		return wh, nil

	case types.WarehouseSQLite:
		wh, err := x.OpenSQLite(ctx, true)
		if err != nil {
			return nil, err
		}
		return wh, nil

	default:
		return nil, goerr.New("unknown warehouse", goerr.V("kind", x.kind))
	}
}

// OpenSQLite opens the local database regardless of --warehouse. The seed command opens it
// writable.
func (x *Warehouse) OpenSQLite(ctx context.Context, readOnly bool) (*sqlite.Warehouse, error) {
	opts := []sqlite.Option{sqlite.WithTable(x.table)}
	if readOnly {
		opts = append(opts, sqlite.WithReadOnly())
	}
	return sqlite.Open(ctx, x.sqlitePath, opts...)
}
