// Package mock holds moq generated test doubles for domain interfaces.
package mock

import (
	"context"

	"github.com/secmon-lab/starfinder/pkg/domain/model/statement"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
)

// NewWarehouse returns a WarehouseMock over a ClickHouse "repos" table whose methods succeed
// with no data. Tests replace the funcs they care about.
func NewWarehouse() *WarehouseMock {
	return &WarehouseMock{
		KindFunc:    func() types.WarehouseKind { return "mock" },
		DialectFunc: func() statement.Dialect { return statement.ClickHouse{Table: "repos"} },
		QueryFunc: func(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
			return nil, nil
		},
		DryRunFunc: func(ctx context.Context, stmt *statement.Statement) error { return nil },
		SchemaFunc: func(ctx context.Context) (*statement.Schema, error) { return &statement.Schema{}, nil },
		CloseFunc:  func() error { return nil },
	}
}
