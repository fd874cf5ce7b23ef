package clickhouse

import "github.com/ClickHouse/clickhouse-go/v2"

func (x *Warehouse) Options() (*clickhouse.Options, error) { return x.options() }

var ReadOnlySettings = readOnlySettings
