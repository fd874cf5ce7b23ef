package types

// SearchSource tells which path produced a result page.
type SearchSource string

const (
	SourceDefault    SearchSource = "default"
	SourceStructured SearchSource = "structured"
	SourceAI         SearchSource = "ai"
)

func (x SearchSource) String() string {
	return string(x)
}

// WarehouseKind names a columnar store backend.
type WarehouseKind string

const (
	WarehouseClickHouse WarehouseKind = "clickhouse"
	WarehouseBigQuery   WarehouseKind = "bigquery"
	WarehouseSQLite     WarehouseKind = "sqlite"
)

func (x WarehouseKind) String() string {
	return string(x)
}
