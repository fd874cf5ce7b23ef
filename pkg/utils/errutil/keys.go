package errutil

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
)

var (
	// IDs
	CategoryIDKey = goerr.NewTypedKey[types.CategoryID]("category_id")
	UserIDKey     = goerr.NewTypedKey[types.UserID]("user_id")
	RequestIDKey  = goerr.NewTypedKey[string]("request_id")

	// Search
	TermKey      = goerr.NewTypedKey[string]("term")
	LanguageKey  = goerr.NewTypedKey[string]("language")
	UtteranceKey = goerr.NewTypedKey[string]("utterance")
	QueryKey     = goerr.NewTypedKey[string]("query")
	LimitKey     = goerr.NewTypedKey[int]("limit")
	OffsetKey    = goerr.NewTypedKey[int]("offset")
	TableKey     = goerr.NewTypedKey[string]("table")
	ColumnKey    = goerr.NewTypedKey[string]("column")
	FieldKey     = goerr.NewTypedKey[string]("field")
	OperatorKey  = goerr.NewTypedKey[string]("operator")
	ReasonKey    = goerr.NewTypedKey[string]("reason")
	DurationKey  = goerr.NewTypedKey[time.Duration]("duration")

	// Stores and external services
	WarehouseKey  = goerr.NewTypedKey[string]("warehouse")
	CollectionKey = goerr.NewTypedKey[string]("collection")
	RepositoryKey = goerr.NewTypedKey[string]("repository")
	EndpointKey   = goerr.NewTypedKey[string]("endpoint")
	HTTPStatusKey = goerr.NewTypedKey[int]("http_status")
	LineKey       = goerr.NewTypedKey[int]("line")
	FilePathKey   = goerr.NewTypedKey[string]("file_path")
)
