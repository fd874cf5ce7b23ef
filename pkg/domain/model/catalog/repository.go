package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Repository is a catalogued GitHub repository as stored in the columnar store.
type Repository struct {
	Name        string    `json:"name"`
	UserID      int64     `json:"user_id"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description"`
	FullName    string    `json:"full_name"`
	Topics      []string  `json:"topics"`
	URL         string    `json:"url"`
	Stars       int64     `json:"stars"`
	Forks       int64     `json:"forks"`
	Language    string    `json:"language"`
	Size        int64     `json:"size"`
	OpenIssues  int64     `json:"open_issues"`
	License     string    `json:"license"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PushedAt    time.Time `json:"pushed_at"`
}

// Columns is the fixed column list selected by compiled and default queries.
var Columns = []string{
	"name",
	"user_id",
	"user_name",
	"description",
	"full_name",
	"topics",
	"url",
	"stars",
	"forks",
	"language",
	"size",
	"open_issues",
	"license",
	"created_at",
	"updated_at",
	"pushed_at",
}

// SortColumn is the single deterministic sort key, always descending.
const SortColumn = "stars"

// FromRow normalizes a decoded row into a Repository. Unknown columns are ignored and
// missing ones keep their zero value, so translated queries selecting a subset still decode.
func FromRow(row map[string]any) (*Repository, error) {
	var r Repository
	var err error

	r.Name = toString(row["name"])
	r.UserName = toString(row["user_name"])
	r.Description = toString(row["description"])
	r.FullName = toString(row["full_name"])
	r.URL = toString(row["url"])
	r.Language = toString(row["language"])
	r.License = toString(row["license"])
	r.Topics = toStrings(row["topics"])

	ints := []struct {
		key string
		dst *int64
	}{
		{"user_id", &r.UserID},
		{"stars", &r.Stars},
		{"forks", &r.Forks},
		{"size", &r.Size},
		{"open_issues", &r.OpenIssues},
	}
	for _, f := range ints {
		if *f.dst, err = toInt64(row[f.key]); err != nil {
			return nil, goerr.Wrap(err, "invalid integer column", goerr.V("column", f.key))
		}
	}

	times := []struct {
		key string
		dst *time.Time
	}{
		{"created_at", &r.CreatedAt},
		{"updated_at", &r.UpdatedAt},
		{"pushed_at", &r.PushedAt},
	}
	for _, f := range times {
		if *f.dst, err = toTime(row[f.key]); err != nil {
			return nil, goerr.Wrap(err, "invalid timestamp column", goerr.V("column", f.key))
		}
	}

	if r.FullName == "" && r.UserName != "" && r.Name != "" {
		r.FullName = r.UserName + "/" + r.Name
	}

	return &r, nil
}

// ParseInt converts a decoded numeric column value into int64.
func ParseInt(v any) (int64, error) {
	return toInt64(v)
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case nil:
		return []string{}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if item == nil {
				continue
			}
			out = append(out, toString(item))
		}
		return out
	case string:
		if strings.TrimSpace(s) == "" {
			return []string{}
		}
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return []string{toString(s)}
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, goerr.New("integer overflows int64", goerr.V("value", n))
		}
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, goerr.Wrap(err, "invalid number", goerr.V("value", n))
		}
		return int64(f), nil
	case string:
		if n == "" {
			return 0, nil
		}
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, goerr.Wrap(err, "invalid integer string", goerr.V("value", n))
		}
		return i, nil
	default:
		return 0, goerr.New("unsupported integer type", goerr.V("type", fmt.Sprintf("%T", v)))
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case string:
		return parseTime(t)
	case fmt.Stringer:
		return parseTime(t.String())
	default:
		return time.Time{}, goerr.New("unsupported timestamp type", goerr.V("type", fmt.Sprintf("%T", v)))
	}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, goerr.New("unrecognized timestamp format", goerr.V("value", s))
}
