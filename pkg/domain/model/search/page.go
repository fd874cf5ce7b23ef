package search

import (
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
)

// Page is one window of results returned by every search path.
type Page struct {
	Repositories []*catalog.Repository `json:"repositories"`
	Offset       int                   `json:"offset"`
	Limit        int                   `json:"limit"`
	Source       types.SearchSource    `json:"source"`

	// Fallback is set when an AI search degraded to the default listing.
	Fallback bool `json:"fallback,omitempty"`
	// Error is set when a structured search failed; Repositories is empty then.
	Error string `json:"error,omitempty"`
	// Conditions are the advisory triples of a successful AI search.
	Conditions []Condition `json:"conditions,omitempty"`
}

// Full reports whether the page was filled up to its limit, which signals more rows may exist.
func (x *Page) Full() bool {
	return len(x.Repositories) >= x.Limit
}
