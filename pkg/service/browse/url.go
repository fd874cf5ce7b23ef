package browse

import (
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
)

type Tab string

const (
	TabExplore    Tab = "explore"
	TabStarred    Tab = "starred"
	TabCategories Tab = "categories"
)

func (x Tab) Validate() error {
	switch x {
	case TabExplore, TabStarred, TabCategories:
		return nil
	}
	return goerr.New("unknown tab", goerr.V("tab", x), goerr.T(errs.TagValidationFailure))
}

const (
	paramSearch   = "search"
	paramLanguage = "language"
	paramTab      = "tab"
)

// URLState is the part of a session mirrored into the navigable URL. A missing parameter
// means its default value.
type URLState struct {
	Term     string
	Language string
	Tab      Tab
}

func defaultURLState() URLState {
	return URLState{Language: search.LanguageAll, Tab: TabExplore}
}

// Encode renders the state as a query string with defaults omitted. The result is empty
// when every field is at its default, and starts with "?" otherwise.
func (x URLState) Encode() string {
	v := url.Values{}
	if x.Term != "" {
		v.Set(paramSearch, x.Term)
	}
	if x.Language != "" && !strings.EqualFold(x.Language, search.LanguageAll) {
		v.Set(paramLanguage, x.Language)
	}
	if x.Tab != "" && x.Tab != TabExplore {
		v.Set(paramTab, string(x.Tab))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// FromURL parses a full URL or a bare query string into a URLState.
func FromURL(raw string) (URLState, error) {
	state := defaultURLState()

	query := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return state, goerr.Wrap(err, "failed to parse url", goerr.V("url", raw), goerr.T(errs.TagValidationFailure))
	}

	state.Term = values.Get(paramSearch)
	if lang := values.Get(paramLanguage); lang != "" {
		state.Language = lang
	}
	if tab := values.Get(paramTab); tab != "" {
		state.Tab = Tab(tab)
		if err := state.Tab.Validate(); err != nil {
			return defaultURLState(), err
		}
	}
	return state, nil
}
