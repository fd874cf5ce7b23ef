package search

import (
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
)

const (
	// PageSize is the number of rows fetched per page when the caller does not specify a limit.
	PageSize = 50
	// MaxLimit bounds the number of rows a single request may fetch.
	MaxLimit = 100

	// LanguageAll is the sentinel meaning "no language filter".
	LanguageAll = "all"

	maxTermLength      = 256
	maxLanguageLength  = 64
	maxUtteranceLength = 1000
)

// Window is an offset/limit pagination window.
type Window struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Normalize applies the default page size when Limit is zero.
func (x Window) Normalize() Window {
	if x.Limit == 0 {
		x.Limit = PageSize
	}
	return x
}

func (x Window) Validate() error {
	if x.Offset < 0 {
		return goerr.New("offset must not be negative",
			goerr.V("offset", x.Offset), goerr.T(errs.TagValidationFailure))
	}
	if x.Limit < 1 || x.Limit > MaxLimit {
		return goerr.New("limit out of range",
			goerr.V("limit", x.Limit), goerr.V("max", MaxLimit), goerr.T(errs.TagValidationFailure))
	}
	return nil
}

// Next returns the window that immediately follows x.
func (x Window) Next() Window {
	return Window{Offset: x.Offset + x.Limit, Limit: x.Limit}
}

// Request is a structured search: free-text term plus language.
type Request struct {
	Term     string `json:"term"`
	Language string `json:"language"`
	Window
}

// Normalize trims the term, folds the "all" sentinel and applies the default page size.
func (x Request) Normalize() Request {
	x.Term = strings.TrimSpace(x.Term)
	x.Language = strings.TrimSpace(x.Language)
	if strings.EqualFold(x.Language, LanguageAll) {
		x.Language = ""
	}
	x.Window = x.Window.Normalize()
	return x
}

func (x Request) Validate() error {
	if utf8.RuneCountInString(x.Term) > maxTermLength {
		return goerr.New("search term too long",
			goerr.V("length", len(x.Term)), goerr.T(errs.TagValidationFailure))
	}
	if utf8.RuneCountInString(x.Language) > maxLanguageLength {
		return goerr.New("language too long",
			goerr.V("language", x.Language), goerr.T(errs.TagValidationFailure))
	}
	return x.Window.Validate()
}

// HasFilter reports whether any filter deviates from its default.
func (x Request) HasFilter() bool {
	n := x.Normalize()
	return n.Term != "" || n.Language != ""
}

// AIRequest is a natural-language search.
type AIRequest struct {
	Utterance string `json:"utterance"`
	Window
}

func (x AIRequest) Normalize() AIRequest {
	x.Utterance = strings.TrimSpace(x.Utterance)
	x.Window = x.Window.Normalize()
	return x
}

func (x AIRequest) Validate() error {
	if utf8.RuneCountInString(x.Utterance) > maxUtteranceLength {
		return goerr.New("utterance too long",
			goerr.V("length", len(x.Utterance)), goerr.T(errs.TagValidationFailure))
	}
	return x.Window.Validate()
}
