package query

import (
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
)

type tokenKind int

const (
	tokIdent tokenKind = iota + 1
	tokQuotedIdent
	tokString
	tokNumber
	tokSymbol
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// upper returns the token text in upper case, for keyword comparison.
func (x token) upper() string {
	return strings.ToUpper(x.text)
}

func (x token) isKeyword(kw string) bool {
	return x.kind == tokIdent && strings.EqualFold(x.text, kw)
}

func (x token) isSymbol(s string) bool {
	return x.kind == tokSymbol && x.text == s
}

func (x token) isName() bool {
	return x.kind == tokIdent || x.kind == tokQuotedIdent
}

var multiCharSymbols = []string{"<=", ">=", "<>", "!=", "==", "||", "::", "->"}

const singleCharSymbols = "(),.*+-/%=<>;[]"

// lex splits a SQL text into tokens. Comments, placeholders and characters outside the
// supported grammar are rejected. doubleQuotedStrings selects whether "..." is a string
// literal (BigQuery) or a quoted identifier.
func lex(sql string, doubleQuotedStrings bool) ([]token, error) {
	var tokens []token
	rs := []rune(sql)

	for i := 0; i < len(rs); {
		c := rs[i]

		switch {
		case unicode.IsSpace(c):
			i++

		case c == '-' && i+1 < len(rs) && rs[i+1] == '-',
			c == '/' && i+1 < len(rs) && rs[i+1] == '*',
			c == '#':
			return nil, rejectf("comments are not allowed", i)

		case c == '\'':
			end, err := scanQuoted(rs, i, '\'')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: string(rs[i+1 : end]), pos: i})
			i = end + 1

		case c == '"':
			end, err := scanQuoted(rs, i, '"')
			if err != nil {
				return nil, err
			}
			kind := tokQuotedIdent
			if doubleQuotedStrings {
				kind = tokString
			}
			tokens = append(tokens, token{kind: kind, text: string(rs[i+1 : end]), pos: i})
			i = end + 1

		case c == '`':
			end, err := scanQuoted(rs, i, '`')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokQuotedIdent, text: string(rs[i+1 : end]), pos: i})
			i = end + 1

		case unicode.IsDigit(c):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.' ||
				rs[i] == 'e' || rs[i] == 'E' ||
				((rs[i] == '+' || rs[i] == '-') && (rs[i-1] == 'e' || rs[i-1] == 'E'))) {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, text: string(rs[start:i]), pos: start})

		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(rs) && (rs[i] == '_' || rs[i] == '$' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(rs[start:i]), pos: start})

		default:
			matched := false
			for _, sym := range multiCharSymbols {
				if strings.HasPrefix(string(rs[i:min(i+2, len(rs))]), sym) {
					tokens = append(tokens, token{kind: tokSymbol, text: sym, pos: i})
					i += len(sym)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if strings.ContainsRune(singleCharSymbols, c) {
				tokens = append(tokens, token{kind: tokSymbol, text: string(c), pos: i})
				i++
				continue
			}
			return nil, rejectf("unexpected character "+string(c), i)
		}
	}

	return tokens, nil
}

// scanQuoted returns the index of the closing quote. A doubled quote or a backslash escapes.
func scanQuoted(rs []rune, start int, quote rune) (int, error) {
	for i := start + 1; i < len(rs); i++ {
		switch rs[i] {
		case '\\':
			i++
		case quote:
			if i+1 < len(rs) && rs[i+1] == quote {
				i++
				continue
			}
			return i, nil
		}
	}
	return 0, rejectf("unterminated quoted text", start)
}

func rejectf(reason string, pos int) error {
	return goerr.New("query rejected",
		goerr.V("reason", reason),
		goerr.V("position", pos),
		goerr.T(errs.TagTranslationFailure),
	)
}
