package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
)

var (
	nameColor   = color.New(color.FgCyan, color.Bold)
	starColor   = color.New(color.FgYellow)
	langColor   = color.New(color.FgGreen)
	noticeColor = color.New(color.FgMagenta)
	errorColor  = color.New(color.FgRed, color.Bold)
	dimColor    = color.New(color.Faint)
)

const maxDescriptionWidth = 80

// renderRepositories prints one numbered block per repository, starting at offset+1.
func renderRepositories(w io.Writer, repos []*catalog.Repository, offset int) {
	for i, r := range repos {
		lang := r.Language
		if lang == "" {
			lang = "-"
		}

		fmt.Fprintf(w, "%4d. %s  %s  %s  %s\n",
			offset+i+1,
			nameColor.Sprint(r.FullName),
			starColor.Sprintf("★ %s", humanize.Comma(r.Stars)),
			langColor.Sprint(lang),
			dimColor.Sprint(pushedAt(r.PushedAt)),
		)
		if desc := truncate(r.Description, maxDescriptionWidth); desc != "" {
			fmt.Fprintf(w, "      %s\n", desc)
		}
	}
}

// renderPage prints the repositories of page followed by its status line.
func renderPage(w io.Writer, page *search.Page) {
	if page.Error != "" {
		fmt.Fprintln(w, errorColor.Sprintf("search failed: %s", page.Error))
		return
	}
	if page.Fallback {
		fmt.Fprintln(w, noticeColor.Sprint("could not interpret the request, showing the default listing"))
	}
	for _, c := range page.Conditions {
		fmt.Fprintln(w, dimColor.Sprintf("  condition: %s %s %s", c.Field, c.Operator, c.Value))
	}

	renderRepositories(w, page.Repositories, page.Offset)
	fmt.Fprintln(w, dimColor.Sprintf("%s results (%s, offset %d)",
		humanize.Comma(int64(len(page.Repositories))), page.Source, page.Offset))
}

func pushedAt(t time.Time) string {
	if t.IsZero() {
		return "never pushed"
	}
	return "pushed " + humanize.Time(t)
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
