package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/clog/hooks"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
)

type Format int

const (
	FormatConsole Format = iota + 1
	FormatJSON
)

// ParseFormat converts "console" or "json" into Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "console", "":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, goerr.New("unsupported log format", goerr.V("format", s))
	}
}

var (
	defaultLogger = slog.Default()
	loggerMutex   sync.RWMutex
)

func Default() *slog.Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()
	return defaultLogger
}

func SetDefault(logger *slog.Logger) {
	loggerMutex.Lock()
	defaultLogger = logger
	loggerMutex.Unlock()
}

// Quiet discards all log output of the default logger.
func Quiet() {
	SetDefault(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// flattenGoErr renders goerr values as a group without the stacktrace.
func flattenGoErr(_ []string, attr slog.Attr) *clog.HandleAttr {
	goErr, ok := attr.Value.Any().(*goerr.Error)
	if !ok {
		return nil
	}

	attrs := make([]any, 0, len(goErr.Values())+1)
	for k, v := range goErr.Values() {
		attrs = append(attrs, slog.Any(k, v))
	}
	attrs = append(attrs, slog.String("cause", goErr.Error()))
	grouped := slog.Group(attr.Key, attrs...)

	return &clog.HandleAttr{NewAttr: &grouped}
}

func redactor() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithTag("secret"),
		masq.WithFieldPrefix("secret_"),
		masq.WithFieldName("Authorization"),
		masq.WithFieldName("Password"),
		masq.WithFieldName("Token"),
	)
}

func New(w io.Writer, level slog.Level, format Format, stacktrace bool) *slog.Logger {
	var handler slog.Handler

	switch format {
	case FormatConsole:
		attrHook := hooks.GoErr()
		if !stacktrace {
			attrHook = flattenGoErr
		}
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(redactor()),
			clog.WithAttrHook(attrHook),
			clog.WithColorMap(&clog.ColorMap{
				Level: map[slog.Level]*color.Color{
					slog.LevelDebug: color.New(color.FgMagenta, color.Bold),
					slog.LevelInfo:  color.New(color.FgBlue, color.Bold),
					slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
					slog.LevelError: color.New(color.FgRed, color.Bold),
				},
				LevelDefault: color.New(color.FgWhite, color.Bold),
				Time:         color.New(color.FgHiBlack),
				Message:      color.New(color.FgHiWhite),
				AttrKey:      color.New(color.FgCyan),
				AttrValue:    color.New(color.FgWhite),
			}),
		)

	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: redactor(),
		})

	default:
		panic(fmt.Sprintf("unsupported log format: %d", format))
	}

	return slog.New(handler)
}

func ErrAttr(err error) slog.Attr { return slog.Any("error", err) }
