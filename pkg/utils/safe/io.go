package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/starfinder/pkg/utils/logging"
)

// Close closes c and logs the failure instead of returning it.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", logging.ErrAttr(err))
	}
}

func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write", logging.ErrAttr(err))
	}
}
