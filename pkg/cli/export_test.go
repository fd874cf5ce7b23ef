package cli

import (
	"context"
	"io"

	"github.com/m-mizutani/fireconf"
	"github.com/secmon-lab/starfinder/pkg/client"
)

// RunWithIO runs the app with the given standard streams.
func RunWithIO(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	return run(ctx, args, stdin, stdout)
}

func DefineFirestoreIndexes() *fireconf.Config {
	return defineFirestoreIndexes()
}

func ServerURL(addr string) string {
	return serverURL(addr)
}

func Truncate(s string, width int) string {
	return truncate(s, width)
}

// Browser exposes the interactive browse driver.
type Browser struct {
	b *browser
}

func NewBrowser(c *client.Client, out io.Writer) *Browser {
	return &Browser{b: newBrowser(c, out)}
}

func (x *Browser) Init(ctx context.Context) error { return x.b.init(ctx) }

func (x *Browser) Exec(ctx context.Context, line string) (bool, error) { return x.b.exec(ctx, line) }

func (x *Browser) Close() { x.b.session.Close() }
