// Package storage writes objects to Cloud Storage or to memory. It backs the translation
// audit trail.
package storage

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/utils/safe"
	"google.golang.org/api/option"
)

type Client struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.StorageClient = &Client{}

// New returns a client writing into bucket. Every object name is prefixed with prefix,
// which is normalized to end with a slash.
func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Client, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Client{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (x *Client) PutObject(ctx context.Context, object string) io.WriteCloser {
	w := x.client.Bucket(x.bucket).Object(x.prefix + object).NewWriter(ctx)
	w.ContentType = contentType(object)
	return w
}

func (x *Client) GetObject(ctx context.Context, object string) (io.ReadCloser, error) {
	rc, err := x.client.Bucket(x.bucket).Object(x.prefix + object).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create reader",
			goerr.V("bucket", x.bucket),
			goerr.V("object", x.prefix+object),
		)
	}

	return rc, nil
}

func (x *Client) Close(ctx context.Context) {
	safe.Close(ctx, x.client)
}

func contentType(object string) string {
	if strings.HasSuffix(object, ".json") {
		return "application/json"
	}
	return "application/octet-stream"
}
