package config

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/starfinder/pkg/adapter/storage"
	"google.golang.org/api/option"

	"github.com/urfave/cli/v3"
)

// Audit keeps every utterance translation as a JSON object in Cloud Storage.
type Audit struct {
	bucket    string
	prefix    string
	projectID string
}

func (x *Audit) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "audit-bucket",
			Usage:       "Cloud Storage bucket for translation audit records",
			Category:    "Audit",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("STARFINDER_AUDIT_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "audit-prefix",
			Usage:       "Object prefix for audit records",
			Category:    "Audit",
			Value:       "translations/",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("STARFINDER_AUDIT_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "audit-project-id",
			Usage:       "Project billed for Cloud Storage quota",
			Category:    "Audit",
			Destination: &x.projectID,
			Sources:     cli.EnvVars("STARFINDER_AUDIT_PROJECT_ID"),
		},
	}
}

func (x *Audit) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
		slog.String("project_id", x.projectID),
	)
}

// Configure returns nil auditor and client when no bucket is set. The client must be
// closed by the caller.
func (x *Audit) Configure(ctx context.Context) (*storage.Auditor, *storage.Client, error) {
	if x.bucket == "" {
		return nil, nil, nil
	}

	var opts []option.ClientOption
	if x.projectID != "" {
		opts = append(opts, option.WithQuotaProject(x.projectID))
	}

	client, err := storage.New(ctx, x.bucket, x.prefix, opts...)
	if err != nil {
		return nil, nil, err
	}

	return storage.NewAuditor(client), client, nil
}
