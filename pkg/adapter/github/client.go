// Package github reads starred repositories and README files through the GitHub REST API.
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v74/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/catalog"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
)

const maxPerPage = 100

type Client struct {
	client *github.Client
	auth   string
}

var _ interfaces.GitHubClient = (*Client)(nil)

type config struct {
	httpClient     *http.Client
	token          string
	appID          int64
	installationID int64
	privateKey     []byte
}

type Option func(*config)

// WithToken authenticates with a personal access token.
func WithToken(token string) Option { return func(c *config) { c.token = token } }

// WithApp authenticates as a GitHub App installation.
func WithApp(appID, installationID int64, privateKey []byte) Option {
	return func(c *config) {
		c.appID = appID
		c.installationID = installationID
		c.privateKey = privateKey
	}
}

// WithHTTPClient replaces the transport. Authentication options are ignored when it is set.
func WithHTTPClient(client *http.Client) Option { return func(c *config) { c.httpClient = client } }

// New builds a client. Without credentials, requests are anonymous and subject to the
// unauthenticated rate limit.
func New(opts ...Option) (*Client, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case cfg.httpClient != nil:
		return &Client{client: github.NewClient(cfg.httpClient), auth: "custom"}, nil

	case cfg.appID != 0:
		transport, err := ghinstallation.New(http.DefaultTransport, cfg.appID, cfg.installationID, cfg.privateKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GitHub App transport",
				goerr.V("app_id", cfg.appID), goerr.V("installation_id", cfg.installationID))
		}
		return &Client{client: github.NewClient(&http.Client{Transport: transport}), auth: "app"}, nil

	case cfg.token != "":
		return &Client{client: github.NewClient(nil).WithAuthToken(cfg.token), auth: "token"}, nil
	}

	return &Client{client: github.NewClient(nil), auth: "anonymous"}, nil
}

func (x *Client) LogValue() slog.Value {
	return slog.GroupValue(slog.String("auth", x.auth))
}

// ListStarred returns one page of the repositories user has starred. HasMore follows the
// Link header's next relation.
func (x *Client) ListStarred(ctx context.Context, user string, page, perPage int) (*interfaces.StarredPage, error) {
	if user == "" {
		return nil, goerr.New("user is required", goerr.T(errs.TagValidationFailure))
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = maxPerPage
	}

	starred, resp, err := x.client.Activity.ListStarred(ctx, user, &github.ActivityListStarredOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	})
	if err != nil {
		return nil, wrapError(err, "failed to list starred repositories", user)
	}

	result := &interfaces.StarredPage{
		Repositories: make([]*catalog.Repository, 0, len(starred)),
		Page:         page,
		HasMore:      resp != nil && resp.NextPage != 0,
	}
	for _, s := range starred {
		if s.Repository == nil {
			continue
		}
		result.Repositories = append(result.Repositories, toRepository(s.Repository))
	}

	return result, nil
}

// GetReadme returns the decoded README of owner/repo.
func (x *Client) GetReadme(ctx context.Context, owner, repo string) (string, error) {
	if owner == "" || repo == "" {
		return "", goerr.New("owner and repo are required", goerr.T(errs.TagValidationFailure))
	}

	content, _, err := x.client.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		return "", wrapError(err, "failed to get README", owner+"/"+repo)
	}

	text, err := content.GetContent()
	if err != nil {
		return "", goerr.Wrap(err, "failed to decode README",
			goerr.TV(errutil.RepositoryKey, owner+"/"+repo), goerr.T(errs.TagGitHubError))
	}
	return text, nil
}

// wrapError tags GitHub API failures, adding not_found for 404 responses.
func wrapError(err error, msg, target string) error {
	status := 0
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status = respErr.Response.StatusCode
	}

	if status == http.StatusNotFound {
		return goerr.Wrap(err, msg,
			goerr.TV(errutil.RepositoryKey, target),
			goerr.TV(errutil.HTTPStatusKey, status),
			goerr.T(errs.TagNotFound), goerr.T(errs.TagGitHubError))
	}
	return goerr.Wrap(err, msg,
		goerr.TV(errutil.RepositoryKey, target),
		goerr.TV(errutil.HTTPStatusKey, status),
		goerr.T(errs.TagGitHubError))
}

func toRepository(r *github.Repository) *catalog.Repository {
	repo := &catalog.Repository{
		Name:        r.GetName(),
		UserID:      r.GetOwner().GetID(),
		UserName:    r.GetOwner().GetLogin(),
		Description: r.GetDescription(),
		FullName:    r.GetFullName(),
		Topics:      r.Topics,
		URL:         r.GetHTMLURL(),
		Stars:       int64(r.GetStargazersCount()),
		Forks:       int64(r.GetForksCount()),
		Language:    r.GetLanguage(),
		Size:        int64(r.GetSize()),
		OpenIssues:  int64(r.GetOpenIssuesCount()),
		License:     r.GetLicense().GetSPDXID(),
		CreatedAt:   r.GetCreatedAt().Time,
		UpdatedAt:   r.GetUpdatedAt().Time,
		PushedAt:    r.GetPushedAt().Time,
	}
	if repo.Topics == nil {
		repo.Topics = []string{}
	}
	return repo
}
