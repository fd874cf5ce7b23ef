package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
)

// Starred returns one page of the repositories a GitHub user has starred.
func (u *UseCases) Starred(ctx context.Context, user string, page, perPage int) (*interfaces.StarredPage, error) {
	if u.github == nil {
		return nil, goerr.Wrap(ErrGitHubNotConfigured, "cannot list starred repositories", goerr.T(errs.TagUnavailable))
	}
	if user == "" {
		return nil, goerr.New("user is required", goerr.T(errs.TagInvalidRequest))
	}

	result, err := u.github.ListStarred(ctx, user, page, perPage)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list starred repositories", goerr.V("user", user))
	}
	return result, nil
}

// Readme returns the README markdown of owner/repo.
func (u *UseCases) Readme(ctx context.Context, owner, repo string) (string, error) {
	if u.github == nil {
		return "", goerr.Wrap(ErrGitHubNotConfigured, "cannot get README", goerr.T(errs.TagUnavailable))
	}

	readme, err := u.github.GetReadme(ctx, owner, repo)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get README", goerr.V("repository", owner+"/"+repo))
	}
	return readme, nil
}
