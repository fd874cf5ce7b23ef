package usecase

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrGitHubNotConfigured is returned by starred and README lookups when no GitHub client is set.
	ErrGitHubNotConfigured = goerr.New("github client not configured")
)
