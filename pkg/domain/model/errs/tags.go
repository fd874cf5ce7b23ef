package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Search pipeline failures
	TagValidationFailure  = goerr.NewTag("validation_failure")  // malformed request, 400
	TagTranslationFailure = goerr.NewTag("translation_failure") // model declined or produced unusable output
	TagExecutionFailure   = goerr.NewTag("execution_failure")   // store unreachable or query rejected, 502

	// Client errors (4xx)
	TagNotFound       = goerr.NewTag("not_found")       // 404
	TagInvalidRequest = goerr.NewTag("invalid_request") // 400
	TagForbidden      = goerr.NewTag("forbidden")       // 403
	TagUnavailable    = goerr.NewTag("unavailable")     // 503, feature not configured

	// Server errors (5xx)
	TagInternal = goerr.NewTag("internal") // 500
	TagExternal = goerr.NewTag("external") // 502
	TagTimeout  = goerr.NewTag("timeout")  // 504
	TagDatabase = goerr.NewTag("database") // 500

	TagInvalidLLMResponse = goerr.NewTag("invalid_llm_response")
	TagGitHubError        = goerr.NewTag("github_error")
)
