package http

var (
	PanicRecoveryMiddleware = panicRecoveryMiddleware
	RequestIDMiddleware     = requestIDMiddleware
	LoggingMiddleware       = loggingMiddleware
	HandleError             = handleError
)
