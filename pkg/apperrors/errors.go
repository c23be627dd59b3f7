package apperrors

import "errors"

var (
	// ErrPoolExhausted means the live-connection count already equals the
	// configured maximum and no pooled connection is free. Not retried.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrConnectionFailed means acquisition failed after the full retry budget.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMalformedResponse means the model returned a JSON object that is
	// neither a plan nor a clarification request. Fatal for the request.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrUnresolvedVariable means a plan step referenced an @variable that no
	// earlier step produced.
	ErrUnresolvedVariable = errors.New("unresolved plan variable")

	// ErrTemplateFormat means the prompt template references a placeholder
	// absent from the supplied parameter set, or the template file is missing.
	ErrTemplateFormat = errors.New("prompt template formatting failed")
)
