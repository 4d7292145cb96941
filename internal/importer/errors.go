package importer

// errors.go defines the error taxonomy shared by the workflow, the HTTP
// client, and the web layer. Every error carries a message suitable for
// direct display; callers use errors.As to pick the boundary behavior
// (HTTP status, inline vs. blocking presentation).

import "fmt"

// ValidationError reports missing or malformed operator input.
// Raised before any network call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// FetchError reports a failed preview fetch: a transport failure or a
// non-success backend status. Status is zero when the request never
// reached the backend.
type FetchError struct {
	Msg    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("preview fetch failed (status %d)", e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NoDataError reports a commit attempted with an empty import session.
type NoDataError struct{}

func (e *NoDataError) Error() string {
	return "no data to import: run a preview first"
}

// CommitError reports a failed import commit.
type CommitError struct {
	Msg    string
	Status int
	Err    error
}

func (e *CommitError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("import failed (status %d)", e.Status)
}

func (e *CommitError) Unwrap() error { return e.Err }

// ConfigError reports a failed operation on the saved-configuration
// collection.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string { return e.Msg }

func (e *ConfigError) Unwrap() error { return e.Err }

// NotFoundError reports a load or delete target that does not exist.
type NotFoundError struct {
	Kind string // "config", "module", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
