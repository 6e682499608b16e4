package crawler

import "fmt"

// FetchError indicates a page could not be retrieved. For transient causes
// it is returned only after retries are exhausted; non-retryable causes
// (4xx, malformed URL) surface on the first attempt.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError indicates markup that is not recognizable as the expected page
// type, e.g. a redirect to a login or error page. It is never retried.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
}

// ConfigError indicates invalid run configuration. It is fatal and reported
// before any network activity.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}
