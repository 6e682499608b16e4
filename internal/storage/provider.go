// Package storage uploads assembled artifacts to their destination. The
// crawl itself never depends on upload success; failures here are reported
// separately by the caller.
package storage

import "context"

// Provider uploads one local artifact into a destination folder and
// returns the remote URI.
type Provider interface {
	Upload(ctx context.Context, localPath, destFolder string) (string, error)
}

// NoOpProvider skips uploads entirely. Used when the crawl output is only
// consumed locally.
type NoOpProvider struct{}

// Upload does nothing and reports the local path back.
func (NoOpProvider) Upload(_ context.Context, localPath, _ string) (string, error) {
	return localPath, nil
}
