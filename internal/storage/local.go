package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider copies artifacts into a directory tree. Useful for
// development and for handing artifacts to a separately-mounted sync tool.
type LocalProvider struct {
	baseDir string
}

// NewLocalProvider validates the base directory and creates it if missing.
func NewLocalProvider(baseDir string) (*LocalProvider, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &LocalProvider{baseDir: baseDir}, nil
}

// Upload copies the file into baseDir/destFolder and returns a file:// URI.
func (p *LocalProvider) Upload(ctx context.Context, localPath, destFolder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", localPath, err)
	}

	target := filepath.Join(p.baseDir, destFolder, filepath.Base(localPath))
	cleanBase := filepath.Clean(p.baseDir)
	if !strings.HasPrefix(filepath.Clean(target), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("destination escapes base directory")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("create destination dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return "file://" + target, nil
}
