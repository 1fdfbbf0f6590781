package agentfiles

import (
	"errors"
	"strings"
)

// Category describes the semantic role of an uploaded agent file
type Category string

const (
	CategorySource        Category = "source"
	CategoryConfig        Category = "config"
	CategoryDocumentation Category = "documentation"
	CategoryDependency    Category = "dependency"
	CategoryDocker        Category = "docker"
)

// MaxFileSize is the hard per-file size limit for agent uploads
const MaxFileSize = 10 * 1024 * 1024 // 10MB

var (
	ErrFileTooLarge       = errors.New("File size exceeds 10MB limit")
	ErrFileTypeNotAllowed = errors.New("File type not allowed")
)

// allowedExtensions is the fixed allow-list of uploadable file extensions
var allowedExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".rs": true, ".go": true,
	".java": true, ".cpp": true, ".c": true, ".php": true,
	".txt": true, ".md": true, ".json": true, ".yaml": true, ".yml": true,
	".toml": true, ".dockerfile": true,
}

// Validate checks an agent file against the size limit and extension allow-list.
// It is a pure function: same name and size always produce the same result.
func Validate(name string, size int64) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}

	if !allowedExtensions[extensionOf(name)] && !strings.Contains(strings.ToLower(name), "dockerfile") {
		return ErrFileTypeNotAllowed
	}

	return nil
}

// extensionOf returns the lowercase extension including the leading dot.
// A name without a dot is treated as its own extension, so a bare
// "Dockerfile" resolves to ".dockerfile" and passes the allow-list.
func extensionOf(name string) string {
	lower := strings.ToLower(name)
	if idx := strings.LastIndex(lower, "."); idx >= 0 {
		return lower[idx:]
	}
	return "." + lower
}

// Classify buckets a file into its semantic category by filename.
// First match wins; anything unmatched is source code.
func Classify(name string) Category {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "dockerfile"):
		return CategoryDocker
	case strings.Contains(lower, "requirements.") ||
		strings.Contains(lower, "package.json") ||
		strings.Contains(lower, "cargo.toml"):
		return CategoryDependency
	case strings.Contains(lower, "config.") || strings.Contains(lower, ".env"):
		return CategoryConfig
	case strings.Contains(lower, "readme") ||
		strings.Contains(lower, "doc") ||
		strings.Contains(lower, ".md"):
		return CategoryDocumentation
	default:
		return CategorySource
	}
}
