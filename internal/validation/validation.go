// Package validation checks user input before it reaches the core.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"docsearch/internal/domain"
)

var forbiddenQueryPatterns = []string{"<script", "javascript:", "drop table", "delete from"}

const maxNameLen = 200

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Query trims q and checks its length (in characters) and content.
func Query(q string, minLen, maxLen int) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", domain.ValidationError("search query is required")
	}
	n := utf8.RuneCountInString(q)
	if minLen > 0 && n < minLen {
		return "", domain.ValidationError(fmt.Sprintf("search query must be at least %d characters", minLen))
	}
	if maxLen > 0 && n > maxLen {
		return "", domain.ValidationError(fmt.Sprintf("search query must be at most %d characters", maxLen))
	}
	lower := strings.ToLower(q)
	for _, p := range forbiddenQueryPatterns {
		if strings.Contains(lower, p) {
			return "", domain.ValidationError("search query contains forbidden content")
		}
	}
	return q, nil
}

// Filename checks the extension against allowed (without dots, case-insensitive)
// and returns a name safe to use as a file or storage key.
func Filename(name string, allowed []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ValidationError("no file selected")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !Allowed(ext, allowed) {
		return "", domain.ValidationError(fmt.Sprintf("unsupported file type, allowed: %s", strings.Join(allowed, ", ")))
	}
	return SafeName(name), nil
}

// Allowed reports whether ext is in the allowed list.
func Allowed(ext string, allowed []string) bool {
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return true
		}
	}
	return false
}

// SafeName strips directories and replaces anything outside [A-Za-z0-9._-].
func SafeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeNameRe.ReplaceAllString(base, "_")
	if len(base) > maxNameLen {
		base = base[len(base)-maxNameLen:]
	}
	base = strings.TrimLeft(base, "._-")
	if base == "" {
		return "document"
	}
	return base
}

// FileSize rejects empty files and files larger than max bytes.
func FileSize(size, max int64) error {
	if size <= 0 {
		return domain.ValidationError("file is empty")
	}
	if max > 0 && size > max {
		return domain.ValidationError(fmt.Sprintf("file too large, limit is %d MB", max>>20))
	}
	return nil
}
