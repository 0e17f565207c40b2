package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// FolderContext supplies values for folder template placeholders.
type FolderContext map[string]string

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// ResolveFolder expands every {key} placeholder in a folder template with
// the matching context value. A placeholder without a context entry fails
// with ErrMissingPlaceholder. The resolved path must not contain
// traversal segments.
func ResolveFolder(template string, fctx FolderContext) (string, error) {
	var missing string
	resolved := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := m[1 : len(m)-1]
		val, ok := fctx[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return m
		}
		return val
	})
	if missing != "" {
		return "", fmt.Errorf("%w: {%s} in template %q", ErrMissingPlaceholder, missing, template)
	}

	resolved = strings.Trim(resolved, "/")
	if strings.Contains(resolved, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, resolved)
	}

	return resolved, nil
}
