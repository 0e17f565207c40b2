package storage

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Constraints describes the validation rules applied to a single file.
// The zero value accepts everything.
//
// Size limits are human-readable strings parsed with humanize, e.g.
// "10MB", "512KiB" or a plain byte count. Type lists accept exact MIME
// types and the wildcard patterns "*/*" and "prefix/*"; category lists
// accept the names from the category table, "*", wildcard patterns and
// literal types (see ExpandCategories).
type Constraints struct {
	MaxSize              string
	AllowedTypes         []string
	DisallowedTypes      []string
	AllowedCategories    []string
	DisallowedCategories []string
}

// ParseSize converts a human-readable size string to a byte count.
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSize, s, err)
	}
	return int64(n), nil
}

// Validate checks a file against the constraint set. Rules are evaluated
// most restrictive first, and the first failing rule wins:
//
//  1. Size limit, when MaxSize is set.
//  2. When neither an allow-list (explicit types plus expanded allowed
//     categories) nor explicit disallowed types are present, the file
//     passes. DisallowedCategories alone does not arm type validation.
//  3. Explicitly disallowed types, matched with wildcard semantics.
//  4. Disallowed categories, matched by exact membership of the
//     expansion. A block always wins over a broader allow pattern.
//  5. The combined allow-list, matched with wildcard semantics.
func (c Constraints) Validate(f *File) error {
	if f == nil {
		return ErrNilFile
	}

	if c.MaxSize != "" {
		limit, err := ParseSize(c.MaxSize)
		if err != nil {
			return err
		}
		if f.Size > limit {
			return fmt.Errorf("file %q is %s, exceeds %s limit: %w",
				f.Name, humanize.Bytes(uint64(f.Size)), c.MaxSize, ErrFileTooLarge)
		}
	}

	allowed := make([]string, 0, len(c.AllowedTypes))
	allowed = append(allowed, c.AllowedTypes...)
	allowed = append(allowed, ExpandCategories(c.AllowedCategories)...)

	if len(allowed) == 0 && len(c.DisallowedTypes) == 0 {
		return nil
	}

	if matchAny(c.DisallowedTypes, f.MIMEType) {
		return fmt.Errorf("file %q has type %s: %w", f.Name, f.MIMEType, ErrMIMETypeDisallowed)
	}

	for _, mt := range ExpandCategories(c.DisallowedCategories) {
		if mt == f.MIMEType {
			return fmt.Errorf("file %q has type %s: %w", f.Name, f.MIMEType, ErrMIMETypeDisallowed)
		}
	}

	if len(allowed) > 0 && !matchAny(allowed, f.MIMEType) {
		return fmt.Errorf("file %q has type %s, not in allowed types: %w", f.Name, f.MIMEType, ErrMIMETypeNotAllowed)
	}

	return nil
}
