package storage

import "strings"

// Category groups related MIME types under a short name so callers can
// write AllowedCategories: []string{"image"} instead of enumerating types.
// The table is fixed at process start and never mutated.

// categoryOrder fixes the expansion order for the "*" wildcard so results
// are deterministic across runs.
var categoryOrder = []string{
	"image",
	"video",
	"audio",
	"document",
	"spreadsheet",
	"archive",
	"text",
}

var categories = map[string][]string{
	"image": {
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/svg+xml",
		"image/bmp",
		"image/tiff",
		"image/heic",
		"image/heif",
		"image/avif",
	},
	"video": {
		"video/mp4",
		"video/mpeg",
		"video/ogg",
		"video/webm",
		"video/quicktime",
		"video/x-msvideo",
		"video/x-flv",
		"video/3gpp",
		"video/x-matroska",
	},
	"audio": {
		"audio/mpeg",
		"audio/ogg",
		"audio/wav",
		"audio/wave",
		"audio/webm",
		"audio/aac",
		"audio/mp4",
		"audio/x-m4a",
		"audio/opus",
		"audio/flac",
	},
	"document": {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.oasis.opendocument.text",
		"application/rtf",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	},
	"spreadsheet": {
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.oasis.opendocument.spreadsheet",
		"text/csv",
	},
	"archive": {
		"application/zip",
		"application/x-tar",
		"application/gzip",
		"application/x-7z-compressed",
		"application/x-rar-compressed",
	},
	"text": {
		"text/plain",
		"text/html",
		"text/css",
		"text/markdown",
		"application/json",
		"application/xml",
	},
}

// Categories returns the known category names in expansion order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// CategoryTypes returns the MIME types of a category, or nil for an
// unknown name.
func CategoryTypes(name string) []string {
	types, ok := categories[name]
	if !ok {
		return nil
	}
	out := make([]string, len(types))
	copy(out, types)
	return out
}

// ExpandCategories flattens a mixed list of category names, wildcard
// patterns and literal MIME types into a deduplicated list of concrete
// MIME types. Each entry is classified in priority order:
//
//  1. "*" expands to every MIME type of every category.
//  2. A known category name expands to that category's types.
//  3. "prefix/*" expands to every known type with that prefix; a prefix
//     matching nothing is kept verbatim as a wildcard marker.
//  4. Anything else is kept verbatim as a literal MIME type.
//
// The result preserves first-seen order and is deterministic for the
// static category table.
func ExpandCategories(entries []string) []string {
	var out []string
	seen := make(map[string]struct{})

	add := func(mt string) {
		if _, ok := seen[mt]; ok {
			return
		}
		seen[mt] = struct{}{}
		out = append(out, mt)
	}

	for _, entry := range entries {
		switch {
		case entry == "*":
			for _, name := range categoryOrder {
				for _, mt := range categories[name] {
					add(mt)
				}
			}
		case categories[entry] != nil:
			for _, mt := range categories[entry] {
				add(mt)
			}
		case strings.HasSuffix(entry, "/*"):
			prefix := strings.TrimSuffix(entry, "*")
			matched := false
			for _, name := range categoryOrder {
				for _, mt := range categories[name] {
					if strings.HasPrefix(mt, prefix) {
						add(mt)
						matched = true
					}
				}
			}
			if !matched {
				add(entry)
			}
		default:
			add(entry)
		}
	}

	return out
}

// MatchMIMEType reports whether a MIME type matches a pattern. A pattern
// is an exact type, the catch-all "*/*", or a prefix wildcard such as
// "image/*".
func MatchMIMEType(pattern, mimeType string) bool {
	if pattern == "*/*" {
		return true
	}
	if pattern == mimeType {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		return strings.HasPrefix(mimeType, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// matchAny reports whether the MIME type matches at least one pattern.
func matchAny(patterns []string, mimeType string) bool {
	for _, p := range patterns {
		if MatchMIMEType(p, mimeType) {
			return true
		}
	}
	return false
}
