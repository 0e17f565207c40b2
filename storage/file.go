package storage

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// File is a file received from a client, fully buffered in memory and
// ready for validation and provider dispatch.
type File struct {
	// Name is the original filename provided by the client.
	Name string

	// Size is the content length in bytes.
	Size int64

	// MIMEType is the media type of the content, e.g. "image/png".
	MIMEType string

	// Content holds the file data.
	Content []byte
}

// FromMultipart reads a multipart file header into a File. The part's
// declared Content-Type wins; when it is absent the type is derived from
// the filename extension and finally sniffed from the content itself.
func FromMultipart(fh *multipart.FileHeader) (*File, error) {
	if fh == nil {
		return nil, ErrNilFile
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrFailedToOpenFile, fh.Filename, err)
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrFailedToReadFile, fh.Filename, err)
	}

	return &File{
		Name:     fh.Filename,
		Size:     int64(len(content)),
		MIMEType: detectMIMEType(fh.Filename, fh.Header.Get("Content-Type"), content),
		Content:  content,
	}, nil
}

// detectMIMEType resolves a media type from the declared header value,
// falling back to the filename extension and then to content sniffing.
func detectMIMEType(filename, declared string, content []byte) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "" {
			return mediaType
		}
	}
	if ext := filepath.Ext(filename); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			mediaType, _, _ := mime.ParseMediaType(byExt)
			if mediaType != "" {
				return mediaType
			}
		}
	}
	if len(content) > 0 {
		mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(content))
		if mediaType != "" {
			return mediaType
		}
	}
	return "application/octet-stream"
}

// SanitizeFilename removes any path components and dangerous characters from a
// filename to prevent path traversal attacks. Returns "unnamed" for empty or
// special directory references.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = path.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")
	filename = strings.ReplaceAll(filename, " ", "_")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}

	return filename
}

// ObjectKey builds a unique storage key for a file under a folder:
// the sanitized base name, a short random suffix, and the original
// extension. folder may be empty.
func ObjectKey(folder, filename string) string {
	name := SanitizeFilename(filename)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	suffix := uuid.NewString()[:8]
	key := base + "-" + suffix + ext

	folder = strings.Trim(folder, "/")
	if folder == "" {
		return key
	}
	return folder + "/" + key
}
