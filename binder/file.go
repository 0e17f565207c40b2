// Package binder extracts uploaded files from multipart/form-data
// requests into storage file descriptors, either through struct tags or
// direct helpers.
package binder

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"reflect"
	"strings"

	"github.com/Gugulethu-Nyoni/semantq-storage/storage"
)

// DefaultMaxMemory is the default maximum memory used for parsing multipart forms (10MB).
const DefaultMaxMemory = 10 << 20 // 10 MB

var fileType = reflect.TypeOf(storage.File{})

// IsMultipart reports whether the request carries multipart form data.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// File creates a file binder that processes fields with `file:` tags.
// It extracts uploaded files from multipart/form-data requests.
//
// Supported field types:
//   - storage.File - single file
//   - *storage.File - optional single file
//   - []storage.File - multiple files
//   - []*storage.File - multiple files with pointers
//
// Example:
//
//	type UploadRequest struct {
//		Avatar  storage.File    `file:"avatar"`
//		Gallery []*storage.File `file:"gallery"`
//	}
//
//	var req UploadRequest
//	if err := binder.File()(r, &req); err != nil {
//		http.Error(w, err.Error(), http.StatusBadRequest)
//		return
//	}
func File() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		// Only process multipart forms; everything else is skipped.
		if !IsMultipart(r) {
			return nil
		}

		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
				return nil
			}
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return fmt.Errorf("%w: target must be a non-nil pointer", ErrInvalidForm)
		}

		rv = rv.Elem()
		if rv.Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidForm)
		}

		rt := rv.Type()

		for i := 0; i < rv.NumField(); i++ {
			field := rv.Field(i)
			fieldType := rt.Field(i)

			if !field.CanSet() {
				continue
			}

			tag := fieldType.Tag.Get("file")
			if tag == "" || tag == "-" {
				continue
			}

			fileHeaders := r.MultipartForm.File[tag]
			if len(fileHeaders) == 0 {
				continue
			}

			if err := setFileField(field, fieldType.Type, fileHeaders); err != nil {
				return fmt.Errorf("%w: field %s: %v", ErrInvalidForm, fieldType.Name, err)
			}
		}

		return nil
	}
}

// setFileField sets uploaded file values to struct fields.
func setFileField(field reflect.Value, fieldType reflect.Type, fileHeaders []*multipart.FileHeader) error {
	// Handle pointer types
	if fieldType.Kind() == reflect.Ptr {
		if len(fileHeaders) == 0 {
			return nil
		}
		if field.IsNil() {
			field.Set(reflect.New(fieldType.Elem()))
		}
		return setFileField(field.Elem(), fieldType.Elem(), fileHeaders)
	}

	// Handle slice types
	if fieldType.Kind() == reflect.Slice {
		elemType := fieldType.Elem()
		slice := reflect.MakeSlice(fieldType, len(fileHeaders), len(fileHeaders))

		for i, header := range fileHeaders {
			f, err := storage.FromMultipart(header)
			if err != nil {
				return err
			}

			elem := slice.Index(i)
			if elemType.Kind() == reflect.Ptr {
				elem.Set(reflect.ValueOf(f))
			} else {
				elem.Set(reflect.ValueOf(*f))
			}
		}

		field.Set(slice)
		return nil
	}

	if len(fileHeaders) == 0 {
		return nil
	}

	if fieldType != fileType {
		return fmt.Errorf("unsupported type for file field: %s", fieldType)
	}

	// Use only the first file for non-slice fields
	f, err := storage.FromMultipart(fileHeaders[0])
	if err != nil {
		return err
	}

	field.Set(reflect.ValueOf(*f))
	return nil
}

// GetFile retrieves a single file from a multipart form request.
// If multiple files are uploaded with the same field name, only the first is returned.
// Returns nil, nil if no file is found for the given field.
//
// Example:
//
//	f, err := binder.GetFile(r, "avatar")
//	if err != nil {
//		http.Error(w, "invalid file upload", http.StatusBadRequest)
//		return
//	}
//	if f != nil {
//		fmt.Printf("Uploaded: %s (%d bytes)\n", f.Name, f.Size)
//	}
func GetFile(r *http.Request, field string) (*storage.File, error) {
	return GetFileWithLimit(r, field, DefaultMaxMemory)
}

// GetFileWithLimit retrieves a single file with a custom memory limit.
// This is useful when you need to handle files larger than the default 10MB limit.
//
// Example:
//
//	// Allow up to 50MB
//	f, err := binder.GetFileWithLimit(r, "document", 50<<20)
func GetFileWithLimit(r *http.Request, field string, maxMemory int64) (*storage.File, error) {
	if err := parseMultipartForm(r, maxMemory); err != nil {
		return nil, err
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}

	return storage.FromMultipart(headers[0])
}

// GetFiles retrieves all files uploaded with the given field name.
// Returns an empty slice if no files are found.
//
// Example:
//
//	files, err := binder.GetFiles(r, "photos")
//	if err != nil {
//		http.Error(w, "invalid file upload", http.StatusBadRequest)
//		return
//	}
//	for _, f := range files {
//		fmt.Printf("Uploaded: %s (%d bytes)\n", f.Name, f.Size)
//	}
func GetFiles(r *http.Request, field string) ([]*storage.File, error) {
	if err := parseMultipartForm(r, DefaultMaxMemory); err != nil {
		return nil, err
	}

	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return []*storage.File{}, nil
	}

	headers := r.MultipartForm.File[field]
	files := make([]*storage.File, 0, len(headers))
	for _, header := range headers {
		f, err := storage.FromMultipart(header)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	return files, nil
}

// GetAllFiles retrieves all uploaded files from a multipart form request,
// organized by field name. Non-multipart requests yield an empty map so
// callers can treat them as carrying no files.
//
// Example:
//
//	files, err := binder.GetAllFiles(r)
//	if err != nil {
//		http.Error(w, "invalid file upload", http.StatusBadRequest)
//		return
//	}
//	for field, uploads := range files {
//		for _, f := range uploads {
//			fmt.Printf("%s: %s (%d bytes)\n", field, f.Name, f.Size)
//		}
//	}
func GetAllFiles(r *http.Request) (map[string][]*storage.File, error) {
	if !IsMultipart(r) {
		return make(map[string][]*storage.File), nil
	}

	if err := parseMultipartForm(r, DefaultMaxMemory); err != nil {
		return nil, err
	}

	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return make(map[string][]*storage.File), nil
	}

	result := make(map[string][]*storage.File)
	for field, headers := range r.MultipartForm.File {
		files := make([]*storage.File, 0, len(headers))
		for _, header := range headers {
			f, err := storage.FromMultipart(header)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
		result[field] = files
	}

	return result, nil
}

// FileHeader contains metadata about an uploaded file.
type FileHeader struct {
	Filename string
	Size     int64
	Header   textproto.MIMEHeader
}

// StreamFile processes an uploaded file without loading it entirely into memory.
// This is useful for large files that need to be streamed directly to storage
// or processed in chunks.
//
// The handler function receives an io.Reader for the file content and
// the file header containing metadata. The file is automatically closed
// after the handler returns.
//
// Example:
//
//	err := binder.StreamFile(r, "video", func(reader io.Reader, header *binder.FileHeader) error {
//		return archive.Write(reader, header.Filename, header.Size)
//	})
func StreamFile(r *http.Request, field string, handler func(io.Reader, *FileHeader) error) error {
	if err := parseMultipartForm(r, DefaultMaxMemory); err != nil {
		return err
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return fmt.Errorf("failed to get file %q: %w", field, err)
	}
	defer func() { _ = file.Close() }()

	fileHeader := &FileHeader{
		Filename: header.Filename,
		Size:     header.Size,
		Header:   header.Header,
	}

	return handler(file, fileHeader)
}

// parseMultipartForm ensures the multipart form is parsed with the given memory limit.
func parseMultipartForm(r *http.Request, maxMemory int64) error {
	if r.MultipartForm != nil {
		return nil
	}

	if !IsMultipart(r) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, r.Header.Get("Content-Type"))
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	return nil
}
