package binder_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gugulethu-Nyoni/semantq-storage/binder"
	"github.com/Gugulethu-Nyoni/semantq-storage/storage"
)

// createBenchmarkMultipartForm creates a multipart form for benchmarking
func createBenchmarkMultipartForm(files map[string][]byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for fieldName, content := range files {
		part, _ := writer.CreateFormFile(fieldName, fieldName+".jpg")
		part.Write(content)
	}

	writer.Close()
	return body, writer.FormDataContentType()
}

func BenchmarkFile_SingleFile(b *testing.B) {
	fileContent := make([]byte, 1024) // 1KB file
	for i := range fileContent {
		fileContent[i] = byte(i % 256)
	}

	body, contentType := createBenchmarkMultipartForm(map[string][]byte{
		"avatar": fileContent,
	})

	type UploadRequest struct {
		Avatar storage.File `file:"avatar"`
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		// Create a new reader for each iteration
		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body.Bytes()))
		req.Header.Set("Content-Type", contentType)

		var upload UploadRequest
		fileBinder := binder.File()
		_ = fileBinder(req, &upload)
	}
}

func BenchmarkFile_Gallery(b *testing.B) {
	fileContent := make([]byte, 1024)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for i := 0; i < 10; i++ {
		part, _ := writer.CreateFormFile("gallery", "photo.jpg")
		part.Write(fileContent)
	}
	writer.Close()
	contentType := writer.FormDataContentType()

	type UploadRequest struct {
		Gallery []*storage.File `file:"gallery"`
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body.Bytes()))
		req.Header.Set("Content-Type", contentType)

		var upload UploadRequest
		fileBinder := binder.File()
		_ = fileBinder(req, &upload)
	}
}

func BenchmarkGetAllFiles(b *testing.B) {
	fileContent := make([]byte, 1024)
	body, contentType := createBenchmarkMultipartForm(map[string][]byte{
		"cover":   fileContent,
		"gallery": fileContent,
		"manual":  fileContent,
	})

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body.Bytes()))
		req.Header.Set("Content-Type", contentType)

		_, _ = binder.GetAllFiles(req)
	}
}
