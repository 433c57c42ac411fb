package utils

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"testing"
	"time"
)

func fileHeader(t *testing.T, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="frame.jpg"`}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	part.Write(body)
	w.Close()

	req, _ := http.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm() error = %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestReadImageFile(t *testing.T) {
	u := NewWithLimit(16)

	tests := []struct {
		name        string
		contentType string
		body        []byte
		wantErr     error
	}{
		{"jpeg", "image/jpeg", []byte("abc"), nil},
		{"octet stream", "application/octet-stream", []byte("abc"), nil},
		{"text", "text/plain", []byte("abc"), ErrNotImage},
		{"too large", "image/png", bytes.Repeat([]byte("x"), 17), ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := u.ReadImageFile(fileHeader(t, tt.contentType, tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReadImageFile() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !bytes.Equal(data, tt.body) {
				t.Errorf("ReadImageFile() = %q, want %q", data, tt.body)
			}
		})
	}

	if err := u.ValidateImageFile(nil); !errors.Is(err, ErrNoFile) {
		t.Errorf("ValidateImageFile(nil) = %v, want ErrNoFile", err)
	}
}

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()

	a, err := u.NewULIDFromTimestamp(time.Now())
	if err != nil {
		t.Fatalf("NewULIDFromTimestamp() error = %v", err)
	}
	b, _ := u.NewULIDFromTimestamp(time.Now())
	if len(a) != 26 || a == b {
		t.Errorf("NewULIDFromTimestamp() = %q, %q; want distinct 26-char ids", a, b)
	}
}
