// Package netx builds request bodies the gateway sends as-is.
package netx

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/researcher/internal/filex"
)

// MultipartFiles encodes the files at paths as a multipart/form-data body,
// every file under the same form field. It returns the body and its
// Content-Type (with boundary).
func MultipartFiles(field string, paths ...string) (*bytes.Buffer, string, error) {
	if len(paths) == 0 {
		return nil, "", fmt.Errorf("no files to upload")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range paths {
		if _, err := filex.CheckRegularFile(p); err != nil {
			return nil, "", err
		}
		if err := addFile(w, field, p); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func addFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
