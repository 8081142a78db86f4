package netx

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/researcher/internal/filex"
)

func TestMultipartFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "paper-a.pdf")
	b := filepath.Join(dir, "paper-b.pdf")
	if err := os.WriteFile(a, []byte("%PDF-a"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("%PDF-b"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("two files under one field", func(t *testing.T) {
		body, ct, err := MultipartFiles("files", a, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		mediaType, params, err := mime.ParseMediaType(ct)
		if err != nil {
			t.Fatalf("parse content type: %v", err)
		}
		if mediaType != "multipart/form-data" {
			t.Fatalf("media type = %q, want multipart/form-data", mediaType)
		}

		r := multipart.NewReader(body, params["boundary"])
		var names, contents []string
		for {
			p, err := r.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("next part: %v", err)
			}
			if p.FormName() != "files" {
				t.Fatalf("form name = %q, want files", p.FormName())
			}
			data, _ := io.ReadAll(p)
			names = append(names, p.FileName())
			contents = append(contents, string(data))
		}

		if len(names) != 2 || names[0] != "paper-a.pdf" || names[1] != "paper-b.pdf" {
			t.Fatalf("file names = %v", names)
		}
		if contents[0] != "%PDF-a" || contents[1] != "%PDF-b" {
			t.Fatalf("contents = %v", contents)
		}
	})

	t.Run("no files", func(t *testing.T) {
		if _, _, err := MultipartFiles("files"); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("directory rejected", func(t *testing.T) {
		_, _, err := MultipartFiles("files", dir)
		if !errors.Is(err, filex.ErrNotRegularFile) {
			t.Fatalf("error = %v, want ErrNotRegularFile", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := MultipartFiles("files", filepath.Join(dir, "nope.pdf")); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
