package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	r := NewRegistry()
	got, err := r.Extract(context.Background(), []byte("Plain contract text."), "contract.txt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Plain contract text." {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtractUnsupported(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), []byte("x"), "photo.png")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestExtractMalformed(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), []byte("not a zip"), "broken.docx")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Contract.PDF", "pdf"},
		{"a/b/notes.txt", "txt"},
		{"no-extension", ""},
		{"archive.tar.gz", "gz"},
	}
	for _, tt := range tests {
		if got := Format(tt.filename); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestDOCXExtract(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First clause paragraph with enough text.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := f.Write([]byte(docXML)); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}

	r := NewRegistry()
	got, err := r.Extract(context.Background(), buf.Bytes(), "doc.docx")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	paragraphs := strings.Split(got, "\n\n")
	if len(paragraphs) != 2 {
		t.Fatalf("got %d paragraphs, want 2: %q", len(paragraphs), got)
	}
	if paragraphs[0] != "First clause paragraph with enough text." {
		t.Errorf("first paragraph = %q", paragraphs[0])
	}
	if paragraphs[1] != "Second paragraph." {
		t.Errorf("runs not joined: %q", paragraphs[1])
	}
}

func TestDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create("other.xml")
	f.Write([]byte("<x/>"))
	zw.Close()

	e := &DOCXExtractor{}
	if _, err := e.Extract(context.Background(), buf.Bytes()); err == nil {
		t.Fatal("expected error for DOCX without word/document.xml")
	}
}

func TestRegistryFormats(t *testing.T) {
	r := NewRegistry()
	want := map[string]bool{"txt": true, "pdf": true, "docx": true, "xlsx": true}
	got := make(map[string]bool)
	for _, f := range r.Formats() {
		got[f] = true
	}
	for f := range want {
		if !got[f] {
			t.Errorf("format %q not registered", f)
		}
	}
}
