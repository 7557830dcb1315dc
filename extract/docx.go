package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DOCXExtractor extracts paragraph text from Word documents. DOCX is a
// zip archive; the document body lives in word/document.xml.
type DOCXExtractor struct{}

func (e *DOCXExtractor) SupportedFormats() []string { return []string{"docx"} }

func (e *DOCXExtractor) Extract(_ context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening DOCX archive: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("opening document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("reading document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("word/document.xml not found in DOCX")
	}

	return extractDocxText(docXML)
}

// extractDocxText streams the document XML, collecting w:t runs and
// separating paragraphs with blank lines so downstream segmentation
// sees clause boundaries.
func extractDocxText(docXML []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(docXML))

	var out strings.Builder
	var para strings.Builder
	inText := false

	flush := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return
		}
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(text)
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decoding document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == wordprocessingNS || t.Name.Space == "" {
				switch t.Name.Local {
				case "t":
					inText = true
				case "tab":
					para.WriteString("\t")
				case "br":
					para.WriteString("\n")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" {
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()

	if out.Len() == 0 {
		return "", fmt.Errorf("no extractable text")
	}
	return out.String(), nil
}
