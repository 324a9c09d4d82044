// Package office pulls plain text out of ZIP-based Office documents
// (.docx, .xlsx, .pptx) so attachment content can be inspected inline
// instead of round-tripping base64 blobs.
package office

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// MaxFileSize caps extraction input at Gmail's attachment ceiling.
const MaxFileSize = 25 * 1024 * 1024

// ExtractText returns the concatenated text content of an Office
// document. The format is picked from the MIME type; unknown Office
// types fall back to scraping every XML member.
func ExtractText(data []byte, mimeType string) (string, error) {
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("file too large for text extraction (%d bytes, max %d)", len(data), MaxFileSize)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening Office document as ZIP: %w", err)
	}

	switch {
	case strings.Contains(mimeType, "wordprocessingml") || strings.HasSuffix(mimeType, ".docx"):
		return extractDocx(reader)
	case strings.Contains(mimeType, "spreadsheetml") || strings.HasSuffix(mimeType, ".xlsx"):
		return collectText(reader, func(name string) bool {
			return strings.HasPrefix(name, "xl/worksheets/sheet") && strings.HasSuffix(name, ".xml")
		}, "\n\n")
	case strings.Contains(mimeType, "presentationml") || strings.HasSuffix(mimeType, ".pptx"):
		return collectText(reader, func(name string) bool {
			return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
		}, "\n\n")
	default:
		return collectText(reader, func(name string) bool {
			return strings.HasSuffix(name, ".xml")
		}, "\n")
	}
}

// extractDocx reads the single main document part.
func extractDocx(r *zip.Reader) (string, error) {
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			return memberText(f)
		}
	}
	return "", fmt.Errorf("word/document.xml not found in docx")
}

// collectText joins the text of every ZIP member accepted by match.
// Unreadable members are skipped so one corrupt sheet or slide does
// not lose the rest.
func collectText(r *zip.Reader, match func(string) bool, sep string) (string, error) {
	var parts []string
	for _, f := range r.File {
		if !match(f.Name) {
			continue
		}
		text, err := memberText(f)
		if err != nil || text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, sep), nil
}

// memberText decompresses one ZIP member and flattens its XML
// character data, space-joined.
func memberText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize))
	if err != nil {
		return "", err
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var parts []string
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		if charData, ok := tok.(xml.CharData); ok {
			if text := strings.TrimSpace(string(charData)); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " "), nil
}
