package office

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildZip(t *testing.T, members map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range members {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func TestExtractDocx(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body><w:p><w:r><w:t>Quarterly invoice attached</w:t></w:r></w:p></w:body></w:document>`,
	})
	text, err := ExtractText(data, docxMime)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "Quarterly invoice attached" {
		t.Errorf("got %q", text)
	}
}

func TestExtractDocxMissingDocumentPart(t *testing.T) {
	data := buildZip(t, map[string]string{"word/styles.xml": "<styles/>"})
	if _, err := ExtractText(data, docxMime); err == nil {
		t.Error("docx without word/document.xml should fail")
	}
}

func TestExtractXlsxJoinsSheets(t *testing.T) {
	data := buildZip(t, map[string]string{
		"xl/worksheets/sheet1.xml": `<sheet><c><v>alpha</v></c></sheet>`,
		"xl/worksheets/sheet2.xml": `<sheet><c><v>beta</v></c></sheet>`,
		"xl/styles.xml":            `<styles>ignored</styles>`,
	})
	text, err := ExtractText(data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "alpha") || !strings.Contains(text, "beta") {
		t.Errorf("sheet text missing: %q", text)
	}
	if strings.Contains(text, "ignored") {
		t.Errorf("non-sheet member leaked: %q", text)
	}
}

func TestExtractPptx(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/slides/slide1.xml": `<p:sld xmlns:p="x"><a:t xmlns:a="y">Roadmap</a:t></p:sld>`,
	})
	text, err := ExtractText(data, "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "Roadmap" {
		t.Errorf("got %q", text)
	}
}

func TestExtractTextRejectsBadInput(t *testing.T) {
	if _, err := ExtractText([]byte("not a zip file"), docxMime); err == nil {
		t.Error("non-ZIP data should fail")
	}
	if _, err := ExtractText(make([]byte, MaxFileSize+1), docxMime); err == nil {
		t.Error("oversized input should fail")
	}
}
