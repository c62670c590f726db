package extraction

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// buildTextPDF assembles a minimal single-page PDF with a real text
// layer, xref offsets computed as we go.
func buildTextPDF(text string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 6)
	write := func(s string) { buf.WriteString(s) }
	mark := func(i int) { offsets[i] = buf.Len() }

	write("%PDF-1.4\n")
	mark(1)
	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	mark(2)
	write("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	mark(3)
	write("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	mark(4)
	write(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream))
	mark(5)
	write("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")

	xrefPos := buf.Len()
	write("xref\n0 6\n")
	write("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		write(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	write(fmt.Sprintf("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefPos))
	return buf.Bytes()
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestClassifyPDFWithTextLayer(t *testing.T) {
	doc := domain.RawDocument{
		Content:   buildTextPDF("Zadost o zabor 20 m2"),
		MediaType: "application/pdf",
		Filename:  "zadost.pdf",
	}

	cls, err := classifyDocument(doc)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if cls.modality != domain.ModalityText {
		t.Fatalf("expected text modality for typed pdf, got %s", cls.modality)
	}
	if !strings.Contains(cls.text, "Zadost") {
		t.Fatalf("expected text layer content, got %q", cls.text)
	}
}

func TestClassifyScannedPDFFallsBackToVision(t *testing.T) {
	// A PDF header with no parsable structure counts as a scan.
	doc := domain.RawDocument{
		Content:   []byte("%PDF-1.4\nthis is not a real pdf body"),
		MediaType: "application/pdf",
		Filename:  "scan.pdf",
	}

	cls, err := classifyDocument(doc)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if cls.modality != domain.ModalityVision {
		t.Fatalf("expected vision fallback for scan, got %s", cls.modality)
	}
}

func TestClassifyDocx(t *testing.T) {
	doc := domain.RawDocument{
		Content:   buildDocx(t, "Zadatel: Jan Novak", "Vymera: 20 m2"),
		MediaType: mediaTypeDOCX,
		Filename:  "zadost.docx",
	}

	cls, err := classifyDocument(doc)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if cls.modality != domain.ModalityText {
		t.Fatalf("expected text modality for docx, got %s", cls.modality)
	}
	if !strings.Contains(cls.text, "Jan Novak") || !strings.Contains(cls.text, "20 m2") {
		t.Fatalf("expected docx paragraphs in text, got %q", cls.text)
	}
}

func TestNormalizeMediaTypeFallsBackToExtension(t *testing.T) {
	if got := normalizeMediaType("application/octet-stream", "scan.pdf"); got != "application/pdf" {
		t.Fatalf("expected extension fallback to application/pdf, got %q", got)
	}
	if got := normalizeMediaType("", "photo.png"); got != "image/png" {
		t.Fatalf("expected extension fallback to image/png, got %q", got)
	}
	if got := normalizeMediaType("image/jpg", "a.jpg"); got != "image/jpeg" {
		t.Fatalf("expected image/jpg alias, got %q", got)
	}
	if got := normalizeMediaType("text/plain; charset=utf-8", "a.txt"); got != "text/plain" {
		t.Fatalf("expected parameters stripped, got %q", got)
	}
}

func TestFingerprintSeparatesModalityAndModel(t *testing.T) {
	content := []byte("same bytes")
	a := domain.Fingerprint(content, domain.ModalityText, "model-a")
	b := domain.Fingerprint(content, domain.ModalityVision, "model-a")
	c := domain.Fingerprint(content, domain.ModalityText, "model-b")
	d := domain.Fingerprint(content, domain.ModalityText, "model-a")

	if a == b || a == c {
		t.Fatalf("expected modality and model to vary the fingerprint")
	}
	if a != d {
		t.Fatalf("expected identical inputs to fingerprint identically")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha-256, got %q", a)
	}
}
