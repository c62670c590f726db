package extraction

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

const mediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// classified is the modality decision plus, for text-bearing
// documents, the text that survives to the prompt.
type classified struct {
	modality  domain.Modality
	mediaType string
	text      string
}

func classifyDocument(doc domain.RawDocument) (classified, error) {
	mediaType := normalizeMediaType(doc.MediaType, doc.Filename)

	switch mediaType {
	case "text/plain":
		return classified{modality: domain.ModalityText, mediaType: mediaType, text: string(doc.Content)}, nil
	case "application/pdf":
		// A PDF with an embedded text layer is a typed application;
		// one without is a scan and rides the vision path.
		if text, ok := pdfTextLayer(doc.Content); ok {
			return classified{modality: domain.ModalityText, mediaType: mediaType, text: text}, nil
		}
		return classified{modality: domain.ModalityVision, mediaType: mediaType}, nil
	case mediaTypeDOCX:
		text, err := docxText(doc.Content)
		if err != nil {
			return classified{}, domain.WrapError(domain.ErrUnsupportedFormat, "extract.classify",
				fmt.Errorf("docx %s: %w", doc.Filename, err))
		}
		return classified{modality: domain.ModalityText, mediaType: mediaType, text: text}, nil
	case "image/jpeg", "image/png":
		return classified{modality: domain.ModalityVision, mediaType: mediaType}, nil
	default:
		return classified{}, domain.WrapError(domain.ErrUnsupportedFormat, "extract.classify",
			fmt.Errorf("media type %q (file %s)", mediaType, doc.Filename))
	}
}

// mediaTypeByExt pins the extensions the pipeline accepts. The host
// mime table is only a fallback; minimal containers often lack one.
var mediaTypeByExt = map[string]string{
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".docx": mediaTypeDOCX,
}

// normalizeMediaType trusts the declared type when it is specific and
// falls back to the filename extension when it is absent or generic.
func normalizeMediaType(declared, filename string) string {
	mediaType := ""
	if parsed, _, err := mime.ParseMediaType(declared); err == nil {
		mediaType = strings.ToLower(parsed)
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(filename))
		if byExt, ok := mediaTypeByExt[ext]; ok {
			mediaType = byExt
		} else if byExt := mime.TypeByExtension(ext); byExt != "" {
			if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
				mediaType = strings.ToLower(parsed)
			}
		}
	}
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	return mediaType
}

// pdfTextLayer probes for extractable text. Any parse trouble counts
// as "no text layer": a broken or scanned file degrades to vision
// instead of failing the run.
func pdfTextLayer(data []byte) (text string, ok bool) {
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", false
	}

	var builder strings.Builder
	for page := 1; page <= reader.NumPage(); page++ {
		p := reader.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", false
	}
	return builder.String(), true
}
