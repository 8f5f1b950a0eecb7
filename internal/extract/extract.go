package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

// Info describes a resume file. Pages is zero when the format has no page model.
type Info struct {
	MimeType string
	Pages    int
	Text     string
}

// ErrUnsupported indicates the format cannot be inspected.
var ErrUnsupported = errors.New("unsupported resume format")

// Inspect detects the resume format and extracts its text.
// PDF goes through github.com/ledongthuc/pdf; DOCX is read as OOXML.
func Inspect(ctx context.Context, data []byte, fileName string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	mimeType := detectMimeType(data, fileName)
	info := Info{MimeType: mimeType}

	var err error
	switch mimeType {
	case MimePDF:
		info.Pages, info.Text, err = extractPDF(data)
	case MimeDOCX:
		info.Text, err = extractDOCX(data)
	case MimeText:
		if !utf8.Valid(data) {
			return info, fmt.Errorf("%w: text is not utf-8", ErrUnsupported)
		}
		info.Text = string(data)
	default:
		return info, fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
	if err != nil {
		return info, fmt.Errorf("inspect %s: %w", mimeType, err)
	}
	info.Text = strings.TrimSpace(info.Text)
	return info, nil
}

// Excerpt returns at most maxRunes runes of text with whitespace collapsed.
func Excerpt(text string, maxRunes int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(collapsed) <= maxRunes {
		return collapsed
	}
	runes := []rune(collapsed)
	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}

func extractPDF(data []byte) (pages int, text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, text, err = 0, "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, "", err
	}
	pages = reader.NumPage()
	plain, err := reader.GetPlainText()
	if err != nil {
		// Page count is still useful without text.
		return pages, "", nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return pages, "", nil
	}
	return pages, buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func detectMimeType(data []byte, fileName string) string {
	sniffed := strings.ToLower(strings.TrimSpace(strings.Split(http.DetectContentType(data), ";")[0]))
	switch sniffed {
	case MimePDF, MimeText:
		return sniffed
	case "application/zip":
		if isDOCX(data) {
			return MimeDOCX
		}
		return sniffed
	}
	if strings.EqualFold(filepath.Ext(fileName), ".txt") {
		return MimeText
	}
	return sniffed
}

func isDOCX(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
