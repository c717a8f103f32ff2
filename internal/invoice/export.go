package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported invoice format")

// ParseFormat accepts a format name or a file extension; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Export writes doc in the requested format.
func Export(w io.Writer, doc Document, f Format) error {
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(doc)
	case FormatText:
		return RenderText(w, doc)
	case FormatHTML:
		return RenderHTML(w, doc)
	case FormatPDF:
		return RenderPDF(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}
