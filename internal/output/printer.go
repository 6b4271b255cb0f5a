package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kr/pretty"
	"github.com/ollama-watch/reddit-fetcher/internal/models"
)

const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// Printer writes post summaries to a console stream
type Printer interface {
	Print(summary models.PostSummary) error
}

// NewPrinter returns the printer for the given format name.
func NewPrinter(format string, w io.Writer) (Printer, error) {
	switch format {
	case FormatPretty, "":
		return &PrettyPrinter{w: w}, nil
	case FormatJSON:
		return &JSONPrinter{enc: json.NewEncoder(w)}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// JSONPrinter writes one JSON object per line.
type JSONPrinter struct {
	enc *json.Encoder
}

func (p *JSONPrinter) Print(summary models.PostSummary) error {
	return p.enc.Encode(summary)
}

// PrettyPrinter dumps each summary as a Go-syntax struct literal.
type PrettyPrinter struct {
	w io.Writer
}

// post keeps the dump readable; time.Time would otherwise print its internals.
type post struct {
	Title       string
	Content     string
	Score       int
	NumComments int
	Date        string
}

func (p *PrettyPrinter) Print(summary models.PostSummary) error {
	_, err := pretty.Fprintf(p.w, "%# v\n", post{
		Title:       summary.Title,
		Content:     summary.Content,
		Score:       summary.Score,
		NumComments: summary.NumComments,
		Date:        summary.Date.Format(time.RFC3339Nano),
	})
	return err
}
