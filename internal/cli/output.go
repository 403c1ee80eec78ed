// Package cli provides output formatting and the HTTP client used by the yomu CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json" (case-insensitive).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSubmit writes the result of a document submission.
func WriteSubmit(w io.Writer, resp *models.SubmitResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if d := resp.Document; d != nil {
		fmt.Fprintf(w, "📄 %s (%s, %d characters via %s extraction)\n", d.Name, d.Format, d.Characters, d.Method)
	}
	if resp.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", resp.Summary)
	}
	return nil
}

// WriteAnswer writes one answered question.
func WriteAnswer(w io.Writer, resp *models.AnswerResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintln(w, resp.Answer)
	return nil
}

// ExtractionOutput is the JSON shape of `yomu extract`.
type ExtractionOutput struct {
	Name       string        `json:"name"`
	Format     models.Format `json:"format"`
	Method     models.Method `json:"method"`
	Pages      int           `json:"pages,omitempty"`
	Characters int           `json:"characters"`
	Text       string        `json:"text"`
}

// WriteExtraction writes extracted text. The text format prints a one-line header to
// header (usually stderr) and the text itself to w so it can be piped.
func WriteExtraction(w, header io.Writer, out *ExtractionOutput, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, out)
	}
	fmt.Fprintf(header, "%s: %d characters via %s extraction\n", out.Name, out.Characters, out.Method)
	_, err := io.WriteString(w, out.Text)
	if err == nil && !strings.HasSuffix(out.Text, "\n") {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

// WriteHistory writes the conversation in arrival order.
func WriteHistory(w io.Writer, resp *models.HistoryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if len(resp.Turns) == 0 {
		fmt.Fprintln(w, "No questions asked yet.")
		return nil
	}
	for i, t := range resp.Turns {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] Q: %s\n", i+1, t.Question)
		fmt.Fprintf(w, "    A: %s\n", utils.Truncate(t.Answer, 400))
	}
	return nil
}

// WriteStatus writes the server status.
func WriteStatus(w io.Writer, st *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	state := "idle"
	if st.Busy {
		state = "busy"
	}
	fmt.Fprintf(w, "Session:    %s\n", state)
	if st.Document != nil {
		fmt.Fprintf(w, "Document:   %s (%d characters, %s)\n", st.Document.Name, st.Document.Characters, st.Document.Method)
	} else {
		fmt.Fprintf(w, "Document:   none\n")
	}
	fmt.Fprintf(w, "Turns:      %d\n", st.Turns)
	if c := st.Config; c != nil {
		fmt.Fprintf(w, "Generation: %s (%s)\n", c.GenerationModel, c.GenerationBackend)
		fmt.Fprintf(w, "OCR:        %v (%s)\n", c.OCREnabled, c.OCRLanguage)
		fmt.Fprintf(w, "Context:    %d characters\n", c.MaxDocumentChars)
		if c.WatchDirectory != "" {
			fmt.Fprintf(w, "Inbox:      %s (%d submitted)\n", c.WatchDirectory, st.WatchSubmitted)
		}
	}
	return nil
}
