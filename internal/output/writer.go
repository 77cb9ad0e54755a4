package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/lgbarn/escort-chess-go/internal/scenario"
)

// ResultWriter is the interface for writing scenario results.
// Different implementations handle different output formats (text, JSON).
type ResultWriter interface {
	// WriteResult writes a single result to the output.
	WriteResult(r scenario.Result) error

	// Flush flushes any buffered data to the underlying writer.
	Flush() error

	// Close closes the writer and releases any resources.
	// For batch writers (like JSON), this also writes any pending output.
	Close() error
}

// TextWriter writes one status line per result, optionally followed by the
// final board.
type TextWriter struct {
	w      io.Writer
	boards bool
	color  bool
	pass   *color.Color
	fail   *color.Color
}

// NewTextWriter creates a text writer. With boards set every result's final
// placement is rendered under its status line.
func NewTextWriter(w io.Writer, boards, useColor bool) *TextWriter {
	tw := &TextWriter{
		w:      w,
		boards: boards,
		color:  useColor,
		pass:   color.New(color.FgGreen, color.Bold),
		fail:   color.New(color.FgRed, color.Bold),
	}
	if useColor {
		tw.pass.EnableColor()
		tw.fail.EnableColor()
	} else {
		tw.pass.DisableColor()
		tw.fail.DisableColor()
	}
	return tw
}

// WriteResult writes a result immediately.
func (tw *TextWriter) WriteResult(r scenario.Result) error {
	status := tw.pass.Sprint("PASS")
	if !r.Passed {
		status = tw.fail.Sprint("FAIL")
	}
	if _, err := fmt.Fprintf(tw.w, "%s %s (%d ticks, %d events, %d halts, %d cascades)\n",
		status, r.Name, r.Ticks, r.Events, r.Halts, r.Cascades); err != nil {
		return err
	}
	if r.Error != "" {
		if _, err := fmt.Fprintf(tw.w, "     %s\n", r.Error); err != nil {
			return err
		}
	}
	if tw.boards && r.Layout != "" {
		return RenderLayout(tw.w, r.Layout, BoardOptions{Color: tw.color})
	}
	return nil
}

// Flush is a no-op; text is written immediately.
func (tw *TextWriter) Flush() error {
	return nil
}

// Close closes the text writer.
func (tw *TextWriter) Close() error {
	return nil
}

// Summary counts results by outcome.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Add counts one result.
func (s *Summary) Add(r scenario.Result) {
	s.Total++
	if r.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
}

// JSONOutput is the document written by a batching JSONWriter.
type JSONOutput struct {
	Summary Summary           `json:"summary"`
	Results []scenario.Result `json:"results"`
}

// JSONWriter writes results in JSON format.
// It buffers results and writes them as one document on Close or Flush.
type JSONWriter struct {
	w       io.Writer
	results []scenario.Result
	single  bool // If true, write each result immediately instead of batching
}

// NewJSONWriter creates a new JSON writer.
// By default, it batches results and writes them on Close().
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{
		w:       w,
		results: make([]scenario.Result, 0),
	}
}

// NewJSONWriterSingle creates a JSON writer that writes each result immediately.
func NewJSONWriterSingle(w io.Writer) *JSONWriter {
	return &JSONWriter{
		w:      w,
		single: true,
	}
}

// WriteResult buffers a result for JSON output (or writes immediately in single mode).
func (jw *JSONWriter) WriteResult(r scenario.Result) error {
	if jw.single {
		enc := json.NewEncoder(jw.w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	jw.results = append(jw.results, r)
	return nil
}

// Flush writes all buffered results with their summary.
func (jw *JSONWriter) Flush() error {
	if jw.single || len(jw.results) == 0 {
		return nil
	}

	out := &JSONOutput{Results: jw.results}
	for _, r := range jw.results {
		out.Summary.Add(r)
	}

	enc := json.NewEncoder(jw.w)
	enc.SetIndent("", "  ")
	err := enc.Encode(out)

	jw.results = jw.results[:0]
	return err
}

// Close flushes and closes the JSON writer.
func (jw *JSONWriter) Close() error {
	return jw.Flush()
}
