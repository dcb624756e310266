package report

import (
	"encoding/json"
	"io"
)

// JSONWriter renders a Run as indented JSON for machine consumption.
type JSONWriter struct {
	output io.Writer
}

// NewJSONWriter returns a writer targeting output.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output}
}

// Write renders the run.
func (w *JSONWriter) Write(run *Run) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
