package report

import (
	"io"

	"github.com/nao1215/markdown"
)

// MarkdownWriter renders a Run as GitHub-flavored Markdown, for posting
// into CI summaries and incident channels.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter returns a writer targeting output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the run.
func (w *MarkdownWriter) Write(run *Run) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Login Check Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + run.Target + "`"},
			{"Run ID", run.ID},
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.Duration.Round(1e7).String()},
			{"Verdict", verdictText(run.Verdict)},
		},
	})
	md.PlainText("")

	md.H2("Steps")
	md.PlainText("")
	rows := make([][]string, 0, len(run.Steps))
	for _, s := range run.Steps {
		rows = append(rows, []string{s.Name, s.Outcome, s.Detail, s.Duration.Round(1e7).String()})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Step", "Outcome", "Detail", "Duration"},
		Rows:   rows,
	})

	if len(run.Artifacts) > 0 {
		md.PlainText("")
		md.H2("Artifacts")
		md.PlainText("")
		md.BulletList(run.Artifacts...)
	}

	if run.Error != "" {
		md.PlainText("")
		md.H2("Error")
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightText, run.Error)
	}

	return md.Build()
}

func verdictText(v Verdict) string {
	switch v {
	case VerdictPass:
		return "✅ Pass"
	case VerdictFail:
		return "❌ Fail"
	default:
		return "⚠️ Inconclusive"
	}
}
