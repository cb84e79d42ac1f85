package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sophialabs/redirectlint/internal/domain/report"
)

// Reporter prints run output: info headings to out, records and the final
// count to errOut. Colors are only emitted when the writer is a terminal.
type Reporter struct {
	out    io.Writer
	errOut io.Writer

	heading lipgloss.Style
	failure lipgloss.Style
	detail  lipgloss.Style
}

// NewReporter creates a Reporter writing to out and errOut.
func NewReporter(out, errOut io.Writer) *Reporter {
	outR := lipgloss.NewRenderer(out)
	errR := lipgloss.NewRenderer(errOut)
	return &Reporter{
		out:     out,
		errOut:  errOut,
		heading: outR.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		failure: errR.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		detail:  errR.NewStyle().PaddingLeft(4),
	}
}

// Info prints a heading followed by optional data lines.
func (r *Reporter) Info(title string, lines ...string) {
	fmt.Fprintln(r.out, r.heading.Render(title))
	for _, l := range lines {
		fmt.Fprintln(r.out, l)
	}
}

// Report prints every record in order, then the total. It returns the number
// of records printed.
func (r *Reporter) Report(records []report.Record) int {
	if len(records) == 0 {
		fmt.Fprintln(r.out, r.heading.Render("No errors!"))
		return 0
	}
	for _, rec := range records {
		fmt.Fprintln(r.errOut, r.failure.Render(rec.Headline))
		for _, d := range rec.Details {
			for _, line := range strings.Split(d, "\n") {
				fmt.Fprintln(r.errOut, r.detail.Render(line))
			}
		}
	}
	fmt.Fprintln(r.errOut, r.failure.Render(fmt.Sprintf("%d error(s)", len(records))))
	return len(records)
}
