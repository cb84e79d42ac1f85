package report

import "strings"

// Record is a single reported problem: a short headline plus supporting detail lines.
type Record struct {
	Headline string
	Details  []string
}

// New builds a record, dropping empty detail lines.
func New(headline string, details ...string) Record {
	r := Record{Headline: headline}
	for _, d := range details {
		if strings.TrimSpace(d) == "" {
			continue
		}
		r.Details = append(r.Details, d)
	}
	return r
}

// String renders the record as a headline followed by indented details.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Headline)
	for _, d := range r.Details {
		b.WriteString("\n    ")
		b.WriteString(d)
	}
	return b.String()
}
