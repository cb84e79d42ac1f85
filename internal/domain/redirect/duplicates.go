package redirect

import (
	"fmt"

	"github.com/sophialabs/redirectlint/internal/domain/report"
)

// Occurrence is one validated from value and where it was seen.
type Occurrence struct {
	From   string
	Source Source
}

// FindDuplicates groups occurrences by from value and returns one record for
// every value seen more than once, in the order values were first observed.
// It only reports; nothing is removed.
func FindDuplicates(occurrences []Occurrence) []report.Record {
	groups := make(map[string][]Source, len(occurrences))
	var order []string

	for _, o := range occurrences {
		if _, ok := groups[o.From]; !ok {
			order = append(order, o.From)
		}
		groups[o.From] = append(groups[o.From], o.Source)
	}

	var records []report.Record
	for _, from := range order {
		sources := groups[from]
		if len(sources) <= 1 {
			continue
		}
		details := make([]string, 0, len(sources))
		for _, s := range sources {
			details = append(details, s.String())
		}
		records = append(records, report.New(
			fmt.Sprintf("\"from: %s\" appears %d time(s)", from, len(sources)),
			details...,
		))
	}
	return records
}
