package redirect

import "fmt"

// Source records where an entry came from: a source file and the 1-based
// position of the entry in that file's top-level list.
type Source struct {
	File  string
	Index int
}

// String renders the source as a diagnostic trace, e.g. "team.yaml entry 3".
func (s Source) String() string {
	return fmt.Sprintf("%s entry %d", s.File, s.Index)
}

// Entry is a validated, normalized redirect.
type Entry struct {
	// From is the lookup key: trimmed, lowercased, without leading slashes.
	From string
	// To is the destination, trimmed but otherwise kept as written.
	To string
	// Extra holds fields other than from/to, passed through untouched.
	Extra map[string]any
	// Source is diagnostic provenance and takes no part in equality.
	Source Source
}

// Pair is the bare from/to form consumed by the encoder.
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Pair reduces the entry to its from/to pair.
func (e Entry) Pair() Pair {
	return Pair{From: e.From, To: e.To}
}

// Catalog is the canonical list produced by one load: entries in discovery
// order, then positional order within each file.
type Catalog struct {
	Entries []Entry
	Files   []string
}

// Pairs returns the from/to pairs of every entry, in catalog order.
func (c *Catalog) Pairs() []Pair {
	pairs := make([]Pair, 0, len(c.Entries))
	for _, e := range c.Entries {
		pairs = append(pairs, e.Pair())
	}
	return pairs
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}
