package report

import "sync"

// Collector is a concurrent-safe, append-only list of records.
// Ordering between concurrent appends is not guaranteed.
type Collector struct {
	mu      sync.Mutex
	records []Record
	drained bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends records. Records added after Drain are kept but never returned.
func (c *Collector) Add(records ...Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
}

// Addf appends a record built from a headline and detail lines.
func (c *Collector) Addf(headline string, details ...string) {
	c.Add(New(headline, details...))
}

// Len returns the number of records collected so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Drain returns all records in append order. Only the first call returns
// records; later calls return nil.
func (c *Collector) Drain() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drained {
		return nil
	}
	c.drained = true
	out := c.records
	c.records = nil
	return out
}
