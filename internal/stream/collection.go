package stream

import (
	"sort"
)

// Domain adapts a record type to the consumer.
type Domain[T any] interface {
	// Ready is the status that announces a record.
	Ready() Status
	// Decode extracts the announced record from an event.
	Decode(ev Event) (T, error)
	// DecodeEnhancement extracts the id and the enrichment patch of an
	// item_enhanced event.
	DecodeEnhancement(ev Event) (string, T, error)
	// DecodeRecord decodes one element of a completed event's items list.
	DecodeRecord(raw []byte) (T, error)
	ID(rec T) string
	Order(rec T) int
	// Replace reports whether a repeated id overwrites the stored record.
	// When false the first record wins.
	Replace() bool
	// Merge applies an enrichment patch to an existing record.
	Merge(rec, patch T) T
}

type entry[T any] struct {
	rec T
	seq int
}

// Collection keeps records unique by id, sorted by order with arrival order
// breaking ties. Enhancements for ids not yet seen are parked and applied if
// the record arrives later; they never create records.
type Collection[T any] struct {
	domain  Domain[T]
	entries []entry[T]
	pending map[string][]T
	seq     int
}

// NewCollection returns an empty collection for domain.
func NewCollection[T any](domain Domain[T]) *Collection[T] {
	return &Collection[T]{domain: domain, pending: map[string][]T{}}
}

// Reset drops all records and parked enhancements.
func (c *Collection[T]) Reset() {
	c.entries = nil
	c.pending = map[string][]T{}
	c.seq = 0
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	return len(c.entries)
}

// Upsert inserts rec or, when the domain allows it, replaces the record with
// the same id. It reports whether the collection changed.
func (c *Collection[T]) Upsert(rec T) bool {
	id := c.domain.ID(rec)
	if idx := c.indexOf(id); idx >= 0 {
		if !c.domain.Replace() {
			return false
		}
		c.entries[idx].rec = c.applyPending(id, rec)
		c.sort()
		return true
	}
	c.seq++
	c.entries = append(c.entries, entry[T]{rec: c.applyPending(id, rec), seq: c.seq})
	c.sort()
	return true
}

// Enhance merges patch into the record with id. It returns false and parks
// the patch when the id is unknown.
func (c *Collection[T]) Enhance(id string, patch T) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		c.pending[id] = append(c.pending[id], patch)
		return false
	}
	c.entries[idx].rec = c.domain.Merge(c.entries[idx].rec, patch)
	return true
}

// Items returns a copy of the records in display order.
func (c *Collection[T]) Items() []T {
	out := make([]T, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.rec
	}
	return out
}

// Orphaned lists ids whose enhancements never found a record.
func (c *Collection[T]) Orphaned() []string {
	if len(c.pending) == 0 {
		return nil
	}
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Collection[T]) applyPending(id string, rec T) T {
	patches, ok := c.pending[id]
	if !ok {
		return rec
	}
	for _, patch := range patches {
		rec = c.domain.Merge(rec, patch)
	}
	delete(c.pending, id)
	return rec
}

func (c *Collection[T]) indexOf(id string) int {
	for i, e := range c.entries {
		if c.domain.ID(e.rec) == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) sort() {
	sort.SliceStable(c.entries, func(i, j int) bool {
		oi, oj := c.domain.Order(c.entries[i].rec), c.domain.Order(c.entries[j].rec)
		if oi != oj {
			return oi < oj
		}
		return c.entries[i].seq < c.entries[j].seq
	})
}
