package http

import "github.com/couchcryptid/storm-data-skewt/internal/adapter/chart"

// DefaultHistorySize is how many analyses the server keeps addressable by ID.
const DefaultHistorySize = 16

// record is everything the server holds for one analysis. Either half may be
// nil until its loader has run.
type record struct {
	chart    *chart.Chart
	analysis []byte
}

// history is an LRU of records keyed by analysis ID. It is not safe for
// concurrent use; Server guards it with its own mutex.
type history struct {
	maxEntries int
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *record
	prev  *entry
	next  *entry
}

func newHistory(maxEntries int) *history {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &history{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (h *history) len() int { return len(h.entries) }

// get returns the record for id and marks it most recently used.
func (h *history) get(id string) (*record, bool) {
	e, ok := h.entries[id]
	if !ok {
		return nil, false
	}
	h.moveToFront(e)
	return e.value, true
}

// upsert returns the record for id, creating it (and evicting the oldest
// record if over capacity) when absent.
func (h *history) upsert(id string) *record {
	if e, ok := h.entries[id]; ok {
		h.moveToFront(e)
		return e.value
	}

	e := &entry{key: id, value: &record{}}
	h.entries[id] = e
	h.addToFront(e)

	if len(h.entries) > h.maxEntries {
		h.evictTail()
	}
	return e.value
}

func (h *history) moveToFront(e *entry) {
	if e == h.head {
		return
	}
	h.remove(e)
	h.addToFront(e)
}

func (h *history) addToFront(e *entry) {
	e.next = h.head
	e.prev = nil
	if h.head != nil {
		h.head.prev = e
	}
	h.head = e
	if h.tail == nil {
		h.tail = e
	}
}

func (h *history) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		h.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		h.tail = e.prev
	}
}

func (h *history) evictTail() {
	if h.tail == nil {
		return
	}
	delete(h.entries, h.tail.key)
	h.remove(h.tail)
}
