package audit

import "context"

const defaultPageSize = 100

// Cursor iterates lazily over trail events in timestamp order, fetching one
// page at a time. It follows the sql.Rows idiom: Next advances, Event reads,
// Err reports. Restart rewinds to the beginning so a consumer can replay the
// same query.
type Cursor struct {
	store    Store
	filter   Filter
	pageSize int

	buf   []Event
	pos   int
	token Token
	done  bool
	err   error
}

func newCursor(store Store, filter Filter, pageSize int) *Cursor {
	return &Cursor{store: store, filter: filter, pageSize: pageSize}
}

// Next advances to the next event, fetching the next page when the buffer is
// drained. Returns false at the end of the trail or on error.
func (c *Cursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if c.pos < len(c.buf) {
		c.pos++
		return true
	}
	if c.done {
		return false
	}

	page, token, err := c.store.Page(ctx, c.filter, c.token, c.pageSize)
	if err != nil {
		c.err = err
		return false
	}
	if len(page) == 0 {
		c.done = true
		return false
	}
	c.buf = page
	c.pos = 1
	c.token = token
	if len(page) < c.pageSize {
		c.done = true
	}
	return true
}

// Event returns the event at the current position. Only valid after a Next
// call that returned true.
func (c *Cursor) Event() Event {
	return c.buf[c.pos-1]
}

// Err reports the first error encountered while paging.
func (c *Cursor) Err() error {
	return c.err
}

// Restart rewinds the cursor to the start of the trail, keeping the filter.
func (c *Cursor) Restart() {
	c.buf = nil
	c.pos = 0
	c.token = Token{}
	c.done = false
	c.err = nil
}
