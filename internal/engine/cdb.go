package engine

import "github.com/yomnahisham/tomasulo-simulator/internal/isa"

// cdbEntry is one completed result waiting for (or holding) the bus.
type cdbEntry struct {
	RobIndex int
	Value    int16
	Op       isa.Opcode
	FuIndex  int
	RsIndex  int
	Result   fuResult
}

// CDB is the single-writer broadcast channel: one "current" slot per
// cycle plus a pending backlog (spec.md §3, §4.4).
type CDB struct {
	current *cdbEntry
	pending []cdbEntry
	rob     *ROB
}

func newCDB(rob *ROB) *CDB {
	return &CDB{rob: rob}
}

// Enqueue adds a freshly completed FU result to the pending backlog.
func (c *CDB) Enqueue(e cdbEntry) {
	c.pending = append(c.pending, e)
}

// Promote moves the oldest pending entry (by ROB age, ties by FIFO
// insertion order) into the current broadcast slot, provided no
// broadcast has happened yet this cycle. Returns false if there was
// nothing to promote or the slot was already taken.
func (c *CDB) Promote() bool {
	if c.current != nil || len(c.pending) == 0 {
		return false
	}
	best := 0
	for i := 1; i < len(c.pending); i++ {
		if c.rob.OlderOrEqual(c.pending[i].RobIndex, c.pending[best].RobIndex) &&
			!c.rob.OlderOrEqual(c.pending[best].RobIndex, c.pending[i].RobIndex) {
			best = i
		}
	}
	e := c.pending[best]
	c.pending = append(c.pending[:best], c.pending[best+1:]...)
	c.current = &e
	return true
}

// Current returns the entry occupying the broadcast slot this cycle, if
// any.
func (c *CDB) Current() (cdbEntry, bool) {
	if c.current == nil {
		return cdbEntry{}, false
	}
	return *c.current, true
}

// Clear empties the broadcast slot (Phase 6).
func (c *CDB) Clear() {
	c.current = nil
}

// DiscardRob removes pending entries (and the current slot, if occupied)
// referencing a ROB index strictly younger than b (flush step 4).
func (c *CDB) DiscardRob(b int) {
	kept := c.pending[:0]
	for _, e := range c.pending {
		if !c.rob.YoungerThan(e.RobIndex, b) {
			kept = append(kept, e)
		}
	}
	c.pending = kept
	if c.current != nil && c.rob.YoungerThan(c.current.RobIndex, b) {
		c.current = nil
	}
}

// CDBSnapshot is the public, read-only view of the bus.
type CDBSnapshot struct {
	HasCurrent bool
	Current    cdbEntry
	Pending    []cdbEntry
}

func (c *CDB) snapshot() CDBSnapshot {
	s := CDBSnapshot{Pending: append([]cdbEntry(nil), c.pending...)}
	if c.current != nil {
		s.HasCurrent = true
		s.Current = *c.current
	}
	return s
}
