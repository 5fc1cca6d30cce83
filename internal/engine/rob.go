package engine

import "github.com/yomnahisham/tomasulo-simulator/internal/isa"

// RobCapacity is the fixed ROB size (spec.md §2).
const RobCapacity = 8

// robEntry is one in-flight instruction tracked by the reorder buffer.
type robEntry struct {
	Valid       bool
	InstrId     int
	Op          isa.Opcode
	HasDest     bool
	Dest        uint8
	Ready       bool
	Value       int16 // arithmetic/LOAD/CALL result
	StoreAddr   uint32
	StoreValue  int16
	IsBranch    bool // BEQ, CALL or RET
	Taken       bool
	Target      int
	HasRetAddr  bool
	ReturnAddr  int
	PredictedPC int
	Speculative bool
}

// ROB is the fixed-capacity circular reorder buffer. Entries between head
// and tail form a contiguous (possibly wrapping) sequence per spec.md I1.
type ROB struct {
	entries [RobCapacity]robEntry
	head    int
	tail    int
	count   int
}

func newROB() *ROB {
	return &ROB{}
}

func (r *ROB) Full() bool  { return r.count == RobCapacity }
func (r *ROB) Empty() bool { return r.count == 0 }
func (r *ROB) Count() int  { return r.count }
func (r *ROB) Head() int   { return r.head }
func (r *ROB) Tail() int   { return r.tail }

// age returns idx's distance from head, circularly: 0 is the oldest
// in-flight entry. Only meaningful for currently-valid slots.
func (r *ROB) age(idx int) int {
	return ((idx - r.head) % RobCapacity + RobCapacity) % RobCapacity
}

// OlderOrEqual reports whether ROB slot a is at least as old as slot b,
// honoring circular wraparound — raw integer comparison of indices is NOT
// age order once the buffer has wrapped.
func (r *ROB) OlderOrEqual(a, b int) bool {
	return r.age(a) <= r.age(b)
}

// YoungerThan reports whether slot idx is strictly younger than slot b.
func (r *ROB) YoungerThan(idx, b int) bool {
	return r.age(idx) > r.age(b)
}

// Reserve allocates the next ROB slot at the tail. Returns ok=false (no
// state changed) if the buffer is full.
func (r *ROB) Reserve(in isa.Instruction, speculative bool, predictedPC int) (idx int, ok bool) {
	if r.Full() {
		return 0, false
	}
	idx = r.tail
	dest, writes := in.WritesRegister()
	r.entries[idx] = robEntry{
		Valid:       true,
		InstrId:     in.Id,
		Op:          in.Op,
		HasDest:     writes,
		Dest:        dest,
		IsBranch:    in.Op == isa.BEQ || in.Op == isa.CALL || in.Op == isa.RET,
		Speculative: speculative,
		PredictedPC: predictedPC,
	}
	r.tail = (r.tail + 1) % RobCapacity
	r.count++
	return idx, true
}

func (r *ROB) Get(idx int) *robEntry {
	return &r.entries[idx]
}

// CommitHead frees the head slot and advances head. Caller must already
// have validated the head is ready and not speculative.
func (r *ROB) CommitHead() {
	r.entries[r.head] = robEntry{}
	r.head = (r.head + 1) % RobCapacity
	r.count--
}

// DiscardYoungerThan implements the flush primitive of spec.md §4.5 step
// 1: discard every entry strictly younger than b, shrinking tail back to
// b+1 in one step.
func (r *ROB) DiscardYoungerThan(b int) {
	keep := r.age(b) + 1 // number of entries that survive: head..b inclusive
	for i := keep; i < r.count; i++ {
		idx := (r.head + i) % RobCapacity
		r.entries[idx] = robEntry{}
	}
	r.count = keep
	r.tail = (b + 1) % RobCapacity
}

// ClearSpeculativeOlderThan clears the speculative flag on every entry
// older than b — they were not dependent on the branch at b (spec.md
// §4.5 step 7).
func (r *ROB) ClearSpeculativeOlderThan(b int) {
	for i := 0; i < r.age(b); i++ {
		idx := (r.head + i) % RobCapacity
		r.entries[idx].Speculative = false
	}
}

// HasOlderUnresolvedBranch reports whether any in-flight entry (all of
// which are older than the next slot at the tail) is a branch that has not
// yet written back — the condition spec.md §4.1 step 1 assigns to a
// freshly issued entry's speculative flag.
func (r *ROB) HasOlderUnresolvedBranch() bool {
	for i := 0; i < r.count; i++ {
		idx := (r.head + i) % RobCapacity
		e := &r.entries[idx]
		if e.IsBranch && !e.Ready {
			return true
		}
	}
	return false
}

// RecomputeSpeculative re-derives every valid entry's speculative flag
// from scratch, oldest to youngest: an entry is speculative iff some
// older entry is an unresolved branch. Called after commit, since
// freeing the head can retire the branch that made later entries
// speculative (spec.md Lifecycles: "cleared when the branch commits").
func (r *ROB) RecomputeSpeculative() {
	blocked := false
	for i := 0; i < r.count; i++ {
		idx := (r.head + i) % RobCapacity
		e := &r.entries[idx]
		e.Speculative = blocked
		if e.IsBranch && !e.Ready {
			blocked = true
		}
	}
}

// NearestWriterOf scans from b back toward head (most-recent-first) for
// the nearest still-valid entry that writes register reg. Used to rebuild
// the RAT after a flush (spec.md §4.5 step 5).
func (r *ROB) NearestWriterOf(reg uint8, b int) (idx int, found bool) {
	for i := r.age(b); i >= 0; i-- {
		idx := (r.head + i) % RobCapacity
		e := &r.entries[idx]
		if e.Valid && e.HasDest && e.Dest == reg {
			return idx, true
		}
	}
	return 0, false
}

// snapshot returns every currently-valid ROB entry in head-to-tail order.
func (r *ROB) snapshot() []ROBSnapshot {
	out := make([]ROBSnapshot, 0, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.head + i) % RobCapacity
		e := r.entries[idx]
		out = append(out, ROBSnapshot{
			Index:       idx,
			InstrId:     e.InstrId,
			Op:          e.Op,
			HasDest:     e.HasDest,
			Dest:        e.Dest,
			Ready:       e.Ready,
			Value:       e.Value,
			StoreAddr:   e.StoreAddr,
			StoreValue:  e.StoreValue,
			IsBranch:    e.IsBranch,
			Taken:       e.Taken,
			Target:      e.Target,
			HasRetAddr:  e.HasRetAddr,
			ReturnAddr:  e.ReturnAddr,
			PredictedPC: e.PredictedPC,
			Speculative: e.Speculative,
		})
	}
	return out
}

// ROBSnapshot is the public, read-only view of one ROB entry.
type ROBSnapshot struct {
	Index       int
	InstrId     int
	Op          isa.Opcode
	HasDest     bool
	Dest        uint8
	Ready       bool
	Value       int16
	StoreAddr   uint32
	StoreValue  int16
	IsBranch    bool
	Taken       bool
	Target      int
	HasRetAddr  bool
	ReturnAddr  int
	PredictedPC int
	Speculative bool
}
