package engine

import "github.com/yomnahisham/tomasulo-simulator/internal/isa"

// ratEntry maps one architectural register to either the register file
// (Valid=false, "architectural") or the ROB slot that owns its next write.
type ratEntry struct {
	Valid bool // true: Rob names the owning ROB slot. false: architectural.
	Rob   int
}

// RAT is the register alias table: per spec.md I1, it always maps a
// register either to "architectural" or to the most recent ROB index
// writing that register.
type RAT struct {
	entries [isa.NumRegisters]ratEntry
}

func newRAT() *RAT {
	return &RAT{}
}

// Lookup reports whether register reg currently has a pending write, and
// if so which ROB slot owns it.
func (t *RAT) Lookup(reg uint8) (rob int, pending bool) {
	e := t.entries[reg]
	return e.Rob, e.Valid
}

// Rename points register reg at ROB slot rob, unconditionally overwriting
// whatever it previously pointed to. Per spec.md §4.1 step 6, an older
// in-flight write silently becomes dead: it still broadcasts and updates
// its own ROB entry, it just no longer has a live RAT consumer.
func (t *RAT) Rename(reg uint8, rob int) {
	t.entries[reg] = ratEntry{Valid: true, Rob: rob}
}

// ClearIfOwner resets register reg back to architectural only if it is
// still pointed at rob — the commit-time half of the RAT lifecycle.
func (t *RAT) ClearIfOwner(reg uint8, rob int) {
	if e := t.entries[reg]; e.Valid && e.Rob == rob {
		t.entries[reg] = ratEntry{}
	}
}

// ResetTo force-sets register reg to point at rob (Valid=true) or to
// architectural (valid=false, rob ignored) — used to rebuild the RAT after
// a misprediction flush discards the entry a register used to point to.
func (t *RAT) ResetTo(reg uint8, rob int, valid bool) {
	if valid {
		t.entries[reg] = ratEntry{Valid: true, Rob: rob}
	} else {
		t.entries[reg] = ratEntry{}
	}
}

func (t *RAT) snapshot() [isa.NumRegisters]RATSnapshot {
	var out [isa.NumRegisters]RATSnapshot
	for i, e := range t.entries {
		out[i] = RATSnapshot{Pending: e.Valid, Rob: e.Rob}
	}
	return out
}

// RATSnapshot is the public, read-only view of one RAT entry.
type RATSnapshot struct {
	Pending bool // false: architectural
	Rob     int
}
