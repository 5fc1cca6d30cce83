package engine

import "fmt"

// MemoryInitError reports a rejected initialize_memory call: a value
// outside 0..65535. Per spec.md §7, no state is mutated when this is
// returned.
type MemoryInitError struct {
	Addr  uint32
	Value uint32
}

func (e *MemoryInitError) Error() string {
	return fmt.Sprintf("memory init: value %d at address %d does not fit in 0..65535", e.Value, e.Addr)
}

// InvariantViolation signals that a microarchitectural invariant (I1-I5 in
// spec.md §3) was about to be broken. Per spec.md §7 this is a programming
// fault in the engine itself, not a recoverable user error — callers are
// expected to let it panic.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
}

func violate(invariant, detail string) {
	panic(&InvariantViolation{Invariant: invariant, Detail: detail})
}
