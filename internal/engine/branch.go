package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/yomnahisham/tomasulo-simulator/internal/isa"
)

// resolveBranches implements Phase 3: every completed BEQ/CALL/RET FU
// reports its outcome to the ROB ahead of write-back, oldest ROB index
// first (spec.md §4.5). A misprediction triggers an immediate flush,
// which can retire other pending branch completions for free.
func (s *Simulator) resolveBranches() {
	for {
		idx, ok := s.oldestUnresolvedBranch()
		if !ok {
			return
		}
		s.resolveOne(idx)
	}
}

func (s *Simulator) oldestUnresolvedBranch() (fuIdx int, ok bool) {
	best := -1
	for i := range s.fu.units {
		u := &s.fu.units[i]
		if !u.Busy || !u.Done || u.Resolved {
			continue
		}
		if !isBranchOp(u.Op) {
			continue
		}
		if best == -1 || s.rob.OlderOrEqual(u.DestRob, s.fu.units[best].DestRob) {
			best = i
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func isBranchOp(op isa.Opcode) bool {
	return op == isa.BEQ || op == isa.CALL || op == isa.RET
}

func (s *Simulator) resolveOne(fuIdx int) {
	u := &s.fu.units[fuIdx]
	u.Resolved = true
	b := u.DestRob

	// RET's target is data-dependent, but issue stalls after a RET until
	// it resolves here, so by construction nothing speculative can depend
	// on it: flush is never needed (spec.md §4.5). Issue was blocked waiting
	// for this resolution, so redirect the PC and release the stall here.
	if u.Op == isa.RET {
		s.pc = u.Result.Target
		s.stalled = false
		return
	}

	// CALL's predicted-next-PC is the target itself, recorded at issue;
	// it is unconditional and therefore never mispredicts.
	if u.Op == isa.CALL {
		return
	}

	// BEQ is always predicted not-taken, so mispredicted means taken, full
	// stop. A taken branch whose target happens to equal PC+1 (zero
	// offset) still flushes even though the redirect is a same-address
	// no-op: the outcome disagreed with the prediction regardless of
	// where it points.
	if u.Result.Taken {
		s.flush(b, u.Result.Target)
	}
}

// flush implements spec.md §4.5 steps 1-7: atomically discards every ROB,
// RS, FU, and CDB-pending entry strictly younger than b, rebuilds the
// RAT, redirects the PC, and clears speculative flags on survivors.
func (s *Simulator) flush(b, redirectPC int) {
	s.logDebug("flush", logrus.Fields{"cycle": s.cycle, "rob": b, "redirect_pc": redirectPC})
	for reg := uint8(0); reg < isa.NumRegisters; reg++ {
		if rob, pending := s.rat.Lookup(reg); pending && s.rob.YoungerThan(rob, b) {
			if nearest, found := s.rob.NearestWriterOf(reg, b); found {
				s.rat.ResetTo(reg, nearest, true)
			} else {
				s.rat.ResetTo(reg, 0, false)
			}
		}
	}

	s.rs.ClearDestRobAbove(s.rob, b)
	s.fu.CancelDestRobAbove(s.rob, b)
	s.cdb.DiscardRob(b)

	s.rob.DiscardYoungerThan(b)
	s.rob.ClearSpeculativeOlderThan(b)

	s.pc = redirectPC
	s.stalled = false
}
