package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/yomnahisham/tomasulo-simulator/internal/isa"
)

// commit implements Phase 7: at most one commit per cycle, strictly in
// ROB-head order (spec.md §4.6, I5).
func (s *Simulator) commit() {
	if s.rob.Empty() {
		return
	}
	h := s.rob.Head()
	entry := s.rob.Get(h)
	if !entry.Ready || entry.Speculative {
		return
	}

	switch entry.Op {
	case isa.ADD, isa.SUB, isa.NAND, isa.MUL, isa.LOAD, isa.CALL:
		s.regs.Set(entry.Dest, entry.Value)
		s.rat.ClearIfOwner(entry.Dest, h)
	case isa.STORE:
		s.mem.Write(entry.StoreAddr, uint16(entry.StoreValue))
	case isa.BEQ, isa.RET:
		// no register or memory effect
	}

	s.lastCommit, s.hasLastCommit = entry.InstrId, true
	s.time.Commit(entry.InstrId, s.cycle)
	s.logDebug("commit", logrus.Fields{"cycle": s.cycle, "instr": entry.InstrId, "op": entry.Op, "rob": h})
	s.rob.CommitHead()
	s.rob.RecomputeSpeculative()
}
