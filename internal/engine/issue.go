package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/yomnahisham/tomasulo-simulator/internal/isa"
)

// issue implements Phase 8 (spec.md §4.1): issues at most one instruction
// per cycle, stalling with no state change if a resource is unavailable
// or issue is blocked behind an unresolved RET.
func (s *Simulator) issue() {
	if s.stalled || s.pc < 0 || s.pc >= len(s.program) {
		return
	}
	in := s.program[s.pc]
	class := classOf(in.Op)

	rsIdx, ok := s.rs.FreeOf(class)
	if !ok || s.rob.Full() {
		return
	}

	speculative := s.rob.HasOlderUnresolvedBranch()
	predicted := in.Pc + 1
	if in.Op == isa.CALL {
		predicted = in.Target
	}

	robIdx, ok := s.rob.Reserve(in, speculative, predicted)
	if !ok {
		return
	}

	vj, vk := s.captureOperands(in, robIdx)

	rs := s.rs.Get(rsIdx)
	*rs = rsEntry{
		Name:       rs.Name,
		Class:      rs.Class,
		Busy:       true,
		Op:         in.Op,
		Vj:         vj,
		Vk:         vk,
		HasImm:     in.HasImm,
		Imm:        in.Imm,
		Target:     in.Target,
		DestRob:    robIdx,
		InstrId:    in.Id,
		Pc:         in.Pc,
		IssueCycle: s.cycle,
	}

	if dest, writes := in.WritesRegister(); writes {
		s.rat.Rename(dest, robIdx)
	}

	s.time.Issue(in.Id, s.cycle)
	s.lastIssued, s.hasLastIssue = in.Id, true
	s.logDebug("issue", logrus.Fields{"cycle": s.cycle, "instr": in.Id, "op": in.Op, "rs": rs.Name, "rob": robIdx})

	switch in.Op {
	case isa.CALL:
		s.pc = in.Target
	case isa.RET:
		s.stalled = true
	default:
		s.pc = in.Pc + 1
	}
}

// captureOperands resolves the two source operands for in through the
// RAT, per the per-opcode mapping of spec.md §3/§4.1 steps 3-5.
func (s *Simulator) captureOperands(in isa.Instruction, robIdx int) (vj, vk operand) {
	capture := func(reg uint8) operand {
		if robOwner, pending := s.rat.Lookup(reg); pending {
			if e := s.rob.Get(robOwner); e.Ready {
				return readyOperand(e.Value)
			}
			return pendingOperand(robOwner)
		}
		return readyOperand(s.regs.Get(reg))
	}

	switch in.Op {
	case isa.ADD, isa.SUB, isa.NAND, isa.MUL:
		return capture(in.RB), capture(in.RC)
	case isa.LOAD:
		return capture(in.RB), readyOperand(0)
	case isa.STORE:
		return capture(in.RB), capture(in.RA)
	case isa.BEQ:
		return capture(in.RA), capture(in.RB)
	case isa.CALL:
		return readyOperand(0), readyOperand(0)
	case isa.RET:
		return capture(isa.LinkRegister), readyOperand(0)
	}
	return readyOperand(0), readyOperand(0)
}
