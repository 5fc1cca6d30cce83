// Package engine implements the cycle-accurate Tomasulo core: reservation
// stations, reorder buffer, register alias table, functional units, a
// common data bus, and the register file and memory they operate on. It
// is driven exclusively through Simulator's exported methods; everything
// else is owned state mutated only by StepCycle.
package engine

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yomnahisham/tomasulo-simulator/internal/asm"
	"github.com/yomnahisham/tomasulo-simulator/internal/isa"
)

// Simulator is the single owned aggregate described in spec.md §9's
// Global mutable state design note: one state value, mutated exclusively
// by StepCycle, observed only through deep-copy Snapshot calls.
type Simulator struct {
	program []isa.Instruction
	pc      int
	stalled bool // issue blocked on an unresolved RET (spec.md §4.1 step 7)

	cycle int

	regs *RegisterFile
	mem  *Memory
	rat  *RAT
	rob  *ROB
	rs   *RS
	fu   *FUPool
	cdb  *CDB
	time *Timing

	lastIssued    int
	hasLastIssue  bool
	lastCommit    int
	hasLastCommit bool

	logger logrus.FieldLogger // nil: no-op. Set with SetLogger.
}

// NewSimulator returns an empty simulator: no program loaded, all state
// at its zero value.
func NewSimulator() *Simulator {
	s := &Simulator{}
	s.resetState()
	return s
}

func (s *Simulator) resetState() {
	s.regs = &RegisterFile{}
	s.mem = newMemory()
	s.rat = newRAT()
	s.rob = newROB()
	s.rs = newRS()
	s.fu = newFUPool()
	s.cdb = newCDB(s.rob)
	s.time = newTiming(len(s.program))
	s.cycle = 0
	s.pc = 0
	s.stalled = false
	s.hasLastIssue = false
	s.hasLastCommit = false
}

// LoadProgram parses source and replaces the current program, resetting
// all core state to its post-load initial condition (spec.md §6). On a
// parse failure none of the simulator's state is mutated.
func (s *Simulator) LoadProgram(source string) ([]asm.Diagnostic, error) {
	instrs, diags := asm.Parse(source)
	if len(diags) > 0 {
		return diags, errors.New("assembly failed to parse")
	}
	s.program = instrs
	s.resetState()
	return nil, nil
}

// InitializeMemory replaces the given memory entries. Every value must
// fit in 0..65535; on rejection no entries (not even the valid ones) are
// applied.
func (s *Simulator) InitializeMemory(values map[uint32]uint32) error {
	if err := s.mem.Init(values); err != nil {
		return errors.Wrap(err, "initialize_memory")
	}
	return nil
}

// Reset clears all core state back to the post-load initial state. The
// loaded program itself is retained.
func (s *Simulator) Reset() {
	s.resetState()
}

// SetLogger attaches a structured logger the step driver uses to trace
// phase boundaries (issue, commit, flush) at debug level. Passing nil
// restores the default no-op behavior. The core never depends on any
// particular sink; this only exists for an external caller to observe.
func (s *Simulator) SetLogger(l logrus.FieldLogger) {
	s.logger = l
}

func (s *Simulator) logDebug(event string, fields logrus.Fields) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(fields).Debug(event)
}

// IsComplete reports whether the machine has nothing left to do: the ROB
// is empty, no RS or FU is busy, and the PC has walked past the last
// instruction with no pending branches (spec.md §6).
func (s *Simulator) IsComplete() bool {
	if !s.rob.Empty() {
		return false
	}
	for i := 0; i < s.rs.Len(); i++ {
		if s.rs.Get(i).Busy {
			return false
		}
	}
	for _, u := range s.fu.snapshot() {
		if u.Busy {
			return false
		}
	}
	return s.pc >= len(s.program)
}

// StepCycle advances the simulator exactly one cycle through its eight
// fixed phases (spec.md §2, §5) and returns the resulting snapshot. If
// the machine is already complete this is a no-op that returns the
// terminal snapshot (spec.md §7).
func (s *Simulator) StepCycle() Snapshot {
	if s.IsComplete() {
		return s.Snapshot()
	}
	s.cycle++

	// Phase 1: first write-back opportunity.
	s.cdb.Promote()
	s.writeBackIfCurrent()

	// Phase 2: FU tick.
	s.fu.Tick(s.mem)
	s.enqueueCompletions()

	// Phase 3: branch resolution (acts on this cycle's newly completed
	// branch FUs, ahead of whichever entry wins Phase 4's broadcast).
	s.resolveBranches()

	// Phase 4: second write-back opportunity.
	s.cdb.Promote()
	s.writeBackIfCurrent()

	// Phase 5: start execution on ready reservation stations.
	s.dispatchReady()

	// Phase 6: CDB clear.
	s.cdb.Clear()

	// Phase 7: commit.
	s.commit()

	// Phase 8: issue.
	s.issue()

	return s.Snapshot()
}
