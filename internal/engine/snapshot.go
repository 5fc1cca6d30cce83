package engine

import "github.com/yomnahisham/tomasulo-simulator/internal/isa"

// Snapshot is a deep-copy, read-only view of the entire microarchitectural
// state (spec.md §6). Mutating a Snapshot never affects the running
// simulator.
type Snapshot struct {
	Cycle int

	Program []isa.Instruction
	Pc      int
	Stalled bool

	Registers [isa.NumRegisters]int16
	Memory    map[uint32]uint16

	RAT [isa.NumRegisters]RATSnapshot
	ROB []ROBSnapshot
	RS  []RSSnapshot
	FU  []FUSnapshot
	CDB CDBSnapshot

	Timing []TimingSnapshot

	LastIssued    int
	HasLastIssued bool
	LastCommitted int
	HasLastCommitted bool

	Complete bool
}

// Snapshot returns a deep copy of the current state (spec.md §6, Design
// Notes "Observation without coupling").
func (s *Simulator) Snapshot() Snapshot {
	program := make([]isa.Instruction, len(s.program))
	copy(program, s.program)

	return Snapshot{
		Cycle:             s.cycle,
		Program:           program,
		Pc:                s.pc,
		Stalled:           s.stalled,
		Registers:         s.regs.snapshot(),
		Memory:            s.mem.snapshot(),
		RAT:               s.rat.snapshot(),
		ROB:               s.rob.snapshot(),
		RS:                s.rs.snapshot(),
		FU:                s.fu.snapshot(),
		CDB:               s.cdb.snapshot(),
		Timing:            s.time.snapshot(),
		LastIssued:        s.lastIssued,
		HasLastIssued:     s.hasLastIssue,
		LastCommitted:     s.lastCommit,
		HasLastCommitted:  s.hasLastCommit,
		Complete:          s.IsComplete(),
	}
}
