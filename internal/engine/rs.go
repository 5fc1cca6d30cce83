package engine

import "github.com/yomnahisham/tomasulo-simulator/internal/isa"

// StationClass groups reservation stations by the functional-unit class
// that can service them.
type StationClass uint8

const (
	ClassLoad StationClass = iota
	ClassStore
	ClassBeq
	ClassCallRet
	ClassAddSub
	ClassNand
	ClassMul
)

// stationName is the fixed name of one reservation station, grounded on
// the 12-station partition of spec.md §2/§4.1.
type stationName struct {
	Name  string
	Class StationClass
}

// stationLayout is the fixed set of 12 named stations. CALL and RET share
// the single combined "CALL/RET" station named in the FU class table of
// spec.md §4.3 — the station list in §2 names "CALL/RET" as one entry, so
// 2 LOAD + 1 STORE + 2 BEQ + 1 CALL/RET + 4 ADD/SUB + 1 NAND + 1 MUL totals
// exactly 12.
var stationLayout = []stationName{
	{"LOAD1", ClassLoad},
	{"LOAD2", ClassLoad},
	{"STORE", ClassStore},
	{"BEQ1", ClassBeq},
	{"BEQ2", ClassBeq},
	{"CALLRET", ClassCallRet},
	{"ADDSUB1", ClassAddSub},
	{"ADDSUB2", ClassAddSub},
	{"ADDSUB3", ClassAddSub},
	{"ADDSUB4", ClassAddSub},
	{"NAND", ClassNand},
	{"MUL", ClassMul},
}

func classOf(op isa.Opcode) StationClass {
	switch op {
	case isa.LOAD:
		return ClassLoad
	case isa.STORE:
		return ClassStore
	case isa.BEQ:
		return ClassBeq
	case isa.CALL, isa.RET:
		return ClassCallRet
	case isa.ADD, isa.SUB:
		return ClassAddSub
	case isa.NAND:
		return ClassNand
	case isa.MUL:
		return ClassMul
	}
	return ClassAddSub
}

// operand is a captured source: either a resolved value or a pending
// ROB tag to wait on, never both.
type operand struct {
	Ready bool
	Value int16
	Tag   int
}

func readyOperand(v int16) operand { return operand{Ready: true, Value: v} }
func pendingOperand(tag int) operand { return operand{Ready: false, Tag: tag} }

// rsEntry is one reservation-station slot.
type rsEntry struct {
	Name       string
	Class      StationClass
	Busy       bool
	Op         isa.Opcode
	Vj, Vk     operand
	HasImm     bool
	Imm        int16
	Target     int // resolved CALL target (program index)
	DestRob    int
	InstrId    int
	Pc         int
	Executing  bool
	IssueCycle int
}

func (e *rsEntry) readyToDispatch() bool {
	return e.Busy && !e.Executing && e.Vj.Ready && e.Vk.Ready
}

// RS is the fixed bank of 12 named reservation stations.
type RS struct {
	stations []rsEntry
}

func newRS() *RS {
	s := &RS{stations: make([]rsEntry, len(stationLayout))}
	for i, n := range stationLayout {
		s.stations[i] = rsEntry{Name: n.Name, Class: n.Class}
	}
	return s
}

// FreeOf returns the index of a free station of class c, if any.
func (s *RS) FreeOf(c StationClass) (idx int, ok bool) {
	for i := range s.stations {
		if s.stations[i].Class == c && !s.stations[i].Busy {
			return i, true
		}
	}
	return 0, false
}

func (s *RS) Get(idx int) *rsEntry { return &s.stations[idx] }

func (s *RS) Len() int { return len(s.stations) }

// ReadyEntries returns the indices of every station eligible to dispatch
// (spec.md §4.2), ordered oldest-issue-cycle-first, ties broken by lower
// ROB index — the order must be stable across calls for identical state.
func (s *RS) ReadyEntries() []int {
	var out []int
	for i := range s.stations {
		if s.stations[i].readyToDispatch() {
			out = append(out, i)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := &s.stations[out[j-1]], &s.stations[out[j]]
			less := b.IssueCycle < a.IssueCycle ||
				(b.IssueCycle == a.IssueCycle && b.DestRob < a.DestRob)
			if !less {
				break
			}
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// MarkExecuting flips a station to executing=true once an FU claims it.
func (s *RS) MarkExecuting(idx int) {
	s.stations[idx].Executing = true
}

// ReceiveBroadcast resolves any station waiting on robIdx (spec.md §4.4
// step 2).
func (s *RS) ReceiveBroadcast(robIdx int, value int16) {
	for i := range s.stations {
		e := &s.stations[i]
		if e.Busy && !e.Vj.Ready && e.Vj.Tag == robIdx {
			e.Vj = readyOperand(value)
		}
		if e.Busy && !e.Vk.Ready && e.Vk.Tag == robIdx {
			e.Vk = readyOperand(value)
		}
	}
}

// Free resets station idx to idle — used both at write-back (spec.md
// §4.4 step 3) and at flush (spec.md §4.5 step 2).
func (s *RS) Free(idx int) {
	name, class := s.stations[idx].Name, s.stations[idx].Class
	s.stations[idx] = rsEntry{Name: name, Class: class}
}

// ClearDestRobAbove frees every station whose DestRob is strictly younger
// than b, per rob's circular age ordering (flush step 2).
func (s *RS) ClearDestRobAbove(rob *ROB, b int) {
	for i := range s.stations {
		if s.stations[i].Busy && rob.YoungerThan(s.stations[i].DestRob, b) {
			s.Free(i)
		}
	}
}

func (s *RS) snapshot() []RSSnapshot {
	out := make([]RSSnapshot, len(s.stations))
	for i, e := range s.stations {
		out[i] = RSSnapshot{
			Name:      e.Name,
			Busy:      e.Busy,
			Op:        e.Op,
			VjReady:   e.Vj.Ready,
			Vj:        e.Vj.Value,
			Qj:        e.Vj.Tag,
			VkReady:   e.Vk.Ready,
			Vk:        e.Vk.Value,
			Qk:        e.Vk.Tag,
			DestRob:   e.DestRob,
			InstrId:   e.InstrId,
			Executing: e.Executing,
		}
	}
	return out
}

// RSSnapshot is the public, read-only view of one reservation station.
type RSSnapshot struct {
	Name      string
	Busy      bool
	Op        isa.Opcode
	VjReady   bool
	Vj        int16
	Qj        int
	VkReady   bool
	Vk        int16
	Qk        int
	DestRob   int
	InstrId   int
	Executing bool
}
