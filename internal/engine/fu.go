package engine

import "github.com/yomnahisham/tomasulo-simulator/internal/isa"

// latency returns the fixed dispatch-to-completion cycle count for class c
// (spec.md §4.3).
func latency(c StationClass) int {
	switch c {
	case ClassAddSub:
		return 2
	case ClassNand:
		return 1
	case ClassMul:
		return 12
	case ClassLoad:
		return 6
	case ClassStore:
		return 6
	case ClassBeq:
		return 1
	case ClassCallRet:
		return 1
	}
	return 1
}

// unitCount returns how many parallel FUs exist for class c (spec.md §4.3).
func unitCount(c StationClass) int {
	switch c {
	case ClassAddSub:
		return 4
	case ClassNand:
		return 2
	case ClassMul:
		return 1
	case ClassLoad:
		return 2
	case ClassStore:
		return 1
	case ClassBeq:
		return 2
	case ClassCallRet:
		return 1
	}
	return 1
}

// fuResult is the computed outcome of one completed functional unit,
// shaped per-opcode per spec.md §4.3.
type fuResult struct {
	Value      int16
	IsBranch   bool
	Taken      bool
	Target     int
	HasRetAddr bool
	ReturnAddr int
	StoreAddr  uint32
	StoreValue int16
	IsStore    bool
}

// fuEntry is one functional-unit pipeline slot.
type fuEntry struct {
	Class     StationClass
	Busy      bool
	Remaining int
	RsIndex   int
	DestRob   int
	Op        isa.Opcode
	Vj, Vk    int16
	HasImm    bool
	Imm       int16
	Target    int // resolved CALL target (program index)
	Pc        int
	Done      bool // remaining hit 0; holds result until broadcast frees it
	Enqueued  bool // result already placed on the CDB pending queue
	Resolved  bool // branch outcome already reported to the ROB (Phase 3)
	Result    fuResult
}

// FUPool is the full set of functional units, grouped by class.
type FUPool struct {
	units []fuEntry
}

func newFUPool() *FUPool {
	var units []fuEntry
	for _, c := range []StationClass{ClassLoad, ClassStore, ClassBeq, ClassCallRet, ClassAddSub, ClassNand, ClassMul} {
		for i := 0; i < unitCount(c); i++ {
			units = append(units, fuEntry{Class: c})
		}
	}
	return &FUPool{units: units}
}

// FreeOf returns a free FU index of class c, if any.
func (p *FUPool) FreeOf(c StationClass) (idx int, ok bool) {
	for i := range p.units {
		if p.units[i].Class == c && !p.units[i].Busy {
			return i, true
		}
	}
	return 0, false
}

// Dispatch claims FU idx with the RS's captured operands (spec.md §4.3
// Dispatch).
func (p *FUPool) Dispatch(idx, rsIdx, destRob int, op isa.Opcode, vj, vk int16, hasImm bool, imm int16, target, pc int) {
	u := &p.units[idx]
	*u = fuEntry{
		Class:     u.Class,
		Busy:      true,
		Remaining: latency(u.Class),
		RsIndex:   rsIdx,
		DestRob:   destRob,
		Op:        op,
		Vj:        vj,
		Vk:        vk,
		HasImm:    hasImm,
		Imm:       imm,
		Target:    target,
		Pc:        pc,
	}
}

// Tick decrements every busy, not-yet-done FU's remaining count and
// computes results for those that reach 0 (spec.md §4.3 Tick).
func (p *FUPool) Tick(mem *Memory) {
	for i := range p.units {
		u := &p.units[i]
		if !u.Busy || u.Done {
			continue
		}
		u.Remaining--
		if u.Remaining <= 0 {
			u.Done = true
			u.Result = compute(u, mem)
		}
	}
}

func compute(u *fuEntry, mem *Memory) fuResult {
	switch u.Op {
	case isa.ADD:
		return fuResult{Value: u.Vj + u.Vk}
	case isa.SUB:
		return fuResult{Value: u.Vj - u.Vk}
	case isa.NAND:
		return fuResult{Value: int16(^(uint16(u.Vj) & uint16(u.Vk)) & 0xFFFF)}
	case isa.MUL:
		return fuResult{Value: int16(uint32(uint16(u.Vj)) * uint32(uint16(u.Vk)) & 0xFFFF)}
	case isa.LOAD:
		addr := uint32(int32(u.Vj) + int32(u.Imm))
		return fuResult{Value: int16(mem.Read(addr))}
	case isa.STORE:
		addr := uint32(int32(u.Vj) + int32(u.Imm))
		return fuResult{IsStore: true, StoreAddr: addr, StoreValue: u.Vk}
	case isa.BEQ:
		taken := u.Vj == u.Vk
		target := u.Pc + 1
		if taken {
			target = u.Pc + 1 + int(u.Imm)
		}
		return fuResult{IsBranch: true, Taken: taken, Target: target}
	case isa.CALL:
		return fuResult{Value: int16(u.Pc + 1), IsBranch: true, Taken: true, Target: u.Target, HasRetAddr: true, ReturnAddr: u.Pc + 1}
	case isa.RET:
		return fuResult{IsBranch: true, Taken: true, Target: int(u.Vj)}
	}
	return fuResult{}
}

// Release clears FU idx back to idle (write-back free, or flush cancel).
func (p *FUPool) Release(idx int) {
	p.units[idx] = fuEntry{Class: p.units[idx].Class}
}

// CancelDestRobAbove clears every FU whose DestRob is strictly younger
// than b (flush step 3).
func (p *FUPool) CancelDestRobAbove(rob *ROB, b int) {
	for i := range p.units {
		if p.units[i].Busy && rob.YoungerThan(p.units[i].DestRob, b) {
			p.Release(i)
		}
	}
}

func (p *FUPool) snapshot() []FUSnapshot {
	out := make([]FUSnapshot, len(p.units))
	for i, u := range p.units {
		out[i] = FUSnapshot{
			Class:     u.Class,
			Busy:      u.Busy,
			Remaining: u.Remaining,
			DestRob:   u.DestRob,
			Op:        u.Op,
			Done:      u.Done,
		}
	}
	return out
}

// FUSnapshot is the public, read-only view of one functional unit.
type FUSnapshot struct {
	Class     StationClass
	Busy      bool
	Remaining int
	DestRob   int
	Op        isa.Opcode
	Done      bool
}
