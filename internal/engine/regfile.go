package engine

import "github.com/yomnahisham/tomasulo-simulator/internal/isa"

// RegisterFile holds the eight architectural registers. R0 is a normal
// register — it is not hardwired to zero, per the Open Question in
// spec.md §9(a): programs that want a zero register must keep one zero
// themselves, same as the source material this simulator is modelled on.
type RegisterFile struct {
	regs [isa.NumRegisters]int16
}

func (r RegisterFile) Get(reg uint8) int16 {
	return r.regs[reg]
}

func (r *RegisterFile) Set(reg uint8, value int16) {
	r.regs[reg] = value
}

func (r RegisterFile) snapshot() [isa.NumRegisters]int16 {
	return r.regs
}
