package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// MUL must wrap: the low 16 bits of a 32-bit product, not a saturating or
// panicking overflow.
func TestMulWraps(t *testing.T) {
	sim := NewSimulator()
	mustLoad(t, sim, `
		LOAD R1,0(R0)
		LOAD R2,4(R0)
		MUL R3,R1,R2
	`)
	require.NoError(t, sim.InitializeMemory(map[uint32]uint32{0: 1000, 4: 1000}))

	snap := runToCompletion(t, sim)
	product := uint32(1000 * 1000)
	require.EqualValues(t, int16(uint16(product)), snap.Registers[3])
}

// NAND of all-ones with itself is 0 — a direct self-check of the bitwise
// definition in spec.md §3.
func TestNandAllOnes(t *testing.T) {
	sim := NewSimulator()
	mustLoad(t, sim, `
		LOAD R1,0(R0)
		NAND R2,R1,R1
	`)
	require.NoError(t, sim.InitializeMemory(map[uint32]uint32{0: 0xFFFF}))

	snap := runToCompletion(t, sim)
	require.EqualValues(t, 0, snap.Registers[2])
}

// A taken BEQ with equal operands and offset 0 still counts as a taken,
// mispredicted branch (the predictor is always not-taken) even though the
// redirected target is the same as falling through.
func TestBeqZeroOffsetSelfLoopStillMispredicts(t *testing.T) {
	sim := NewSimulator()
	mustLoad(t, sim, `
		LOAD R1,0(R0)
		BEQ R1,R1,HERE
		HERE:
		ADD R2,R1,R1
	`)
	require.NoError(t, sim.InitializeMemory(map[uint32]uint32{0: 9}))

	snap := runToCompletion(t, sim)
	require.EqualValues(t, 18, snap.Registers[2])

	beqTiming := snap.Timing[1]
	require.True(t, beqTiming.HasWriteBack)

	// The flush discards the ADD issued behind the branch, so the ADD that
	// commits was re-issued no earlier than the cycle the BEQ resolved.
	addTiming := snap.Timing[2]
	require.GreaterOrEqual(t, addTiming.IssueCycle, beqTiming.FinishExecCycle)
}
