package engine

// instrTiming records the cycle at which each pipeline stage happened for
// one instruction, for reporting (spec.md §2 Timing tracker).
type instrTiming struct {
	IssueCycle     int
	HasIssue       bool
	StartExecCycle int
	HasStartExec   bool
	FinishExecCycle int
	HasFinishExec  bool
	WriteBackCycle int
	HasWriteBack   bool
	CommitCycle    int
	HasCommit      bool
}

// Timing is a dense, instruction-id-indexed table of per-stage cycles.
type Timing struct {
	rows []instrTiming
}

func newTiming(n int) *Timing {
	return &Timing{rows: make([]instrTiming, n)}
}

func (t *Timing) Issue(id, cycle int) {
	t.rows[id].IssueCycle, t.rows[id].HasIssue = cycle, true
}

func (t *Timing) StartExec(id, cycle int) {
	t.rows[id].StartExecCycle, t.rows[id].HasStartExec = cycle, true
}

func (t *Timing) FinishExec(id, cycle int) {
	t.rows[id].FinishExecCycle, t.rows[id].HasFinishExec = cycle, true
}

func (t *Timing) WriteBack(id, cycle int) {
	t.rows[id].WriteBackCycle, t.rows[id].HasWriteBack = cycle, true
}

func (t *Timing) Commit(id, cycle int) {
	t.rows[id].CommitCycle, t.rows[id].HasCommit = cycle, true
}

// TimingSnapshot is the public, read-only view of one instruction's
// recorded stage cycles.
type TimingSnapshot struct {
	InstrId        int
	IssueCycle     int
	HasIssue       bool
	StartExecCycle int
	HasStartExec   bool
	FinishExecCycle int
	HasFinishExec  bool
	WriteBackCycle int
	HasWriteBack   bool
	CommitCycle    int
	HasCommit      bool
}

func (t *Timing) snapshot() []TimingSnapshot {
	out := make([]TimingSnapshot, len(t.rows))
	for i, r := range t.rows {
		out[i] = TimingSnapshot{
			InstrId:         i,
			IssueCycle:      r.IssueCycle,
			HasIssue:        r.HasIssue,
			StartExecCycle:  r.StartExecCycle,
			HasStartExec:    r.HasStartExec,
			FinishExecCycle: r.FinishExecCycle,
			HasFinishExec:   r.HasFinishExec,
			WriteBackCycle:  r.WriteBackCycle,
			HasWriteBack:    r.HasWriteBack,
			CommitCycle:     r.CommitCycle,
			HasCommit:       r.HasCommit,
		}
	}
	return out
}
