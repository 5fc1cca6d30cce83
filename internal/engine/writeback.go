package engine

import "github.com/yomnahisham/tomasulo-simulator/internal/isa"

// enqueueCompletions places every FU that just finished (Done and not yet
// queued) onto the CDB's pending backlog (spec.md §4.4).
func (s *Simulator) enqueueCompletions() {
	for i := range s.fu.units {
		u := &s.fu.units[i]
		if !u.Busy || !u.Done || u.Enqueued {
			continue
		}
		u.Enqueued = true
		s.time.FinishExec(robInstrId(s.rob, u.DestRob), s.cycle)
		s.cdb.Enqueue(cdbEntry{
			RobIndex: u.DestRob,
			Value:    u.Result.Value,
			Op:       u.Op,
			FuIndex:  i,
			RsIndex:  u.RsIndex,
			Result:   u.Result,
		})
	}
}

func robInstrId(rob *ROB, idx int) int {
	return rob.Get(idx).InstrId
}

// writeBackIfCurrent performs the atomic broadcast of spec.md §4.4 if the
// CDB holds a current entry this sub-phase.
func (s *Simulator) writeBackIfCurrent() {
	e, ok := s.cdb.Current()
	if !ok {
		return
	}
	entry := s.rob.Get(e.RobIndex)
	switch {
	case e.Result.IsStore:
		entry.StoreAddr = e.Result.StoreAddr
		entry.StoreValue = e.Result.StoreValue
		entry.Ready = true
	case e.Result.IsBranch:
		entry.Taken = e.Result.Taken
		entry.Target = e.Result.Target
		entry.HasRetAddr = e.Result.HasRetAddr
		entry.ReturnAddr = e.Result.ReturnAddr
		if e.Op == isa.CALL {
			entry.Value = e.Result.Value
		}
		entry.Ready = true
	default:
		entry.Value = e.Result.Value
		entry.Ready = true
	}

	s.rs.ReceiveBroadcast(e.RobIndex, e.Result.Value)
	s.fu.Release(e.FuIndex)
	s.rs.Free(e.RsIndex)
	s.time.WriteBack(entry.InstrId, s.cycle)
}
