package engine

// dispatchReady implements Phase 5: every ready reservation station
// (spec.md §4.2) that has a free functional unit of its class starts
// execution this cycle (spec.md §4.3 Dispatch).
func (s *Simulator) dispatchReady() {
	for _, rsIdx := range s.rs.ReadyEntries() {
		rs := s.rs.Get(rsIdx)
		if !rs.Vj.Ready || !rs.Vk.Ready {
			violate("I2", "ReadyEntries returned a station with an unresolved operand")
		}
		fuIdx, ok := s.fu.FreeOf(rs.Class)
		if !ok {
			continue
		}
		if s.fu.units[fuIdx].Busy {
			violate("I2", "FreeOf returned a busy functional unit")
		}
		s.fu.Dispatch(fuIdx, rsIdx, rs.DestRob, rs.Op, rs.Vj.Value, rs.Vk.Value, rs.HasImm, rs.Imm, rs.Target, rs.Pc)
		s.rs.MarkExecuting(rsIdx)
		s.time.StartExec(rs.InstrId, s.cycle)
	}
}
