package server

import "go.uber.org/atomic"

// Stats counts what the server has done since it started. Counters are
// atomic so the hot path never takes a lock for bookkeeping.
type Stats struct {
	conns            atomic.Int64
	served           atomic.Int64
	failed           atomic.Int64
	framingErrors    atomic.Int64
	unknownProcedure atomic.Int64
}

// StatsSnapshot is a point-in-time copy of the counters. Taken counter by
// counter, so totals can be off by in-flight increments — fine for the
// monitoring it exists for.
type StatsSnapshot struct {
	Conns            int64 // connections accepted
	Served           int64 // calls answered, any status
	Failed           int64 // calls answered with a non-zero status
	FramingErrors    int64 // connections dropped before a request was framed
	UnknownProcedure int64 // calls naming a procedure with no handler
}

// Stats returns a snapshot of the server's counters.
func (svr *Server) Stats() StatsSnapshot {
	return StatsSnapshot{
		Conns:            svr.stats.conns.Load(),
		Served:           svr.stats.served.Load(),
		Failed:           svr.stats.failed.Load(),
		FramingErrors:    svr.stats.framingErrors.Load(),
		UnknownProcedure: svr.stats.unknownProcedure.Load(),
	}
}
