package parser

import "sync/atomic"

// Stats is the lock-free counter block the Health Evaluator reads to
// decide Healthy/Degraded/Unhealthy (spec §4.3, §4.8). All fields are
// updated with atomic ops so a Snapshot never takes a lock.
type Stats struct {
	totalParsed               uint64
	totalAttempted            uint64
	parsePanics               uint64
	dockerConsecutiveFailures uint64
}

// StatsSnapshot is a point-in-time, lock-free copy of Stats.
type StatsSnapshot struct {
	TotalParsed               uint64
	SuccessRate               float64
	ParsePanics               uint64
	DockerConsecutiveFailures uint64
}

// RecordSuccess counts one successfully parsed line.
func (s *Stats) RecordSuccess() {
	atomic.AddUint64(&s.totalParsed, 1)
	atomic.AddUint64(&s.totalAttempted, 1)
}

// RecordFailure counts one attempted-but-failed parse (e.g. ErrLineTooLarge).
func (s *Stats) RecordFailure() {
	atomic.AddUint64(&s.totalAttempted, 1)
}

// RecordPanic increments the defensive catch-unwind counter. Callers that
// recover from a panic inside a per-line parse call this before resuming.
func (s *Stats) RecordPanic() {
	atomic.AddUint64(&s.parsePanics, 1)
}

// RecordDockerFailure marks one failed engine call, e.g. a log stream read
// that returned an error instead of bytes.
func (s *Stats) RecordDockerFailure() {
	atomic.AddUint64(&s.dockerConsecutiveFailures, 1)
}

// RecordDockerSuccess resets the consecutive-failure counter.
func (s *Stats) RecordDockerSuccess() {
	atomic.StoreUint64(&s.dockerConsecutiveFailures, 0)
}

// Snapshot takes a lock-free copy of the current counters, computing
// success_rate as successes/attempts over the counters' lifetime.
func (s *Stats) Snapshot() StatsSnapshot {
	parsed := atomic.LoadUint64(&s.totalParsed)
	attempted := atomic.LoadUint64(&s.totalAttempted)
	rate := 1.0
	if attempted > 0 {
		rate = float64(parsed) / float64(attempted)
	}
	return StatsSnapshot{
		TotalParsed:               parsed,
		SuccessRate:               rate,
		ParsePanics:               atomic.LoadUint64(&s.parsePanics),
		DockerConsecutiveFailures: atomic.LoadUint64(&s.dockerConsecutiveFailures),
	}
}
