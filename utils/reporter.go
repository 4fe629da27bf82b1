package utils

import (
	"fmt"
	"time"
)

// Reporter throttles progress lines during long ingestion runs: a report is
// due once either the count threshold or the time interval has passed.
type Reporter struct {
	countThreshold int
	interval       time.Duration
	format         string

	total     int
	startTime time.Time

	lastReportTime  time.Time
	lastReportTotal int
}

func NewReporter(countThreshold int, interval time.Duration, format string) *Reporter {
	now := time.Now()
	return &Reporter{
		countThreshold: countThreshold,
		interval:       interval,
		format:         format,
		startTime:      now,
		lastReportTime: now,
	}
}

func (r *Reporter) Add(count int) (bool, string) {
	r.total += count

	increment := r.total - r.lastReportTotal
	elapsed := time.Since(r.lastReportTime).Seconds()
	if (r.countThreshold > 0 && increment >= r.countThreshold) || elapsed >= r.interval.Seconds() {
		report := fmt.Sprintf(r.format, increment, elapsed, float64(increment)/elapsed)
		r.lastReportTime = time.Now()
		r.lastReportTotal = r.total
		return true, report
	}
	return false, ""
}

func (r *Reporter) Total() int {
	return r.total
}

func (r *Reporter) Elapsed() time.Duration {
	return time.Since(r.startTime)
}
