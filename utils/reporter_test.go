package utils

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestReporterCountThreshold(t *testing.T) {
	reporter := NewReporter(3, time.Hour, "indexed [%d] blocks in [%.2fs], speed [%.2fblocks/sec]")

	shouldReport, _ := reporter.Add(1)
	assert.Equal(t, shouldReport, false)

	shouldReport, _ = reporter.Add(1)
	assert.Equal(t, shouldReport, false)

	shouldReport, report := reporter.Add(1)
	assert.Equal(t, shouldReport, true)
	assert.NotEqual(t, report, "")
	assert.Equal(t, reporter.Total(), 3)

	// The window resets after a report.
	shouldReport, _ = reporter.Add(1)
	assert.Equal(t, shouldReport, false)
	assert.Equal(t, reporter.Total(), 4)
}

func TestReporterInterval(t *testing.T) {
	reporter := NewReporter(0, time.Millisecond, "indexed [%d] blocks in [%.2fs], speed [%.2fblocks/sec]")

	time.Sleep(5 * time.Millisecond)
	shouldReport, _ := reporter.Add(1)
	assert.Equal(t, shouldReport, true)
}
