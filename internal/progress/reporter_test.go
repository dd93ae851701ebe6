package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"histpull/internal/model"
)

func TestLogReporter_ThrottlesDayUpdates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewLogReporter(logger, time.Hour)

	seg := model.Segment{Instrument: "nifty", PeriodLabel: "2023-01"}
	r.SegmentStarted(seg, 3)
	r.DayCompleted(1, 3, time.Second, 2*time.Second)
	r.DayCompleted(2, 3, 2*time.Second, time.Second)
	r.DayCompleted(3, 3, 3*time.Second, 0)
	r.SegmentFinished(seg, model.StatusDone, 3*time.Second)

	out := buf.String()
	// First day logs, second is throttled, final day always logs.
	assert.Equal(t, 2, strings.Count(out, "segment progress"))
	assert.Contains(t, out, "completed=1")
	assert.NotContains(t, out, "completed=2")
	assert.Contains(t, out, "completed=3")
	assert.Contains(t, out, "status=done")
}

func TestLogReporter_ZeroIntervalLogsEveryDay(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewLogReporter(logger, 0)

	r.SegmentStarted(model.Segment{Instrument: "x", PeriodLabel: "2023-02"}, 2)
	r.DayCompleted(1, 2, time.Second, time.Second)
	r.DayCompleted(2, 2, 2*time.Second, 0)

	assert.Equal(t, 2, strings.Count(buf.String(), "segment progress"))
}

func TestNopReporterIsSafe(t *testing.T) {
	r := Nop()
	r.SegmentStarted(model.Segment{}, 0)
	r.DayCompleted(0, 0, 0, 0)
	r.SegmentFinished(model.Segment{}, model.StatusFailed, 0)
}
