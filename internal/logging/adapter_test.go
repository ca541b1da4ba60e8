package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestNewSlogAdapter(t *testing.T) {
	if adapter := NewSlogAdapter(nil); adapter.logger == nil {
		t.Error("adapter.logger should not be nil when created with nil")
	}

	logger := slog.Default()
	adapter := NewSlogAdapter(logger)
	if adapter.Logger() != logger {
		t.Error("Logger() should return the underlying logger")
	}
	if DefaultLogger().logger == nil {
		t.Error("DefaultLogger().logger should not be nil")
	}
}

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(New(&buf, false))

	adapter.Debug("debug message")
	adapter.Info("info message", "key", "value")
	adapter.Warn("warn message")
	adapter.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug message should be filtered at info level")
	}
	for _, want := range []string{"info message", "key=value", "warn message", "error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapter_CronTicksAreDebug(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(New(&buf, false))

	adapter.Info("wake", "now", time.Now())
	if buf.Len() != 0 {
		t.Errorf("cron tick should log at debug level, got %q", buf.String())
	}
}

func TestCronError(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(New(&buf, false))

	adapter.ForCron().Error(errors.New("panic in job"), "job failed", "entry", 1)
	if !strings.Contains(buf.String(), "error=\"panic in job\"") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLoggerInterfaces(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
	var _ cron.Logger = CronError{}
}
