package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultConstructors(t *testing.T) {
	testErr := errors.New("boom")
	tests := []struct {
		name    string
		result  Result
		status  Status
		message string
		err     error
	}{
		{"healthy", Healthy("ok"), StatusHealthy, "ok", nil},
		{"degraded", Degraded("slow"), StatusDegraded, "slow", nil},
		{"unhealthy", Unhealthy("down", testErr), StatusUnhealthy, "down", testErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.result.Message, tt.message)
			}
			if tt.result.Error != tt.err {
				t.Errorf("Error = %v, want %v", tt.result.Error, tt.err)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should not be zero")
			}
		})
	}
}

func TestResult_WithDetailsAndDuration(t *testing.T) {
	base := Healthy("ok")
	r := base.WithDetails(map[string]any{"size": 3}).WithDuration(time.Millisecond)

	if r.Details["size"] != 3 || r.Duration != time.Millisecond {
		t.Errorf("unexpected result: %+v", r)
	}
	if base.Details != nil || base.Duration != 0 {
		t.Error("With* must not modify the receiver")
	}
}

func TestCheckerFunc(t *testing.T) {
	checker := NewCheckerFunc("ctx-checker", func(ctx context.Context) Result {
		if ctx.Err() != nil {
			return Unhealthy("cancelled", ctx.Err())
		}
		return Healthy("ok")
	})

	if checker.Name() != "ctx-checker" {
		t.Errorf("Name() = %q", checker.Name())
	}
	if got := checker.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("Check() Status = %v, want healthy", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := checker.Check(ctx).Status; got != StatusUnhealthy {
		t.Errorf("Check() Status = %v, want unhealthy", got)
	}
}
