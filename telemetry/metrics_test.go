package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := MemberEventsSeen
	Init()
	if MemberEventsSeen != first {
		t.Error("second Init replaced registered collectors")
	}
	if JoinsSeen == nil || InvitesSent == nil || EmailsFailed == nil || SessionRestarts == nil {
		t.Error("counters not initialized")
	}
	if HandleDuration == nil {
		t.Error("HandleDuration histogram not initialized")
	}
}

func TestSetWatchedRooms(t *testing.T) {
	Init()
	// Must not panic, including before a resolve has happened.
	SetWatchedRooms(0)
	SetWatchedRooms(3)
}

func TestTimeFunc(t *testing.T) {
	Init()
	d := TimeFunc(HandleDuration, func() { time.Sleep(time.Millisecond) })
	if d < time.Millisecond {
		t.Errorf("measured duration %v too short", d)
	}
	// Nil observer is allowed.
	TimeFunc(nil, func() {})
}

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := WithCorrelation(context.Background(), "corr-1")
	if got := GetCorrelation(ctx); got != "corr-1" {
		t.Errorf("GetCorrelation = %q, want corr-1", got)
	}
	if got := GetCorrelation(context.Background()); got != "" {
		t.Errorf("GetCorrelation on empty ctx = %q, want empty", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}
