package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/zskroll/internal/rollover"
	"github.com/dropDatabas3/zskroll/internal/zsk"
)

type countingService struct {
	infoCalls atomic.Int64
}

func (s *countingService) ZSKInfo(ctx context.Context) ([]zsk.Key, error) {
	s.infoCalls.Add(1)
	return []zsk.Key{
		{ID: "1", Activated: true, CreatedAgo: 900000, MaxTTL: 3600},
		{ID: "2", CreatedAgo: 100},
	}, nil
}

func (s *countingService) ActivateKey(ctx context.Context, id string) error   { return nil }
func (s *countingService) DeactivateKey(ctx context.Context, id string) error { return nil }
func (s *countingService) DeleteKey(ctx context.Context, id string) error     { return nil }

func (s *countingService) CreateKey(ctx context.Context, algorithm string, bits int, role string, activate bool) (string, error) {
	return "x", nil
}

func TestLoop_RunsImmediatelyAndOnTicks(t *testing.T) {
	svc := &countingService{}
	var reports atomic.Int64
	loop := &Loop{
		Runner: &rollover.Runner{
			Svc:    svc,
			Policy: zsk.Policy{SafetyFactor: 10},
			Domain: "example.org",
		},
		Interval: 20 * time.Millisecond,
		OnReport: func(rep *rollover.Report) {
			if rep.Outcome != rollover.OutcomeNoop {
				t.Errorf("unexpected outcome %s", rep.Outcome)
			}
			reports.Add(1)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// una inmediata + al menos dos ticks
	if n := svc.infoCalls.Load(); n < 3 {
		t.Errorf("expected at least 3 runs, got %d", n)
	}
	if reports.Load() != svc.infoCalls.Load() {
		t.Errorf("every run should produce a report: runs=%d reports=%d", svc.infoCalls.Load(), reports.Load())
	}
}
