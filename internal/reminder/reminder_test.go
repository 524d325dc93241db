package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/lexiquest/internal/progress"
)

type fakeSource struct {
	overview progress.Overview
	ok       bool
}

func (f fakeSource) Overview() (progress.Overview, bool) { return f.overview, f.ok }

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		src        fakeSource
		wantNudge  bool
		wantAtRisk bool
		wantLeft   int
	}{
		{"signed out", fakeSource{}, false, false, 0},
		{"goal met", fakeSource{progress.Overview{DailyXP: 60, DailyGoalXP: 50, DailyGoalMet: true}, true}, false, false, 0},
		{"partial day", fakeSource{progress.Overview{Name: "Ana", DailyXP: 20, DailyGoalXP: 50, CurrentStreak: 3}, true}, true, false, 30},
		{"streak at risk", fakeSource{progress.Overview{Name: "Ana", DailyGoalXP: 50, CurrentStreak: 4}, true}, true, true, 50},
		{"fresh learner", fakeSource{progress.Overview{Name: "Ana", DailyGoalXP: 20}, true}, true, false, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Check(tt.src)
			if ok != tt.wantNudge {
				t.Fatalf("Check() ok = %v; want %v", ok, tt.wantNudge)
			}
			if !ok {
				return
			}
			if n.StreakAtRisk != tt.wantAtRisk {
				t.Errorf("StreakAtRisk = %v; want %v", n.StreakAtRisk, tt.wantAtRisk)
			}
			if n.Remaining() != tt.wantLeft {
				t.Errorf("Remaining() = %d; want %d", n.Remaining(), tt.wantLeft)
			}
		})
	}
}

func TestNudge_Message(t *testing.T) {
	risk := Nudge{Name: "Ana", DailyGoalXP: 50, CurrentStreak: 4, StreakAtRisk: true}
	if got := risk.Message(); !strings.Contains(got, "4-day streak") || !strings.Contains(got, "50 XP") {
		t.Errorf("Message() = %q", got)
	}

	open := Nudge{Name: "Ana", DailyXP: 20, DailyGoalXP: 50}
	if got := open.Message(); !strings.Contains(got, "30 XP to go") || !strings.Contains(got, "(20/50)") {
		t.Errorf("Message() = %q", got)
	}

	over := Nudge{DailyXP: 80, DailyGoalXP: 50}
	if over.Remaining() != 0 {
		t.Errorf("Remaining() = %d; want 0", over.Remaining())
	}
}

func TestNewScheduler_RejectsBadTime(t *testing.T) {
	for _, at := range []string{"", "7pm", "25:00", "19:00:00"} {
		_, err := NewScheduler(fakeSource{}, nil, time.UTC, at, nil)
		if !errors.Is(err, ErrInvalidTime) {
			t.Errorf("NewScheduler(%q) error = %v; want ErrInvalidTime", at, err)
		}
	}
}

func TestScheduler_Run(t *testing.T) {
	var got []Nudge
	notify := NotifierFunc(func(_ context.Context, n Nudge) error {
		got = append(got, n)
		return nil
	})

	src := fakeSource{progress.Overview{Name: "Ana", DailyXP: 10, DailyGoalXP: 50}, true}
	s, err := NewScheduler(src, notify, time.UTC, "19:00", nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.Run(context.Background())
	if len(got) != 1 || got[0].Remaining() != 40 {
		t.Fatalf("notified %+v; want one nudge with 40 XP left", got)
	}

	s.src = fakeSource{progress.Overview{DailyGoalMet: true}, true}
	s.Run(context.Background())
	if len(got) != 1 {
		t.Errorf("notified after goal met: %+v", got)
	}
}

func TestScheduler_Run_NotifierError(t *testing.T) {
	calls := 0
	notify := NotifierFunc(func(context.Context, Nudge) error {
		calls++
		return errors.New("terminal closed")
	})
	src := fakeSource{progress.Overview{Name: "Ana", DailyGoalXP: 50}, true}
	s, err := NewScheduler(src, notify, time.UTC, "08:30", nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.Run(context.Background())
	if calls != 1 {
		t.Errorf("notifier called %d times; want 1", calls)
	}
}

func TestScheduler_StartRunNowStop(t *testing.T) {
	fired := make(chan Nudge, 1)
	notify := NotifierFunc(func(_ context.Context, n Nudge) error {
		select {
		case fired <- n:
		default:
		}
		return nil
	})
	src := fakeSource{progress.Overview{Name: "Ana", DailyGoalXP: 50}, true}
	s, err := NewScheduler(src, notify, time.UTC, "19:00", nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()
	// A second Start keeps the single job.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	s.RunNow()
	select {
	case n := <-fired:
		if n.Name != "Ana" {
			t.Errorf("nudge name = %q", n.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunNow did not fire the job")
	}
}
