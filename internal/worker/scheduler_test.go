package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestScheduler_Trigger(t *testing.T) {
	calls := make(chan struct{}, 4)
	s := NewScheduler(func(ctx context.Context) error {
		calls <- struct{}{}
		return nil
	})
	s.Start()
	defer s.Stop()

	if !s.Trigger("manual") {
		t.Fatal("Expected trigger to start a run")
	}
	<-calls
	waitFor(t, func() bool { return s.Status().Status == StatusCompleted })

	st := s.Status()
	if st.Runs != 1 || st.Reason != "manual" || st.LastRun == nil {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	s := NewScheduler(func(ctx context.Context) error {
		<-release
		return errors.New("controller dump unreadable")
	})

	if !s.Trigger("first") {
		t.Fatal("Expected first trigger to start a run")
	}
	if s.Trigger("second") {
		t.Error("Expected second trigger to be skipped")
	}
	close(release)
	waitFor(t, func() bool { return s.Status().Status == StatusFailed })

	st := s.Status()
	if st.Skipped != 1 {
		t.Errorf("Expected 1 skipped trigger, got %d", st.Skipped)
	}
	if st.Error != "controller dump unreadable" {
		t.Errorf("Expected run error to be recorded, got %q", st.Error)
	}
}

func TestScheduler_AddSchedule(t *testing.T) {
	s := NewScheduler(func(ctx context.Context) error { return nil })

	if err := s.AddSchedule("@every 1h"); err != nil {
		t.Errorf("Expected valid spec, got %v", err)
	}
	if err := s.AddSchedule("*/15 * * * *"); err != nil {
		t.Errorf("Expected valid spec, got %v", err)
	}
	if err := s.AddSchedule("every fortnight"); err == nil {
		t.Error("Expected invalid spec error")
	}
}

func TestScheduler_StopCancelsRun(t *testing.T) {
	started := make(chan struct{})
	s := NewScheduler(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	s.Start()
	s.Trigger("manual")
	<-started
	s.Stop()

	if st := s.Status(); st.Status != StatusFailed {
		t.Errorf("Expected cancelled run to be failed, got %s", st.Status)
	}
	if s.Trigger("after-stop") {
		t.Error("Expected trigger after Stop to be ignored")
	}
}
