package job

import (
	"errors"
	"testing"
	"time"

	"github.com/karanvs/vega/internal/core"
)

func TestStore_CreateAndGet(t *testing.T) {
	s := NewStore(10, time.Hour)

	j := s.Create("backtest")
	if j.ID == "" {
		t.Fatal("expected non-empty job ID")
	}
	if j.Status != StatusPending {
		t.Errorf("Status = %v, want pending", j.Status)
	}

	got, err := s.Get(j.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != j.ID || got.Type != "backtest" {
		t.Errorf("got %+v, want id %s", got, j.ID)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	s := NewStore(10, time.Hour)
	if _, err := s.Get("nope"); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	s := NewStore(10, time.Hour)
	j := s.Create("backtest")

	err := s.Update(j.ID, func(j *Job) {
		j.Status = StatusComplete
		j.Progress = 100
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := s.Get(j.ID)
	if got.Status != StatusComplete || got.Progress != 100 {
		t.Errorf("got %+v after update", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Error("UpdatedAt should move forward")
	}
}

func TestStore_EvictsOldestAtCapacity(t *testing.T) {
	s := NewStore(2, time.Hour)

	first := s.Create("backtest")
	s.Create("backtest")
	s.Create("backtest") // evicts first

	if _, err := s.Get(first.ID); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("oldest job should be evicted, got %v", err)
	}
	if len(s.List()) != 2 {
		t.Errorf("List = %d jobs, want 2", len(s.List()))
	}
}

func TestStore_PurgesExpiredTerminalJobs(t *testing.T) {
	s := NewStore(10, time.Millisecond)

	done := s.Create("backtest")
	s.Update(done.ID, func(j *Job) { j.Status = StatusComplete })

	running := s.Create("backtest")
	s.Update(running.ID, func(j *Job) { j.Status = StatusRunning })

	time.Sleep(5 * time.Millisecond)
	s.Create("backtest") // triggers purge

	if _, err := s.Get(done.ID); !errors.Is(err, core.ErrJobNotFound) {
		t.Error("terminal job past TTL should be purged")
	}
	if _, err := s.Get(running.ID); err != nil {
		t.Errorf("running job must survive the purge, got %v", err)
	}
}

func TestStore_ListInsertionOrder(t *testing.T) {
	s := NewStore(10, time.Hour)
	a := s.Create("backtest")
	b := s.Create("backtest")

	jobs := s.List()
	if len(jobs) != 2 || jobs[0].ID != a.ID || jobs[1].ID != b.ID {
		t.Errorf("List order = %v, want [%s %s]", jobs, a.ID, b.ID)
	}
}
