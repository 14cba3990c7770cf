package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mamadbah2/expiry-tracker/internal/config"
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) Sweep(ctx context.Context) ([]models.ExpiryReminder, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sweep must run with a deadline")
	}
	return []models.ExpiryReminder{{UserID: "u1"}}, f.err
}

func TestStartRegistersSweep(t *testing.T) {
	sw := &fakeSweeper{}
	s := NewScheduler(config.RemindersConfig{CronSchedule: "0 8 * * *", Timezone: "Europe/Paris"}, sw, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	entries := s.cron.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	next := entries[0].Next
	paris, _ := time.LoadLocation("Europe/Paris")
	if h := next.In(paris).Hour(); h != 8 {
		t.Fatalf("next run at %v, want 08:00 Paris time", next)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(config.RemindersConfig{CronSchedule: "every morning", Timezone: "UTC"}, &fakeSweeper{}, nil)
	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestSendReminders(t *testing.T) {
	sw := &fakeSweeper{err: errors.New("one user failed")}
	s := NewScheduler(config.RemindersConfig{CronSchedule: "0 8 * * *", Timezone: "UTC"}, sw, nil)
	s.sendReminders()
	if sw.calls != 1 {
		t.Fatalf("calls = %d", sw.calls)
	}
}
