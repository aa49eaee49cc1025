package tenantpool

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestReap_EvictsIdleEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	mock.ExpectClose()
	connector := func(ctx context.Context, dsn string) (*sql.DB, error) {
		return db, nil
	}
	p := New(Config{
		IdleTimeout:    100 * time.Millisecond,
		AcquireTimeout: time.Second,
		Connector:      connector,
	})

	if _, err := p.Acquire(context.Background(), "tnt_idle", "dsn"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Pretend a tick fires after the idle threshold has passed.
	evicted := p.reap(time.Now().Add(200 * time.Millisecond))

	if evicted != 1 {
		t.Errorf("reap evicted %d entries, want 1", evicted)
	}
	if p.Has("tnt_idle") {
		t.Error("Has() = true after idle eviction")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("handle was not closed exactly once: %v", err)
	}
}

func TestReap_KeepsFreshEntries(t *testing.T) {
	connector, _ := newMockConnector(t)
	p := New(Config{
		IdleTimeout:    time.Minute,
		AcquireTimeout: time.Second,
		Connector:      connector,
	})

	if _, err := p.Acquire(context.Background(), "tnt_fresh", "dsn"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if evicted := p.reap(time.Now()); evicted != 0 {
		t.Errorf("reap evicted %d entries, want 0", evicted)
	}
	if !p.Has("tnt_fresh") {
		t.Error("fresh entry was evicted")
	}
}

func TestReap_RefreshedEntrySurvives(t *testing.T) {
	connector, _ := newMockConnector(t)
	p := New(Config{
		IdleTimeout:    100 * time.Millisecond,
		AcquireTimeout: time.Second,
		Connector:      connector,
	})

	if _, err := p.Acquire(context.Background(), "tnt_busy", "dsn"); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	// The re-acquire refreshes the idle clock, so a tick that would have
	// evicted the original timestamp keeps the entry.
	if _, err := p.Acquire(context.Background(), "tnt_busy", "dsn"); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if evicted := p.reap(time.Now().Add(80 * time.Millisecond)); evicted != 0 {
		t.Errorf("reap evicted %d entries, want 0", evicted)
	}
	if !p.Has("tnt_busy") {
		t.Error("refreshed entry was evicted")
	}
}

func TestStartReaper_EvictsInBackground(t *testing.T) {
	connector, _ := newMockConnector(t)
	p := New(Config{
		IdleTimeout:    10 * time.Millisecond,
		AcquireTimeout: time.Second,
		Connector:      connector,
	})

	if _, err := p.Acquire(context.Background(), "tnt_idle", "dsn"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.StartReaper(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for p.Has("tnt_idle") {
		if time.Now().After(deadline) {
			t.Fatal("idle entry was never reaped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartReaper_StopsOnCancel(t *testing.T) {
	connector, _ := newMockConnector(t)
	p := New(Config{
		IdleTimeout:    10 * time.Millisecond,
		AcquireTimeout: time.Second,
		Connector:      connector,
	})

	ctx, cancel := context.WithCancel(context.Background())
	p.StartReaper(ctx, 5*time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	// With the reaper stopped, idle entries stay pooled.
	if _, err := p.Acquire(context.Background(), "tnt_idle", "dsn"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if !p.Has("tnt_idle") {
		t.Error("entry reaped after the reaper was stopped")
	}
}
