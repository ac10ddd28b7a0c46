package quota

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu     sync.Mutex
	day    string
	models []string
	saves  int
	fail   bool
}

func (s *memStore) GetExhaustion(_ context.Context) (string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return "", nil, errors.New("store is down")
	}

	return s.day, append([]string(nil), s.models...), nil
}

func (s *memStore) ReplaceExhaustion(_ context.Context, day string, models []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return errors.New("store is down")
	}

	s.day = day
	s.models = append([]string(nil), models...)
	s.saves++

	return nil
}

func newTestTracker(store *memStore, now time.Time) *Tracker {
	t := New(context.Background(), store, slog.Default())
	t.now = func() time.Time { return now }

	if store.day == "" {
		t.day = DayStamp(now)
	}

	return t
}

func TestMarkExhaustedPersists(t *testing.T) {
	store := &memStore{}
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	tracker := newTestTracker(store, now)

	ctx := context.Background()

	if tracker.IsExhausted(ctx, "a/one:free") {
		t.Fatalf("model should not start exhausted")
	}

	tracker.MarkExhausted(ctx, "a/one:free")

	if !tracker.IsExhausted(ctx, "a/one:free") {
		t.Fatalf("model should be exhausted after mark")
	}

	if store.day != "2026-08-26" {
		t.Fatalf("unexpected persisted day: %q", store.day)
	}

	if len(store.models) != 1 || store.models[0] != "a/one:free" {
		t.Fatalf("unexpected persisted models: %v", store.models)
	}
}

func TestMarkExhaustedIsIdempotent(t *testing.T) {
	store := &memStore{}
	tracker := newTestTracker(store, time.Now())

	ctx := context.Background()

	tracker.MarkExhausted(ctx, "a/one:free")
	tracker.MarkExhausted(ctx, "a/one:free")

	if store.saves != 1 {
		t.Fatalf("expected one persisted save, got %d", store.saves)
	}
}

func TestStaleDayClearsSetRegardlessOfContents(t *testing.T) {
	store := &memStore{
		day:    "2026-08-25",
		models: []string{"a/one:free", "b/two:free"},
	}
	now := time.Date(2026, 8, 26, 0, 0, 1, 0, time.UTC)
	tracker := newTestTracker(store, now)

	ctx := context.Background()

	if tracker.IsExhausted(ctx, "a/one:free") {
		t.Fatalf("yesterday's exhaustion must not carry over")
	}

	if store.day != "2026-08-26" {
		t.Fatalf("expected stamp updated on stale read, got %q", store.day)
	}

	if len(store.models) != 0 {
		t.Fatalf("expected persisted set cleared, got %v", store.models)
	}
}

func TestSameDayStateSurvivesReload(t *testing.T) {
	store := &memStore{}
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	first := newTestTracker(store, now)
	first.MarkExhausted(context.Background(), "a/one:free")

	second := newTestTracker(store, now.Add(time.Hour))

	if !second.IsExhausted(context.Background(), "a/one:free") {
		t.Fatalf("exhaustion must survive a restart within the same day")
	}
}

func TestAvailablePreservesCatalogueOrder(t *testing.T) {
	store := &memStore{}
	tracker := newTestTracker(store, time.Now())

	ctx := context.Background()
	catalogue := []string{"m1", "m2", "m3", "m4", "m5"}

	for _, m := range catalogue[:4] {
		tracker.MarkExhausted(ctx, m)
	}

	available := tracker.Available(ctx, catalogue)

	if len(available) != 1 || available[0] != "m5" {
		t.Fatalf("expected exactly [m5], got %v", available)
	}
}

func TestStoreFailureKeepsInMemoryStateAuthoritative(t *testing.T) {
	store := &memStore{fail: true}
	tracker := newTestTracker(store, time.Now())

	ctx := context.Background()

	tracker.MarkExhausted(ctx, "a/one:free")

	if !tracker.IsExhausted(ctx, "a/one:free") {
		t.Fatalf("in-memory set must stay authoritative when the store fails")
	}
}

func TestDayStampIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:30 on the 27th local time is still the 26th in UTC.
	local := time.Date(2026, 8, 27, 2, 30, 0, 0, loc)

	if got := DayStamp(local); got != "2026-08-26" {
		t.Fatalf("unexpected day stamp: %q", got)
	}
}
