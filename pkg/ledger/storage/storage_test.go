package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// newBackends returns one fresh instance of each Store implementation, keyed
// by name. Behavior tests run against both.
func newBackends(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(&SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	memStore := NewMemoryStore()
	t.Cleanup(func() { memStore.Close() })

	return map[string]Store{
		"memory": memStore,
		"sqlite": sqliteStore,
	}
}

func testEvent(sessionID string, turn int, kind audit.Kind, outcome audit.Outcome) audit.Event {
	return audit.Event{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Turn:       turn,
		Kind:       kind,
		Outcome:    outcome,
		Actor:      "user:bob",
		Ring:       audit.RingRef(authority.RingSession),
		RecordedAt: time.Now().UTC(),
	}
}

func TestStore_EmptySession(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state, err := store.Snapshot(ctx, "unknown")
			if err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
			if len(state.Slots) != 0 {
				t.Errorf("unknown session has %d slots, want 0", len(state.Slots))
			}

			trail, err := store.Trail(ctx, "unknown")
			if err != nil {
				t.Fatalf("Trail failed: %v", err)
			}
			if len(trail) != 0 {
				t.Errorf("unknown session has %d events, want 0", len(trail))
			}

			last, err := store.LastActivity(ctx, "unknown")
			if err != nil {
				t.Fatalf("LastActivity failed: %v", err)
			}
			if !last.IsZero() {
				t.Errorf("LastActivity = %v, want zero time", last)
			}
		})
	}
}

func TestStore_MutatePersistsSlotsAndEvents(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := store.Mutate(ctx, "s1", func(state *SessionState) ([]audit.Event, error) {
				state.Slots[authority.RingSession] = authority.BoundaryRecord{
					Type:              authority.BoundaryReadOnly,
					Ring:              authority.RingSession,
					Allowed:           authority.ActionRead,
					EstablishedBy:     "user:bob",
					EstablishedAtTurn: 1,
				}
				return []audit.Event{testEvent("s1", 1, audit.KindEstablished, audit.OutcomeAllowed)}, nil
			})
			if err != nil {
				t.Fatalf("Mutate failed: %v", err)
			}

			state, err := store.Snapshot(ctx, "s1")
			if err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
			record, ok := state.Slots[authority.RingSession]
			if !ok {
				t.Fatal("session ring slot not persisted")
			}
			if record.Type != authority.BoundaryReadOnly || record.Allowed != authority.ActionRead {
				t.Errorf("persisted record = %+v", record)
			}

			trail, err := store.Trail(ctx, "s1")
			if err != nil {
				t.Fatalf("Trail failed: %v", err)
			}
			if len(trail) != 1 {
				t.Fatalf("trail has %d events, want 1", len(trail))
			}
			if trail[0].Kind != audit.KindEstablished || trail[0].Outcome != audit.OutcomeAllowed {
				t.Errorf("trail[0] = %+v", trail[0])
			}
		})
	}
}

func TestStore_MutateErrorStillAppendsEvents(t *testing.T) {
	denied := errors.New("denied")

	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := store.Mutate(ctx, "s1", func(state *SessionState) ([]audit.Event, error) {
				return []audit.Event{testEvent("s1", 1, audit.KindReleaseDenied, audit.OutcomeDenied)}, denied
			})
			if !errors.Is(err, denied) {
				t.Fatalf("Mutate error = %v, want %v", err, denied)
			}

			// The denial event must be durable even though the call failed.
			trail, err := store.Trail(ctx, "s1")
			if err != nil {
				t.Fatalf("Trail failed: %v", err)
			}
			if len(trail) != 1 {
				t.Fatalf("trail has %d events, want 1", len(trail))
			}
			if trail[0].Outcome != audit.OutcomeDenied {
				t.Errorf("trail[0].Outcome = %s, want DENIED", trail[0].Outcome)
			}

			// The slots must be unchanged.
			state, err := store.Snapshot(ctx, "s1")
			if err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
			if len(state.Slots) != 0 {
				t.Errorf("denied mutate left %d slots", len(state.Slots))
			}
		})
	}
}

func TestStore_TrailPreservesAppendOrder(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for turn := 1; turn <= 5; turn++ {
				turn := turn
				err := store.Mutate(ctx, "s1", func(state *SessionState) ([]audit.Event, error) {
					return []audit.Event{testEvent("s1", turn, audit.KindEstablished, audit.OutcomeAllowed)}, nil
				})
				if err != nil {
					t.Fatalf("Mutate failed: %v", err)
				}
			}

			trail, err := store.Trail(ctx, "s1")
			if err != nil {
				t.Fatalf("Trail failed: %v", err)
			}
			if len(trail) != 5 {
				t.Fatalf("trail has %d events, want 5", len(trail))
			}
			for i, event := range trail {
				if event.Turn != i+1 {
					t.Errorf("trail[%d].Turn = %d, want %d", i, event.Turn, i+1)
				}
			}
		})
	}
}

func TestStore_SessionsAndEvict(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, id := range []string{"s1", "s2"} {
				id := id
				err := store.Mutate(ctx, id, func(state *SessionState) ([]audit.Event, error) {
					return []audit.Event{testEvent(id, 1, audit.KindEstablished, audit.OutcomeAllowed)}, nil
				})
				if err != nil {
					t.Fatalf("Mutate failed: %v", err)
				}
			}

			ids, err := store.Sessions(ctx)
			if err != nil {
				t.Fatalf("Sessions failed: %v", err)
			}
			if len(ids) != 2 {
				t.Fatalf("Sessions = %v, want 2 entries", ids)
			}

			if err := store.Evict(ctx, "s1"); err != nil {
				t.Fatalf("Evict failed: %v", err)
			}

			trail, err := store.Trail(ctx, "s1")
			if err != nil {
				t.Fatalf("Trail after evict failed: %v", err)
			}
			if len(trail) != 0 {
				t.Errorf("evicted session still has %d events", len(trail))
			}

			// The other session is untouched.
			trail, err = store.Trail(ctx, "s2")
			if err != nil {
				t.Fatalf("Trail failed: %v", err)
			}
			if len(trail) != 1 {
				t.Errorf("s2 trail has %d events, want 1", len(trail))
			}
		})
	}
}

func TestStore_SessionIsolation(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := store.Mutate(ctx, "s1", func(state *SessionState) ([]audit.Event, error) {
				state.Slots[authority.RingConstitutional] = authority.BoundaryRecord{
					Type:    authority.BoundaryInfoOnly,
					Ring:    authority.RingConstitutional,
					Allowed: authority.ActionRead,
				}
				return nil, nil
			})
			if err != nil {
				t.Fatalf("Mutate failed: %v", err)
			}

			state, err := store.Snapshot(ctx, "s2")
			if err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
			if len(state.Slots) != 0 {
				t.Errorf("s1's slots leaked into s2: %+v", state.Slots)
			}
		})
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := store.Mutate(ctx, "s1", func(state *SessionState) ([]audit.Event, error) {
				state.Slots[authority.RingSession] = authority.BoundaryRecord{
					Type:    authority.BoundaryReadOnly,
					Ring:    authority.RingSession,
					Allowed: authority.ActionRead,
				}
				return nil, nil
			})
			if err != nil {
				t.Fatalf("Mutate failed: %v", err)
			}

			snap, err := store.Snapshot(ctx, "s1")
			if err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
			delete(snap.Slots, authority.RingSession)

			again, err := store.Snapshot(ctx, "s1")
			if err != nil {
				t.Fatalf("Snapshot failed: %v", err)
			}
			if _, ok := again.Slots[authority.RingSession]; !ok {
				t.Error("mutating a snapshot changed the persisted state")
			}
		})
	}
}

func TestStore_ConcurrentMutates(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			const goroutines = 8
			const perGoroutine = 10

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perGoroutine; i++ {
						err := store.Mutate(ctx, "s1", func(state *SessionState) ([]audit.Event, error) {
							return []audit.Event{testEvent("s1", 1, audit.KindEstablished, audit.OutcomeAllowed)}, nil
						})
						if err != nil {
							t.Errorf("Mutate failed: %v", err)
							return
						}
					}
				}()
			}
			wg.Wait()

			trail, err := store.Trail(ctx, "s1")
			if err != nil {
				t.Fatalf("Trail failed: %v", err)
			}
			if len(trail) != goroutines*perGoroutine {
				t.Errorf("trail has %d events, want %d", len(trail), goroutines*perGoroutine)
			}
		})
	}
}
