package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/siherrmann/threadrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type threadSet map[string]bool

func (t threadSet) HasThread(threadID string) bool {
	return t[threadID]
}

func newTestStore(historySize int) *Store {
	return NewStore(threadSet{"T-1": true, "T-2": true}, historySize, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStoreLifecycle(t *testing.T) {
	t.Run("Start and get", func(t *testing.T) {
		store := newTestStore(0)

		id, err := store.Start("T-1")
		require.NoError(t, err, "Expected Start to not return an error")
		assert.NotEmpty(t, id)

		session, err := store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, id, session.SessionID)
		assert.Equal(t, "T-1", session.ThreadID)
		assert.Empty(t, session.RecentTurns)
		assert.True(t, session.EntityMemory.IsEmpty())
		assert.Equal(t, DefaultHistorySize, store.HistorySize())
	})

	t.Run("Session ids are unique", func(t *testing.T) {
		store := newTestStore(0)

		first, err := store.Start("T-1")
		require.NoError(t, err)
		second, err := store.Start("T-1")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("Start with unknown thread", func(t *testing.T) {
		store := newTestStore(0)

		_, err := store.Start("T-404")

		assert.ErrorIs(t, err, model.ErrInvalidThread)
		assert.Zero(t, store.Len())
	})

	t.Run("Nil logger", func(t *testing.T) {
		store := NewStore(threadSet{"T-1": true}, 0, nil)

		id, err := store.Start("T-1")
		require.NoError(t, err, "Expected Start to work without a logger")
		require.NoError(t, store.Reset(id), "Expected Reset to work without a logger")
	})

	t.Run("Unknown session", func(t *testing.T) {
		store := newTestStore(0)

		_, err := store.Get("missing")
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
		assert.ErrorIs(t, store.Reset("missing"), model.ErrSessionNotFound)
		assert.ErrorIs(t, store.Switch("missing", "T-1"), model.ErrSessionNotFound)
		assert.ErrorIs(t, store.AppendTurn("missing", "q", "a"), model.ErrSessionNotFound)
	})

	t.Run("Get returns a snapshot", func(t *testing.T) {
		store := newTestStore(0)
		id, err := store.Start("T-1")
		require.NoError(t, err)

		session, err := store.Get(id)
		require.NoError(t, err)
		session.EntityMemory.Add(model.EntityPeople, "x@y.com")
		session.RecentTurns = append(session.RecentTurns, model.Turn{UserText: "q"})

		fresh, err := store.Get(id)
		require.NoError(t, err)
		assert.True(t, fresh.EntityMemory.IsEmpty(), "Expected the store to be unaffected by snapshot changes")
		assert.Empty(t, fresh.RecentTurns)
	})
}

func TestStoreMutations(t *testing.T) {
	seed := func(t *testing.T, store *Store) string {
		id, err := store.Start("T-1")
		require.NoError(t, err)
		require.NoError(t, store.Update(id, func(session *model.Session) error {
			session.EntityMemory.Add(model.EntityFiles, "plan.pdf")
			return nil
		}))
		require.NoError(t, store.AppendTurn(id, "q1", "a1"))
		return id
	}

	t.Run("Append evicts the oldest turn", func(t *testing.T) {
		store := newTestStore(3)
		id, err := store.Start("T-1")
		require.NoError(t, err)

		for i := 1; i <= 5; i++ {
			require.NoError(t, store.AppendTurn(id, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
		}

		session, err := store.Get(id)
		require.NoError(t, err)
		require.Len(t, session.RecentTurns, 3)
		assert.Equal(t, "q3", session.RecentTurns[0].UserText, "Expected oldest turns to be evicted first")
		assert.Equal(t, "q5", session.RecentTurns[2].UserText)
		assert.Equal(t, "a5", session.RecentTurns[2].Answer)
	})

	t.Run("Reset keeps the thread", func(t *testing.T) {
		store := newTestStore(0)
		id := seed(t, store)

		require.NoError(t, store.Reset(id))

		session, err := store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "T-1", session.ThreadID)
		assert.Empty(t, session.RecentTurns)
		assert.True(t, session.EntityMemory.IsEmpty())
	})

	t.Run("Switch to a valid thread", func(t *testing.T) {
		store := newTestStore(0)
		id := seed(t, store)

		require.NoError(t, store.Switch(id, "T-2"))

		session, err := store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "T-2", session.ThreadID)
		assert.Empty(t, session.RecentTurns)
		assert.True(t, session.EntityMemory.IsEmpty())
	})

	t.Run("Switch to an invalid thread leaves the session unchanged", func(t *testing.T) {
		store := newTestStore(0)
		id := seed(t, store)
		before, err := store.Get(id)
		require.NoError(t, err)

		err = store.Switch(id, "T-404")
		assert.ErrorIs(t, err, model.ErrInvalidThread)

		after, err := store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Update propagates errors", func(t *testing.T) {
		store := newTestStore(0)
		id := seed(t, store)
		boom := errors.New("boom")

		err := store.Update(id, func(session *model.Session) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)

		// The lock is released after an error
		assert.NoError(t, store.AppendTurn(id, "q2", "a2"))
	})
}

func TestStoreConcurrency(t *testing.T) {
	t.Run("Turns on one session are serialized", func(t *testing.T) {
		store := newTestStore(100)
		id, err := store.Start("T-1")
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, store.Update(id, func(session *model.Session) error {
					session.EntityMemory.Add(model.EntityAmounts, fmt.Sprintf("%d", i))
					session.AppendTurn(model.Turn{UserText: fmt.Sprintf("q%d", i)}, store.HistorySize())
					return nil
				}))
			}(i)
		}
		wg.Wait()

		session, err := store.Get(id)
		require.NoError(t, err)
		assert.Len(t, session.RecentTurns, 50, "Expected no lost updates")
		assert.Len(t, session.EntityMemory[model.EntityAmounts], 50)
	})

	t.Run("Different sessions do not block each other", func(t *testing.T) {
		store := newTestStore(0)
		first, err := store.Start("T-1")
		require.NoError(t, err)
		second, err := store.Start("T-2")
		require.NoError(t, err)

		entered := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- store.Update(first, func(session *model.Session) error {
				close(entered)
				<-release
				return nil
			})
		}()
		<-entered

		finished := make(chan error, 1)
		go func() {
			finished <- store.AppendTurn(second, "q", "a")
		}()

		select {
		case err := <-finished:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Expected a turn on another session to proceed while the first is locked")
		}

		close(release)
		assert.NoError(t, <-done)
	})

	t.Run("Starting sessions concurrently", func(t *testing.T) {
		store := newTestStore(0)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Start("T-1")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 20, store.Len())
	})
}
