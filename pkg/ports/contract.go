package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract checks the behaviour every SessionStore shares:
// round-tripping pending and awaiting state, ErrSessionNotFound for unknown
// IDs, ErrEmptySessionID for "", idempotent Delete and List.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID)
		s.SetPending(domain.PendingAction{
			Intent:      "system.shutdown",
			Entities:    map[string]any{"target": "computer", "delay": 42},
			Description: "shut down the computer",
			Since:       time.Now(),
		})

		err := store.Save(ctx, sessionID, s)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.ID)
		require.NotNil(t, loaded.Pending)
		assert.Nil(t, loaded.Awaiting)
		assert.Equal(t, "system.shutdown", loaded.Pending.Intent)
		assert.Equal(t, "computer", loaded.Pending.Entities["target"])
		// JSON-backed stores turn ints into float64; only check presence.
		assert.NotNil(t, loaded.Pending.Entities["delay"])
	})

	t.Run("Save overwrites", func(t *testing.T) {
		s := domain.NewSession(sessionID)
		s.SetAwaiting("ask_website_name", "browser.open_website")
		require.NoError(t, store.Save(ctx, sessionID, s))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Nil(t, loaded.Pending)
		require.NotNil(t, loaded.Awaiting)
		assert.Equal(t, "ask_website_name", loaded.Awaiting.Slot)
		assert.Equal(t, "browser.open_website", loaded.Awaiting.OriginatingIntent)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Empty ID", func(t *testing.T) {
		err := store.Save(ctx, "", domain.NewSession(""))
		assert.ErrorIs(t, err, domain.ErrEmptySessionID)
		_, err = store.Load(ctx, "")
		assert.ErrorIs(t, err, domain.ErrEmptySessionID)
	})

	t.Run("Loaded copies are independent", func(t *testing.T) {
		s := domain.NewSession(sessionID)
		s.SetAwaiting("ask_website_name", "browser.open_website")
		require.NoError(t, store.Save(ctx, sessionID, s))

		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.ClearAwaiting()

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotNil(t, second.Awaiting)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1))
		_ = store.Save(ctx, id2, domain.NewSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
