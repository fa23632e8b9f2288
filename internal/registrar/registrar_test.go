package registrar

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quackchatNotification/internal/domain"
	"github.com/quackchatNotification/internal/logging"
	"github.com/quackchatNotification/internal/store"
)

type failingWriter struct{}

func (failingWriter) MergeUserToken(context.Context, string, string) error {
	return errors.New("unavailable")
}

func TestUpdateToken(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.PutUser(domain.UserProfile{UID: "alice", DisplayName: "Alice", Email: "alice@example.com"})

	r := New(mem, logging.New(io.Discard, "debug"))

	require.NoError(t, r.UpdateToken(ctx, &domain.Caller{UID: "alice"}, "token-1"))

	profile, err := mem.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "token-1", profile.FCMToken)
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.Equal(t, "alice@example.com", profile.Email)

	t.Run("last write wins", func(t *testing.T) {
		require.NoError(t, r.UpdateToken(ctx, &domain.Caller{UID: "alice"}, "token-2"))

		profile, err := mem.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "token-2", profile.FCMToken)
	})

	t.Run("creates missing profile", func(t *testing.T) {
		require.NoError(t, r.UpdateToken(ctx, &domain.Caller{UID: "bob"}, "any string at all"))

		profile, err := mem.GetUser(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "any string at all", profile.FCMToken)
	})
}

func TestUpdateToken_Unauthenticated(t *testing.T) {
	r := New(store.NewMemory(), logging.New(io.Discard, "info"))

	assert.ErrorIs(t, r.UpdateToken(context.Background(), nil, "t"), domain.ErrUnauthenticated)
	assert.ErrorIs(t, r.UpdateToken(context.Background(), &domain.Caller{}, "t"), domain.ErrUnauthenticated)
}

func TestUpdateToken_StoreFailure(t *testing.T) {
	r := New(failingWriter{}, logging.New(io.Discard, "info"))

	err := r.UpdateToken(context.Background(), &domain.Caller{UID: "alice"}, "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}
