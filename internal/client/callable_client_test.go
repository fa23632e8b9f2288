package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quackchatNotification/internal/callable"
	"github.com/quackchatNotification/internal/domain"
	"github.com/quackchatNotification/internal/logging"
	"github.com/quackchatNotification/internal/push"
	"github.com/quackchatNotification/internal/registrar"
	"github.com/quackchatNotification/internal/store"
	"github.com/quackchatNotification/internal/subscription"
)

type tokenVerifier map[string]string

func (v tokenVerifier) Verify(_ context.Context, idToken string) (*domain.Caller, error) {
	uid, ok := v[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &domain.Caller{UID: uid}, nil
}

type echoGateway struct{}

func (echoGateway) Send(_ context.Context, token string, _ push.Notification) (string, error) {
	return "sent-to-" + token, nil
}

func newServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.New(io.Discard, "info")
	mem := store.NewMemory()

	router := callable.BuildRouter(callable.RouterDeps{
		ServiceName: "quackchat-notifications",
		Version:     "test",
		Handler: callable.NewHandler(
			registrar.New(mem, logger),
			subscription.New(mem, logger),
			mem,
			echoGateway{},
			logger,
		),
		Verifier: tokenVerifier{"alice-id-token": "alice"},
		Logger:   logger,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, mem
}

func staticIDToken(token string) IDTokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

func TestCallableClient(t *testing.T) {
	ctx := context.Background()
	server, mem := newServer(t)
	c := NewCallableClient(server.URL+"/", staticIDToken("alice-id-token"))

	require.NoError(t, c.UpdateUserToken(ctx, "fcm-alice"))
	profile, err := mem.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "fcm-alice", profile.FCMToken)

	require.NoError(t, c.SubscribeToRoom(ctx, "pond"))
	subs, err := mem.ListSubscribers(ctx, "pond", 10)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	result, err := c.SendTestNotification(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "sent-to-fcm-alice", result.MessageID)

	require.NoError(t, c.UnsubscribeFromRoom(ctx, "pond"))
	subs, err = mem.ListSubscribers(ctx, "pond", 10)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestCallableClient_Errors(t *testing.T) {
	ctx := context.Background()
	server, _ := newServer(t)

	t.Run("anonymous", func(t *testing.T) {
		c := NewCallableClient(server.URL, nil)

		err := c.SubscribeToRoom(ctx, "pond")
		require.ErrorIs(t, err, domain.ErrUnauthenticated)

		var callErr *CallError
		require.ErrorAs(t, err, &callErr)
		assert.Equal(t, http.StatusUnauthorized, callErr.StatusCode)
		assert.Equal(t, "subscribeToRoomNotifications", callErr.Name)
	})

	t.Run("invalid argument", func(t *testing.T) {
		c := NewCallableClient(server.URL, staticIDToken("alice-id-token"))

		err := c.SubscribeToRoom(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("no token registered", func(t *testing.T) {
		c := NewCallableClient(server.URL, staticIDToken("alice-id-token"))

		result, err := c.SendTestNotification(ctx)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "no-token", result.Code)
	})

	t.Run("id token failure", func(t *testing.T) {
		c := NewCallableClient(server.URL, func(context.Context) (string, error) {
			return "", errors.New("signed out")
		})

		assert.Error(t, c.UpdateUserToken(ctx, "t"))
	})
}

func TestCallableClient_DeadlineComesFromContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	c := NewCallableClient(server.URL, staticIDToken("alice-id-token"))
	assert.Zero(t, c.httpClient.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.SubscribeToRoom(ctx, "pond")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
