package callable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quackchatNotification/internal/domain"
	"github.com/quackchatNotification/internal/logging"
	"github.com/quackchatNotification/internal/push"
	"github.com/quackchatNotification/internal/registrar"
	"github.com/quackchatNotification/internal/store"
	"github.com/quackchatNotification/internal/subscription"
)

type staticVerifier map[string]string

func (v staticVerifier) Verify(_ context.Context, idToken string) (*domain.Caller, error) {
	uid, ok := v[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &domain.Caller{UID: uid}, nil
}

type stubGateway struct {
	tokens []string
	err    error
}

func (g *stubGateway) Send(_ context.Context, token string, _ push.Notification) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.tokens = append(g.tokens, token)
	return "projects/quackchat/messages/1", nil
}

type fixture struct {
	router  *gin.Engine
	mem     *store.Memory
	gateway *stubGateway
}

func setup(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.New(io.Discard, "debug")
	mem := store.NewMemory()
	mem.PutRoom(domain.Room{ID: "pond", Title: "The Pond"})
	gw := &stubGateway{}

	handler := NewHandler(
		registrar.New(mem, logger),
		subscription.New(mem, logger),
		mem,
		gw,
		logger,
	)

	router := BuildRouter(RouterDeps{
		ServiceName: "quackchat-notifications",
		Version:     "test",
		Handler:     handler,
		Verifier:    staticVerifier{"alice-id-token": "alice"},
		Logger:      logger,
	})

	return fixture{router: router, mem: mem, gateway: gw}
}

func (f fixture) call(t *testing.T, name, idToken string, data interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{"data": data})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "/"+name, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if idToken != "" {
		req.Header.Set("Authorization", "Bearer "+idToken)
	}

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeResult(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Result, out))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) Error {
	t.Helper()
	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	return envelope.Error
}

func TestUpdateUserToken(t *testing.T) {
	f := setup(t)

	rr := f.call(t, "updateUserToken", "alice-id-token", map[string]string{"token": "fcm-token-1"})
	require.Equal(t, http.StatusOK, rr.Code)

	var result SuccessResult
	decodeResult(t, rr, &result)
	assert.True(t, result.Success)

	profile, err := f.mem.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "fcm-token-1", profile.FCMToken)
}

func TestCallables_RequireAuth(t *testing.T) {
	f := setup(t)

	for _, name := range []string{
		"updateUserToken",
		"subscribeToRoomNotifications",
		"unsubscribeFromRoomNotifications",
		"sendTestNotification",
	} {
		t.Run(name, func(t *testing.T) {
			rr := f.call(t, name, "", map[string]string{"token": "t", "roomId": "pond"})
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, StatusUnauthenticated, decodeError(t, rr).Status)

			rr = f.call(t, name, "forged", map[string]string{"token": "t", "roomId": "pond"})
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}

	_, err := f.mem.GetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	rr := f.call(t, "subscribeToRoomNotifications", "alice-id-token", map[string]string{"roomId": "pond"})
	require.Equal(t, http.StatusOK, rr.Code)

	subs, err := f.mem.ListSubscribers(ctx, "pond", 10)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "alice", subs[0].UserID)

	rr = f.call(t, "unsubscribeFromRoomNotifications", "alice-id-token", map[string]string{"roomId": "pond"})
	require.Equal(t, http.StatusOK, rr.Code)

	subs, err = f.mem.ListSubscribers(ctx, "pond", 10)
	require.NoError(t, err)
	assert.Empty(t, subs)

	t.Run("missing room id", func(t *testing.T) {
		rr := f.call(t, "subscribeToRoomNotifications", "alice-id-token", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, StatusInvalidArgument, decodeError(t, rr).Status)
	})
}

func TestSendTestNotification(t *testing.T) {
	f := setup(t)

	t.Run("no token", func(t *testing.T) {
		rr := f.call(t, "sendTestNotification", "alice-id-token", map[string]string{})
		require.Equal(t, http.StatusOK, rr.Code)

		var result TestNotificationResult
		decodeResult(t, rr, &result)
		assert.False(t, result.Success)
		assert.Equal(t, "no-token", result.Code)
		assert.NotEmpty(t, result.Error)
	})

	f.mem.PutUser(domain.UserProfile{UID: "alice", FCMToken: "dGVzdC1mY20tdG9rZW4tZm9yLWFsaWNl"})

	t.Run("sent", func(t *testing.T) {
		rr := f.call(t, "sendTestNotification", "alice-id-token", map[string]string{})
		require.Equal(t, http.StatusOK, rr.Code)

		var result TestNotificationResult
		decodeResult(t, rr, &result)
		assert.True(t, result.Success)
		assert.Equal(t, "projects/quackchat/messages/1", result.MessageID)
		assert.Equal(t, "dGVzdC1mY20tdG9rZW4t...", result.TokenPrefix)
		assert.Equal(t, []string{"dGVzdC1mY20tdG9rZW4tZm9yLWFsaWNl"}, f.gateway.tokens)
	})

	t.Run("delivery failure", func(t *testing.T) {
		f.gateway.err = &push.DeliveryError{Code: push.CodeUnregistered, Token: "x", Err: errors.New("gone")}

		rr := f.call(t, "sendTestNotification", "alice-id-token", map[string]string{})
		require.Equal(t, http.StatusOK, rr.Code)

		var result TestNotificationResult
		decodeResult(t, rr, &result)
		assert.False(t, result.Success)
		assert.Equal(t, push.CodeUnregistered, result.Code)
	})
}

func TestMalformedBody(t *testing.T) {
	f := setup(t)

	req, err := http.NewRequest(http.MethodPost, "/updateUserToken", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer alice-id-token")

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, StatusInvalidArgument, decodeError(t, rr).Status)
}

func TestEmptyChunkedBody(t *testing.T) {
	f := setup(t)

	req, err := http.NewRequest(http.MethodPost, "/sendTestNotification", http.NoBody)
	require.NoError(t, err)
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Authorization", "Bearer alice-id-token")

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var result TestNotificationResult
	decodeResult(t, rr, &result)
	assert.Equal(t, "no-token", result.Code)
}

func TestHealth(t *testing.T) {
	f := setup(t)

	for _, path := range []string{"/health", "/healthz"} {
		req, err := http.NewRequest(http.MethodGet, path, nil)
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var response HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "quackchat-notifications", response.Service)
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	}
}

func TestRequestIDEcho(t *testing.T) {
	f := setup(t)

	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-123")

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, "req-123", rr.Header().Get("X-Request-Id"))
}
