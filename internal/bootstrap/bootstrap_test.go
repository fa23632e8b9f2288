package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quackchatNotification/internal/config"
	"github.com/quackchatNotification/internal/push"
)

func TestNewGateway(t *testing.T) {
	tests := []struct {
		driver string
		check  func(t *testing.T, gw push.Gateway)
	}{
		{driver: config.PushFCM, check: func(t *testing.T, gw push.Gateway) {
			assert.IsType(t, &push.FCM{}, gw)
		}},
		{driver: config.PushExpo, check: func(t *testing.T, gw push.Gateway) {
			assert.IsType(t, &push.Expo{}, gw)
		}},
		{driver: config.PushAuto, check: func(t *testing.T, gw push.Gateway) {
			router, ok := gw.(*push.Router)
			require.True(t, ok)
			assert.NotNil(t, router.FCM)
			assert.NotNil(t, router.Expo)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			tt.check(t, NewGateway(config.PushConfig{Driver: tt.driver, AndroidChannelID: "default"}, nil))
		})
	}
}

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	addr := mr.Addr()
	rdb, err := NewRedis(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	mr.Close()
	_, err = NewRedis(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
