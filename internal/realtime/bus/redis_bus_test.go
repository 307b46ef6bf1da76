package bus

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/realtime"
)

func TestDecodeMessage(t *testing.T) {
	msg, err := decodeMessage(`{"channel":"u1","event":"PathCreated","data":{"path_id":"p"}}`)
	require.NoError(t, err)
	assert.Equal(t, "u1", msg.Channel)
	assert.Equal(t, realtime.SSEEventPathCreated, msg.Event)

	_, err = decodeMessage(`{"event":"PathCreated"}`)
	require.Error(t, err)

	_, err = decodeMessage(`not json`)
	require.Error(t, err)
}

func TestNewRedisBusValidation(t *testing.T) {
	_, err := NewRedisBus(nil, RedisConfig{Addr: "localhost:6379"})
	require.Error(t, err)

	_, err = NewRedisBus(logger.Nop(), RedisConfig{})
	require.Error(t, err)
}

func TestRedisBusDefaultsChannel(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	b := newRedisBusWithClient(logger.Nop(), rdb, " ")
	assert.Equal(t, "pathforge:sse", b.channel)

	require.Error(t, b.StartForwarder(context.Background(), nil))
	var nilBus *redisBus
	require.Error(t, nilBus.Publish(context.Background(), realtime.SSEMessage{}))
	require.NoError(t, nilBus.Close())
}
