package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptStub answers every script call with a fixed bucket reply.
type scriptStub struct {
	allowed int64
	err     error
	calls   int
}

func (s *scriptStub) reply() *redis.Cmd {
	s.calls++
	if s.err != nil {
		return redis.NewCmdResult(nil, s.err)
	}
	return redis.NewCmdResult([]interface{}{s.allowed, "0"}, nil)
}

func (s *scriptStub) Eval(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return s.reply()
}

func (s *scriptStub) EvalSha(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return s.reply()
}

func (s *scriptStub) EvalRO(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return s.reply()
}

func (s *scriptStub) EvalShaRO(context.Context, string, []string, ...interface{}) *redis.Cmd {
	return s.reply()
}

func (s *scriptStub) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (s *scriptStub) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("sha", nil)
}

func TestLoginLimiterDisabledAllows(t *testing.T) {
	var limiter *LoginLimiter
	assert.False(t, limiter.Enabled())
	assert.True(t, limiter.Allow(context.Background(), "10.0.0.1", "alice"))
}

func TestLoginLimiterDeniesWhenBucketEmpty(t *testing.T) {
	stub := &scriptStub{allowed: 0}
	limiter := NewLoginLimiterWithScripter(stub, 0.2, 5, zap.NewNop())

	assert.True(t, limiter.Enabled())
	assert.False(t, limiter.Allow(context.Background(), "10.0.0.1", "alice"))
	assert.Equal(t, 1, stub.calls)
}

func TestLoginLimiterAllowsOnTokenOrRedisFailure(t *testing.T) {
	limiter := NewLoginLimiterWithScripter(&scriptStub{allowed: 1}, 0.2, 5, zap.NewNop())
	assert.True(t, limiter.Allow(context.Background(), "10.0.0.1", "alice"))

	broken := NewLoginLimiterWithScripter(&scriptStub{err: errors.New("connection refused")}, 0.2, 5, zap.NewNop())
	assert.True(t, broken.Allow(context.Background(), "10.0.0.1", "alice"))
}

func TestTokenBucketRejectsBadArguments(t *testing.T) {
	var unconfigured *TokenBucket
	_, err := unconfigured.Allow(context.Background(), "k", 1, 1)
	require.Error(t, err)

	bucket := NewTokenBucket(nil)
	_, err = bucket.Allow(context.Background(), "k", 1, 1)
	require.Error(t, err)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 50*time.Second, bucketTTL(0.2, 5))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestScriptValueParsing(t *testing.T) {
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(0), toInt(nil))
	assert.InDelta(t, 3.5, toFloat("3.5"), 0.0001)
	assert.InDelta(t, 2.0, toFloat(int64(2)), 0.0001)
}
