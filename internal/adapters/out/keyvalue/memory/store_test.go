package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Minute))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	has, err := s.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStore_GetAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()

	got, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewWithClock(func() time.Time { return now })

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Hour))

	now = now.Add(time.Hour - time.Second)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry past its TTL reads as absent")
}

func TestStore_PutRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewWithClock(func() time.Time { return now })

	require.NoError(t, s.Put(ctx, "k", []byte("v1"), time.Hour))
	now = now.Add(50 * time.Minute)
	require.NoError(t, s.Put(ctx, "k", []byte("v2"), time.Hour))

	now = now.Add(30 * time.Minute) // 80m after first write, 30m after second
	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "overwrite restarts the TTL window")
	assert.Equal(t, []byte("v2"), got)
}

func TestStore_ForgetIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Forget(ctx, "k"))
	require.NoError(t, s.Forget(ctx, "k"), "forgetting a missing key is a no-op")

	has, err := s.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStore_ValueIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	src := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", src, time.Minute))
	src[0] = 'x'

	got, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got, "stored value is not aliased to caller memory")

	got[0] = 'y'
	again, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
