// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memostore

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "memo.db"), &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetString(t *testing.T) {
	s := openTestStore(t)

	s.Set("greeting", "hello", time.Minute)

	var got string
	require.True(t, s.Get("greeting", &got))
	assert.Equal(t, "hello", got)
}

func TestSetGetStructured(t *testing.T) {
	s := openTestStore(t)

	type doc struct {
		URL   string  `json:"url"`
		Score float64 `json:"score"`
	}
	s.Set("docs", []doc{{URL: "https://example.com/a", Score: 1.9}}, time.Minute)

	var got []doc
	require.True(t, s.Get("docs", &got))
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/a", got[0].URL)
	assert.Equal(t, 1.9, got[0].Score)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	var got string
	assert.False(t, s.Get("absent", &got))
}

func TestExpiry(t *testing.T) {
	s := openTestStore(t)
	defer func() { Clock = time.Now }()

	base := time.Now()
	Clock = func() time.Time { return base }
	s.Set("short", "v", 10*time.Second)

	var got string
	require.True(t, s.Get("short", &got))

	// Advance past the TTL.
	Clock = func() time.Time { return base.Add(11 * time.Second) }
	assert.False(t, s.Get("short", &got))
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	s.Set("k", "v", time.Minute)
	require.NoError(t, s.Delete("k"))
	assert.False(t, s.Get("k", nil))
}

func TestDeletePattern(t *testing.T) {
	s := openTestStore(t)

	s.Set("search:one", "a", time.Minute)
	s.Set("search:two", "b", time.Minute)
	s.Set("other:three", "c", time.Minute)

	n, err := s.DeletePattern("search:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, s.Get("search:one", nil))
	assert.True(t, s.Get("other:three", nil))
}

func TestIncrement(t *testing.T) {
	s := openTestStore(t)

	n, err := s.Increment("counter", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Increment("counter", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestIncrementResetsAfterExpiry(t *testing.T) {
	s := openTestStore(t)
	defer func() { Clock = time.Now }()

	base := time.Now()
	Clock = func() time.Time { return base }

	_, err := s.Increment("win", 5, 10*time.Second)
	require.NoError(t, err)

	Clock = func() time.Time { return base.Add(11 * time.Second) }
	n, err := s.Increment("win", 1, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "expired window should restart the counter")
}

func TestIncrementConcurrent(t *testing.T) {
	s := openTestStore(t)

	const workers = 10
	const perWorker = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := s.Increment("shared", 1, time.Minute)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	n, err := s.Increment("shared", 0, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), n)
}

func TestTTL(t *testing.T) {
	s := openTestStore(t)

	s.Set("k", "v", time.Minute)
	remaining, ok := s.TTL("k")
	require.True(t, ok)
	assert.InDelta(t, time.Minute.Seconds(), remaining.Seconds(), 2)

	_, ok = s.TTL("absent")
	assert.False(t, ok)
}

func TestPurge(t *testing.T) {
	s := openTestStore(t)
	defer func() { Clock = time.Now }()

	base := time.Now()
	Clock = func() time.Time { return base }
	s.Set("a", "1", 5*time.Second)
	s.Set("b", "2", time.Hour)

	Clock = func() time.Time { return base.Add(time.Minute) }
	n, err := s.Purge()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilStoreDegrades(t *testing.T) {
	var s *Store

	assert.False(t, s.Get("k", nil))
	s.Set("k", "v", time.Minute) // must not panic

	_, err := s.Increment("k", 1, time.Minute)
	assert.Error(t, err)

	got, err := WithCache(s, "k", time.Minute, func() (string, error) {
		return "computed", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "computed", got)
}

func TestWithCacheMemoizes(t *testing.T) {
	s := openTestStore(t)

	calls := 0
	compute := func() ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first, err := WithCache(s, Key("search", "q", "5"), time.Minute, compute)
	require.NoError(t, err)
	second, err := WithCache(s, Key("search", "q", "5"), time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second call must be served from cache")
}

func TestWithCacheDoesNotCacheErrors(t *testing.T) {
	s := openTestStore(t)

	calls := 0
	compute := func() (string, error) {
		calls++
		if calls == 1 {
			return "", fmt.Errorf("transient")
		}
		return "ok", nil
	}

	_, err := WithCache(s, "k", time.Minute, compute)
	require.Error(t, err)

	got, err := WithCache(s, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestKeyStable(t *testing.T) {
	k1 := Key("search", "brave", "golang", "5")
	k2 := Key("search", "brave", "golang", "5")
	k3 := Key("search", "brave", "golang", "6")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
