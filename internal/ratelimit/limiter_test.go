package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterUnlimitedByDefault(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	start := time.Now()
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Wait(context.Background(), "https://api.indexnow.org/indexnow"))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterDelaysSameHost(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 10, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://api.indexnow.org/indexnow"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://API.indexnow.org/other"))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiterHostsAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 1, Burst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.example/indexnow"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.example/indexnow"))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiterHonorsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.1, Burst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://a.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx, "https://a.example"))
}

func TestHostOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, "api.indexnow.org", hostOf("https://Api.IndexNow.org/indexnow"))
	require.Equal(t, "unknown", hostOf("not a url"))
	require.Equal(t, "unknown", hostOf("http://%"))
}
