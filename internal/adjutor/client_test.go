package adjutor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/naira-pay/naira_pay/internal/logging"
)

func karmaServer(t *testing.T, status int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckBlocked(t *testing.T) {
	srv := karmaServer(t, http.StatusOK, `{"status":"success","data":{"karma_identity":"bad@example.com","reason":"loan default"}}`, nil)
	c := NewClient(srv.URL, "test-key", nil, time.Minute, logging.Discard())

	require.Equal(t, VerdictBlocked, c.Check(context.Background(), "bad@example.com"))
}

func TestCheckClear(t *testing.T) {
	srv := karmaServer(t, http.StatusNotFound, `{"status":"error"}`, nil)
	c := NewClient(srv.URL, "test-key", nil, time.Minute, logging.Discard())

	require.Equal(t, VerdictClear, c.Check(context.Background(), "good@example.com"))
}

func TestCheckAPIErrorIsUnknown(t *testing.T) {
	srv := karmaServer(t, http.StatusInternalServerError, "upstream broke", nil)
	c := NewClient(srv.URL, "test-key", nil, time.Minute, logging.Discard())

	require.Equal(t, VerdictUnknown, c.Check(context.Background(), "who@example.com"))
}

func TestCheckUnreachableIsUnknown(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "test-key", nil, time.Minute, logging.Discard())
	require.Equal(t, VerdictUnknown, c.Check(context.Background(), "who@example.com"))
}

func TestCheckCachesDefinitiveVerdicts(t *testing.T) {
	var hits atomic.Int64
	srv := karmaServer(t, http.StatusNotFound, "", &hits)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	c := NewClient(srv.URL, "test-key", cache, time.Minute, logging.Discard())
	ctx := context.Background()

	require.Equal(t, VerdictClear, c.Check(ctx, "good@example.com"))
	require.Equal(t, VerdictClear, c.Check(ctx, "good@example.com"))
	require.Equal(t, int64(1), hits.Load(), "second check should come from cache")
}
