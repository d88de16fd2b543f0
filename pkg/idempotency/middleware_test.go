package idempotency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(store Store, calls *atomic.Int32, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-User"))
		c.Next()
	})
	router.Use(Middleware(store, time.Hour, zap.NewNop()))
	router.POST("/withdrawals", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(status, gin.H{"call": n})
	})
	return router
}

func post(router *gin.Engine, user, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/withdrawals", strings.NewReader(body))
	req.Header.Set("X-User", user)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_ReplaysStoredResponse(t *testing.T) {
	var calls atomic.Int32
	router := newRouter(NewMemoryStore(), &calls, http.StatusAccepted)

	first := post(router, "u1", "key-1", `{"amount":"1"}`)
	second := post(router, "u1", "key-1", `{"amount":"1"}`)

	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, http.StatusAccepted, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestMiddleware_KeyReuseWithDifferentBody(t *testing.T) {
	var calls atomic.Int32
	router := newRouter(NewMemoryStore(), &calls, http.StatusAccepted)

	post(router, "u1", "key-1", `{"amount":"1"}`)
	w := post(router, "u1", "key-1", `{"amount":"2"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_KEY_CONFLICT")
	assert.Equal(t, int32(1), calls.Load())
}

func TestMiddleware_ScopedPerUser(t *testing.T) {
	var calls atomic.Int32
	router := newRouter(NewMemoryStore(), &calls, http.StatusOK)

	post(router, "u1", "shared", `{}`)
	post(router, "u2", "shared", `{}`)

	assert.Equal(t, int32(2), calls.Load())
}

func TestMiddleware_WithoutKeyAlwaysRuns(t *testing.T) {
	var calls atomic.Int32
	router := newRouter(NewMemoryStore(), &calls, http.StatusOK)

	post(router, "u1", "", `{}`)
	post(router, "u1", "", `{}`)

	assert.Equal(t, int32(2), calls.Load())
}

func TestMiddleware_ServerErrorsAreNotStored(t *testing.T) {
	var calls atomic.Int32
	router := newRouter(NewMemoryStore(), &calls, http.StatusBadGateway)

	post(router, "u1", "key-1", `{}`)
	post(router, "u1", "key-1", `{}`)

	assert.Equal(t, int32(2), calls.Load())
}

func TestMiddleware_RejectsInvalidKey(t *testing.T) {
	var calls atomic.Int32
	router := newRouter(NewMemoryStore(), &calls, http.StatusOK)

	w := post(router, "u1", "has space", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int32(0), calls.Load())
}

func TestMemoryStore_Expires(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	require.NoError(t, store.Put(context.Background(), "k", &Record{ResponseStatus: 200}, time.Minute))
	rec, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, rec)

	current = current.Add(2 * time.Minute)
	rec, err = store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMiddleware_ConcurrentDuplicateRunsOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-User"))
		c.Next()
	})
	router.Use(Middleware(NewMemoryStore(), time.Hour, zap.NewNop()))
	router.POST("/withdrawals", func(c *gin.Context) {
		n := calls.Add(1)
		if n == 1 {
			close(entered)
			<-release
		}
		c.JSON(http.StatusAccepted, gin.H{"call": n})
	})

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		firstDone <- post(router, "u1", "key-1", `{"amount":"1"}`)
	}()
	<-entered

	duplicate := post(router, "u1", "key-1", `{"amount":"1"}`)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
	assert.Contains(t, duplicate.Body.String(), "IDEMPOTENCY_KEY_IN_PROGRESS")

	close(release)
	first := <-firstDone
	assert.Equal(t, http.StatusAccepted, first.Code)

	replay := post(router, "u1", "key-1", `{"amount":"1"}`)
	assert.Equal(t, http.StatusAccepted, replay.Code)
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, "true", replay.Header().Get(HeaderReplayed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestMiddleware_ServerErrorReleasesKey(t *testing.T) {
	store := NewMemoryStore()
	var calls atomic.Int32
	router := newRouter(store, &calls, http.StatusServiceUnavailable)

	post(router, "u1", "key-1", `{}`)

	rec, err := store.Get(context.Background(), "u1:key-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_ReserveIsExclusive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	pending := &Record{RequestHash: "h"}

	ok, err := store.Reserve(ctx, "k", pending, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "k", pending, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	rec, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Pending())

	require.NoError(t, store.Release(ctx, "k"))
	ok, err = store.Reserve(ctx, "k", pending, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_ExpiredReservationCanBeRetaken(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k", &Record{}, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	current = current.Add(2 * time.Minute)
	ok, err = store.Reserve(ctx, "k", &Record{}, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
