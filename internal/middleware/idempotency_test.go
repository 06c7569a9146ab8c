package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julikubo/timesupa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotencyRouter(rdb *redis.Client, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/records/clock-in", func(c *gin.Context) {
		c.Set("user_id_validated", "user-1")
	}, Idempotency(rdb), handler)
	return r
}

func TestIdempotency_ReplaysCachedEnvelope(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	cached := CachedResponse{
		Status: http.StatusCreated,
		Envelope: response.ApiEnvelope{
			Ok:   true,
			Data: map[string]any{"id": "rec-1"},
		},
	}
	body, err := json.Marshal(cached)
	require.NoError(t, err)

	cacheKey := "idemp:/api/v1/records/clock-in:user-1:key-1"
	mock.ExpectGet(cacheKey).SetVal(string(body))

	handlerCalled := false
	r := newIdempotencyRouter(rdb, func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/clock-in", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusCreated, w.Code)

	var got response.ApiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Ok)
	assert.Equal(t, map[string]any{"id": "rec-1"}, got.Data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ConcurrentDuplicateIsRejected(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	cacheKey := "idemp:/api/v1/records/clock-in:user-1:key-2"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

	handlerCalled := false
	r := newIdempotencyRouter(rdb, func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/clock-in", nil)
	req.Header.Set("Idempotency-Key", "key-2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PROCESSING")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_FreshKeyRunsHandlerWithKeysSet(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	cacheKey := "idemp:/api/v1/records/clock-in:user-1:key-3"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)

	var gotCacheKey, gotLockKey string
	r := newIdempotencyRouter(rdb, func(c *gin.Context) {
		gotCacheKey = c.GetString("idempotency_cache_key")
		gotLockKey = c.GetString("idempotency_lock_key")
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/clock-in", nil)
	req.Header.Set("Idempotency-Key", "key-3")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, cacheKey, gotCacheKey)
	assert.Equal(t, cacheKey+":lock", gotLockKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_MalformedCacheIsAMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	cacheKey := "idemp:/api/v1/records/clock-in:user-1:key-4"
	mock.ExpectGet(cacheKey).SetVal("not json")
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)

	handlerCalled := false
	r := newIdempotencyRouter(rdb, func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/clock-in", nil)
	req.Header.Set("Idempotency-Key", "key-4")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	handlerCalled := false
	r := newIdempotencyRouter(rdb, func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/clock-in", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.NoError(t, mock.ExpectationsWereMet())
}
