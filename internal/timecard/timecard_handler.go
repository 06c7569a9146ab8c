package timecard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/julikubo/timesupa/internal/middleware"
	"github.com/julikubo/timesupa/internal/shared/apperror"
	"github.com/julikubo/timesupa/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// finishIdempotent releases the idempotency lock and caches the status and
// envelope so a retried request with the same key replays the original
// response instead of re-executing.
func (h *Handler) finishIdempotent(c *gin.Context, status int, data any) {
	if h.rdb == nil {
		return
	}
	lockKey := c.GetString("idempotency_lock_key")
	cacheKey := c.GetString("idempotency_cache_key")
	if lockKey == "" || cacheKey == "" {
		return
	}

	h.rdb.Del(c.Request.Context(), lockKey)
	cached := middleware.CachedResponse{
		Status:   status,
		Envelope: response.ApiEnvelope{Ok: true, Data: data},
	}
	if body, err := json.Marshal(cached); err == nil {
		h.rdb.Set(c.Request.Context(), cacheKey, body, 24*time.Hour)
	}
}

func (h *Handler) releaseIdempotencyLock(c *gin.Context) {
	if h.rdb == nil {
		return
	}
	if lockKey := c.GetString("idempotency_lock_key"); lockKey != "" {
		h.rdb.Del(c.Request.Context(), lockKey)
	}
}

func (h *Handler) Current(c *gin.Context) {
	userID := c.GetString("user_id_validated")

	resp, err := h.service.CurrentRecord(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ClockIn(c *gin.Context) {
	userID := c.GetString("user_id_validated")

	resp, err := h.service.ClockIn(c.Request.Context(), userID)
	if err != nil {
		h.releaseIdempotencyLock(c)
		writeServiceError(c, err)
		return
	}
	h.finishIdempotent(c, http.StatusCreated, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) ClockOut(c *gin.Context) {
	userID := c.GetString("user_id_validated")

	// Body is optional on clock out; an empty request just closes the shift.
	var req ClockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.releaseIdempotencyLock(c)
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.ClockOut(c.Request.Context(), userID, req)
	if err != nil {
		h.releaseIdempotencyLock(c)
		writeServiceError(c, err)
		return
	}
	h.finishIdempotent(c, http.StatusOK, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) SaveManual(c *gin.Context) {
	userID := c.GetString("user_id_validated")

	var req ManualRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.SaveManual(c.Request.Context(), userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	userID := c.GetString("user_id_validated")
	id := c.Param("id")

	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.UpdateRecord(c.Request.Context(), userID, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	userID := c.GetString("user_id_validated")
	id := c.Param("id")

	if err := h.service.DeleteRecord(c.Request.Context(), userID, id); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func parseDateRange(c *gin.Context) (from, to *time.Time) {
	if raw := c.Query("start_date"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			from = &d
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			to = &d
		}
	}
	return from, to
}

func (h *Handler) List(c *gin.Context) {
	userID := c.GetString("user_id_validated")
	from, to := parseDateRange(c)

	rows, err := h.service.Records(c.Request.Context(), userID, from, to)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "31"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 31
	}

	total := len(rows)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	meta := response.NewPaginationMeta(int64(total), page, limit)
	response.Success(c, http.StatusOK, rows[start:end], &meta)
}

func (h *Handler) Statistics(c *gin.Context) {
	userID := c.GetString("user_id_validated")
	from, to := parseDateRange(c)

	resp, err := h.service.Statistics(c.Request.Context(), userID, from, to)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
