package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	settingserrors "github.com/julikubo/timesupa/internal/settings/errors"
	"github.com/julikubo/timesupa/internal/shared/apperror"
	"github.com/julikubo/timesupa/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

//go:generate mockgen -source=settings_service.go -destination=mock/settings_service_mock.go -package=mock
type Service interface {
	// Load returns the user's work settings with the cached overlay applied,
	// creating a default row on first access.
	Load(ctx context.Context, userID string) (WorkSettings, error)
	Get(ctx context.Context, userID string) (SettingsResponse, error)
	Save(ctx context.Context, userID string, req SaveSettingsRequest) (SettingsResponse, error)
	// EnsureDefaults creates the default row if none exists. Used by the
	// registration consumer; a no-op when the row is already there.
	EnsureDefaults(ctx context.Context, userID string) error
}

type service struct {
	repo   Repository
	cache  Cache
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, cache Cache, logger ...*zap.Logger) Service {
	l := zap.L().Named("settings.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("settings.service")
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &service{
		repo:   repo,
		cache:  cache,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Load(ctx context.Context, userID string) (WorkSettings, error) {
	if userID == "" {
		return WorkSettings{}, apperror.ErrUnauthorized
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return WorkSettings{}, settingserrors.ErrInvalidUserID
	}

	v, err, _ := s.sf.Do("settings:load:"+userID, func() (interface{}, error) {
		ws, err := s.repo.FindByUser(ctx, uid)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			ws, err = s.createDefaults(ctx, uid)
			if err != nil {
				return nil, err
			}
		}

		merged := *ws
		s.applyCachedOverlay(ctx, userID, &merged)
		return merged, nil
	})
	if err != nil {
		return WorkSettings{}, err
	}

	return v.(WorkSettings), nil
}

func (s *service) Get(ctx context.Context, userID string) (SettingsResponse, error) {
	ws, err := s.Load(ctx, userID)
	if err != nil {
		return SettingsResponse{}, err
	}
	return mapToResponse(ws), nil
}

func (s *service) Save(ctx context.Context, userID string, req SaveSettingsRequest) (SettingsResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	if userID == "" {
		return SettingsResponse{}, apperror.ErrUnauthorized
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return SettingsResponse{}, settingserrors.ErrInvalidUserID
	}

	base, err := s.repo.FindByUser(ctx, uid)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return SettingsResponse{}, err
		}
		base = DefaultWorkSettings(uid)
	}

	ws := *base
	applyPatch(&ws, req)
	ws.UserID = uid
	ws.UpdatedAt = time.Now().UTC()

	if err := s.repo.Upsert(ctx, &ws); err != nil {
		s.logger.Warn("full settings upsert rejected, retrying minimal",
			zap.String("request_id", rid),
			zap.String("user_id", userID),
			zap.Error(err),
		)

		if err2 := s.repo.UpsertMinimal(ctx, uid); err2 != nil {
			s.logger.Error("minimal settings upsert rejected",
				zap.String("request_id", rid),
				zap.String("user_id", userID),
				zap.Error(err2),
			)
			return SettingsResponse{}, apperror.Wrap(
				err2,
				apperror.CodeStoreError,
				"The settings store rejected both the full and the minimal write",
				http.StatusBadGateway,
			)
		}

		// The minimal row lost the requested fields remotely; the cached
		// overlay below keeps them alive for this client.
		if refetched, ferr := s.repo.FindByUser(ctx, uid); ferr == nil {
			ws = *refetched
			applyPatch(&ws, req)
		}
	}

	// Cache the full requested patch, not the fallback payload, so
	// client-only fields survive a store that rejected them.
	s.saveOverlay(ctx, userID, req)

	s.logger.Info("work settings saved",
		zap.String("request_id", rid),
		zap.String("user_id", userID),
	)

	return mapToResponse(ws), nil
}

func (s *service) EnsureDefaults(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return settingserrors.ErrInvalidUserID
	}

	_, err = s.repo.FindByUser(ctx, uid)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	_, err = s.createDefaults(ctx, uid)
	return err
}

func (s *service) createDefaults(ctx context.Context, uid uuid.UUID) (*WorkSettings, error) {
	defaults := DefaultWorkSettings(uid)
	if err := s.repo.Create(ctx, defaults); err != nil {
		s.logger.Warn("default settings insert rejected, retrying minimal",
			zap.String("user_id", uid.String()),
			zap.Error(err),
		)

		if err2 := s.repo.CreateMinimal(ctx, uid); err2 != nil {
			return nil, apperror.Wrap(
				err2,
				apperror.CodeStoreError,
				"The settings store rejected both the full and the minimal write",
				http.StatusBadGateway,
			)
		}

		created, ferr := s.repo.FindByUser(ctx, uid)
		if ferr != nil {
			return nil, ferr
		}
		return created, nil
	}

	return defaults, nil
}

func (s *service) applyCachedOverlay(ctx context.Context, userID string, ws *WorkSettings) {
	raw, ok := s.cache.Get(ctx, CacheKey(userID))
	if !ok {
		return
	}

	var patch SaveSettingsRequest
	if err := json.Unmarshal(raw, &patch); err != nil {
		// Malformed cache content is treated as a miss.
		return
	}

	applyPatch(ws, patch)
}

func (s *service) saveOverlay(ctx context.Context, userID string, req SaveSettingsRequest) {
	payload, err := json.Marshal(req)
	if err != nil {
		return
	}
	s.cache.Set(ctx, CacheKey(userID), payload)
}

// applyPatch shallow-merges non-nil patch fields over ws, patch winning on
// overlapping keys.
func applyPatch(ws *WorkSettings, p SaveSettingsRequest) {
	if p.DailyHours != nil {
		ws.DailyHours = *p.DailyHours
	}
	if p.LunchMinutes != nil {
		ws.LunchMinutes = *p.LunchMinutes
	}
	if p.BreakCount != nil {
		ws.BreakCount = *p.BreakCount
	}
	if p.BreakMinutes != nil {
		ws.BreakMinutes = *p.BreakMinutes
	}
	if p.HourlyRate != nil {
		ws.HourlyRate = *p.HourlyRate
	}
	if p.OvertimeRate != nil {
		ws.OvertimeRate = *p.OvertimeRate
	}
	if p.CompanyName != nil {
		ws.CompanyName = p.CompanyName
	}
	if p.StartDate != nil {
		if d, err := time.Parse("2006-01-02", *p.StartDate); err == nil {
			ws.StartDate = &d
		}
	}
	if p.EndDate != nil {
		if d, err := time.Parse("2006-01-02", *p.EndDate); err == nil {
			ws.EndDate = &d
		}
	}
	if p.WorkStart != nil {
		ws.WorkStart = p.WorkStart
	}
	if p.WorkEnd != nil {
		ws.WorkEnd = p.WorkEnd
	}
}
