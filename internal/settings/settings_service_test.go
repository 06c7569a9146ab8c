package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/julikubo/timesupa/internal/settings"
	settingserrors "github.com/julikubo/timesupa/internal/settings/errors"
	"github.com/julikubo/timesupa/internal/settings/mock"
	"github.com/julikubo/timesupa/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }
func strPtr(v string) *string       { return &v }

func storedSettings(uid uuid.UUID) *settings.WorkSettings {
	return &settings.WorkSettings{
		ID:           uuid.New(),
		UserID:       uid,
		DailyHours:   8,
		LunchMinutes: 60,
		BreakCount:   0,
		BreakMinutes: 15,
		HourlyRate:   20,
		OvertimeRate: 25,
	}
}

func TestLoad_ReturnsStoredRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)

	svc := settings.NewService(repo, settings.NewMemoryCache())
	ws, err := svc.Load(context.Background(), uid.String())

	require.NoError(t, err)
	assert.Equal(t, 8.0, ws.DailyHours)
	assert.Equal(t, uid, ws.UserID)
}

func TestLoad_EmptyUserIDUnauthorized(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)

	svc := settings.NewService(repo, settings.NewMemoryCache())
	_, err := svc.Load(context.Background(), "")

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLoad_MalformedUserID(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)

	svc := settings.NewService(repo, settings.NewMemoryCache())
	_, err := svc.Load(context.Background(), "not-a-uuid")

	assert.ErrorIs(t, err, settingserrors.ErrInvalidUserID)
}

func TestLoad_FirstAccessCreatesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(nil, gorm.ErrRecordNotFound)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	svc := settings.NewService(repo, settings.NewMemoryCache())
	ws, err := svc.Load(context.Background(), uid.String())

	require.NoError(t, err)
	assert.Equal(t, settings.DefaultDailyHours, ws.DailyHours)
	assert.Equal(t, settings.DefaultLunchMinutes, ws.LunchMinutes)
	assert.Equal(t, settings.DefaultOvertimeRate, ws.OvertimeRate)
}

func TestLoad_FullInsertRejectedFallsBackToMinimal(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()
	schemaErr := &pgconn.PgError{Code: "42703", Message: `column "work_start" does not exist`}

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(nil, gorm.ErrRecordNotFound)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(schemaErr)
	repo.EXPECT().CreateMinimal(gomock.Any(), uid).Return(nil)
	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)

	svc := settings.NewService(repo, settings.NewMemoryCache())
	ws, err := svc.Load(context.Background(), uid.String())

	require.NoError(t, err)
	assert.Equal(t, uid, ws.UserID)
}

func TestLoad_BothInsertsRejectedIsStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(nil, gorm.ErrRecordNotFound)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("rejected"))
	repo.EXPECT().CreateMinimal(gomock.Any(), uid).Return(errors.New("rejected again"))

	svc := settings.NewService(repo, settings.NewMemoryCache())
	_, err := svc.Load(context.Background(), uid.String())

	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeStoreError, appErr.Code)
}

func TestLoad_CachedOverlayWinsOverStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()
	cache := settings.NewMemoryCache()
	cache.Set(context.Background(), settings.CacheKey(uid.String()),
		[]byte(`{"daily_hours":6,"company_name":"Acme"}`))

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)

	svc := settings.NewService(repo, cache)
	ws, err := svc.Load(context.Background(), uid.String())

	require.NoError(t, err)
	assert.Equal(t, 6.0, ws.DailyHours)
	require.NotNil(t, ws.CompanyName)
	assert.Equal(t, "Acme", *ws.CompanyName)
	// Untouched fields come from the stored row.
	assert.Equal(t, 60, ws.LunchMinutes)
}

func TestLoad_MalformedOverlayIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()
	cache := settings.NewMemoryCache()
	cache.Set(context.Background(), settings.CacheKey(uid.String()), []byte("{not json"))

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)

	svc := settings.NewService(repo, cache)
	ws, err := svc.Load(context.Background(), uid.String())

	require.NoError(t, err)
	assert.Equal(t, 8.0, ws.DailyHours)
}

func TestSave_UpsertsAndCachesOverlay(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()
	cache := settings.NewMemoryCache()

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)
	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ws *settings.WorkSettings) error {
			assert.Equal(t, 7.5, ws.DailyHours)
			assert.Equal(t, 30, ws.LunchMinutes)
			return nil
		})

	svc := settings.NewService(repo, cache)
	resp, err := svc.Save(context.Background(), uid.String(), settings.SaveSettingsRequest{
		DailyHours:   float64Ptr(7.5),
		LunchMinutes: intPtr(30),
	})

	require.NoError(t, err)
	assert.Equal(t, 7.5, resp.DailyHours)

	_, ok := cache.Get(context.Background(), settings.CacheKey(uid.String()))
	assert.True(t, ok, "overlay must be cached after save")
}

func TestSave_FullUpsertRejectedFallsBackToMinimal(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()
	cache := settings.NewMemoryCache()
	schemaErr := &pgconn.PgError{Code: "42703"}

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)
	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(schemaErr)
	repo.EXPECT().UpsertMinimal(gomock.Any(), uid).Return(nil)
	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)

	svc := settings.NewService(repo, cache)
	resp, err := svc.Save(context.Background(), uid.String(), settings.SaveSettingsRequest{
		CompanyName: strPtr("Acme"),
	})

	require.NoError(t, err)
	// The rejected field still comes back, carried by the overlay.
	require.NotNil(t, resp.CompanyName)
	assert.Equal(t, "Acme", *resp.CompanyName)

	_, ok := cache.Get(context.Background(), settings.CacheKey(uid.String()))
	assert.True(t, ok)
}

func TestSave_BothUpsertsRejectedIsStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)
	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(errors.New("rejected"))
	repo.EXPECT().UpsertMinimal(gomock.Any(), uid).Return(errors.New("rejected again"))

	svc := settings.NewService(repo, settings.NewMemoryCache())
	_, err := svc.Save(context.Background(), uid.String(), settings.SaveSettingsRequest{
		DailyHours: float64Ptr(6),
	})

	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeStoreError, appErr.Code)
}

func TestEnsureDefaults_NoopWhenRowExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(storedSettings(uid), nil)

	svc := settings.NewService(repo, settings.NewMemoryCache())
	err := svc.EnsureDefaults(context.Background(), uid.String())

	assert.NoError(t, err)
}

func TestEnsureDefaults_CreatesWhenMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRepository(ctrl)
	uid := uuid.New()

	repo.EXPECT().FindByUser(gomock.Any(), uid).Return(nil, gorm.ErrRecordNotFound)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	svc := settings.NewService(repo, settings.NewMemoryCache())
	err := svc.EnsureDefaults(context.Background(), uid.String())

	assert.NoError(t, err)
}
