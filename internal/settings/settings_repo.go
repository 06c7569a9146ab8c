package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=settings_repo.go -destination=mock/settings_repo_mock.go -package=mock
type Repository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*WorkSettings, error)
	Create(ctx context.Context, ws *WorkSettings) error
	CreateMinimal(ctx context.Context, userID uuid.UUID) error
	Upsert(ctx context.Context, ws *WorkSettings) error
	UpsertMinimal(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) (*WorkSettings, error) {
	var ws WorkSettings
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&ws).Error
	return &ws, err
}

func (r *repository) Create(ctx context.Context, ws *WorkSettings) error {
	return r.db.WithContext(ctx).Create(ws).Error
}

// CreateMinimal inserts only user_id and timestamps. Used when the full
// insert is rejected, e.g. by a store whose schema lacks optional columns.
func (r *repository) CreateMinimal(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	ws := &WorkSettings{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Select("ID", "UserID", "CreatedAt", "UpdatedAt").
		Create(ws).Error
}

func (r *repository) Upsert(ctx context.Context, ws *WorkSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(ws).Error
}

func (r *repository) UpsertMinimal(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	ws := &WorkSettings{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Select("ID", "UserID", "CreatedAt", "UpdatedAt").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"updated_at": now,
			}),
		}).
		Create(ws).Error
}
