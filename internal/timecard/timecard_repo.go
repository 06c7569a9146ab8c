package timecard

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

//go:generate mockgen -source=timecard_repo.go -destination=mock/timecard_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, rec *TimeRecord) error
	FindLatestByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*TimeRecord, error)
	FindByIDAndUser(ctx context.Context, userID, id uuid.UUID) (*TimeRecord, error)
	FindAllByUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]TimeRecord, error)
	Update(ctx context.Context, userID, id uuid.UUID, payload map[string]any) error
	Delete(ctx context.Context, userID, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// Create inserts a record, retrying once without the optional notes column
// when the store rejects it for lacking that column. The note is dropped
// silently in that case; on success rec reflects what was persisted.
func (r *repository) Create(ctx context.Context, rec *TimeRecord) error {
	return insertWithNotesFallback(rec.Notes != nil, func(omitNotes bool) error {
		if !omitNotes {
			return r.db.WithContext(ctx).Create(rec).Error
		}

		retry := *rec
		retry.Notes = nil
		if err := r.db.WithContext(ctx).Omit("notes").Create(&retry).Error; err != nil {
			return err
		}
		*rec = retry
		return nil
	})
}

func (r *repository) FindLatestByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*TimeRecord, error) {
	var rec TimeRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("date = ?", date.Format("2006-01-02")).
		Order("created_at DESC").
		First(&rec).Error
	return &rec, err
}

func (r *repository) FindByIDAndUser(ctx context.Context, userID, id uuid.UUID) (*TimeRecord, error) {
	var rec TimeRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		First(&rec).Error
	return &rec, err
}

func (r *repository) FindAllByUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]TimeRecord, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC")

	if from != nil {
		q = q.Where("date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		q = q.Where("date <= ?", to.Format("2006-01-02"))
	}

	var rows []TimeRecord
	err := q.Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, userID, id uuid.UUID, payload map[string]any) error {
	return writeWithNotesFallback(payload, func(p map[string]any) error {
		res := r.db.WithContext(ctx).
			Model(&TimeRecord{}).
			Where("id = ?", id).
			Where("user_id = ?", userID).
			Updates(p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *repository) Delete(ctx context.Context, userID, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Delete(&TimeRecord{})
	return res.RowsAffected, res.Error
}

// insertWithNotesFallback is the insert side of the schema-fallback policy:
// a rejected insert that carried the optional notes field is retried exactly
// once with notes omitted. Any other failure is surfaced unchanged, and the
// retry itself is never retried.
func insertWithNotesFallback(hasNotes bool, insert func(omitNotes bool) error) error {
	err := insert(false)
	if err == nil || !hasNotes || !notesColumnRejected(err) {
		return err
	}
	return insert(true)
}

// writeWithNotesFallback is the update side of the same policy: a rejected
// write whose payload carried the optional notes field is retried exactly
// once with notes stripped. Any other failure is surfaced unchanged, and the
// retry itself is never retried.
func writeWithNotesFallback(payload map[string]any, write func(map[string]any) error) error {
	err := write(payload)
	if err == nil {
		return nil
	}
	if _, hasNotes := payload["notes"]; !hasNotes {
		return err
	}
	if !notesColumnRejected(err) {
		return err
	}

	stripped := make(map[string]any, len(payload))
	for k, v := range payload {
		if k != "notes" {
			stripped[k] = v
		}
	}
	return write(stripped)
}

// notesColumnRejected reports whether a failed write is plausibly the store
// missing the optional notes column: an undefined-column Postgres error, or
// a rejection that carries no usable diagnostic at all. Row-not-found is
// never a schema problem.
func notesColumnRejected(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42703"
	}
	return true
}
