package timecard

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gdb, mock
}

func TestNotesColumnRejected(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "undefined column",
			err:  &pgconn.PgError{Code: "42703", Message: `column "notes" of relation "time_records" does not exist`},
			want: true,
		},
		{
			name: "other postgres error",
			err:  &pgconn.PgError{Code: "23505", Message: "duplicate key value"},
			want: false,
		},
		{
			name: "record not found",
			err:  gorm.ErrRecordNotFound,
			want: false,
		},
		{
			name: "no diagnostic at all",
			err:  errors.New("write rejected"),
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, notesColumnRejected(tc.err))
		})
	}
}

func TestCreate_RetriesWithoutNotesOnUndefinedColumn(t *testing.T) {
	gdb, mock := newGormMock(t)
	repo := NewRepository(gdb)

	notes := "late start"
	rec := &TimeRecord{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		ClockIn: "08:00:00",
		Status:  StatusWorking,
		Notes:   &notes,
	}

	mock.ExpectQuery(`INSERT INTO "time_records"`).
		WillReturnError(&pgconn.PgError{Code: "42703", Message: `column "notes" of relation "time_records" does not exist`})
	mock.ExpectQuery(`INSERT INTO "time_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.Create(context.Background(), rec)

	assert.NoError(t, err)
	assert.Nil(t, rec.Notes, "note must be dropped after the fallback insert")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_WithoutNotesNoRetry(t *testing.T) {
	gdb, mock := newGormMock(t)
	repo := NewRepository(gdb)

	rec := &TimeRecord{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		ClockIn: "08:00:00",
		Status:  StatusWorking,
	}

	mock.ExpectQuery(`INSERT INTO "time_records"`).
		WillReturnError(&pgconn.PgError{Code: "42703"})

	err := repo.Create(context.Background(), rec)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "a noteless insert must not be retried")
}

func TestInsertWithNotesFallback_RetryFailureSurfaces(t *testing.T) {
	calls := 0
	second := errors.New("still broken")

	err := insertWithNotesFallback(true, func(omitNotes bool) error {
		calls++
		if calls == 1 {
			assert.False(t, omitNotes)
			return &pgconn.PgError{Code: "42703"}
		}
		assert.True(t, omitNotes)
		return second
	})

	// The fallback insert is never itself retried.
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, second)
}

func TestInsertWithNotesFallback_OtherErrorsSurfaceUnchanged(t *testing.T) {
	calls := 0
	wantErr := &pgconn.PgError{Code: "23505"}

	err := insertWithNotesFallback(true, func(omitNotes bool) error {
		calls++
		return wantErr
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, wantErr)
}

func TestWriteWithNotesFallback_RetriesOnceWithoutNotes(t *testing.T) {
	payload := map[string]any{"status": StatusCompleted, "notes": "late start"}
	var attempts []map[string]any

	err := writeWithNotesFallback(payload, func(p map[string]any) error {
		attempts = append(attempts, p)
		if len(attempts) == 1 {
			return &pgconn.PgError{Code: "42703"}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Len(t, attempts, 2)
	assert.Contains(t, attempts[0], "notes")
	assert.NotContains(t, attempts[1], "notes")
	assert.Equal(t, StatusCompleted, attempts[1]["status"])
}

func TestWriteWithNotesFallback_NoNotesNoRetry(t *testing.T) {
	payload := map[string]any{"status": StatusCompleted}
	calls := 0
	wantErr := &pgconn.PgError{Code: "42703"}

	err := writeWithNotesFallback(payload, func(map[string]any) error {
		calls++
		return wantErr
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, wantErr)
}

func TestWriteWithNotesFallback_NotFoundNeverRetried(t *testing.T) {
	payload := map[string]any{"notes": "x"}
	calls := 0

	err := writeWithNotesFallback(payload, func(map[string]any) error {
		calls++
		return gorm.ErrRecordNotFound
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWriteWithNotesFallback_RetryFailureSurfaces(t *testing.T) {
	payload := map[string]any{"notes": "x"}
	calls := 0
	second := errors.New("still broken")

	err := writeWithNotesFallback(payload, func(map[string]any) error {
		calls++
		if calls == 1 {
			return errors.New("no diagnostic")
		}
		return second
	})

	// The fallback write is never itself retried.
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, second)
}

func TestWriteWithNotesFallback_SuccessFirstTry(t *testing.T) {
	payload := map[string]any{"notes": "kept"}
	calls := 0

	err := writeWithNotesFallback(payload, func(p map[string]any) error {
		calls++
		assert.Contains(t, p, "notes")
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}
