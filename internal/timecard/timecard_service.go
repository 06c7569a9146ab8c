package timecard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/julikubo/timesupa/internal/events"
	"github.com/julikubo/timesupa/internal/messaging/kafka"
	"github.com/julikubo/timesupa/internal/settings"
	"github.com/julikubo/timesupa/internal/shared/contextutil"
	timecarderrors "github.com/julikubo/timesupa/internal/timecard/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=timecard_service.go -destination=mock/timecard_service_mock.go -package=mock
type Service interface {
	// CurrentRecord returns today's open record, or nil when no record exists
	// for today or the latest one is already completed.
	CurrentRecord(ctx context.Context, userID string) (*TimeRecordResponse, error)
	ClockIn(ctx context.Context, userID string) (TimeRecordResponse, error)
	ClockOut(ctx context.Context, userID string, req ClockOutRequest) (TimeRecordResponse, error)
	SaveManual(ctx context.Context, userID string, req ManualRecordRequest) (ManualRecordResponse, error)
	UpdateRecord(ctx context.Context, userID, id string, req UpdateRecordRequest) (TimeRecordResponse, error)
	DeleteRecord(ctx context.Context, userID, id string) error
	Records(ctx context.Context, userID string, from, to *time.Time) ([]TimeRecordResponse, error)
	Statistics(ctx context.Context, userID string, from, to *time.Time) (StatisticsResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	settings settings.Service
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, settingsService settings.Service, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, settingsService, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	settingsService settings.Service,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("timecard.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("timecard.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		settings: settingsService,
		outbox:   outboxRepo,
		logger:   l,
	}
}

// localToday is the calendar date of the client-facing "today". Records key
// on the local day, not the UTC one, so a late evening clock-in stays on the
// right date.
func localToday(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) CurrentRecord(ctx context.Context, userID string) (*TimeRecordResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, timecarderrors.ErrInvalidUserID
	}

	rec, err := s.repo.FindLatestByUserAndDate(ctx, uid, localToday(time.Now()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !rec.IsOpen() {
		return nil, nil
	}

	resp := mapToResponse(*rec)
	return &resp, nil
}

func (s *service) ClockIn(ctx context.Context, userID string) (TimeRecordResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	uid, err := uuid.Parse(userID)
	if err != nil {
		return TimeRecordResponse{}, timecarderrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TimeRecordResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := time.Now()
	today := localToday(now)

	existing, err := qtx.FindLatestByUserAndDate(ctx, uid, today)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return TimeRecordResponse{}, err
	}
	if err == nil && existing.IsOpen() {
		return TimeRecordResponse{}, timecarderrors.ErrAlreadyWorking
	}

	rec := &TimeRecord{
		ID:      uuid.New(),
		UserID:  uid,
		Date:    today,
		ClockIn: FormatClock(now),
		Status:  StatusWorking,
	}

	if err := qtx.Create(ctx, rec); err != nil {
		s.logger.Error("clock in persist failed", zap.String("request_id", rid), zap.Error(err))
		return TimeRecordResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return TimeRecordResponse{}, err
	}

	s.logger.Info("clock in registered",
		zap.String("request_id", rid),
		zap.String("record_id", rec.ID.String()),
		zap.String("clock_in", rec.ClockIn),
	)
	return mapToResponse(*rec), nil
}

func (s *service) ClockOut(ctx context.Context, userID string, req ClockOutRequest) (TimeRecordResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	uid, err := uuid.Parse(userID)
	if err != nil {
		return TimeRecordResponse{}, timecarderrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TimeRecordResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := time.Now()
	today := localToday(now)

	cur, err := qtx.FindLatestByUserAndDate(ctx, uid, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimeRecordResponse{}, timecarderrors.ErrNoOpenRecord
		}
		return TimeRecordResponse{}, err
	}
	if cur.ClockIn == "" {
		return TimeRecordResponse{}, timecarderrors.ErrNoOpenRecord
	}
	if cur.ClockOut != nil {
		return TimeRecordResponse{}, timecarderrors.ErrAlreadyClosed
	}

	ws, err := s.settings.Load(ctx, userID)
	if err != nil {
		return TimeRecordResponse{}, err
	}

	outClock := FormatClock(now)
	isSunday := cur.Date.Weekday() == time.Sunday
	calc := Calculate(cur.ClockIn, outClock, ws, isSunday, false)

	payload := map[string]any{
		"clock_out":   outClock,
		"total_hours": calc.TotalHours,
		"status":      StatusCompleted,
		"updated_at":  now.UTC(),
	}
	if req.Notes != nil {
		payload["notes"] = *req.Notes
	}

	// The record update runs on the gorm connection and commits on its own,
	// while only the outbox insert rides tx. An outbox failure after this
	// point errors the call with the record already completed; a retry then
	// surfaces ErrAlreadyClosed without re-queueing the event.
	if err := qtx.Update(ctx, uid, cur.ID, payload); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimeRecordResponse{}, timecarderrors.ErrRecordNotFound
		}
		s.logger.Error("clock out persist failed", zap.String("request_id", rid), zap.Error(err))
		return TimeRecordResponse{}, err
	}

	if err := s.queueRecordCompleted(ctx, tx, rid, cur.ID, uid, cur.Date, calc.TotalHours); err != nil {
		return TimeRecordResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return TimeRecordResponse{}, err
	}

	cur.ClockOut = &outClock
	cur.TotalHours = &calc.TotalHours
	cur.Status = StatusCompleted
	if req.Notes != nil {
		cur.Notes = req.Notes
	}

	s.logger.Info("clock out registered",
		zap.String("request_id", rid),
		zap.String("record_id", cur.ID.String()),
		zap.Float64("total_hours", calc.TotalHours),
	)
	return mapToResponse(*cur), nil
}

func (s *service) SaveManual(ctx context.Context, userID string, req ManualRecordRequest) (ManualRecordResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ManualRecordResponse{}, timecarderrors.ErrInvalidUserID
	}

	// Settings must be loaded before calculating; this also creates the
	// default row on a user's very first action.
	ws, err := s.settings.Load(ctx, userID)
	if err != nil {
		return ManualRecordResponse{}, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return ManualRecordResponse{}, timecarderrors.ErrInvalidDate
	}

	clockIn := NormalizeClock(req.ClockIn)
	clockOut := NormalizeClock(req.ClockOut)
	calc := Calculate(clockIn, clockOut, ws, req.IsSunday, req.IsHoliday)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ManualRecordResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	totalHours := calc.TotalHours
	rec := &TimeRecord{
		ID:         uuid.New(),
		UserID:     uid,
		Date:       date,
		ClockIn:    clockIn,
		ClockOut:   &clockOut,
		TotalHours: &totalHours,
		Status:     StatusCompleted,
		Notes:      req.Notes,
	}

	if err := qtx.Create(ctx, rec); err != nil {
		s.logger.Error("manual record persist failed", zap.String("request_id", rid), zap.Error(err))
		return ManualRecordResponse{}, err
	}

	if err := s.queueRecordCompleted(ctx, tx, rid, rec.ID, uid, rec.Date, calc.TotalHours); err != nil {
		return ManualRecordResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return ManualRecordResponse{}, err
	}

	s.logger.Info("manual record saved",
		zap.String("request_id", rid),
		zap.String("record_id", rec.ID.String()),
		zap.String("date", req.Date),
	)
	return ManualRecordResponse{
		Record: mapToResponse(*rec),
		Calc:   mapToCalcResponse(calc),
	}, nil
}

func (s *service) UpdateRecord(ctx context.Context, userID, id string, req UpdateRecordRequest) (TimeRecordResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	uid, err := uuid.Parse(userID)
	if err != nil {
		return TimeRecordResponse{}, timecarderrors.ErrInvalidUserID
	}
	recID, err := uuid.Parse(id)
	if err != nil {
		return TimeRecordResponse{}, timecarderrors.ErrRecordNotFound
	}

	existing, err := s.repo.FindByIDAndUser(ctx, uid, recID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimeRecordResponse{}, timecarderrors.ErrRecordNotFound
		}
		return TimeRecordResponse{}, err
	}

	payload := map[string]any{}
	mergedClockIn := existing.ClockIn
	mergedClockOut := existing.ClockOut

	if req.Date != nil {
		if d, perr := time.Parse("2006-01-02", *req.Date); perr == nil {
			payload["date"] = d
		}
	}
	if req.ClockIn != nil {
		v := NormalizeClock(*req.ClockIn)
		payload["clock_in"] = v
		mergedClockIn = v
	}
	if req.ClockOut != nil {
		v := NormalizeClock(*req.ClockOut)
		payload["clock_out"] = v
		mergedClockOut = &v
	}
	if req.Notes != nil {
		payload["notes"] = *req.Notes
	}

	// With both ends of the shift known, the stored total is re-derived from
	// current settings rather than trusted from the client.
	if mergedClockIn != "" && mergedClockOut != nil {
		ws, err := s.settings.Load(ctx, userID)
		if err != nil {
			return TimeRecordResponse{}, err
		}
		calc := Calculate(mergedClockIn, *mergedClockOut, ws, false, false)
		payload["total_hours"] = calc.TotalHours
	}

	payload["updated_at"] = time.Now().UTC()

	if err := s.repo.Update(ctx, uid, recID, payload); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimeRecordResponse{}, timecarderrors.ErrRecordNotFound
		}
		s.logger.Error("update record persist failed", zap.String("request_id", rid), zap.Error(err))
		return TimeRecordResponse{}, err
	}

	updated, err := s.repo.FindByIDAndUser(ctx, uid, recID)
	if err != nil {
		return TimeRecordResponse{}, err
	}

	s.logger.Info("record updated",
		zap.String("request_id", rid),
		zap.String("record_id", id),
	)
	return mapToResponse(*updated), nil
}

func (s *service) DeleteRecord(ctx context.Context, userID, id string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return timecarderrors.ErrInvalidUserID
	}
	recID, err := uuid.Parse(id)
	if err != nil {
		return timecarderrors.ErrRecordNotFound
	}

	rows, err := s.repo.Delete(ctx, uid, recID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return timecarderrors.ErrRecordNotFound
	}

	s.logger.Info("record deleted",
		zap.String("user_id", userID),
		zap.String("record_id", id),
	)
	return nil
}

func (s *service) Records(ctx context.Context, userID string, from, to *time.Time) ([]TimeRecordResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, timecarderrors.ErrInvalidUserID
	}

	rows, err := s.repo.FindAllByUser(ctx, uid, from, to)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) Statistics(ctx context.Context, userID string, from, to *time.Time) (StatisticsResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return StatisticsResponse{}, timecarderrors.ErrInvalidUserID
	}

	rows, err := s.repo.FindAllByUser(ctx, uid, from, to)
	if err != nil {
		return StatisticsResponse{}, err
	}

	var totalHours float64
	for _, r := range rows {
		if r.TotalHours != nil {
			totalHours += *r.TotalHours
		}
	}

	// Overtime against the daily baseline is best-effort: without settings
	// the number stays at zero rather than failing the whole call.
	var overtimeHours float64
	if len(rows) > 0 {
		if ws, serr := s.settings.Load(ctx, userID); serr == nil {
			expected := float64(len(rows)) * ws.DailyHours
			overtimeHours = math.Max(0, totalHours-expected)
		}
	}

	return StatisticsResponse{
		TotalHours:     totalHours,
		OvertimeHours:  overtimeHours,
		RecordCount:    len(rows),
		HoursFormatted: FormatHours(totalHours),
	}, nil
}

func (s *service) queueRecordCompleted(
	ctx context.Context,
	tx *sql.Tx,
	requestID string,
	recordID, userID uuid.UUID,
	date time.Time,
	totalHours float64,
) error {
	if s.outbox == nil {
		return nil
	}

	event := events.RecordCompletedEvent{
		EventType:  "timecard_record_completed",
		RequestID:  requestID,
		RecordID:   recordID.String(),
		UserID:     userID.String(),
		Date:       date.Format("2006-01-02"),
		TotalHours: totalHours,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     requestID,
		AggregateType: "time_record",
		AggregateID:   recordID.String(),
		EventType:     event.EventType,
		Topic:         events.RecordCompletedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("record completed outbox persist failed",
			zap.String("record_id", recordID.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}
