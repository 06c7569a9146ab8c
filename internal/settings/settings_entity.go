package settings

import (
	"time"

	"github.com/google/uuid"
)

// WorkSettings holds the per-user work configuration. Exactly one row per
// user; the remote row is authoritative and a cached partial patch may be
// overlaid on top of it.
type WorkSettings struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	DailyHours   float64    `gorm:"column:daily_hours;not null;default:8"`
	LunchMinutes int        `gorm:"column:lunch_minutes;not null;default:60"`
	BreakCount   int        `gorm:"column:break_count;not null;default:0"`
	BreakMinutes int        `gorm:"column:break_minutes;not null;default:15"`
	HourlyRate   float64    `gorm:"column:hourly_rate;not null;default:0"`
	OvertimeRate float64    `gorm:"column:overtime_rate;not null;default:25"`
	CompanyName  *string    `gorm:"column:company_name;type:varchar(150)"`
	StartDate    *time.Time `gorm:"column:start_date;type:date"`
	EndDate      *time.Time `gorm:"column:end_date;type:date"`
	WorkStart    *string    `gorm:"column:work_start;type:time"`
	WorkEnd      *string    `gorm:"column:work_end;type:time"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (WorkSettings) TableName() string {
	return "work_settings"
}

const (
	DefaultDailyHours   = 8.0
	DefaultLunchMinutes = 60
	DefaultBreakCount   = 0
	DefaultBreakMinutes = 15
	DefaultOvertimeRate = 25.0
)

func DefaultWorkSettings(userID uuid.UUID) *WorkSettings {
	return &WorkSettings{
		ID:           uuid.New(),
		UserID:       userID,
		DailyHours:   DefaultDailyHours,
		LunchMinutes: DefaultLunchMinutes,
		BreakCount:   DefaultBreakCount,
		BreakMinutes: DefaultBreakMinutes,
		HourlyRate:   0,
		OvertimeRate: DefaultOvertimeRate,
	}
}
