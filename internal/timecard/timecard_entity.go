package timecard

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusWorking   = "working"
	StatusCompleted = "completed"
)

// TimeRecord is one clock-in/clock-out pair for a user on a calendar date.
// ClockOut and TotalHours are set iff the record is completed; a working
// record has neither.
type TimeRecord struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Date       time.Time `gorm:"column:date;type:date;not null;index"`
	ClockIn    string    `gorm:"column:clock_in;type:time;not null"`
	ClockOut   *string   `gorm:"column:clock_out;type:time"`
	TotalHours *float64  `gorm:"column:total_hours"`
	Status     string    `gorm:"column:status;type:varchar(20);not null;default:working"`
	Notes      *string   `gorm:"column:notes;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (TimeRecord) TableName() string {
	return "time_records"
}

// IsOpen reports whether the record is still waiting for a clock-out.
func (r *TimeRecord) IsOpen() bool {
	return r.ClockIn != "" && r.ClockOut == nil
}
