package timecard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/julikubo/timesupa/internal/settings"
)

const minutesPerDay = 24 * 60

// CalculationResult is the derived breakdown of one clock-in/clock-out pair.
// It is never persisted as its own entity.
type CalculationResult struct {
	TotalHours  float64
	NormalHours float64
	ExtraHours  float64
	NormalValue float64
	ExtraValue  float64
}

// NormalizeClock coerces a time-of-day string to HH:MM:SS. Partial values
// ("8:30") are padded, anything unusable becomes "00:00:00". Malformed input
// is clamped, not rejected; callers validate format upstream.
func NormalizeClock(t string) string {
	if t == "" {
		return "00:00:00"
	}
	parts := strings.Split(t, ":")
	switch {
	case len(parts) == 2:
		return fmt.Sprintf("%02d:%02d:00", clockPart(parts[0]), clockPart(parts[1]))
	case len(parts) >= 3:
		return fmt.Sprintf("%02d:%02d:%02d", clockPart(parts[0]), clockPart(parts[1]), clockPart(parts[2]))
	default:
		return "00:00:00"
	}
}

func clockPart(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatClock renders a wall-clock instant as HH:MM:SS.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

func clockToMinutes(t string) int {
	parts := strings.Split(NormalizeClock(t), ":")
	return clockPart(parts[0])*60 + clockPart(parts[1])
}

// Calculate converts a clock-in/clock-out pair plus work settings into worked
// and overtime hours and their monetary value. Pure: identical inputs always
// produce identical results, and it never fails.
//
// A negative raw duration means the shift crossed midnight and is wrapped
// forward by one day rather than treated as an error. On Sundays and holidays
// every considered minute counts as overtime.
func Calculate(clockIn, clockOut string, ws settings.WorkSettings, isSunday, isHoliday bool) CalculationResult {
	rawMinutes := clockToMinutes(clockOut) - clockToMinutes(clockIn)
	if rawMinutes < 0 {
		rawMinutes += minutesPerDay
	}

	discountMinutes := ws.LunchMinutes + ws.BreakCount*ws.BreakMinutes
	consideredMinutes := rawMinutes - discountMinutes
	if consideredMinutes < 0 {
		consideredMinutes = 0
	}

	totalHours := float64(consideredMinutes) / 60

	var normalHours, extraHours float64
	if isSunday || isHoliday {
		extraHours = totalHours
	} else {
		normalHours = math.Min(ws.DailyHours, totalHours)
		extraHours = math.Max(0, totalHours-ws.DailyHours)
	}

	return CalculationResult{
		TotalHours:  totalHours,
		NormalHours: normalHours,
		ExtraHours:  extraHours,
		NormalValue: normalHours * ws.HourlyRate,
		ExtraValue:  extraHours * ws.HourlyRate * (1 + ws.OvertimeRate/100),
	}
}

// FormatHours renders decimal hours as "H:MM" for display.
func FormatHours(hours float64) string {
	totalMinutes := int(math.Round(hours * 60))
	return fmt.Sprintf("%d:%02d", totalMinutes/60, totalMinutes%60)
}
