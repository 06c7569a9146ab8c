package timecard

import "time"

type ClockOutRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
}

type ManualRecordRequest struct {
	Date      string  `json:"date" binding:"required,datetime=2006-01-02"`
	ClockIn   string  `json:"clock_in" binding:"required"`
	ClockOut  string  `json:"clock_out" binding:"required"`
	IsSunday  bool    `json:"is_sunday"`
	IsHoliday bool    `json:"is_holiday"`
	Notes     *string `json:"notes" binding:"omitempty,max=500"`
}

type UpdateRecordRequest struct {
	Date     *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	ClockIn  *string `json:"clock_in"`
	ClockOut *string `json:"clock_out"`
	Notes    *string `json:"notes" binding:"omitempty,max=500"`
}

type TimeRecordResponse struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	Date           string   `json:"date"`
	ClockIn        string   `json:"clock_in"`
	ClockOut       *string  `json:"clock_out,omitempty"`
	TotalHours     *float64 `json:"total_hours,omitempty"`
	HoursFormatted string   `json:"hours_formatted,omitempty"`
	Status         string   `json:"status"`
	Notes          *string  `json:"notes,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

type CalculationResponse struct {
	TotalHours     float64 `json:"total_hours"`
	NormalHours    float64 `json:"normal_hours"`
	ExtraHours     float64 `json:"extra_hours"`
	NormalValue    float64 `json:"normal_value"`
	ExtraValue     float64 `json:"extra_value"`
	HoursFormatted string  `json:"hours_formatted"`
}

type ManualRecordResponse struct {
	Record TimeRecordResponse  `json:"record"`
	Calc   CalculationResponse `json:"calc"`
}

type StatisticsResponse struct {
	TotalHours     float64 `json:"total_hours"`
	OvertimeHours  float64 `json:"overtime_hours"`
	RecordCount    int     `json:"record_count"`
	HoursFormatted string  `json:"hours_formatted"`
}

func mapToResponse(r TimeRecord) TimeRecordResponse {
	resp := TimeRecordResponse{
		ID:       r.ID.String(),
		UserID:   r.UserID.String(),
		Date:     r.Date.Format("2006-01-02"),
		ClockIn:  r.ClockIn,
		ClockOut: r.ClockOut,
		Status:   r.Status,
		Notes:    r.Notes,
	}
	if r.TotalHours != nil {
		resp.TotalHours = r.TotalHours
		resp.HoursFormatted = FormatHours(*r.TotalHours)
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func mapToCalcResponse(c CalculationResult) CalculationResponse {
	return CalculationResponse{
		TotalHours:     c.TotalHours,
		NormalHours:    c.NormalHours,
		ExtraHours:     c.ExtraHours,
		NormalValue:    c.NormalValue,
		ExtraValue:     c.ExtraValue,
		HoursFormatted: FormatHours(c.TotalHours),
	}
}

func mapToListResponse(records []TimeRecord) []TimeRecordResponse {
	res := make([]TimeRecordResponse, len(records))
	for i, r := range records {
		res[i] = mapToResponse(r)
	}
	return res
}
