package settings

import "time"

// SaveSettingsRequest is a partial settings document. It doubles as the
// cached overlay patch: fields left nil are not touched when merging.
type SaveSettingsRequest struct {
	DailyHours   *float64 `json:"daily_hours" binding:"omitempty,gte=0,lte=24"`
	LunchMinutes *int     `json:"lunch_minutes" binding:"omitempty,gte=0,lte=480"`
	BreakCount   *int     `json:"break_count" binding:"omitempty,gte=0,lte=20"`
	BreakMinutes *int     `json:"break_minutes" binding:"omitempty,gte=0,lte=240"`
	HourlyRate   *float64 `json:"hourly_rate" binding:"omitempty,gte=0"`
	OvertimeRate *float64 `json:"overtime_rate" binding:"omitempty,gte=0,lte=400"`
	CompanyName  *string  `json:"company_name" binding:"omitempty,max=150"`
	StartDate    *string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate      *string  `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	WorkStart    *string  `json:"work_start"`
	WorkEnd      *string  `json:"work_end"`
}

type SettingsResponse struct {
	UserID       string   `json:"user_id"`
	DailyHours   float64  `json:"daily_hours"`
	LunchMinutes int      `json:"lunch_minutes"`
	BreakCount   int      `json:"break_count"`
	BreakMinutes int      `json:"break_minutes"`
	HourlyRate   float64  `json:"hourly_rate"`
	OvertimeRate float64  `json:"overtime_rate"`
	CompanyName  *string  `json:"company_name,omitempty"`
	StartDate    *string  `json:"start_date,omitempty"`
	EndDate      *string  `json:"end_date,omitempty"`
	WorkStart    *string  `json:"work_start,omitempty"`
	WorkEnd      *string  `json:"work_end,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

func mapToResponse(ws WorkSettings) SettingsResponse {
	resp := SettingsResponse{
		UserID:       ws.UserID.String(),
		DailyHours:   ws.DailyHours,
		LunchMinutes: ws.LunchMinutes,
		BreakCount:   ws.BreakCount,
		BreakMinutes: ws.BreakMinutes,
		HourlyRate:   ws.HourlyRate,
		OvertimeRate: ws.OvertimeRate,
		CompanyName:  ws.CompanyName,
		WorkStart:    ws.WorkStart,
		WorkEnd:      ws.WorkEnd,
	}
	if ws.StartDate != nil {
		v := ws.StartDate.Format("2006-01-02")
		resp.StartDate = &v
	}
	if ws.EndDate != nil {
		v := ws.EndDate.Format("2006-01-02")
		resp.EndDate = &v
	}
	if !ws.UpdatedAt.IsZero() {
		resp.UpdatedAt = ws.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
