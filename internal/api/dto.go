package api

import (
	"time"

	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/service"
)

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserDTO struct {
	ID             uint   `json:"id"`
	TelegramUserID int64  `json:"telegram_user_id"`
	Username       string `json:"username,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
}

type SettingsDTO struct {
	Currency             string          `json:"currency"`
	PenaltyDailyDefault  decimal.Decimal `json:"penalty_daily_default"`
	PenaltyWeeklyDefault decimal.Decimal `json:"penalty_weekly_default"`
}

type TaskDTO struct {
	ID            uint                `json:"id"`
	Title         string              `json:"title"`
	Kind          model.TaskKind      `json:"kind"`
	IsActive      bool                `json:"is_active"`
	PenaltyAmount decimal.NullDecimal `json:"penalty_amount"`
	OrderIndex    int                 `json:"order_index"`
}

// TaskRequest is the create/update body. IsActive defaults to true.
type TaskRequest struct {
	Title         string              `json:"title"`
	Kind          model.TaskKind      `json:"kind"`
	IsActive      *bool               `json:"is_active"`
	PenaltyAmount decimal.NullDecimal `json:"penalty_amount"`
}

type ReorderRequest struct {
	OrderedIDs []uint `json:"ordered_ids"`
}

type SessionDTO struct {
	ID        uint       `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	ClosedAt  *time.Time `json:"closed_at"`
}

type CloseSessionDTO struct {
	SessionDTO
	DoneCount        int64           `json:"done_count"`
	CanceledCount    int64           `json:"canceled_count"`
	FailedCount      int64           `json:"failed_count"`
	TotalPenalty     decimal.Decimal `json:"total_penalty"`
	Currency         string          `json:"currency"`
	AmountToTransfer decimal.Decimal `json:"amount_to_transfer"`
}

type InstanceDTO struct {
	ID             uint                 `json:"id"`
	TaskID         uint                 `json:"task_id"`
	TaskTitle      string               `json:"task_title"`
	TaskKind       model.TaskKind       `json:"task_kind"`
	Status         model.InstanceStatus `json:"status"`
	PenaltyApplied decimal.NullDecimal  `json:"penalty_applied"`
	DaySessionID   *uint                `json:"day_session_id"`
	WeekSessionID  *uint                `json:"week_session_id"`
	CreatedAt      time.Time            `json:"created_at"`
}

type StatusRequest struct {
	Status model.InstanceStatus `json:"status"`
}

type BacklogRequest struct {
	TaskID uint   `json:"task_id"`
	Scope  string `json:"scope"`
}

type StatsDTO struct {
	Period       string          `json:"period"`
	FailedCount  int64           `json:"failed_count"`
	TotalPenalty decimal.Decimal `json:"total_penalty"`
}

type StatsDetailRowDTO struct {
	TaskTitle    string               `json:"task_title"`
	Status       model.InstanceStatus `json:"status"`
	StartedAt    time.Time            `json:"started_at"`
	TotalPenalty decimal.Decimal      `json:"total_penalty"`
}

type StatsDetailsDTO struct {
	Period       string              `json:"period"`
	TotalPenalty decimal.Decimal     `json:"total_penalty"`
	StatusCounts map[string]int64    `json:"status_counts"`
	Rows         []StatsDetailRowDTO `json:"rows"`
}

type OpenPeriodDTO struct {
	ID        uint      `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

type DashboardDTO struct {
	OpenDay  *OpenPeriodDTO `json:"open_day"`
	OpenWeek *OpenPeriodDTO `json:"open_week"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		TelegramUserID: u.TelegramID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
	}
}

func toSettingsDTO(s *model.UserSettings) SettingsDTO {
	return SettingsDTO{
		Currency:             s.Currency,
		PenaltyDailyDefault:  s.PenaltyDailyDefault,
		PenaltyWeeklyDefault: s.PenaltyWeeklyDefault,
	}
}

func toTaskDTO(t *model.Task) TaskDTO {
	return TaskDTO{
		ID:            t.ID,
		Title:         t.Title,
		Kind:          t.Kind,
		IsActive:      t.IsActive,
		PenaltyAmount: t.PenaltyAmount,
		OrderIndex:    t.OrderIndex,
	}
}

func toTaskInput(req TaskRequest) service.TaskInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.TaskInput{
		Title:         req.Title,
		Kind:          req.Kind,
		IsActive:      active,
		PenaltyAmount: req.PenaltyAmount,
	}
}

func toCloseDTO(r *service.CloseResult) CloseSessionDTO {
	closedAt := r.ClosedAt
	return CloseSessionDTO{
		SessionDTO:       SessionDTO{ID: r.ID, StartedAt: r.StartedAt, ClosedAt: &closedAt},
		DoneCount:        r.Summary.Done,
		CanceledCount:    r.Summary.Canceled,
		FailedCount:      r.Summary.Failed,
		TotalPenalty:     r.Summary.TotalPenalty,
		Currency:         r.Currency,
		AmountToTransfer: r.AmountToTransfer(),
	}
}

func toInstanceDTO(inst *model.Instance) InstanceDTO {
	dto := InstanceDTO{
		ID:             inst.ID,
		TaskID:         inst.TaskID,
		Status:         inst.Status,
		PenaltyApplied: inst.PenaltyApplied,
		DaySessionID:   inst.DaySessionID,
		WeekSessionID:  inst.WeekSessionID,
		CreatedAt:      inst.CreatedAt,
	}
	if inst.Task != nil {
		dto.TaskTitle = inst.Task.Title
		dto.TaskKind = inst.Task.Kind
	}
	return dto
}

func toInstanceDTOs(insts []model.Instance) []InstanceDTO {
	out := make([]InstanceDTO, 0, len(insts))
	for i := range insts {
		out = append(out, toInstanceDTO(&insts[i]))
	}
	return out
}

func toStatsDetailsDTO(d service.StatsDetails) StatsDetailsDTO {
	counts := make(map[string]int64, len(d.StatusCounts))
	for status, n := range d.StatusCounts {
		counts[string(status)] = n
	}
	rows := make([]StatsDetailRowDTO, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, StatsDetailRowDTO{
			TaskTitle:    r.TaskTitle,
			Status:       r.Status,
			StartedAt:    r.StartedAt,
			TotalPenalty: r.Penalty,
		})
	}
	return StatsDetailsDTO{
		Period:       string(d.Period),
		TotalPenalty: d.TotalPenalty,
		StatusCounts: counts,
		Rows:         rows,
	}
}
