package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/usecase/coordinator"
)

type createRequest struct {
	GoalID    uuid.UUID       `json:"goalId"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency"`
}

type updateRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	Frequency *string          `json:"frequency"`
	IsActive  *bool            `json:"isActive"`
}

type manualRequest struct {
	GoalID uuid.UUID       `json:"goalId"`
	Amount decimal.Decimal `json:"amount"`
}

type goalSummary struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	Category      string           `json:"category,omitempty"`
	Priority      int              `json:"priority"`
	TargetAmount  *decimal.Decimal `json:"targetAmount,omitempty"`
	CurrentAmount *decimal.Decimal `json:"currentAmount,omitempty"`
	Status        string           `json:"status,omitempty"`
}

type scheduleResponse struct {
	ID               uuid.UUID       `json:"id"`
	GoalID           uuid.UUID       `json:"goalId"`
	Amount           decimal.Decimal `json:"amount"`
	Frequency        domain.Cadence  `json:"frequency"`
	IsActive         bool            `json:"isActive"`
	NextTransferDate time.Time       `json:"nextTransferDate"`
	LastTransferDate *time.Time      `json:"lastTransferDate,omitempty"`
	TotalTransferred decimal.Decimal `json:"totalTransferred"`
	TransferCount    int             `json:"transferCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Goal             *goalSummary    `json:"goal,omitempty"`
}

type historyResponse struct {
	ID           uuid.UUID           `json:"id"`
	GoalID       uuid.UUID           `json:"goalId"`
	ScheduleID   *uuid.UUID          `json:"scheduleId,omitempty"`
	Amount       decimal.Decimal     `json:"amount"`
	Status       domain.Outcome      `json:"status"`
	Type         domain.TransferKind `json:"type"`
	Reason       string              `json:"reason,omitempty"`
	TransferDate time.Time           `json:"transferDate"`
	Goal         *goalSummary        `json:"goal,omitempty"`
}

type executeResponse struct {
	Message  string                  `json:"message"`
	Executed int                     `json:"executed"`
	Results  []domain.TransferResult `json:"results"`
}

type manualResponse struct {
	Message       string                `json:"message"`
	Result        domain.TransferResult `json:"result"`
	Goal          goalSummary           `json:"goal"`
	PoolRemaining decimal.Decimal       `json:"poolRemaining"`
}

func toScheduleResponse(s *domain.TransferSchedule, goal *domain.Goal) scheduleResponse {
	resp := scheduleResponse{
		ID:               s.ID,
		GoalID:           s.GoalID,
		Amount:           s.Amount,
		Frequency:        s.Cadence,
		IsActive:         s.Active,
		NextTransferDate: s.NextDueAt,
		LastTransferDate: s.LastFiredAt,
		TotalTransferred: s.TotalTransferred,
		TransferCount:    s.FiredCount,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if goal != nil {
		summary := toGoalSummary(goal)
		resp.Goal = &summary
	}
	return resp
}

func toGoalSummary(g *domain.Goal) goalSummary {
	target, current := g.TargetAmount, g.CurrentAmount
	return goalSummary{
		ID:            g.ID,
		Title:         g.Title,
		Category:      g.Category,
		Priority:      g.PriorityTier,
		TargetAmount:  &target,
		CurrentAmount: &current,
		Status:        string(g.Status),
	}
}

func toHistoryResponse(e *domain.LedgerEntry) historyResponse {
	resp := historyResponse{
		ID:           e.ID,
		GoalID:       e.GoalID,
		ScheduleID:   e.ScheduleID,
		Amount:       e.Amount,
		Status:       e.Outcome,
		Type:         e.Kind,
		Reason:       e.Reason,
		TransferDate: e.OccurredAt,
	}
	if e.GoalTitle != "" {
		resp.Goal = &goalSummary{
			ID:       e.GoalID,
			Title:    e.GoalTitle,
			Category: e.GoalCategory,
			Priority: e.GoalPriority,
		}
	}
	return resp
}

func toManualResponse(out *coordinator.ContributeResult) manualResponse {
	message := "Transfer completed"
	if out.Result.Outcome != domain.OutcomeSuccess {
		message = "Transfer not executed"
	}
	return manualResponse{
		Message:       message,
		Result:        out.Result,
		Goal:          toGoalSummary(&out.Goal),
		PoolRemaining: out.PoolRemaining,
	}
}
