package plan

import (
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Date        time.Time  `json:"date" db:"date"`
	Finalized   bool       `json:"finalized" db:"finalized"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty" db:"finalized_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type PlanItem struct {
	ID            uuid.UUID `json:"id" db:"id"`
	PlanID        uuid.UUID `json:"plan_id" db:"plan_id"`
	Title         string    `json:"title" db:"title"`
	Category      string    `json:"category" db:"category"`
	TargetMinutes int       `json:"target_minutes" db:"target_minutes"`
	Completed     bool      `json:"completed" db:"completed"`
}

type PlanWithItems struct {
	Plan
	Items []*PlanItem `json:"items"`
}

type CreatePlanItemRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Category      string `json:"category" validate:"required,oneof=STUDY READING EXERCISE HOBBY VOLUNTEER OTHER"`
	TargetMinutes int    `json:"target_minutes" validate:"required,gt=0,lte=720"`
}

type CreatePlanRequest struct {
	Date  string                  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Items []CreatePlanItemRequest `json:"items" validate:"required,min=1,max=20,dive"`
}

type ToggleItemRequest struct {
	ItemID    string `json:"item_id" validate:"required,uuid"`
	Completed bool   `json:"completed"`
}

type FinalizePlanRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type FinalizeResult struct {
	CompletionRatio float64 `json:"completion_ratio"`
	StreakExtended  bool    `json:"streak_extended"`
	CurrentStreak   int     `json:"current_streak"`
	LongestStreak   int     `json:"longest_streak"`
}
