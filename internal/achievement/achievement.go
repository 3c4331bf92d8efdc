package achievement

import (
	"time"

	"github.com/google/uuid"
)

type CriteriaType string

const (
	CriteriaTotalMinutes    CriteriaType = "total_minutes"
	CriteriaActivityCount   CriteriaType = "activity_count"
	CriteriaCategoryMinutes CriteriaType = "category_minutes"
	CriteriaStreak          CriteriaType = "streak"
	CriteriaPlanDays        CriteriaType = "plan_days"
)

// Achievement definitions rotate monthly. Superseded definitions stay in the
// table with is_active=false; (month_key, name) is unique.
type Achievement struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Description   string       `json:"description" db:"description"`
	Icon          string       `json:"icon" db:"icon"`
	CriteriaType  CriteriaType `json:"criteria_type" db:"criteria_type"`
	Category      *string      `json:"category,omitempty" db:"category"`
	CriteriaValue int          `json:"criteria_value" db:"criteria_value"`
	XPReward      int          `json:"xp_reward" db:"xp_reward"`
	MonthKey      string       `json:"month_key" db:"month_key"`
	IsActive      bool         `json:"is_active" db:"is_active"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

type UserAchievement struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	AchievementID uuid.UUID  `json:"achievement_id" db:"achievement_id"`
	Progress      int        `json:"progress" db:"progress"`
	Completed     bool       `json:"completed" db:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ClaimedReward bool       `json:"claimed_reward" db:"claimed_reward"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty" db:"claimed_at"`
}

type AchievementWithStatus struct {
	Achievement
	Progress      int        `json:"progress"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ClaimedReward bool       `json:"claimed_reward"`
}

type ClaimRequest struct {
	AchievementID string `json:"achievement_id" validate:"required,uuid"`
}

type ClaimResult struct {
	Granted    bool `json:"granted"`
	XPAwarded  int  `json:"xp_awarded"`
	NewTotalXP int  `json:"new_total_xp"`
	NewLevel   int  `json:"new_level"`
	LeveledUp  bool `json:"leveled_up"`
}

type RotateRequest struct {
	MonthKey string `json:"month_key" validate:"required,datetime=2006-01"`
}
