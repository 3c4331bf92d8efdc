package profile

import (
	"time"

	"github.com/google/uuid"
)

type Stat string

const (
	StatStrength     Stat = "strength"
	StatIntelligence Stat = "intelligence"
	StatDexterity    Stat = "dexterity"
	StatCharisma     Stat = "charisma"
	StatVitality     Stat = "vitality"
)

// BaseStatValue is the starting value of every ability stat on a fresh profile.
const BaseStatValue = 5

// StudentProfile is mutated only by the scoring engine (activity recording,
// plan finalization, achievement claims). One row per user, created lazily.
type StudentProfile struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	TotalXP       int       `json:"total_xp" db:"total_xp"`
	Level         int       `json:"level" db:"level"`
	Strength      int       `json:"strength" db:"strength"`
	Intelligence  int       `json:"intelligence" db:"intelligence"`
	Dexterity     int       `json:"dexterity" db:"dexterity"`
	Charisma      int       `json:"charisma" db:"charisma"`
	Vitality      int       `json:"vitality" db:"vitality"`
	CurrentStreak int       `json:"current_streak" db:"current_streak"`
	LongestStreak int       `json:"longest_streak" db:"longest_streak"`
	// LastStreakDate is the most recent qualifying day; a finalized day only
	// extends the streak when it directly follows this date.
	LastStreakDate *time.Time `json:"last_streak_date,omitempty" db:"last_streak_date"`
	TotalMinutes   int        `json:"total_minutes" db:"total_minutes"`
	TotalDays      int        `json:"total_days" db:"total_days"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// StatValue returns the current value of the named stat.
func (p *StudentProfile) StatValue(s Stat) int {
	switch s {
	case StatStrength:
		return p.Strength
	case StatIntelligence:
		return p.Intelligence
	case StatDexterity:
		return p.Dexterity
	case StatCharisma:
		return p.Charisma
	case StatVitality:
		return p.Vitality
	}
	return 0
}

type TodayPlanSummary struct {
	HasPlan        bool    `json:"has_plan"`
	Finalized      bool    `json:"finalized"`
	ItemsTotal     int     `json:"items_total"`
	ItemsCompleted int     `json:"items_completed"`
	Ratio          float64 `json:"ratio"`
}

type DashboardResponse struct {
	Profile        *StudentProfile   `json:"profile"`
	XPIntoLevel    int               `json:"xp_into_level"`
	XPForNextLevel int               `json:"xp_for_next_level"`
	TodayMinutes   int               `json:"today_minutes"`
	TodayPlan      *TodayPlanSummary `json:"today_plan"`
}
