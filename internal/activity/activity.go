package activity

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryStudy     Category = "STUDY"
	CategoryReading   Category = "READING"
	CategoryExercise  Category = "EXERCISE"
	CategoryHobby     Category = "HOBBY"
	CategoryVolunteer Category = "VOLUNTEER"
	CategoryOther     Category = "OTHER"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryStudy, CategoryReading, CategoryExercise, CategoryHobby, CategoryVolunteer, CategoryOther:
		return true
	}
	return false
}

// Activity is an immutable log entry. XPEarned, StatPoints and Stat are
// snapshots computed at record time and never recalculated afterwards.
type Activity struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Category   Category  `json:"category" db:"category"`
	Minutes    int       `json:"minutes" db:"minutes"`
	Date       time.Time `json:"date" db:"date"`
	XPEarned   int       `json:"xp_earned" db:"xp_earned"`
	StatPoints int       `json:"stat_points" db:"stat_points"`
	Stat       string    `json:"stat" db:"stat"`
	LoggedAt   time.Time `json:"logged_at" db:"logged_at"`
}

type RecordActivityRequest struct {
	Category string `json:"category" validate:"required,oneof=STUDY READING EXERCISE HOBBY VOLUNTEER OTHER"`
	Minutes  int    `json:"minutes" validate:"required,gt=0,lte=720"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type RecordActivityResult struct {
	ActivityID    uuid.UUID `json:"activity_id"`
	XPEarned      int       `json:"xp_earned"`
	StatPoints    int       `json:"stat_points"`
	Stat          string    `json:"stat"`
	TotalXP       int       `json:"total_xp"`
	LeveledUp     bool      `json:"leveled_up"`
	NewLevel      int       `json:"new_level"`
	CurrentStreak int       `json:"current_streak"`
}
