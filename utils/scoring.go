package utils

import (
	"math"

	"levelUpAPI/internal/activity"
	"levelUpAPI/internal/profile"
)

const (
	// StreakBonusMultiplier applies to activities logged while the student
	// holds a streak of at least StreakBonusMinDays.
	StreakBonusMultiplier = 1.2
	StreakBonusMinDays    = 3

	// ReducedRateDivisor halves XP earned on minutes past the daily
	// category cap.
	ReducedRateDivisor = 2
)

var categoryWeights = map[activity.Category]float64{
	activity.CategoryStudy:     1.2,
	activity.CategoryReading:   1.1,
	activity.CategoryExercise:  1.0,
	activity.CategoryVolunteer: 1.0,
	activity.CategoryHobby:     0.9,
	activity.CategoryOther:     0.8,
}

// CategoryDailyLimit is the per-category minute ceiling at full XP rate per
// calendar day.
var CategoryDailyLimit = map[activity.Category]int{
	activity.CategoryStudy:     240,
	activity.CategoryReading:   180,
	activity.CategoryExercise:  180,
	activity.CategoryVolunteer: 180,
	activity.CategoryHobby:     120,
	activity.CategoryOther:     120,
}

var categoryStat = map[activity.Category]profile.Stat{
	activity.CategoryStudy:     profile.StatIntelligence,
	activity.CategoryReading:   profile.StatIntelligence,
	activity.CategoryExercise:  profile.StatStrength,
	activity.CategoryHobby:     profile.StatDexterity,
	activity.CategoryVolunteer: profile.StatCharisma,
	activity.CategoryOther:     profile.StatVitality,
}

// BaseXP buckets minutes down to the nearest multiple of 10. Fewer than ten
// minutes never score.
func BaseXP(minutes int) int {
	if minutes < 0 {
		return 0
	}
	return (minutes / 10) * 10
}

// CalculateXP converts an activity's minutes into XP: bucketed base, category
// weight, optional streak bonus, floored to an integer.
func CalculateXP(minutes int, category activity.Category, hasStreakBonus bool) int {
	weight, ok := categoryWeights[category]
	if !ok {
		weight = 1.0
	}
	xp := float64(BaseXP(minutes)) * weight
	if hasStreakBonus {
		xp *= StreakBonusMultiplier
	}
	return int(math.Floor(xp))
}

// CalculateCappedXP applies the daily category cap. Minutes already logged
// today shrink the remaining full-rate allowance; an activity straddling the
// cap is split at the minute level, each portion bucketed and scored
// independently, with the over-cap portion's XP halved.
func CalculateCappedXP(minutes, minutesAlreadyToday int, category activity.Category, hasStreakBonus bool) int {
	limit, ok := CategoryDailyLimit[category]
	if !ok {
		return CalculateXP(minutes, category, hasStreakBonus)
	}

	fullRateMinutes := limit - minutesAlreadyToday
	if fullRateMinutes < 0 {
		fullRateMinutes = 0
	}
	if fullRateMinutes > minutes {
		fullRateMinutes = minutes
	}
	reducedMinutes := minutes - fullRateMinutes

	xp := CalculateXP(fullRateMinutes, category, hasStreakBonus)
	if reducedMinutes > 0 {
		xp += CalculateXP(reducedMinutes, category, hasStreakBonus) / ReducedRateDivisor
	}
	return xp
}

// StatPoints converts an XP award into ability-stat points.
func StatPoints(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp / 10
}

// StatForCategory maps an activity category onto the single stat its points
// post to.
func StatForCategory(category activity.Category) profile.Stat {
	if s, ok := categoryStat[category]; ok {
		return s
	}
	return profile.StatVitality
}

// MaxStatForLevel bounds each ability stat: 10 + 5 per level, hard-capped at
// 100. Enforced inline at increment time so totals never need repair.
func MaxStatForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	max := 10 + 5*level
	if max > 100 {
		max = 100
	}
	return max
}
