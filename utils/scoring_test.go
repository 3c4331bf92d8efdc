package utils

import (
	"testing"

	"levelUpAPI/internal/activity"
	"levelUpAPI/internal/profile"
)

func TestBaseXP(t *testing.T) {
	cases := []struct{ minutes, want int }{
		{0, 0},
		{9, 0},
		{10, 10},
		{45, 40},
		{59, 50},
		{120, 120},
		{-5, 0},
	}
	for _, c := range cases {
		if got := BaseXP(c.minutes); got != c.want {
			t.Errorf("BaseXP(%d) = %d, want %d", c.minutes, got, c.want)
		}
	}
}

func TestCalculateXP(t *testing.T) {
	cases := []struct {
		name     string
		minutes  int
		category activity.Category
		bonus    bool
		want     int
	}{
		{"45min study no bonus", 45, activity.CategoryStudy, false, 48}, // 40 * 1.2
		{"30min study no bonus", 30, activity.CategoryStudy, false, 36},
		{"sub-10 never scores", 9, activity.CategoryExercise, false, 0},
		{"sub-10 with bonus still zero", 9, activity.CategoryStudy, true, 0},
		{"exercise weight 1.0", 60, activity.CategoryExercise, false, 60},
		{"hobby weight 0.9", 60, activity.CategoryHobby, false, 54},
		{"other weight 0.8", 50, activity.CategoryOther, false, 40},
		{"reading weight 1.1", 40, activity.CategoryReading, false, 44},
		{"streak bonus floors", 45, activity.CategoryStudy, true, 57}, // floor(40*1.2*1.2) = floor(57.6)
	}
	for _, c := range cases {
		if got := CalculateXP(c.minutes, c.category, c.bonus); got != c.want {
			t.Errorf("%s: CalculateXP = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestCalculateCappedXP(t *testing.T) {
	// STUDY limit is 240 full-rate minutes per day.
	cases := []struct {
		name    string
		minutes int
		already int
		want    int
	}{
		{"well under cap", 60, 0, 72},
		{"lands exactly on cap", 40, 200, 48},
		{"entirely past cap", 30, 240, 18},        // 36/2
		{"straddles cap", 30, 230, 24},            // 10 full (12) + 20 reduced (24/2)
		{"already far past cap", 30, 400, 18},     // all reduced
		{"cap split buckets portions", 15, 230, 12}, // 10 full (12) + 5 reduced (0)
	}
	for _, c := range cases {
		got := CalculateCappedXP(c.minutes, c.already, activity.CategoryStudy, false)
		if got != c.want {
			t.Errorf("%s: CalculateCappedXP(%d, %d) = %d, want %d",
				c.name, c.minutes, c.already, got, c.want)
		}
	}
}

func TestCalculateCappedXPNeverExceedsUncapped(t *testing.T) {
	for already := 0; already <= 300; already += 30 {
		for minutes := 10; minutes <= 300; minutes += 25 {
			capped := CalculateCappedXP(minutes, already, activity.CategoryStudy, false)
			uncapped := CalculateXP(minutes, activity.CategoryStudy, false)
			if capped > uncapped {
				t.Fatalf("capped XP %d exceeds uncapped %d (minutes=%d, already=%d)",
					capped, uncapped, minutes, already)
			}
		}
	}
}

func TestStatPoints(t *testing.T) {
	cases := []struct{ xp, want int }{
		{0, 0},
		{9, 0},
		{36, 3},
		{48, 4},
		{100, 10},
		{-10, 0},
	}
	for _, c := range cases {
		if got := StatPoints(c.xp); got != c.want {
			t.Errorf("StatPoints(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestStatForCategory(t *testing.T) {
	cases := []struct {
		category activity.Category
		want     profile.Stat
	}{
		{activity.CategoryStudy, profile.StatIntelligence},
		{activity.CategoryReading, profile.StatIntelligence},
		{activity.CategoryExercise, profile.StatStrength},
		{activity.CategoryHobby, profile.StatDexterity},
		{activity.CategoryVolunteer, profile.StatCharisma},
		{activity.CategoryOther, profile.StatVitality},
	}
	for _, c := range cases {
		if got := StatForCategory(c.category); got != c.want {
			t.Errorf("StatForCategory(%s) = %s, want %s", c.category, got, c.want)
		}
	}
}

func TestMaxStatForLevel(t *testing.T) {
	cases := []struct{ level, want int }{
		{1, 15},
		{5, 35},
		{18, 100},
		{50, 100},
	}
	for _, c := range cases {
		if got := MaxStatForLevel(c.level); got != c.want {
			t.Errorf("MaxStatForLevel(%d) = %d, want %d", c.level, got, c.want)
		}
	}
}
