package stats

type UserStats struct {
	TodayMinutes          int `json:"today_minutes"`
	MinutesThisWeek       int `json:"minutes_this_week"`
	MinutesThisMonth      int `json:"minutes_this_month"`
	MinutesThisYear       int `json:"minutes_this_year"`
	TotalMinutes          int `json:"total_minutes"`
	TotalDays             int `json:"total_days"`
	CurrentStreak         int `json:"current_streak"`
	LongestStreak         int `json:"longest_streak"`
	AchievementsCompleted int `json:"achievements_completed"`
	AchievementsClaimed   int `json:"achievements_claimed"`
	TotalXP               int `json:"total_xp"`
	Level                 int `json:"level"`
	Rank                  int `json:"rank"`
}

type CalendarDay struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
	Active  bool   `json:"active"`
	IsToday bool   `json:"is_today"`
}

type CalendarResponse struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*CalendarDay `json:"days"`
}
