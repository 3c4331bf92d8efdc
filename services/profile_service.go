package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"levelUpAPI/internal/apperr"
	"levelUpAPI/internal/profile"
	"levelUpAPI/internal/stats"
	"levelUpAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileService struct {
	db *pgxpool.Pool
}

func NewProfileService(db *pgxpool.Pool) *ProfileService {
	return &ProfileService{db: db}
}

// GetDashboard returns the student profile, creating it on first visit.
func (s *ProfileService) GetDashboard(ctx context.Context, clerkID string) (*profile.DashboardResponse, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO student_profiles (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to ensure profile: %v", apperr.ErrDependency, err)
	}

	prof := &profile.StudentProfile{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, total_xp, level, strength, intelligence, dexterity, charisma, vitality,
		       current_streak, longest_streak, last_streak_date, total_minutes, total_days, created_at, updated_at
		FROM student_profiles
		WHERE user_id = $1
	`, userID).Scan(
		&prof.ID,
		&prof.UserID,
		&prof.TotalXP,
		&prof.Level,
		&prof.Strength,
		&prof.Intelligence,
		&prof.Dexterity,
		&prof.Charisma,
		&prof.Vitality,
		&prof.CurrentStreak,
		&prof.LongestStreak,
		&prof.LastStreakDate,
		&prof.TotalMinutes,
		&prof.TotalDays,
		&prof.CreatedAt,
		&prof.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get profile: %v", apperr.ErrDependency, err)
	}

	_, xpInto, xpNext := utils.LevelFromTotalXP(prof.TotalXP)

	day := today()

	var todayMinutes int
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(minutes), 0)
		FROM activities
		WHERE user_id = $1 AND date = $2
	`, userID, day).Scan(&todayMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get today's minutes: %v", apperr.ErrDependency, err)
	}

	summary := &profile.TodayPlanSummary{}
	var total, completed int
	err = s.db.QueryRow(ctx, `
		SELECT p.finalized,
		       COUNT(pi.id),
		       COUNT(pi.id) FILTER (WHERE pi.completed)
		FROM plans p
		LEFT JOIN plan_items pi ON pi.plan_id = p.id
		WHERE p.user_id = $1 AND p.date = $2
		GROUP BY p.finalized
	`, userID, day).Scan(&summary.Finalized, &total, &completed)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: failed to get today's plan: %v", apperr.ErrDependency, err)
		}
	} else {
		summary.HasPlan = true
		summary.ItemsTotal = total
		summary.ItemsCompleted = completed
		if total > 0 {
			summary.Ratio = float64(completed) / float64(total)
		}
	}

	return &profile.DashboardResponse{
		Profile:        prof,
		XPIntoLevel:    xpInto,
		XPForNextLevel: xpNext,
		TodayMinutes:   todayMinutes,
		TodayPlan:      summary,
	}, nil
}

func (s *ProfileService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		COALESCE(SUM(a.minutes) FILTER (WHERE a.date = $2::date), 0) as today_minutes,
		COALESCE(SUM(a.minutes) FILTER (WHERE a.date >= DATE_TRUNC('week', $2::date)), 0) as minutes_this_week,
		COALESCE(SUM(a.minutes) FILTER (WHERE a.date >= DATE_TRUNC('month', $2::date)), 0) as minutes_this_month,
		COALESCE(SUM(a.minutes) FILTER (WHERE a.date >= DATE_TRUNC('year', $2::date)), 0) as minutes_this_year
	FROM activities a
	WHERE a.user_id = $1
	`

	st := &stats.UserStats{}
	err = s.db.QueryRow(ctx, query, userID, today()).Scan(
		&st.TodayMinutes,
		&st.MinutesThisWeek,
		&st.MinutesThisMonth,
		&st.MinutesThisYear,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get activity stats: %v", apperr.ErrDependency, err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT total_xp, level, current_streak, longest_streak, total_minutes, total_days
		FROM student_profiles
		WHERE user_id = $1
	`, userID).Scan(
		&st.TotalXP,
		&st.Level,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.TotalMinutes,
		&st.TotalDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: student profile", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get profile stats: %v", apperr.ErrDependency, err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE completed),
		       COUNT(*) FILTER (WHERE claimed_reward)
		FROM user_achievements
		WHERE user_id = $1
	`, userID).Scan(&st.AchievementsCompleted, &st.AchievementsClaimed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get achievement counts: %v", apperr.ErrDependency, err)
	}

	rankQuery := `
	WITH ranked AS (
		SELECT user_id,
		       RANK() OVER (ORDER BY total_xp DESC, level DESC, current_streak DESC) as rank
		FROM student_profiles
	)
	SELECT rank FROM ranked WHERE user_id = $1
	`
	err = s.db.QueryRow(ctx, rankQuery, userID).Scan(&st.Rank)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: failed to calculate rank: %v", apperr.ErrDependency, err)
		}
	}

	return st, nil
}

// GetCalendar returns per-day logged minutes for the requested month.
func (s *ProfileService) GetCalendar(ctx context.Context, clerkID string, year, month int) (*stats.CalendarResponse, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be 1-12", apperr.ErrValidation)
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: year out of range", apperr.ErrValidation)
	}

	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstDay.AddDate(0, 1, -1)

	rows, err := s.db.Query(ctx, `
		SELECT date, SUM(minutes)
		FROM activities
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY date
	`, userID, firstDay, lastDay)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch calendar: %v", apperr.ErrDependency, err)
	}
	defer rows.Close()

	minutesByDay := make(map[string]int)
	for rows.Next() {
		var date time.Time
		var minutes int
		if err := rows.Scan(&date, &minutes); err != nil {
			return nil, fmt.Errorf("%w: failed to scan calendar day: %v", apperr.ErrDependency, err)
		}
		minutesByDay[date.Format("2006-01-02")] = minutes
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %v", apperr.ErrDependency, err)
	}

	todayKey := today().Format("2006-01-02")
	resp := &stats.CalendarResponse{Year: year, Month: month}
	for d := firstDay; !d.After(lastDay); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		minutes := minutesByDay[key]
		resp.Days = append(resp.Days, &stats.CalendarDay{
			Date:    key,
			Minutes: minutes,
			Active:  minutes > 0,
			IsToday: key == todayKey,
		})
	}

	return resp, nil
}
