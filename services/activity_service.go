package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"levelUpAPI/internal/activity"
	"levelUpAPI/internal/apperr"
	"levelUpAPI/internal/profile"
	"levelUpAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityService struct {
	db *pgxpool.Pool
}

func NewActivityService(db *pgxpool.Pool) *ActivityService {
	return &ActivityService{db: db}
}

// RecordActivity logs an immutable activity and applies the full scoring
// pipeline: daily-cap-aware XP, stat allocation with the per-level bound,
// level recomputation and achievement progress. Everything runs in one
// transaction that locks the student's profile row first, so concurrent
// submissions for the same student serialize instead of losing updates.
func (s *ActivityService) RecordActivity(ctx context.Context, clerkID string, req *activity.RecordActivityRequest) (*activity.RecordActivityResult, error) {
	category := activity.Category(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, req.Category)
	}
	if req.Minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive", apperr.ErrValidation)
	}

	date := today()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", apperr.ErrValidation, req.Date)
		}
		date = parsed
	}
	if date.After(time.Now()) {
		return nil, fmt.Errorf("%w: date must not be in the future", apperr.ErrValidation)
	}

	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", apperr.ErrDependency, err)
	}
	defer tx.Rollback(ctx)

	prof, err := lockProfile(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	// Minutes already logged today for this category drive the cap split.
	var minutesToday int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(minutes), 0)
		FROM activities
		WHERE user_id = $1 AND category = $2 AND date = $3
	`, userID, category, date).Scan(&minutesToday)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sum today's minutes: %v", apperr.ErrDependency, err)
	}

	hasStreakBonus := prof.CurrentStreak >= utils.StreakBonusMinDays
	xp := utils.CalculateCappedXP(req.Minutes, minutesToday, category, hasStreakBonus)
	stat := utils.StatForCategory(category)

	// Clamp stat points to the per-level bound before they are applied or
	// snapshotted, so base stats plus snapshots always equal the live total.
	points := utils.StatPoints(xp)
	bound := utils.MaxStatForLevel(prof.Level)
	if room := bound - prof.StatValue(stat); points > room {
		points = room
		if points < 0 {
			points = 0
		}
	}

	var firstActivityOfDay bool
	err = tx.QueryRow(ctx, `
		SELECT NOT EXISTS(SELECT 1 FROM activities WHERE user_id = $1 AND date = $2)
	`, userID, date).Scan(&firstActivityOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check day: %v", apperr.ErrDependency, err)
	}

	activityID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO activities (id, user_id, category, minutes, date, xp_earned, stat_points, stat, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, activityID, userID, category, req.Minutes, date, xp, points, string(stat))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert activity: %v", apperr.ErrDependency, err)
	}

	dayIncrement := 0
	if firstActivityOfDay {
		dayIncrement = 1
	}

	statColumn, err := statColumn(stat)
	if err != nil {
		return nil, err
	}

	// Relative increments only; the row lock makes the read-compute-write of
	// the clamp safe.
	var newTotalXP int
	updateQuery := fmt.Sprintf(`
		UPDATE student_profiles
		SET total_xp = total_xp + $1,
		    total_minutes = total_minutes + $2,
		    total_days = total_days + $3,
		    %s = %s + $4,
		    updated_at = NOW()
		WHERE user_id = $5
		RETURNING total_xp
	`, statColumn, statColumn)
	err = tx.QueryRow(ctx, updateQuery, xp, req.Minutes, dayIncrement, points, userID).Scan(&newTotalXP)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update profile: %v", apperr.ErrDependency, err)
	}

	newLevel, _, _ := utils.LevelFromTotalXP(newTotalXP)
	if newLevel != prof.Level {
		_, err = tx.Exec(ctx, `UPDATE student_profiles SET level = $1 WHERE user_id = $2`, newLevel, userID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to update level: %v", apperr.ErrDependency, err)
		}
	}

	if err := applyActivityProgress(ctx, tx, userID, category, req.Minutes); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to commit transaction: %v", apperr.ErrDependency, err)
	}

	if newLevel > prof.Level {
		log.Printf("RecordActivity: user %s leveled up %d -> %d", userID, prof.Level, newLevel)
	}

	return &activity.RecordActivityResult{
		ActivityID:    activityID,
		XPEarned:      xp,
		StatPoints:    points,
		Stat:          string(stat),
		TotalXP:       newTotalXP,
		LeveledUp:     newLevel > prof.Level,
		NewLevel:      newLevel,
		CurrentStreak: prof.CurrentStreak,
	}, nil
}

func (s *ActivityService) GetActivities(ctx context.Context, clerkID string, from, to time.Time) ([]*activity.Activity, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, category, minutes, date, xp_earned, stat_points, stat, logged_at
	FROM activities
	WHERE user_id = $1 AND date >= $2 AND date <= $3
	ORDER BY date DESC, logged_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch activities: %v", apperr.ErrDependency, err)
	}
	defer rows.Close()

	var activities []*activity.Activity
	for rows.Next() {
		a := &activity.Activity{}
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Category,
			&a.Minutes,
			&a.Date,
			&a.XPEarned,
			&a.StatPoints,
			&a.Stat,
			&a.LoggedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan activity: %v", apperr.ErrDependency, err)
		}
		activities = append(activities, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %v", apperr.ErrDependency, err)
	}

	return activities, nil
}

// lockProfile creates the profile if missing and takes the per-student row
// lock that serializes all scoring mutations.
func lockProfile(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*profile.StudentProfile, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO student_profiles (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to ensure profile: %v", apperr.ErrDependency, err)
	}

	prof := &profile.StudentProfile{}
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, total_xp, level, strength, intelligence, dexterity, charisma, vitality,
		       current_streak, longest_streak, last_streak_date, total_minutes, total_days, created_at, updated_at
		FROM student_profiles
		WHERE user_id = $1
		FOR UPDATE
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: student profile", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to lock profile: %v", apperr.ErrDependency, err)
	}

	return prof, nil
}

// statColumn whitelists the column a stat maps to; stat names never reach SQL
// text unchecked.
func statColumn(s profile.Stat) (string, error) {
	switch s {
	case profile.StatStrength:
		return "strength", nil
	case profile.StatIntelligence:
		return "intelligence", nil
	case profile.StatDexterity:
		return "dexterity", nil
	case profile.StatCharisma:
		return "charisma", nil
	case profile.StatVitality:
		return "vitality", nil
	}
	return "", fmt.Errorf("%w: unknown stat %q", apperr.ErrValidation, s)
}

// applyActivityProgress seeds progress rows for the active achievement set and
// advances the counters a logged activity can influence, marking newly
// completed rows inside the same transaction as the activity itself.
func applyActivityProgress(ctx context.Context, tx pgx.Tx, userID uuid.UUID, category activity.Category, minutes int) error {
	if err := seedAchievementProgress(ctx, tx, userID); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, `
		UPDATE user_achievements ua
		SET progress = ua.progress + CASE a.criteria_type
			WHEN 'total_minutes' THEN $2
			WHEN 'activity_count' THEN 1
			WHEN 'category_minutes' THEN CASE WHEN a.category = $3 THEN $2 ELSE 0 END
			ELSE 0
		END
		FROM achievements a
		WHERE a.id = ua.achievement_id
		  AND ua.user_id = $1
		  AND a.is_active
		  AND a.criteria_type IN ('total_minutes', 'activity_count', 'category_minutes')
	`, userID, minutes, string(category))
	if err != nil {
		return fmt.Errorf("%w: failed to advance achievement progress: %v", apperr.ErrDependency, err)
	}

	return markCompletedAchievements(ctx, tx, userID)
}

func seedAchievementProgress(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_achievements (id, user_id, achievement_id)
		SELECT gen_random_uuid(), $1, a.id
		FROM achievements a
		WHERE a.is_active
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to seed achievement progress: %v", apperr.ErrDependency, err)
	}
	return nil
}

// markCompletedAchievements flips completed one-way; rows never un-complete.
func markCompletedAchievements(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE user_achievements ua
		SET completed = TRUE, completed_at = NOW()
		FROM achievements a
		WHERE a.id = ua.achievement_id
		  AND ua.user_id = $1
		  AND a.is_active
		  AND NOT ua.completed
		  AND ua.progress >= a.criteria_value
	`, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to mark completed achievements: %v", apperr.ErrDependency, err)
	}
	return nil
}
