package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"levelUpAPI/internal/achievement"
	"levelUpAPI/internal/activity"
	"levelUpAPI/internal/apperr"
	"levelUpAPI/internal/user"
	"levelUpAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AchievementService struct {
	db *pgxpool.Pool
}

func NewAchievementService(db *pgxpool.Pool) *AchievementService {
	return &AchievementService{db: db}
}

func (s *AchievementService) GetAchievements(ctx context.Context, clerkID string) ([]*achievement.AchievementWithStatus, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		a.id,
		a.name,
		a.description,
		a.icon,
		a.criteria_type,
		a.category,
		a.criteria_value,
		a.xp_reward,
		a.month_key,
		a.is_active,
		a.created_at,
		COALESCE(ua.progress, 0) as progress,
		COALESCE(ua.completed, false) as completed,
		ua.completed_at,
		COALESCE(ua.claimed_reward, false) as claimed_reward
	FROM achievements a
	LEFT JOIN user_achievements ua ON a.id = ua.achievement_id AND ua.user_id = $1
	WHERE a.is_active
	ORDER BY completed DESC, a.criteria_value ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch achievements: %v", apperr.ErrDependency, err)
	}
	defer rows.Close()

	var achievements []*achievement.AchievementWithStatus
	for rows.Next() {
		ach := &achievement.AchievementWithStatus{}
		err := rows.Scan(
			&ach.ID,
			&ach.Name,
			&ach.Description,
			&ach.Icon,
			&ach.CriteriaType,
			&ach.Category,
			&ach.CriteriaValue,
			&ach.XPReward,
			&ach.MonthKey,
			&ach.IsActive,
			&ach.CreatedAt,
			&ach.Progress,
			&ach.Completed,
			&ach.CompletedAt,
			&ach.ClaimedReward,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan achievement: %v", apperr.ErrDependency, err)
		}
		achievements = append(achievements, ach)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %v", apperr.ErrDependency, err)
	}

	return achievements, nil
}

// ClaimAchievement grants the one-time XP reward. The flag flip and the XP
// grant commit in a single transaction, and the conditional UPDATE on
// completed AND NOT claimed_reward means exactly one of any number of
// concurrent claims can succeed; the rest see a conflict.
func (s *AchievementService) ClaimAchievement(ctx context.Context, clerkID string, req *achievement.ClaimRequest) (*achievement.ClaimResult, error) {
	achievementID, err := uuid.Parse(req.AchievementID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid achievement id", apperr.ErrValidation)
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

	var xpReward int
	err = tx.QueryRow(ctx, `
		UPDATE user_achievements ua
		SET claimed_reward = TRUE, claimed_at = NOW()
		FROM achievements a
		WHERE a.id = ua.achievement_id
		  AND ua.user_id = $1
		  AND ua.achievement_id = $2
		  AND ua.completed
		  AND NOT ua.claimed_reward
		RETURNING a.xp_reward
	`, userID, achievementID).Scan(&xpReward)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.claimRejection(ctx, userID, achievementID)
		}
		return nil, fmt.Errorf("%w: failed to claim achievement: %v", apperr.ErrDependency, err)
	}

	var newTotalXP int
	err = tx.QueryRow(ctx, `
		UPDATE student_profiles
		SET total_xp = total_xp + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING total_xp
	`, xpReward, userID).Scan(&newTotalXP)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to grant reward: %v", apperr.ErrDependency, err)
	}

	newLevel, _, _ := utils.LevelFromTotalXP(newTotalXP)
	if newLevel != prof.Level {
		_, err = tx.Exec(ctx, `UPDATE student_profiles SET level = $1 WHERE user_id = $2`, newLevel, userID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to update level: %v", apperr.ErrDependency, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to commit transaction: %v", apperr.ErrDependency, err)
	}

	log.Printf("ClaimAchievement: user %s claimed %s for %d XP", userID, achievementID, xpReward)

	return &achievement.ClaimResult{
		Granted:    true,
		XPAwarded:  xpReward,
		NewTotalXP: newTotalXP,
		NewLevel:   newLevel,
		LeveledUp:  newLevel > prof.Level,
	}, nil
}

// claimRejection classifies why a conditional claim matched no rows.
func (s *AchievementService) claimRejection(ctx context.Context, userID, achievementID uuid.UUID) error {
	var completed, claimed bool
	err := s.db.QueryRow(ctx, `
		SELECT completed, claimed_reward
		FROM user_achievements
		WHERE user_id = $1 AND achievement_id = $2
	`, userID, achievementID).Scan(&completed, &claimed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: achievement", apperr.ErrNotFound)
		}
		return fmt.Errorf("%w: failed to inspect achievement: %v", apperr.ErrDependency, err)
	}
	if claimed {
		return fmt.Errorf("%w: reward already claimed", apperr.ErrConflict)
	}
	if !completed {
		return fmt.Errorf("%w: achievement not completed", apperr.ErrConflict)
	}
	return fmt.Errorf("%w: achievement not claimable", apperr.ErrConflict)
}

// RotateAchievements installs the month's definition set. Only admins may
// call it. Re-running for the same month inserts nothing and resets nothing,
// so the operation is idempotent; progress soft-resets apply only to rows
// attached to definitions created by this very call.
func (s *AchievementService) RotateAchievements(ctx context.Context, clerkID string, monthKey string) ([]*achievement.Achievement, error) {
	var role user.Role
	err := s.db.QueryRow(ctx, `SELECT role FROM users WHERE clerk_id = $1`, clerkID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to resolve user: %v", apperr.ErrDependency, err)
	}
	if role != user.RoleAdmin {
		return nil, fmt.Errorf("%w: achievement rotation requires the ADMIN role", apperr.ErrForbidden)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", apperr.ErrDependency, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `UPDATE achievements SET is_active = FALSE WHERE is_active AND month_key <> $1`, monthKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to deactivate prior set: %v", apperr.ErrDependency, err)
	}

	// Rotating back to a month that was active before: its definitions still
	// exist but were deactivated by a later rotation. Reactivate them with
	// their progress intact; the insert loop below only fills gaps.
	_, err = tx.Exec(ctx, `UPDATE achievements SET is_active = TRUE WHERE month_key = $1 AND NOT is_active`, monthKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to reactivate month: %v", apperr.ErrDependency, err)
	}

	var insertedIDs []uuid.UUID
	for _, def := range monthlyCatalog(monthKey) {
		var id uuid.UUID
		err = tx.QueryRow(ctx, `
			INSERT INTO achievements (id, name, description, icon, criteria_type, category, criteria_value, xp_reward, month_key, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
			ON CONFLICT (month_key, name) DO NOTHING
			RETURNING id
		`, uuid.New(), def.Name, def.Description, def.Icon, def.CriteriaType, def.Category, def.CriteriaValue, def.XPReward, monthKey).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // already installed by a previous rotation
			}
			return nil, fmt.Errorf("%w: failed to insert definition: %v", apperr.ErrDependency, err)
		}
		insertedIDs = append(insertedIDs, id)
	}

	// Soft reset, scoped strictly to the definitions this call created.
	if len(insertedIDs) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE user_achievements
			SET progress = 0, completed = FALSE, completed_at = NULL, claimed_reward = FALSE, claimed_at = NULL
			WHERE achievement_id = ANY($1)
		`, insertedIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to reset progress: %v", apperr.ErrDependency, err)
		}
	}

	rows, err := tx.Query(ctx, `
		SELECT id, name, description, icon, criteria_type, category, criteria_value, xp_reward, month_key, is_active, created_at
		FROM achievements
		WHERE month_key = $1 AND is_active
		ORDER BY criteria_value ASC
	`, monthKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch rotated set: %v", apperr.ErrDependency, err)
	}
	defer rows.Close()

	var defs []*achievement.Achievement
	for rows.Next() {
		a := &achievement.Achievement{}
		err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.Description,
			&a.Icon,
			&a.CriteriaType,
			&a.Category,
			&a.CriteriaValue,
			&a.XPReward,
			&a.MonthKey,
			&a.IsActive,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan definition: %v", apperr.ErrDependency, err)
		}
		defs = append(defs, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %v", apperr.ErrDependency, err)
	}
	rows.Close()

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to commit transaction: %v", apperr.ErrDependency, err)
	}

	log.Printf("RotateAchievements: month %s active with %d definitions (%d new)", monthKey, len(defs), len(insertedIDs))
	return defs, nil
}

// monthlyCatalog is the standard definition set installed for every month.
func monthlyCatalog(monthKey string) []achievement.Achievement {
	study := string(activity.CategoryStudy)
	exercise := string(activity.CategoryExercise)
	reading := string(activity.CategoryReading)

	return []achievement.Achievement{
		{
			Name:          "First Steps",
			Description:   "Log 5 activities this month",
			Icon:          "footprints",
			CriteriaType:  achievement.CriteriaActivityCount,
			CriteriaValue: 5,
			XPReward:      50,
		},
		{
			Name:          "Deep Diver",
			Description:   "Log 30 activities this month",
			Icon:          "scuba",
			CriteriaType:  achievement.CriteriaActivityCount,
			CriteriaValue: 30,
			XPReward:      200,
		},
		{
			Name:          "Ten Hour Club",
			Description:   "Accumulate 600 minutes of activity",
			Icon:          "clock",
			CriteriaType:  achievement.CriteriaTotalMinutes,
			CriteriaValue: 600,
			XPReward:      150,
		},
		{
			Name:          "Bookworm",
			Description:   "Read for 300 minutes",
			Icon:          "book",
			CriteriaType:  achievement.CriteriaCategoryMinutes,
			Category:      &reading,
			CriteriaValue: 300,
			XPReward:      120,
		},
		{
			Name:          "Scholar",
			Description:   "Study for 600 minutes",
			Icon:          "graduation-cap",
			CriteriaType:  achievement.CriteriaCategoryMinutes,
			Category:      &study,
			CriteriaValue: 600,
			XPReward:      180,
		},
		{
			Name:          "Iron Will",
			Description:   "Exercise for 300 minutes",
			Icon:          "dumbbell",
			CriteriaType:  achievement.CriteriaCategoryMinutes,
			Category:      &exercise,
			CriteriaValue: 300,
			XPReward:      120,
		},
		{
			Name:          "On a Roll",
			Description:   "Hold a 7 day streak",
			Icon:          "flame",
			CriteriaType:  achievement.CriteriaStreak,
			CriteriaValue: 7,
			XPReward:      250,
		},
		{
			Name:          "Planner",
			Description:   "Complete 15 daily plans",
			Icon:          "calendar-check",
			CriteriaType:  achievement.CriteriaPlanDays,
			CriteriaValue: 15,
			XPReward:      200,
		},
	}
}
