package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"levelUpAPI/internal/activity"
	"levelUpAPI/internal/apperr"
	"levelUpAPI/internal/plan"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StreakRatio is the plan-item completion ratio a day must reach to count
// toward the streak. Compared as completed*10 >= total*7 to keep the 0.70
// boundary exact.
const (
	streakRatioNumerator   = 7
	streakRatioDenominator = 10
)

type PlanService struct {
	db *pgxpool.Pool
}

func NewPlanService(db *pgxpool.Pool) *PlanService {
	return &PlanService{db: db}
}

func (s *PlanService) CreatePlan(ctx context.Context, clerkID string, req *plan.CreatePlanRequest) (*plan.PlanWithItems, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: a plan needs at least one item", apperr.ErrValidation)
	}
	for _, item := range req.Items {
		if !activity.Category(item.Category).Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, item.Category)
		}
	}

	date := today()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", apperr.ErrValidation, req.Date)
		}
		date = parsed
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

	p := &plan.PlanWithItems{}
	err = tx.QueryRow(ctx, `
		INSERT INTO plans (id, user_id, date)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, date, finalized, finalized_at, created_at
	`, uuid.New(), userID, date).Scan(
		&p.ID,
		&p.UserID,
		&p.Date,
		&p.Finalized,
		&p.FinalizedAt,
		&p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: a plan already exists for %s", apperr.ErrConflict, date.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("%w: failed to create plan: %v", apperr.ErrDependency, err)
	}

	for _, item := range req.Items {
		pi := &plan.PlanItem{}
		err = tx.QueryRow(ctx, `
			INSERT INTO plan_items (id, plan_id, title, category, target_minutes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, plan_id, title, category, target_minutes, completed
		`, uuid.New(), p.ID, item.Title, item.Category, item.TargetMinutes).Scan(
			&pi.ID,
			&pi.PlanID,
			&pi.Title,
			&pi.Category,
			&pi.TargetMinutes,
			&pi.Completed,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create plan item: %v", apperr.ErrDependency, err)
		}
		p.Items = append(p.Items, pi)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to commit transaction: %v", apperr.ErrDependency, err)
	}

	return p, nil
}

func (s *PlanService) GetPlan(ctx context.Context, clerkID string, date time.Time) (*plan.PlanWithItems, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	p := &plan.PlanWithItems{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, date, finalized, finalized_at, created_at
		FROM plans
		WHERE user_id = $1 AND date = $2
	`, userID, date).Scan(
		&p.ID,
		&p.UserID,
		&p.Date,
		&p.Finalized,
		&p.FinalizedAt,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: plan", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get plan: %v", apperr.ErrDependency, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, plan_id, title, category, target_minutes, completed
		FROM plan_items
		WHERE plan_id = $1
		ORDER BY title
	`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch plan items: %v", apperr.ErrDependency, err)
	}
	defer rows.Close()

	for rows.Next() {
		pi := &plan.PlanItem{}
		err := rows.Scan(&pi.ID, &pi.PlanID, &pi.Title, &pi.Category, &pi.TargetMinutes, &pi.Completed)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan plan item: %v", apperr.ErrDependency, err)
		}
		p.Items = append(p.Items, pi)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %v", apperr.ErrDependency, err)
	}

	return p, nil
}

func (s *PlanService) ToggleItem(ctx context.Context, clerkID string, req *plan.ToggleItemRequest) error {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return fmt.Errorf("%w: invalid item id", apperr.ErrValidation)
	}

	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	var finalized bool
	err = s.db.QueryRow(ctx, `
		SELECT p.finalized
		FROM plan_items pi
		JOIN plans p ON p.id = pi.plan_id
		WHERE pi.id = $1 AND p.user_id = $2
	`, itemID, userID).Scan(&finalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: plan item", apperr.ErrNotFound)
		}
		return fmt.Errorf("%w: failed to get plan item: %v", apperr.ErrDependency, err)
	}
	if finalized {
		return fmt.Errorf("%w: plan already finalized", apperr.ErrConflict)
	}

	_, err = s.db.Exec(ctx, `UPDATE plan_items SET completed = $2 WHERE id = $1`, itemID, req.Completed)
	if err != nil {
		return fmt.Errorf("%w: failed to update plan item: %v", apperr.ErrDependency, err)
	}

	return nil
}

// FinalizePlan closes a day's plan and moves the streak at write time: a
// completion ratio of at least 0.70 extends the streak, anything below resets
// it to zero. Longest streak only ever grows. Finalizing twice is a conflict.
func (s *PlanService) FinalizePlan(ctx context.Context, clerkID string, date time.Time) (*plan.FinalizeResult, error) {
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

	var planID uuid.UUID
	var finalized bool
	err = tx.QueryRow(ctx, `
		SELECT id, finalized FROM plans WHERE user_id = $1 AND date = $2 FOR UPDATE
	`, userID, date).Scan(&planID, &finalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: plan", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get plan: %v", apperr.ErrDependency, err)
	}
	if finalized {
		return nil, fmt.Errorf("%w: plan already finalized", apperr.ErrConflict)
	}

	var total, completed int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE completed)
		FROM plan_items
		WHERE plan_id = $1
	`, planID).Scan(&total, &completed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count plan items: %v", apperr.ErrDependency, err)
	}

	ratioMet := total > 0 && completed*streakRatioDenominator >= total*streakRatioNumerator

	// The streak counts consecutive qualifying calendar days: a qualifying day
	// extends it only when it directly follows the last qualifying day,
	// otherwise it starts a new one-day streak. Finalizing a date at or before
	// the last qualifying day is backdated bookkeeping and leaves the streak
	// and its anchor date untouched.
	newStreak := prof.CurrentStreak
	lastStreakDate := prof.LastStreakDate
	backdated := lastStreakDate != nil && !date.After(*lastStreakDate)
	if !backdated {
		if ratioMet {
			newStreak = 1
			if lastStreakDate != nil && sameDay(lastStreakDate.AddDate(0, 0, 1), date) {
				newStreak = prof.CurrentStreak + 1
			}
			lastStreakDate = &date
		} else {
			newStreak = 0
		}
	}

	var longest int
	err = tx.QueryRow(ctx, `
		UPDATE student_profiles
		SET current_streak = $1,
		    longest_streak = GREATEST(longest_streak, $1),
		    last_streak_date = $2,
		    updated_at = NOW()
		WHERE user_id = $3
		RETURNING longest_streak
	`, newStreak, lastStreakDate, userID).Scan(&longest)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update streak: %v", apperr.ErrDependency, err)
	}

	_, err = tx.Exec(ctx, `UPDATE plans SET finalized = TRUE, finalized_at = NOW() WHERE id = $1`, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to finalize plan: %v", apperr.ErrDependency, err)
	}

	if err := applyPlanProgress(ctx, tx, userID, newStreak, ratioMet); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to commit transaction: %v", apperr.ErrDependency, err)
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(completed) / float64(total)
	}

	log.Printf("FinalizePlan: user %s date %s ratio %.2f streak %d", userID, date.Format("2006-01-02"), ratio, newStreak)

	return &plan.FinalizeResult{
		CompletionRatio: ratio,
		StreakExtended:  newStreak > prof.CurrentStreak,
		CurrentStreak:   newStreak,
		LongestStreak:   longest,
	}, nil
}

// sameDay compares two instants as calendar days, ignoring clock time.
func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// applyPlanProgress advances streak and plan-day achievement counters after a
// finalization, inside the same transaction.
func applyPlanProgress(ctx context.Context, tx pgx.Tx, userID uuid.UUID, streak int, ratioMet bool) error {
	if err := seedAchievementProgress(ctx, tx, userID); err != nil {
		return err
	}

	planDayIncrement := 0
	if ratioMet {
		planDayIncrement = 1
	}

	_, err := tx.Exec(ctx, `
		UPDATE user_achievements ua
		SET progress = CASE a.criteria_type
			WHEN 'streak' THEN GREATEST(ua.progress, $2)
			WHEN 'plan_days' THEN ua.progress + $3
			ELSE ua.progress
		END
		FROM achievements a
		WHERE a.id = ua.achievement_id
		  AND ua.user_id = $1
		  AND a.is_active
		  AND a.criteria_type IN ('streak', 'plan_days')
	`, userID, streak, planDayIncrement)
	if err != nil {
		return fmt.Errorf("%w: failed to advance plan progress: %v", apperr.ErrDependency, err)
	}

	return markCompletedAchievements(ctx, tx, userID)
}
