package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelUpAPI/internal/achievement"
	"levelUpAPI/internal/apperr"
	"levelUpAPI/services"
	"levelUpAPI/tests/helpers"
)

func seedCompletedAchievement(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, xpReward int) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	achievementID := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO achievements (id, name, description, criteria_type, criteria_value, xp_reward, month_key, is_active)
		VALUES ($1, $2, 'test definition', 'activity_count', 1, $3, 'test-month', TRUE)
	`, achievementID, "Test "+achievementID.String()[:8], xpReward)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO user_achievements (id, user_id, achievement_id, progress, completed, completed_at)
		VALUES ($1, $2, $3, 1, TRUE, NOW())
	`, uuid.New(), userID, achievementID)
	require.NoError(t, err)

	// Profile row must exist before any XP can land on it.
	_, err = pool.Exec(ctx, `
		INSERT INTO student_profiles (id, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID)
	require.NoError(t, err)

	return achievementID
}

// TestConcurrentClaimGrantsOnce fires parallel claims at one completed
// achievement; exactly one may win and the XP must land exactly once.
func TestConcurrentClaimGrantsOnce(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userID, clerkID := helpers.CreateTestStudent(t, pool, "")
	achievementID := seedCompletedAchievement(t, pool, userID, 150)

	achievementService := services.NewAchievementService(pool)

	const claimers = 8
	var wg sync.WaitGroup
	results := make(chan error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := achievementService.ClaimAchievement(context.Background(), clerkID, &achievement.ClaimRequest{
				AchievementID: achievementID.String(),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	granted, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			granted++
		case errors.Is(err, apperr.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}

	assert.Equal(t, 1, granted, "exactly one concurrent claim may succeed")
	assert.Equal(t, claimers-1, conflicts)

	var totalXP int
	err := pool.QueryRow(context.Background(), `SELECT total_xp FROM student_profiles WHERE user_id = $1`, userID).Scan(&totalXP)
	require.NoError(t, err)
	assert.Equal(t, 150, totalXP, "reward granted exactly once")
}

func TestClaimBeforeCompletionRejected(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userID, clerkID := helpers.CreateTestStudent(t, pool, "")
	achievementID := seedCompletedAchievement(t, pool, userID, 100)

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		UPDATE user_achievements SET completed = FALSE, completed_at = NULL
		WHERE user_id = $1 AND achievement_id = $2
	`, userID, achievementID)
	require.NoError(t, err)

	achievementService := services.NewAchievementService(pool)
	_, err = achievementService.ClaimAchievement(ctx, clerkID, &achievement.ClaimRequest{
		AchievementID: achievementID.String(),
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

// TestRotateAchievementsIdempotent re-runs a month's rotation and expects the
// second call to change nothing.
func TestRotateAchievementsIdempotent(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	ctx := context.Background()

	adminClerkID := "user_test_admin_" + uuid.NewString()[:8]
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, clerk_id, email, username, role)
		VALUES ($1, $2, $3, 'testadmin', 'ADMIN')
	`, uuid.New(), adminClerkID, fmt.Sprintf("test%s@example.com", adminClerkID))
	require.NoError(t, err)

	achievementService := services.NewAchievementService(pool)

	monthKey := "2126-09"
	first, err := achievementService.RotateAchievements(ctx, adminClerkID, monthKey)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := achievementService.RotateAchievements(ctx, adminClerkID, monthKey)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))

	// Cleanup: rotation test rows are not tied to a test user.
	_, err = pool.Exec(ctx, `DELETE FROM achievements WHERE month_key = $1`, monthKey)
	require.NoError(t, err)
}

// TestRotateBackToPriorMonthReactivates rotates forward and back again and
// expects the earlier month's definitions to come back active with their
// accumulated progress intact.
func TestRotateBackToPriorMonthReactivates(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	ctx := context.Background()

	adminClerkID := "user_test_admin_" + uuid.NewString()[:8]
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, clerk_id, email, username, role)
		VALUES ($1, $2, $3, 'testadmin', 'ADMIN')
	`, uuid.New(), adminClerkID, fmt.Sprintf("test%s@example.com", adminClerkID))
	require.NoError(t, err)

	userID, _ := helpers.CreateTestStudent(t, pool, "")

	achievementService := services.NewAchievementService(pool)

	monthA, monthB := "2126-11", "2126-12"
	firstSet, err := achievementService.RotateAchievements(ctx, adminClerkID, monthA)
	require.NoError(t, err)
	require.NotEmpty(t, firstSet)

	var trackedID uuid.UUID
	err = pool.QueryRow(ctx, `SELECT id FROM achievements WHERE month_key = $1 LIMIT 1`, monthA).Scan(&trackedID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO user_achievements (id, user_id, achievement_id, progress)
		VALUES ($1, $2, $3, 5)
	`, uuid.New(), userID, trackedID)
	require.NoError(t, err)

	_, err = achievementService.RotateAchievements(ctx, adminClerkID, monthB)
	require.NoError(t, err)

	var activeA int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM achievements WHERE month_key = $1 AND is_active`, monthA).Scan(&activeA)
	require.NoError(t, err)
	assert.Equal(t, 0, activeA, "forward rotation deactivates the old month")

	_, err = achievementService.RotateAchievements(ctx, adminClerkID, monthA)
	require.NoError(t, err)

	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM achievements WHERE month_key = $1 AND is_active`, monthA).Scan(&activeA)
	require.NoError(t, err)
	assert.Equal(t, len(firstSet), activeA, "full set comes back active")

	var progress int
	err = pool.QueryRow(ctx, `
		SELECT progress FROM user_achievements WHERE user_id = $1 AND achievement_id = $2
	`, userID, trackedID).Scan(&progress)
	require.NoError(t, err)
	assert.Equal(t, 5, progress, "reactivation never resets progress")

	for _, key := range []string{monthA, monthB} {
		_, err = pool.Exec(ctx, `DELETE FROM achievements WHERE month_key = $1`, key)
		require.NoError(t, err)
	}
}

func TestRotateAchievementsRequiresAdmin(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	_, clerkID := helpers.CreateTestStudent(t, pool, "")

	achievementService := services.NewAchievementService(pool)
	_, err := achievementService.RotateAchievements(context.Background(), clerkID, "2126-10")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
