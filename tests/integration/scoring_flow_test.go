package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelUpAPI/internal/activity"
	"levelUpAPI/services"
	"levelUpAPI/tests/helpers"
)

// TestRecordActivityScoring logs a single study session and checks the whole
// pipeline: weighted XP, stat allocation and the profile counters.
func TestRecordActivityScoring(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	_, clerkID := helpers.CreateTestStudent(t, pool, "SCH-001")

	activityService := services.NewActivityService(pool)
	profileService := services.NewProfileService(pool)

	ctx := context.Background()
	result, err := activityService.RecordActivity(ctx, clerkID, &activity.RecordActivityRequest{
		Category: "STUDY",
		Minutes:  30,
	})
	require.NoError(t, err)

	// 30 minutes -> base 30, STUDY weight 1.2 -> 36 XP -> 3 stat points.
	assert.Equal(t, 36, result.XPEarned)
	assert.Equal(t, 3, result.StatPoints)
	assert.Equal(t, "intelligence", result.Stat)
	assert.Equal(t, 36, result.TotalXP)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.NewLevel)

	dashboard, err := profileService.GetDashboard(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 36, dashboard.Profile.TotalXP)
	assert.Equal(t, 8, dashboard.Profile.Intelligence)
	assert.Equal(t, 30, dashboard.Profile.TotalMinutes)
	assert.Equal(t, 1, dashboard.Profile.TotalDays)
	assert.Equal(t, 30, dashboard.TodayMinutes)

	// The stats aggregates must see the same calendar day the insert used.
	userStats, err := profileService.GetUserStats(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 30, userStats.TodayMinutes)
	assert.Equal(t, 30, userStats.MinutesThisWeek)
}

// TestDailyCapSplitsRate pushes a category past its daily limit and checks
// that only the over-cap minutes earn at the reduced rate.
func TestDailyCapSplitsRate(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	_, clerkID := helpers.CreateTestStudent(t, pool, "")

	activityService := services.NewActivityService(pool)
	ctx := context.Background()

	first, err := activityService.RecordActivity(ctx, clerkID, &activity.RecordActivityRequest{
		Category: "STUDY",
		Minutes:  230,
	})
	require.NoError(t, err)
	assert.Equal(t, 276, first.XPEarned, "230 full-rate study minutes")
	assert.True(t, first.LeveledUp)
	assert.Equal(t, 3, first.NewLevel, "100+105=205 XP crossed, 315 not yet")

	// STUDY caps at 240/day: 10 minutes full rate, 20 minutes at half XP.
	second, err := activityService.RecordActivity(ctx, clerkID, &activity.RecordActivityRequest{
		Category: "STUDY",
		Minutes:  30,
	})
	require.NoError(t, err)
	assert.Equal(t, 24, second.XPEarned)
	assert.Equal(t, 300, second.TotalXP)
	assert.False(t, second.LeveledUp)
	assert.Equal(t, 3, second.NewLevel)
}

// TestStatBoundClampKeepsSnapshotsConsistent saturates intelligence against
// the per-level bound and checks that the clamped value is what gets
// snapshotted, so base stats plus the snapshot sum always equal the live stat.
func TestStatBoundClampKeepsSnapshotsConsistent(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userID, clerkID := helpers.CreateTestStudent(t, pool, "")

	activityService := services.NewActivityService(pool)
	ctx := context.Background()

	// 230 study minutes earn 276 XP, raw 27 points; at level 1 the bound is
	// 15 and intelligence starts at 5, so only 10 points land.
	first, err := activityService.RecordActivity(ctx, clerkID, &activity.RecordActivityRequest{
		Category: "STUDY",
		Minutes:  230,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, first.StatPoints)

	var intelligence int
	err = pool.QueryRow(ctx, `SELECT intelligence FROM student_profiles WHERE user_id = $1`, userID).Scan(&intelligence)
	require.NoError(t, err)
	assert.Equal(t, 15, intelligence, "level-1 bound")

	// Same day again: 10 full-rate + 220 reduced minutes earn 144 XP, raw 14
	// points; the level-3 bound of 25 leaves room for exactly 10 more.
	second, err := activityService.RecordActivity(ctx, clerkID, &activity.RecordActivityRequest{
		Category: "STUDY",
		Minutes:  230,
	})
	require.NoError(t, err)
	assert.Equal(t, 144, second.XPEarned)
	assert.Equal(t, 10, second.StatPoints)

	var snapshotSum int
	err = pool.QueryRow(ctx, `
		SELECT intelligence, (SELECT COALESCE(SUM(stat_points), 0) FROM activities WHERE user_id = $1)
		FROM student_profiles WHERE user_id = $1
	`, userID).Scan(&intelligence, &snapshotSum)
	require.NoError(t, err)
	assert.Equal(t, 25, intelligence)
	assert.Equal(t, intelligence, 5+snapshotSum, "base plus snapshots equals the live stat")
}

// TestRecordActivityRejectsFutureDate keeps backdating honest.
func TestRecordActivityRejectsFutureDate(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	_, clerkID := helpers.CreateTestStudent(t, pool, "")

	activityService := services.NewActivityService(pool)
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	_, err := activityService.RecordActivity(context.Background(), clerkID, &activity.RecordActivityRequest{
		Category: "READING",
		Minutes:  20,
		Date:     tomorrow,
	})
	assert.Error(t, err)
}
