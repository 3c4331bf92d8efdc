package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelUpAPI/internal/activity"
	"levelUpAPI/internal/apperr"
	"levelUpAPI/internal/feedback"
	"levelUpAPI/services"
	"levelUpAPI/tests/helpers"
)

// TestSchoolLeaderboardScoping puts two students in one school, one outside,
// and checks membership and ordering.
func TestSchoolLeaderboardScoping(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	school := "SCH-TEST-" + uuid.NewString()[:8]

	_, clerkA := helpers.CreateTestStudent(t, pool, school)
	_, clerkB := helpers.CreateTestStudent(t, pool, school)
	_, clerkC := helpers.CreateTestStudent(t, pool, "SCH-OTHER")

	activityService := services.NewActivityService(pool)
	ctx := context.Background()

	// A logs more than B; C logs the most but sits in another school.
	for clerkID, minutes := range map[string]int{clerkA: 120, clerkB: 60, clerkC: 240} {
		_, err := activityService.RecordActivity(ctx, clerkID, &activity.RecordActivityRequest{
			Category: "STUDY",
			Minutes:  minutes,
		})
		require.NoError(t, err)
	}

	leaderboardService := services.NewLeaderboardService(pool)
	board, err := leaderboardService.GetSchoolLeaderboard(ctx, clerkB)
	require.NoError(t, err)

	require.Len(t, board.Entries, 2)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.True(t, board.Entries[0].TotalXP > board.Entries[1].TotalXP)
	require.NotNil(t, board.UserPosition)
	assert.Equal(t, 2, board.UserPosition.Rank)
}

func TestSchoolLeaderboardWithoutSchool(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	_, clerkID := helpers.CreateTestStudent(t, pool, "")

	leaderboardService := services.NewLeaderboardService(pool)
	_, err := leaderboardService.GetSchoolLeaderboard(context.Background(), clerkID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// TestFeedbackRoleAndSchoolChecks covers who may leave feedback for whom.
func TestFeedbackRoleAndSchoolChecks(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	ctx := context.Background()
	school := "SCH-FB-" + uuid.NewString()[:8]

	studentID, studentClerkID := helpers.CreateTestStudent(t, pool, school)
	_, otherStudentClerkID := helpers.CreateTestStudent(t, pool, school)

	teacherClerkID := "user_test_teacher_" + uuid.NewString()[:8]
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, clerk_id, email, username, role, school_code, school_name)
		VALUES ($1, $2, $3, 'testteacher', 'TEACHER', $4, $4)
	`, uuid.New(), teacherClerkID, fmt.Sprintf("test%s@example.com", teacherClerkID), school)
	require.NoError(t, err)

	outsiderClerkID := "user_test_teacher_" + uuid.NewString()[:8]
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, clerk_id, email, username, role, school_code, school_name)
		VALUES ($1, $2, $3, 'otherteacher', 'TEACHER', 'SCH-ELSEWHERE', 'Elsewhere')
	`, uuid.New(), outsiderClerkID, fmt.Sprintf("test%s@example.com", outsiderClerkID))
	require.NoError(t, err)

	feedbackService := services.NewFeedbackService(pool)

	created, err := feedbackService.CreateFeedback(ctx, teacherClerkID, &feedback.CreateFeedbackRequest{
		StudentID: studentID.String(),
		Content:   "Keep up the study streak.",
	})
	require.NoError(t, err)
	assert.Equal(t, studentID.String(), created.StudentID.String())

	_, err = feedbackService.CreateFeedback(ctx, outsiderClerkID, &feedback.CreateFeedbackRequest{
		StudentID: studentID.String(),
		Content:   "Should not land.",
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden, "cross-school feedback is rejected")

	_, err = feedbackService.CreateFeedback(ctx, otherStudentClerkID, &feedback.CreateFeedbackRequest{
		StudentID: studentID.String(),
		Content:   "Students cannot leave feedback.",
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	items, err := feedbackService.GetFeedbackForStudent(ctx, studentClerkID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Keep up the study streak.", items[0].Content)
}
