package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelUpAPI/handlers"
	"levelUpAPI/internal/apperr"
	modelUser "levelUpAPI/internal/user"
	"levelUpAPI/services"
	"levelUpAPI/tests/helpers"
)

// TestWebhookProvisioning walks a user through create and update events and
// checks that role and school from public metadata land on the local row.
func TestWebhookProvisioning(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")

	t.Log("Step 1: user.created provisions a student")

	createPayload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req1 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	rr1 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr1, req1)
	assert.Equal(t, http.StatusOK, rr1.Code, "Webhook should succeed")

	ctx := context.Background()
	created, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, modelUser.RoleStudent, created.Role)
	require.NotNil(t, created.SchoolCode)
	assert.Equal(t, "SCH-001", *created.SchoolCode)
	assert.True(t, created.EmailVerified)

	t.Log("Step 2: user.updated promotes via metadata")

	updatePayload := helpers.MockClerkWebhookPayload("user.updated", clerkID)
	req2 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(updatePayload))
	rr2 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr2, req2)
	assert.Equal(t, http.StatusOK, rr2.Code)

	updated, err := userService.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, modelUser.RoleTeacher, updated.Role)
	assert.Equal(t, "updatedstudent", updated.Username)

	t.Log("Step 3: user.deleted removes the row")

	deletePayload := helpers.MockClerkWebhookPayload("user.deleted", clerkID)
	req3 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(deletePayload))
	rr3 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr3, req3)
	assert.Equal(t, http.StatusOK, rr3.Code)

	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err)
}

// TestUpdateEmailVerificationUnknownUser maps a missing row onto the
// not-found sentinel instead of leaking a driver error.
func TestUpdateEmailVerificationUnknownUser(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)

	err := userService.UpdateEmailVerification(context.Background(), "user_test_missing", true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// TestWebhookRejectsBadSignature makes sure a configured secret actually
// gates the endpoint.
func TestWebhookRejectsBadSignature(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	payload := helpers.MockClerkWebhookPayload("user.created", "user_test_sig")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,notavalidsignature")
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
