package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB connects to the test database, skipping the test when no
// database is configured so the suite stays runnable on a bare checkout.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes rows created by the test helpers. Everything else
// cascades from users.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// CreateTestStudent inserts a user row with the STUDENT role directly and
// returns its internal id alongside the Clerk subject.
func CreateTestStudent(t *testing.T, pool *pgxpool.Pool, schoolCode string) (uuid.UUID, string) {
	t.Helper()

	clerkID := "user_test_" + uuid.NewString()[:8]
	userID := uuid.New()

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, clerk_id, email, username, role, school_code, school_name)
		VALUES ($1, $2, $3, $4, 'STUDENT', NULLIF($5, ''), NULLIF($5, ''))
	`, userID, clerkID, fmt.Sprintf("test%s@example.com", clerkID), clerkID, schoolCode)
	if err != nil {
		t.Fatalf("Failed to create test student: %v", err)
	}

	return userID, clerkID
}

// GenerateMockClerkJWT builds an HS256 token shaped like a Clerk session
// token. It only satisfies handlers that skip verification in tests.
func GenerateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// MockClerkWebhookPayload builds a webhook body for the given event type.
// Role and school ride on public_metadata the way the admin tooling sets them.
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	payload := ""

	switch eventType {
	case "user.created":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Test",
				"last_name": "Student",
				"email_addresses": [{
					"email_address": "test.%s@example.com",
					"verification": {"status": "verified"}
				}],
				"username": "teststudent",
				"image_url": "https://example.com/image.jpg",
				"public_metadata": {
					"role": "STUDENT",
					"school_code": "SCH-001",
					"school_name": "Test High School"
				}
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, clerkID, eventType)

	case "user.updated":
		payload = fmt.Sprintf(`{
			"data": {
				"id": "%s",
				"first_name": "Updated",
				"last_name": "Student",
				"email_addresses": [{
					"email_address": "test.%s@example.com",
					"verification": {"status": "verified"}
				}],
				"username": "updatedstudent",
				"image_url": "https://example.com/new-image.jpg",
				"public_metadata": {
					"role": "TEACHER",
					"school_code": "SCH-001",
					"school_name": "Test High School"
				}
			},
			"object": "event",
			"type": "%s"
		}`, clerkID, clerkID, eventType)

	case "user.deleted":
		payload = fmt.Sprintf(`{
			"data": {"id": "%s", "deleted": true},
			"object": "event",
			"type": "%s"
		}`, clerkID, eventType)
	}

	return []byte(payload)
}
