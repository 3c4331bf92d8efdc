package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"levelUpAPI/internal/apperr"
	"levelUpAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	role := req.Role
	if !role.Valid() {
		role = user.RoleStudent
	}

	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, role, school_code, school_name, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, role, school_code, school_name, email_verified, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.Role,
		req.SchoolCode,
		req.SchoolName,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.SchoolCode,
		&u.SchoolName,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to create user: %v", apperr.ErrDependency, err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, role, school_code, school_name, email_verified, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.SchoolCode,
		&u.SchoolName,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get user: %v", apperr.ErrDependency, err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET
		username = COALESCE(NULLIF($2, ''), username),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name = COALESCE(NULLIF($4, ''), last_name),
		image_url = COALESCE(NULLIF($5, ''), image_url),
		school_code = COALESCE(NULLIF($6, ''), school_code),
		school_name = COALESCE(NULLIF($7, ''), school_name),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, role, school_code, school_name, email_verified, created_at, updated_at
	`

	u := &user.User{}
	err := s.db.QueryRow(
		ctx,
		query,
		clerkID,
		req.Username,
		req.FirstName,
		req.LastName,
		req.ImageURL,
		req.SchoolCode,
		req.SchoolName,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.SchoolCode,
		&u.SchoolName,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to update user: %v", apperr.ErrDependency, err)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete user: %v", apperr.ErrDependency, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user", apperr.ErrNotFound)
	}

	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	query := `
	UPDATE users
	SET email_verified = $2, updated_at = NOW()
	WHERE clerk_id = $1
	`

	result, err := s.db.Exec(ctx, query, clerkID, verified)
	if err != nil {
		return fmt.Errorf("%w: failed to update email verification: %v", apperr.ErrDependency, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	return nil
}

// UpdateRole assigns a role coming from identity-provider metadata.
func (s *UserService) UpdateRole(ctx context.Context, clerkID string, role user.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: invalid role %q", apperr.ErrValidation, role)
	}

	result, err := s.db.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, role)
	if err != nil {
		return fmt.Errorf("%w: failed to update role: %v", apperr.ErrDependency, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	return nil
}

// today returns the current UTC calendar day. Every day-scoped read and write
// derives the day here, so the insert path and the aggregate queries always
// agree on the boundary regardless of the database session timezone.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// resolveUserID maps the identity-provider subject onto the internal user id.
func resolveUserID(ctx context.Context, db *pgxpool.Pool, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("%w: failed to resolve user: %v", apperr.ErrDependency, err)
	}
	return userID, nil
}
