package services

import (
	"context"
	"errors"
	"fmt"

	"levelUpAPI/internal/apperr"
	"levelUpAPI/internal/leaderboard"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LeaderboardService struct {
	db *pgxpool.Pool
}

func NewLeaderboardService(db *pgxpool.Pool) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// GetSchoolLeaderboard ranks students sharing the caller's school code by
// total XP. Students without a school never appear on a school board.
func (s *LeaderboardService) GetSchoolLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	var userID uuid.UUID
	var schoolCode *string
	err := s.db.QueryRow(ctx, `SELECT id, school_code FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &schoolCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to resolve user: %v", apperr.ErrDependency, err)
	}
	if schoolCode == nil {
		return nil, fmt.Errorf("%w: no school on record for this user", apperr.ErrValidation)
	}

	query := `
	SELECT
		u.id as user_id,
		u.username,
		NULLIF(u.image_url, '') as image_url,
		u.school_name,
		p.total_xp,
		p.level,
		p.current_streak,
		RANK() OVER (ORDER BY p.total_xp DESC, p.level DESC, p.current_streak DESC) as rank
	FROM users u
	INNER JOIN student_profiles p ON p.user_id = u.id
	WHERE u.role = 'STUDENT' AND u.school_code = $1
	ORDER BY rank
	LIMIT 50
	`

	return s.buildLeaderboard(ctx, userID, query, *schoolCode)
}

func (s *LeaderboardService) GetGlobalLeaderboard(ctx context.Context, clerkID string) (*leaderboard.Leaderboard, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		u.id as user_id,
		u.username,
		NULLIF(u.image_url, '') as image_url,
		u.school_name,
		p.total_xp,
		p.level,
		p.current_streak,
		RANK() OVER (ORDER BY p.total_xp DESC, p.level DESC, p.current_streak DESC) as rank
	FROM users u
	INNER JOIN student_profiles p ON p.user_id = u.id
	WHERE u.role = 'STUDENT'
	ORDER BY rank
	LIMIT 50
	`

	return s.buildLeaderboard(ctx, userID, query)
}

func (s *LeaderboardService) buildLeaderboard(ctx context.Context, userID uuid.UUID, query string, args ...any) (*leaderboard.Leaderboard, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch leaderboard: %v", apperr.ErrDependency, err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	var userPosition *leaderboard.LeaderboardEntry

	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.ImageURL,
			&entry.SchoolName,
			&entry.TotalXP,
			&entry.Level,
			&entry.CurrentStreak,
			&entry.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", apperr.ErrDependency, err)
		}

		entries = append(entries, entry)

		if entry.UserID == userID {
			userPosition = entry
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %v", apperr.ErrDependency, err)
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}
