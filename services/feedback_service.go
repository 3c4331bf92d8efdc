package services

import (
	"context"
	"errors"
	"fmt"

	"levelUpAPI/internal/apperr"
	"levelUpAPI/internal/feedback"
	"levelUpAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FeedbackService struct {
	db *pgxpool.Pool
}

func NewFeedbackService(db *pgxpool.Pool) *FeedbackService {
	return &FeedbackService{db: db}
}

// CreateFeedback lets a teacher comment on a student in the same school.
func (s *FeedbackService) CreateFeedback(ctx context.Context, clerkID string, req *feedback.CreateFeedbackRequest) (*feedback.Feedback, error) {
	var teacherID uuid.UUID
	var teacherRole user.Role
	var teacherSchool *string
	err := s.db.QueryRow(ctx, `SELECT id, role, school_code FROM users WHERE clerk_id = $1`, clerkID).Scan(&teacherID, &teacherRole, &teacherSchool)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to resolve user: %v", apperr.ErrDependency, err)
	}
	if teacherRole != user.RoleTeacher && teacherRole != user.RoleAdmin {
		return nil, fmt.Errorf("%w: feedback requires the TEACHER role", apperr.ErrForbidden)
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid student id", apperr.ErrValidation)
	}

	var studentSchool *string
	err = s.db.QueryRow(ctx, `SELECT school_code FROM users WHERE id = $1 AND role = 'STUDENT'`, studentID).Scan(&studentSchool)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: student", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to resolve student: %v", apperr.ErrDependency, err)
	}

	// Cross-school feedback is rejected; admins are exempt.
	if teacherRole == user.RoleTeacher {
		if teacherSchool == nil || studentSchool == nil || *teacherSchool != *studentSchool {
			return nil, fmt.Errorf("%w: student belongs to a different school", apperr.ErrForbidden)
		}
	}

	var activityID *uuid.UUID
	if req.ActivityID != "" {
		parsed, err := uuid.Parse(req.ActivityID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid activity id", apperr.ErrValidation)
		}

		var ownerID uuid.UUID
		err = s.db.QueryRow(ctx, `SELECT user_id FROM activities WHERE id = $1`, parsed).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: activity", apperr.ErrNotFound)
			}
			return nil, fmt.Errorf("%w: failed to resolve activity: %v", apperr.ErrDependency, err)
		}
		if ownerID != studentID {
			return nil, fmt.Errorf("%w: activity belongs to a different student", apperr.ErrValidation)
		}
		activityID = &parsed
	}

	fb := &feedback.Feedback{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO feedback (id, teacher_id, student_id, activity_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, teacher_id, student_id, activity_id, content, created_at
	`, uuid.New(), teacherID, studentID, activityID, req.Content).Scan(
		&fb.ID,
		&fb.TeacherID,
		&fb.StudentID,
		&fb.ActivityID,
		&fb.Content,
		&fb.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create feedback: %v", apperr.ErrDependency, err)
	}

	return fb, nil
}

// GetFeedbackForStudent returns the caller's own feedback, newest first.
func (s *FeedbackService) GetFeedbackForStudent(ctx context.Context, clerkID string) ([]*feedback.FeedbackWithTeacher, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.teacher_id, f.student_id, f.activity_id, f.content, f.created_at,
		       TRIM(t.first_name || ' ' || t.last_name) as teacher_name
		FROM feedback f
		JOIN users t ON t.id = f.teacher_id
		WHERE f.student_id = $1
		ORDER BY f.created_at DESC
		LIMIT 100
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch feedback: %v", apperr.ErrDependency, err)
	}
	defer rows.Close()

	var items []*feedback.FeedbackWithTeacher
	for rows.Next() {
		fb := &feedback.FeedbackWithTeacher{}
		err := rows.Scan(
			&fb.ID,
			&fb.TeacherID,
			&fb.StudentID,
			&fb.ActivityID,
			&fb.Content,
			&fb.CreatedAt,
			&fb.TeacherName,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan feedback: %v", apperr.ErrDependency, err)
		}
		items = append(items, fb)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %v", apperr.ErrDependency, err)
	}

	return items, nil
}
