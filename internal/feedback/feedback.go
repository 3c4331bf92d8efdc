package feedback

import (
	"time"

	"github.com/google/uuid"
)

type Feedback struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TeacherID  uuid.UUID  `json:"teacher_id" db:"teacher_id"`
	StudentID  uuid.UUID  `json:"student_id" db:"student_id"`
	ActivityID *uuid.UUID `json:"activity_id,omitempty" db:"activity_id"`
	Content    string     `json:"content" db:"content"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type FeedbackWithTeacher struct {
	Feedback
	TeacherName string `json:"teacher_name"`
}

type CreateFeedbackRequest struct {
	StudentID  string `json:"student_id" validate:"required,uuid"`
	ActivityID string `json:"activity_id" validate:"omitempty,uuid"`
	Content    string `json:"content" validate:"required,max=2000"`
}
