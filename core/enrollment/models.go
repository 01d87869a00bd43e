package enrollment

import "time"

// Enrollment binds a student to a course for one semester. The triple is
// unique; enrollments are never mutated and only an admin may remove one.
type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	SemesterID string    `json:"semester_id"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}
