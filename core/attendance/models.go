package attendance

import (
	"time"

	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/user"
)

// Session is a bounded time window opened by one lecturer for one course in
// one semester, during which enrolled students may mark attendance.
// A lecturer has at most one active session at any time; a session ends
// exactly once and is never re-activated.
type Session struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	LecturerID string    `json:"lecturer_id"`
	SemesterID string    `json:"semester_id"`
	StartTime  time.Time `json:"start_time"` // UTC
	EndTime    time.Time `json:"end_time,omitempty"` // UTC; zero while active
	IsActive   bool      `json:"is_active"`
}

// Record is one student's attendance mark in one session. At most one record
// exists per (session, student); records are immutable.
type Record struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	StudentID    string    `json:"student_id"`
	Timestamp    time.Time `json:"timestamp"` // UTC
	MarksAwarded int       `json:"marks_awarded"`
}

// StartResult describes a freshly opened session.
type StartResult struct {
	Session  Session         `json:"session"`
	Course   academic.Course `json:"course"`
	Lecturer user.User       `json:"lecturer"`
}

// MarkResult describes an attendance mark. AlreadyMarked is set when the
// student had already marked this session: the existing record is returned
// and no new one is created.
type MarkResult struct {
	Record        Record          `json:"record"`
	Student       user.User       `json:"student"`
	Course        academic.Course `json:"course"`
	AlreadyMarked bool            `json:"already_marked"`
}

// EndResult describes a closed session.
type EndResult struct {
	Session     Session         `json:"session"`
	Course      academic.Course `json:"course"`
	TotalMarked int             `json:"total_marked"`
}

// StudentSummary is one row of a per-course attendance report.
type StudentSummary struct {
	Student       user.User `json:"student"`
	AttendedCount int       `json:"attended_count"`
	TotalSessions int       `json:"total_sessions"`
	Percentage    float64   `json:"percentage"`
}
