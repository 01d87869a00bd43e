package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type sessionRow struct {
	ID         string    `db:"id"`
	CourseID   string    `db:"course_id"`
	LecturerID string    `db:"lecturer_id"`
	SemesterID string    `db:"semester_id"`
	StartTime  time.Time `db:"start_time"`
	EndTime    null.Time `db:"end_time"`
	IsActive   bool      `db:"is_active"`
}

func (r sessionRow) unpack() attendance.Session {
	return attendance.Session{
		ID:         r.ID,
		CourseID:   r.CourseID,
		LecturerID: r.LecturerID,
		SemesterID: r.SemesterID,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime.Time,
		IsActive:   r.IsActive,
	}
}

const sessionColumns = `id, course_id, lecturer_id, semester_id, start_time, end_time, is_active`

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) CreateSession(ctx context.Context, s attendance.Session) (attendance.Session, error) {
	s.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO attendance_session (id, course_id, lecturer_id, semester_id, start_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.CourseID, s.LecturerID, s.SemesterID, s.StartTime.UTC(), s.IsActive,
	)
	if err != nil {
		// the partial unique index on (lecturer_id) WHERE is_active closes
		// the concurrent-start race; the loser lands here
		if isUniqueViolation(err, "attendance_session_active_lecturer_key") {
			return attendance.Session{}, attendance.ErrSessionExists
		}
		return attendance.Session{}, errors.Wrap(err, "creating session")
	}
	return s, nil
}

func (repo attendanceRepository) getSession(ctx context.Context, notFoundErr error, query string, args ...interface{}) (attendance.Session, error) {
	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return attendance.Session{}, notFoundErr
		}
		return attendance.Session{}, errors.Wrap(err, "finding session")
	}
	return row.unpack(), nil
}

func (repo attendanceRepository) GetSessionByID(ctx context.Context, id string) (attendance.Session, error) {
	return repo.getSession(ctx, attendance.ErrSessionNotFound,
		`SELECT `+sessionColumns+` FROM attendance_session WHERE id = $1`, id)
}

func (repo attendanceRepository) GetActiveSessionByLecturer(ctx context.Context, lecturerID string) (attendance.Session, error) {
	return repo.getSession(ctx, attendance.ErrNoActiveSession,
		`SELECT `+sessionColumns+` FROM attendance_session WHERE lecturer_id = $1 AND is_active`, lecturerID)
}

func (repo attendanceRepository) GetActiveSessionByCourse(ctx context.Context, courseID string) (attendance.Session, error) {
	return repo.getSession(ctx, attendance.ErrNoActiveSession, `
		SELECT `+sessionColumns+` FROM attendance_session
		WHERE course_id = $1 AND is_active
		ORDER BY start_time DESC LIMIT 1`,
		courseID)
}

func (repo attendanceRepository) EndSession(ctx context.Context, id string, endTime time.Time) (attendance.Session, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE attendance_session SET is_active = FALSE, end_time = $2
		WHERE id = $1 AND is_active`,
		id, endTime.UTC(),
	)
	if err != nil {
		return attendance.Session{}, errors.Wrap(err, "ending session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Session{}, attendance.ErrNoActiveSession
	}
	return repo.GetSessionByID(ctx, id)
}

func (repo attendanceRepository) QuerySessionsByCourse(ctx context.Context, courseID string) ([]attendance.Session, error) {
	var rows []sessionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+sessionColumns+` FROM attendance_session WHERE course_id = $1 ORDER BY start_time`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]attendance.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.unpack())
	}
	return sessions, nil
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	r.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO attendance_record (id, session_id, student_id, ts, marks_awarded)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.SessionID, r.StudentID, r.Timestamp.UTC(), r.MarksAwarded,
	)
	if err != nil {
		// concurrent duplicate marks are absorbed by the unique constraint
		if isUniqueViolation(err, "attendance_record_session_student_key") {
			return attendance.Record{}, attendance.ErrRecordExists
		}
		return attendance.Record{}, errors.Wrap(err, "creating record")
	}
	return r, nil
}

func (repo attendanceRepository) GetRecord(ctx context.Context, sessionID, studentID string) (attendance.Record, error) {
	var r attendance.Record
	err := repo.db.QueryRowxContext(ctx, `
		SELECT id, session_id, student_id, ts, marks_awarded
		FROM attendance_record WHERE session_id = $1 AND student_id = $2`,
		sessionID, studentID,
	).Scan(&r.ID, &r.SessionID, &r.StudentID, &r.Timestamp, &r.MarksAwarded)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "finding record")
	}
	return r, nil
}

func (repo attendanceRepository) CountRecordsBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM attendance_record WHERE session_id = $1`, sessionID)
	return count, errors.Wrap(err, "counting records")
}

func (repo attendanceRepository) QueryRecordsByCourse(ctx context.Context, courseID string) ([]attendance.Record, error) {
	rows, err := repo.db.QueryxContext(ctx, `
		SELECT r.id, r.session_id, r.student_id, r.ts, r.marks_awarded
		FROM attendance_record r
		JOIN attendance_session s ON s.id = r.session_id
		WHERE s.course_id = $1
		ORDER BY r.ts`,
		courseID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer func() { _ = rows.Close() }()

	var records []attendance.Record
	for rows.Next() {
		var r attendance.Record
		if err = rows.Scan(&r.ID, &r.SessionID, &r.StudentID, &r.Timestamp, &r.MarksAwarded); err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		records = append(records, r)
	}
	return records, errors.Wrap(rows.Err(), "querying records")
}
