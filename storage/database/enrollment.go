package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/enrollment"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	e.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO course_enrollment (id, student_id, course_id, semester_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.StudentID, e.CourseID, e.SemesterID, e.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "course_enrollment_triple_key") {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return e, nil
}

func (repo enrollmentRepository) EnrollmentExists(ctx context.Context, studentID, courseID, semesterID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM course_enrollment
			WHERE student_id = $1 AND course_id = $2 AND semester_id = $3
		)`,
		studentID, courseID, semesterID,
	)
	return exists, errors.Wrap(err, "checking enrollment")
}

func (repo enrollmentRepository) queryEnrollments(ctx context.Context, query string, args ...interface{}) ([]enrollment.Enrollment, error) {
	rows, err := repo.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	defer func() { _ = rows.Close() }()

	var enrollments []enrollment.Enrollment
	for rows.Next() {
		var e enrollment.Enrollment
		if err = rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.SemesterID, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning enrollment")
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, errors.Wrap(rows.Err(), "querying enrollments")
}

func (repo enrollmentRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID, semesterID string) ([]enrollment.Enrollment, error) {
	return repo.queryEnrollments(ctx, `
		SELECT id, student_id, course_id, semester_id, created_at
		FROM course_enrollment WHERE student_id = $1 AND semester_id = $2
		ORDER BY created_at`,
		studentID, semesterID,
	)
}

func (repo enrollmentRepository) QueryEnrollmentsByCourse(ctx context.Context, courseID, semesterID string) ([]enrollment.Enrollment, error) {
	return repo.queryEnrollments(ctx, `
		SELECT id, student_id, course_id, semester_id, created_at
		FROM course_enrollment WHERE course_id = $1 AND semester_id = $2
		ORDER BY created_at`,
		courseID, semesterID,
	)
}

func (repo enrollmentRepository) DeleteEnrollment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course_enrollment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}
