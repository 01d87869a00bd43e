package inmem

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.enrollments {
		if existing.StudentID == e.StudentID && existing.CourseID == e.CourseID && existing.SemesterID == e.SemesterID {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}

	e.ID = uuid.New().String()
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) EnrollmentExists(_ context.Context, studentID, courseID, semesterID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, e := range repo.db.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && e.SemesterID == semesterID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *enrollmentRepository) query(match func(enrollment.Enrollment) bool) []enrollment.Enrollment {
	var enrollments []enrollment.Enrollment
	for _, e := range repo.db.enrollments {
		if match(*e) {
			enrollments = append(enrollments, *e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].CreatedAt.Before(enrollments[j].CreatedAt) })
	return enrollments
}

func (repo *enrollmentRepository) QueryEnrollmentsByStudent(_ context.Context, studentID, semesterID string) ([]enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(e enrollment.Enrollment) bool {
		return e.StudentID == studentID && e.SemesterID == semesterID
	}), nil
}

func (repo *enrollmentRepository) QueryEnrollmentsByCourse(_ context.Context, courseID, semesterID string) ([]enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(e enrollment.Enrollment) bool {
		return e.CourseID == courseID && e.SemesterID == semesterID
	}), nil
}

func (repo *enrollmentRepository) DeleteEnrollment(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.enrollments[id]; !ok {
		return enrollment.ErrNotFound
	}
	delete(repo.db.enrollments, id)
	return nil
}
