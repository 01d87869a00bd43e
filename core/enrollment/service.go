package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrOnlyStudents    = errors.New("only students can enroll in courses")
)

type (
	Repository interface {
		// CreateEnrollment returns ErrAlreadyEnrolled when the
		// (student, course, semester) uniqueness constraint is violated.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		EnrollmentExists(ctx context.Context, studentID, courseID, semesterID string) (bool, error)
		QueryEnrollmentsByStudent(ctx context.Context, studentID, semesterID string) ([]Enrollment, error)
		QueryEnrollmentsByCourse(ctx context.Context, courseID, semesterID string) ([]Enrollment, error)
		DeleteEnrollment(ctx context.Context, id string) error
	}

	Service struct {
		repo        Repository
		academicSvc *academic.Service
	}
)

func NewService(repo Repository, academicSvc *academic.Service) *Service {
	return &Service{repo: repo, academicSvc: academicSvc}
}

// EligibleCourses lists the courses the student may enroll in right now:
// offered in the current semester, open to the student's department, and with
// a minimum level the student meets.
func (svc *Service) EligibleCourses(ctx context.Context, student user.User) ([]academic.Course, error) {
	if !student.IsStudent() {
		return nil, ErrOnlyStudents
	}
	sem, err := svc.academicSvc.CurrentSemester(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := svc.academicSvc.QueryCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	eligible := make([]academic.Course, 0, len(courses))
	for _, c := range courses {
		if c.OfferedIn(sem.ID) && c.OfferedTo(student.DepartmentID) && student.Level >= c.MinimumLevel {
			eligible = append(eligible, c)
		}
	}
	return eligible, nil
}

// Enroll enrolls the student in the course for the current semester. The
// submitted course choice is never trusted alone: eligibility is re-validated
// here, and all violations are collected into one field-scoped error so the
// caller gets the complete picture in a single round trip.
func (svc *Service) Enroll(ctx context.Context, student user.User, courseCode string) (Enrollment, error) {
	if !student.IsStudent() {
		return Enrollment{}, ErrOnlyStudents
	}
	sem, err := svc.academicSvc.CurrentSemester(ctx)
	if err != nil {
		return Enrollment{}, err
	}

	course, err := svc.academicSvc.GetCourseByCode(ctx, courseCode)
	if err != nil {
		if errors.Cause(err) == academic.ErrNotFound {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{Field: "course", Error: "invalid course code"})
		}
		return Enrollment{}, errors.Wrap(err, "finding course")
	}

	var flds []core.FieldError
	if !course.OfferedIn(sem.ID) {
		flds = append(flds, core.FieldError{
			Field: "course",
			Error: fmt.Sprintf("%s is not offered in the %s semester.", course.Code, sem.Label()),
		})
	}
	if !course.OfferedTo(student.DepartmentID) {
		flds = append(flds, core.FieldError{
			Field: "course",
			Error: fmt.Sprintf("%s is not offered to your department.", course.Code),
		})
	}
	if student.Level < course.MinimumLevel {
		flds = append(flds, core.FieldError{
			Field: "course",
			Error: fmt.Sprintf("Your level (%d) is not high enough for this course. Minimum level required: %d.",
				student.Level, course.MinimumLevel),
		})
	}
	exists, err := svc.repo.EnrollmentExists(ctx, student.ID, course.ID, sem.ID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "checking existing enrollment")
	}
	if exists {
		flds = append(flds, core.FieldError{
			Field: "course",
			Error: fmt.Sprintf("You are already enrolled in %s.", course.Code),
		})
	}
	if len(flds) > 0 {
		return Enrollment{}, core.NewValidationError(nil, flds...)
	}

	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:  student.ID,
		CourseID:   course.ID,
		SemesterID: sem.ID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		// a concurrent duplicate lost the race against the unique constraint
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return Enrollment{}, core.NewValidationError(err, core.FieldError{
				Field: "course",
				Error: fmt.Sprintf("You are already enrolled in %s.", course.Code),
			})
		}
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return enr, nil
}

// IsEnrolled reports whether the student is enrolled in the course for the
// semester.
func (svc *Service) IsEnrolled(ctx context.Context, studentID, courseID, semesterID string) (bool, error) {
	return svc.repo.EnrollmentExists(ctx, studentID, courseID, semesterID)
}

// StudentEnrollments lists the student's enrollments for the semester.
func (svc *Service) StudentEnrollments(ctx context.Context, studentID, semesterID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByStudent(ctx, studentID, semesterID)
}

// CourseEnrollments lists the enrollments for the course in the semester.
func (svc *Service) CourseEnrollments(ctx context.Context, courseID, semesterID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByCourse(ctx, courseID, semesterID)
}

// Remove deletes an enrollment; admin-only, enforced at the request boundary.
func (svc *Service) Remove(ctx context.Context, id string) error {
	return svc.repo.DeleteEnrollment(ctx, id)
}
