package academic

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrNotFound          = errors.New("not found")
	ErrCourseExists      = errors.New("a course with this code already exists")
	ErrSemesterExists    = errors.New("this semester already exists")
	ErrNoCurrentSemester = errors.New("current semester is not set")
)

type (
	Repository interface {
		CreateFaculty(ctx context.Context, f Faculty) (Faculty, error)
		QueryAllFaculties(ctx context.Context) ([]Faculty, error)
		CreateDepartment(ctx context.Context, d Department) (Department, error)
		GetDepartmentByID(ctx context.Context, id string) (Department, error)
		QueryAllDepartments(ctx context.Context) ([]Department, error)

		CreateSemester(ctx context.Context, s Semester) (Semester, error)
		GetSemesterByID(ctx context.Context, id string) (Semester, error)
		GetSemesterByNameAndSession(ctx context.Context, name, session string) (Semester, error)

		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// GetCourseByCode matches the unique course code case-insensitively.
		GetCourseByCode(ctx context.Context, code string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)

		// GetCurrentSemester returns ErrNoCurrentSemester when the singleton
		// pointer is unset. SetCurrentSemester replaces its target; at most
		// one current semester exists at any time.
		GetCurrentSemester(ctx context.Context) (Semester, error)
		SetCurrentSemester(ctx context.Context, semesterID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateFaculty(ctx context.Context, name string) (Faculty, error) {
	return svc.repo.CreateFaculty(ctx, Faculty{Name: core.TitleCase(name)})
}

func (svc *Service) QueryFaculties(ctx context.Context) ([]Faculty, error) {
	return svc.repo.QueryAllFaculties(ctx)
}

func (svc *Service) CreateDepartment(ctx context.Context, facultyID, name string) (Department, error) {
	return svc.repo.CreateDepartment(ctx, Department{FacultyID: facultyID, Name: core.TitleCase(name)})
}

func (svc *Service) GetDepartment(ctx context.Context, id string) (Department, error) {
	return svc.repo.GetDepartmentByID(ctx, id)
}

func (svc *Service) QueryDepartments(ctx context.Context) ([]Department, error) {
	return svc.repo.QueryAllDepartments(ctx)
}

func (svc *Service) CreateSemester(ctx context.Context, ns NewSemester) (Semester, error) {
	return svc.repo.CreateSemester(ctx, Semester{
		Name:      ns.Name,
		Session:   ns.Session,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) GetSemester(ctx context.Context, id string) (Semester, error) {
	return svc.repo.GetSemesterByID(ctx, id)
}

func (svc *Service) GetSemesterByNameAndSession(ctx context.Context, name, session string) (Semester, error) {
	return svc.repo.GetSemesterByNameAndSession(ctx, core.TitleCase(name), core.CleanString(session))
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	return svc.repo.CreateCourse(ctx, Course{
		Code:          nc.Code,
		Title:         nc.Title,
		MinimumLevel:  nc.MinimumLevel,
		DepartmentIDs: nc.DepartmentIDs,
		SemesterIDs:   nc.SemesterIDs,
		LecturerIDs:   nc.LecturerIDs,
		CreatedAt:     time.Now().UTC(),
	})
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) GetCourseByCode(ctx context.Context, code string) (Course, error) {
	return svc.repo.GetCourseByCode(ctx, core.CleanString(code))
}

func (svc *Service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

// CurrentSemester returns the system-wide "now" against which enrollment and
// session validity are evaluated. Dependent operations fail fast with
// ErrNoCurrentSemester instead of silently picking an arbitrary semester.
func (svc *Service) CurrentSemester(ctx context.Context) (Semester, error) {
	return svc.repo.GetCurrentSemester(ctx)
}

func (svc *Service) SetCurrentSemester(ctx context.Context, semesterID string) error {
	if _, err := svc.repo.GetSemesterByID(ctx, semesterID); err != nil {
		return err
	}
	return svc.repo.SetCurrentSemester(ctx, semesterID)
}
