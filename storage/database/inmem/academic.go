package inmem

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/academic"
)

type academicRepository struct {
	db *DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *DB) *academicRepository {
	return &academicRepository{db: db}
}

func (repo *academicRepository) CreateFaculty(_ context.Context, f academic.Faculty) (academic.Faculty, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	f.ID = uuid.New().String()
	repo.db.faculties[f.ID] = &f
	return f, nil
}

func (repo *academicRepository) QueryAllFaculties(_ context.Context) ([]academic.Faculty, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	faculties := make([]academic.Faculty, 0, len(repo.db.faculties))
	for _, f := range repo.db.faculties {
		faculties = append(faculties, *f)
	}
	sort.Slice(faculties, func(i, j int) bool { return faculties[i].Name < faculties[j].Name })
	return faculties, nil
}

func (repo *academicRepository) CreateDepartment(_ context.Context, d academic.Department) (academic.Department, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	d.ID = uuid.New().String()
	repo.db.departments[d.ID] = &d
	return d, nil
}

func (repo *academicRepository) GetDepartmentByID(_ context.Context, id string) (academic.Department, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if d, ok := repo.db.departments[id]; ok {
		return *d, nil
	}
	return academic.Department{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryAllDepartments(_ context.Context) ([]academic.Department, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	departments := make([]academic.Department, 0, len(repo.db.departments))
	for _, d := range repo.db.departments {
		departments = append(departments, *d)
	}
	sort.Slice(departments, func(i, j int) bool { return departments[i].Name < departments[j].Name })
	return departments, nil
}

func (repo *academicRepository) CreateSemester(_ context.Context, s academic.Semester) (academic.Semester, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.semesters {
		if existing.Name == s.Name && existing.Session == s.Session {
			return academic.Semester{}, academic.ErrSemesterExists
		}
	}

	s.ID = uuid.New().String()
	repo.db.semesters[s.ID] = &s
	return s, nil
}

func (repo *academicRepository) GetSemesterByID(_ context.Context, id string) (academic.Semester, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.semesters[id]; ok {
		return *s, nil
	}
	return academic.Semester{}, academic.ErrNotFound
}

func (repo *academicRepository) GetSemesterByNameAndSession(_ context.Context, name, session string) (academic.Semester, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.semesters {
		if s.Name == name && s.Session == session {
			return *s, nil
		}
	}
	return academic.Semester{}, academic.ErrNotFound
}

func (repo *academicRepository) CreateCourse(_ context.Context, c academic.Course) (academic.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.courses {
		if strings.EqualFold(existing.Code, c.Code) {
			return academic.Course{}, academic.ErrCourseExists
		}
	}

	c.ID = uuid.New().String()
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *academicRepository) GetCourseByID(_ context.Context, id string) (academic.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return academic.Course{}, academic.ErrNotFound
}

func (repo *academicRepository) GetCourseByCode(_ context.Context, code string) (academic.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.courses {
		if strings.EqualFold(c.Code, code) {
			return *c, nil
		}
	}
	return academic.Course{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryAllCourses(_ context.Context) ([]academic.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]academic.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *academicRepository) GetCurrentSemester(_ context.Context) (academic.Semester, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if repo.db.currentSemesterID == "" {
		return academic.Semester{}, academic.ErrNoCurrentSemester
	}
	if s, ok := repo.db.semesters[repo.db.currentSemesterID]; ok {
		return *s, nil
	}
	return academic.Semester{}, academic.ErrNoCurrentSemester
}

func (repo *academicRepository) SetCurrentSemester(_ context.Context, semesterID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.semesters[semesterID]; !ok {
		return academic.ErrNotFound
	}
	repo.db.currentSemesterID = semesterID
	return nil
}
