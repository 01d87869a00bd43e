package academic

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

type Faculty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Department struct {
	ID        string `json:"id"`
	FacultyID string `json:"faculty_id"`
	Name      string `json:"name"`
}

// Semester names
const (
	SemesterFirst  = "First"
	SemesterSecond = "Second"
)

// Semester is one half of an academic session, e.g. First 2024/2025.
type Semester struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`    // First | Second
	Session   string    `json:"session"` // "YYYY/YYYY"
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (s Semester) Label() string {
	return s.Name + " " + s.Session
}

// Course is offered to a set of departments, in a set of semesters, by a set
// of assigned lecturers. Students may enroll only when their department is in
// the course's department set and their level meets the minimum.
type Course struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"` // unique, matched case-insensitively
	Title         string    `json:"title"`
	MinimumLevel  int       `json:"minimum_level"`
	DepartmentIDs []string  `json:"department_ids"`
	SemesterIDs   []string  `json:"semester_ids"`
	LecturerIDs   []string  `json:"lecturer_ids"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// OfferedTo reports whether the course is open to the department.
func (c Course) OfferedTo(departmentID string) bool {
	return containsString(c.DepartmentIDs, departmentID)
}

// OfferedIn reports whether the course runs in the semester.
func (c Course) OfferedIn(semesterID string) bool {
	return containsString(c.SemesterIDs, semesterID)
}

// AssignedTo reports whether the lecturer teaches the course.
func (c Course) AssignedTo(lecturerID string) bool {
	return containsString(c.LecturerIDs, lecturerID)
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// NewSemester contains information needed to create a new Semester.
type NewSemester struct {
	Name    string `json:"name" validate:"required,oneof=First Second"`
	Session string `json:"session" validate:"required,academic_session"`
}

func (ns *NewSemester) Validate(validate *validator.Validate) error {
	ns.Name = core.TitleCase(ns.Name)
	ns.Session = core.CleanString(ns.Session)
	return validate.Struct(ns)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code          string   `json:"code" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	MinimumLevel  int      `json:"minimum_level" validate:"required,level"`
	DepartmentIDs []string `json:"department_ids" validate:"required,min=1"`
	SemesterIDs   []string `json:"semester_ids" validate:"required,min=1"`
	LecturerIDs   []string `json:"lecturer_ids"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Title = core.CleanString(nc.Title)
	return validate.Struct(nc)
}
