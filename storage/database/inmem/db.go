// Package inmem provides in-memory implementations of the core
// repositories. They reproduce the database's uniqueness guarantees (slot
// ids, active sessions, attendance records) so service behavior under
// conflict can be exercised without a postgres instance.
package inmem

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/enrollment"
	"github.com/trezcool/mahudhurio/core/fingerprint"
	"github.com/trezcool/mahudhurio/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	mappings    map[string]*fingerprint.Mapping // by mapping ID
	faculties   map[string]*academic.Faculty
	departments map[string]*academic.Department
	semesters   map[string]*academic.Semester
	courses     map[string]*academic.Course
	enrollments map[string]*enrollment.Enrollment
	sessions    map[string]*attendance.Session
	records     map[string]*attendance.Record

	currentSemesterID string
}

func Open() (*DB, error) {
	return &DB{
		users:       make(map[string]*user.User),
		mappings:    make(map[string]*fingerprint.Mapping),
		faculties:   make(map[string]*academic.Faculty),
		departments: make(map[string]*academic.Department),
		semesters:   make(map[string]*academic.Semester),
		courses:     make(map[string]*academic.Course),
		enrollments: make(map[string]*enrollment.Enrollment),
		sessions:    make(map[string]*attendance.Session),
		records:     make(map[string]*attendance.Record),
	}, nil
}
