package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/academic"
)

type academicRepository struct {
	db *sqlx.DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *sqlx.DB) *academicRepository {
	return &academicRepository{db: db}
}

func (repo academicRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return academic.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo academicRepository) CreateFaculty(ctx context.Context, f academic.Faculty) (academic.Faculty, error) {
	f.ID = uuid.New().String()
	if _, err := repo.db.ExecContext(ctx, `INSERT INTO faculty (id, name) VALUES ($1, $2)`, f.ID, f.Name); err != nil {
		return academic.Faculty{}, errors.Wrap(err, "creating faculty")
	}
	return f, nil
}

func (repo academicRepository) QueryAllFaculties(ctx context.Context) ([]academic.Faculty, error) {
	var faculties []academic.Faculty
	rows, err := repo.db.QueryxContext(ctx, `SELECT id, name FROM faculty ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying faculties")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var f academic.Faculty
		if err = rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, errors.Wrap(err, "scanning faculty")
		}
		faculties = append(faculties, f)
	}
	return faculties, errors.Wrap(rows.Err(), "querying faculties")
}

func (repo academicRepository) CreateDepartment(ctx context.Context, d academic.Department) (academic.Department, error) {
	d.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO department (id, faculty_id, name) VALUES ($1, $2, $3)`, d.ID, d.FacultyID, d.Name)
	if err != nil {
		return academic.Department{}, errors.Wrap(err, "creating department")
	}
	return d, nil
}

func (repo academicRepository) GetDepartmentByID(ctx context.Context, id string) (academic.Department, error) {
	var d academic.Department
	err := repo.db.QueryRowxContext(ctx,
		`SELECT id, faculty_id, name FROM department WHERE id = $1`, id,
	).Scan(&d.ID, &d.FacultyID, &d.Name)
	if err != nil {
		return academic.Department{}, repo.trapNoRowsErr(err, "finding department")
	}
	return d, nil
}

func (repo academicRepository) QueryAllDepartments(ctx context.Context) ([]academic.Department, error) {
	var departments []academic.Department
	rows, err := repo.db.QueryxContext(ctx, `SELECT id, faculty_id, name FROM department ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var d academic.Department
		if err = rows.Scan(&d.ID, &d.FacultyID, &d.Name); err != nil {
			return nil, errors.Wrap(err, "scanning department")
		}
		departments = append(departments, d)
	}
	return departments, errors.Wrap(rows.Err(), "querying departments")
}

func (repo academicRepository) CreateSemester(ctx context.Context, s academic.Semester) (academic.Semester, error) {
	s.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO semester (id, name, session, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.Session, s.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "semester_name_session_key") {
			return academic.Semester{}, academic.ErrSemesterExists
		}
		return academic.Semester{}, errors.Wrap(err, "creating semester")
	}
	return s, nil
}

func (repo academicRepository) GetSemesterByID(ctx context.Context, id string) (academic.Semester, error) {
	var s academic.Semester
	err := repo.db.QueryRowxContext(ctx,
		`SELECT id, name, session, created_at FROM semester WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Session, &s.CreatedAt)
	if err != nil {
		return academic.Semester{}, repo.trapNoRowsErr(err, "finding semester")
	}
	return s, nil
}

func (repo academicRepository) GetSemesterByNameAndSession(ctx context.Context, name, session string) (academic.Semester, error) {
	var s academic.Semester
	err := repo.db.QueryRowxContext(ctx,
		`SELECT id, name, session, created_at FROM semester WHERE name = $1 AND session = $2`, name, session,
	).Scan(&s.ID, &s.Name, &s.Session, &s.CreatedAt)
	if err != nil {
		return academic.Semester{}, repo.trapNoRowsErr(err, "finding semester")
	}
	return s, nil
}

func (repo academicRepository) CreateCourse(ctx context.Context, c academic.Course) (academic.Course, error) {
	c.ID = uuid.New().String()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return academic.Course{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO course (id, code, title, minimum_level, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Code, c.Title, c.MinimumLevel, c.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err, "course_code_key") {
			return academic.Course{}, academic.ErrCourseExists
		}
		return academic.Course{}, errors.Wrap(err, "creating course")
	}

	insertRefs := func(table, column string, ids []string) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO `+table+` (course_id, `+column+`) VALUES ($1, $2)`, c.ID, id); err != nil {
				return errors.Wrapf(err, "linking %s", table)
			}
		}
		return nil
	}
	if err = insertRefs("course_department", "department_id", c.DepartmentIDs); err != nil {
		return academic.Course{}, err
	}
	if err = insertRefs("course_semester", "semester_id", c.SemesterIDs); err != nil {
		return academic.Course{}, err
	}
	if err = insertRefs("course_lecturer", "lecturer_id", c.LecturerIDs); err != nil {
		return academic.Course{}, err
	}

	if err = tx.Commit(); err != nil {
		return academic.Course{}, errors.Wrap(err, "committing course")
	}
	return c, nil
}

const courseQuery = `
	SELECT c.id, c.code, c.title, c.minimum_level, c.created_at,
		COALESCE((SELECT array_agg(department_id) FROM course_department WHERE course_id = c.id), '{}') AS department_ids,
		COALESCE((SELECT array_agg(semester_id) FROM course_semester WHERE course_id = c.id), '{}') AS semester_ids,
		COALESCE((SELECT array_agg(lecturer_id) FROM course_lecturer WHERE course_id = c.id), '{}') AS lecturer_ids
	FROM course c`

func (repo academicRepository) scanCourse(row sqlx.ColScanner) (academic.Course, error) {
	var c academic.Course
	var departmentIDs, semesterIDs, lecturerIDs pq.StringArray
	err := row.Scan(&c.ID, &c.Code, &c.Title, &c.MinimumLevel, &c.CreatedAt,
		&departmentIDs, &semesterIDs, &lecturerIDs)
	if err != nil {
		return academic.Course{}, err
	}
	c.DepartmentIDs = departmentIDs
	c.SemesterIDs = semesterIDs
	c.LecturerIDs = lecturerIDs
	return c, nil
}

func (repo academicRepository) GetCourseByID(ctx context.Context, id string) (academic.Course, error) {
	row := repo.db.QueryRowxContext(ctx, courseQuery+` WHERE c.id = $1`, id)
	c, err := repo.scanCourse(row)
	if err != nil {
		return academic.Course{}, repo.trapNoRowsErr(err, "finding course")
	}
	return c, nil
}

func (repo academicRepository) GetCourseByCode(ctx context.Context, code string) (academic.Course, error) {
	row := repo.db.QueryRowxContext(ctx, courseQuery+` WHERE LOWER(c.code) = LOWER($1)`, code)
	c, err := repo.scanCourse(row)
	if err != nil {
		return academic.Course{}, repo.trapNoRowsErr(err, "finding course by code")
	}
	return c, nil
}

func (repo academicRepository) QueryAllCourses(ctx context.Context) ([]academic.Course, error) {
	rows, err := repo.db.QueryxContext(ctx, courseQuery+` ORDER BY c.code`)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	defer func() { _ = rows.Close() }()

	var courses []academic.Course
	for rows.Next() {
		c, err := repo.scanCourse(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning course")
		}
		courses = append(courses, c)
	}
	return courses, errors.Wrap(rows.Err(), "querying courses")
}

func (repo academicRepository) GetCurrentSemester(ctx context.Context) (academic.Semester, error) {
	var s academic.Semester
	err := repo.db.QueryRowxContext(ctx, `
		SELECT s.id, s.name, s.session, s.created_at
		FROM current_semester cs JOIN semester s ON s.id = cs.semester_id`,
	).Scan(&s.ID, &s.Name, &s.Session, &s.CreatedAt)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return academic.Semester{}, academic.ErrNoCurrentSemester
		}
		return academic.Semester{}, errors.Wrap(err, "finding current semester")
	}
	return s, nil
}

func (repo academicRepository) SetCurrentSemester(ctx context.Context, semesterID string) error {
	// singleton upsert; the table's CHECK'd primary key allows only one row
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO current_semester (one, semester_id) VALUES (TRUE, $1)
		ON CONFLICT (one) DO UPDATE SET semester_id = EXCLUDED.semester_id`,
		semesterID,
	)
	return errors.Wrap(err, "setting current semester")
}
