package enrollment_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/enrollment"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/storage/database/inmem"
)

type fixture struct {
	svc         *enrollment.Service
	usrSvc      *user.Service
	academicSvc *academic.Service

	dept     academic.Department
	otherDpt academic.Department
	semester academic.Semester
	pastSem  academic.Semester
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	db, err := inmem.Open()
	require.NoError(t, err)

	conf := core.NewTestConfig()
	usrSvc := user.NewService(inmem.NewUserRepository(db), conf)
	academicSvc := academic.NewService(inmem.NewAcademicRepository(db))
	svc := enrollment.NewService(inmem.NewEnrollmentRepository(db), academicSvc)

	fac, err := academicSvc.CreateFaculty(ctx, "Science")
	require.NoError(t, err)
	dept, err := academicSvc.CreateDepartment(ctx, fac.ID, "Computer Science")
	require.NoError(t, err)
	otherDpt, err := academicSvc.CreateDepartment(ctx, fac.ID, "Mathematics")
	require.NoError(t, err)

	sem, err := academicSvc.CreateSemester(ctx, academic.NewSemester{Name: "First", Session: "2025/2026"})
	require.NoError(t, err)
	pastSem, err := academicSvc.CreateSemester(ctx, academic.NewSemester{Name: "Second", Session: "2024/2025"})
	require.NoError(t, err)
	require.NoError(t, academicSvc.SetCurrentSemester(ctx, sem.ID))

	return fixture{
		svc:         svc,
		usrSvc:      usrSvc,
		academicSvc: academicSvc,
		dept:        dept,
		otherDpt:    otherDpt,
		semester:    sem,
		pastSem:     pastSem,
	}
}

func (f fixture) createStudent(t *testing.T, matric string, level int) user.User {
	t.Helper()
	usr, err := f.usrSvc.Create(context.Background(), user.NewUser{
		FirstName:    "Stu",
		LastName:     "Dent",
		Email:        matric[4:] + "@school.test",
		MatricNumber: matric,
		Level:        level,
		FacultyID:    f.dept.FacultyID,
		DepartmentID: f.dept.ID,
		Role:         user.RoleStudent,
	})
	require.NoError(t, err)
	return usr
}

func (f fixture) createCourse(t *testing.T, code string, minLevel int, deptIDs, semIDs []string) academic.Course {
	t.Helper()
	course, err := f.academicSvc.CreateCourse(context.Background(), academic.NewCourse{
		Code:          code,
		Title:         "Course " + code,
		MinimumLevel:  minLevel,
		DepartmentIDs: deptIDs,
		SemesterIDs:   semIDs,
	})
	require.NoError(t, err)
	return course
}

func TestService_EligibleCourses(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ok := f.createCourse(t, "CSC201", 200, []string{f.dept.ID}, []string{f.semester.ID})
	f.createCourse(t, "CSC301", 300, []string{f.dept.ID}, []string{f.semester.ID})          // level too high
	f.createCourse(t, "MTH201", 200, []string{f.otherDpt.ID}, []string{f.semester.ID})      // other department
	f.createCourse(t, "CSC105", 100, []string{f.dept.ID}, []string{f.pastSem.ID})           // past semester

	student := f.createStudent(t, "CSC/2021/001", 200)

	courses, err := f.svc.EligibleCourses(ctx, student)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, ok.Code, courses[0].Code)
}

func TestService_Enroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	course := f.createCourse(t, "CSC201", 200, []string{f.dept.ID}, []string{f.semester.ID})
	f.createCourse(t, "CSC301", 300, []string{f.dept.ID}, []string{f.semester.ID})
	f.createCourse(t, "MTH201", 200, []string{f.otherDpt.ID}, []string{f.pastSem.ID})

	student := f.createStudent(t, "CSC/2021/002", 200)

	t.Run("success", func(t *testing.T) {
		enr, err := f.svc.Enroll(ctx, student, "csc201") // code is matched case-insensitively
		require.NoError(t, err)
		assert.Equal(t, course.ID, enr.CourseID)
		assert.Equal(t, f.semester.ID, enr.SemesterID)

		enrolled, err := f.svc.IsEnrolled(ctx, student.ID, course.ID, f.semester.ID)
		require.NoError(t, err)
		assert.True(t, enrolled)
	})

	t.Run("duplicate enrollment", func(t *testing.T) {
		_, err := f.svc.Enroll(ctx, student, "CSC201")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "You are already enrolled in CSC201.", vErr.Fields[0].Error)
	})

	t.Run("level too low", func(t *testing.T) {
		_, err := f.svc.Enroll(ctx, student, "CSC301")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "Your level (200) is not high enough for this course. Minimum level required: 300.", vErr.Fields[0].Error)
	})

	t.Run("violations are collected", func(t *testing.T) {
		// wrong department AND not offered this semester
		_, err := f.svc.Enroll(ctx, student, "MTH201")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Len(t, vErr.Fields, 2)
	})

	t.Run("unknown course code", func(t *testing.T) {
		_, err := f.svc.Enroll(ctx, student, "NOPE999")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "invalid course code", vErr.Fields[0].Error)
	})

	t.Run("only students can enroll", func(t *testing.T) {
		lect, err := f.usrSvc.Create(ctx, user.NewUser{
			FirstName: "Lec", LastName: "Turer", Email: "lect@school.test",
			FacultyID: f.dept.FacultyID, DepartmentID: f.dept.ID,
			Role: user.RoleLecturer, Password: "pwd",
		})
		require.NoError(t, err)

		_, err = f.svc.Enroll(ctx, lect, "CSC201")
		assert.Equal(t, enrollment.ErrOnlyStudents, err)
	})
}

func TestService_Enroll_noCurrentSemester(t *testing.T) {
	db, err := inmem.Open()
	require.NoError(t, err)

	conf := core.NewTestConfig()
	usrSvc := user.NewService(inmem.NewUserRepository(db), conf)
	academicSvc := academic.NewService(inmem.NewAcademicRepository(db))
	svc := enrollment.NewService(inmem.NewEnrollmentRepository(db), academicSvc)

	student, err := usrSvc.Create(context.Background(), user.NewUser{
		FirstName: "Stu", LastName: "Dent", Email: "nosem@school.test",
		MatricNumber: "CSC/2021/010", Level: 200,
		FacultyID: "f", DepartmentID: "d", Role: user.RoleStudent,
	})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), student, "CSC201")
	assert.Equal(t, academic.ErrNoCurrentSemester, err)
}

func TestService_StudentEnrollments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	student := f.createStudent(t, "CSC/2021/020", 400)
	for i := 0; i < 3; i++ {
		f.createCourse(t, fmt.Sprintf("CSC40%d", i), 400, []string{f.dept.ID}, []string{f.semester.ID})
		_, err := f.svc.Enroll(ctx, student, fmt.Sprintf("CSC40%d", i))
		require.NoError(t, err)
	}

	enrs, err := f.svc.StudentEnrollments(ctx, student.ID, f.semester.ID)
	require.NoError(t, err)
	assert.Len(t, enrs, 3)

	// nothing in the other semester
	enrs, err = f.svc.StudentEnrollments(ctx, student.ID, f.pastSem.ID)
	require.NoError(t, err)
	assert.Empty(t, enrs)
}
