package attendance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/enrollment"
	"github.com/trezcool/mahudhurio/core/fingerprint"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/storage/database/inmem"
)

type fixture struct {
	svc         *attendance.Service
	usrSvc      *user.Service
	fpSvc       *fingerprint.Service
	academicSvc *academic.Service
	enrollSvc   *enrollment.Service
	conf        *core.Config

	dept     academic.Department
	semester academic.Semester
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	db, err := inmem.Open()
	require.NoError(t, err)

	conf := core.NewTestConfig()
	usrSvc := user.NewService(inmem.NewUserRepository(db), conf)
	fpSvc := fingerprint.NewService(inmem.NewFingerprintRepository(db), usrSvc, conf)
	academicSvc := academic.NewService(inmem.NewAcademicRepository(db))
	enrollSvc := enrollment.NewService(inmem.NewEnrollmentRepository(db), academicSvc)
	svc := attendance.NewService(inmem.NewAttendanceRepository(db), fpSvc, usrSvc, academicSvc, enrollSvc, conf)

	fac, err := academicSvc.CreateFaculty(ctx, "Science")
	require.NoError(t, err)
	dept, err := academicSvc.CreateDepartment(ctx, fac.ID, "Computer Science")
	require.NoError(t, err)
	sem, err := academicSvc.CreateSemester(ctx, academic.NewSemester{Name: "First", Session: "2025/2026"})
	require.NoError(t, err)
	require.NoError(t, academicSvc.SetCurrentSemester(ctx, sem.ID))

	return fixture{
		svc:         svc,
		usrSvc:      usrSvc,
		fpSvc:       fpSvc,
		academicSvc: academicSvc,
		enrollSvc:   enrollSvc,
		conf:        conf,
		dept:        dept,
		semester:    sem,
	}
}

// enrolledLecturer creates a lecturer with a fingerprint slot.
func (f fixture) enrolledLecturer(t *testing.T, email string) (user.User, int) {
	t.Helper()
	usr, err := f.usrSvc.Create(context.Background(), user.NewUser{
		FirstName: "Lec", LastName: "Turer", Email: email,
		FacultyID: f.dept.FacultyID, DepartmentID: f.dept.ID,
		Role: user.RoleLecturer, Password: "pwd",
	})
	require.NoError(t, err)
	m, err := f.fpSvc.Enroll(context.Background(), usr.ID)
	require.NoError(t, err)
	return usr, m.SlotID
}

// enrolledStudent creates a student with a fingerprint slot, enrolled in the
// given courses.
func (f fixture) enrolledStudent(t *testing.T, matric string, courseCodes ...string) (user.User, int) {
	t.Helper()
	ctx := context.Background()
	usr, err := f.usrSvc.Create(ctx, user.NewUser{
		FirstName: "Stu", LastName: "Dent", Email: matric + "@school.test",
		MatricNumber: matric, Level: 200,
		FacultyID: f.dept.FacultyID, DepartmentID: f.dept.ID,
		Role: user.RoleStudent,
	})
	require.NoError(t, err)
	m, err := f.fpSvc.Enroll(ctx, usr.ID)
	require.NoError(t, err)
	for _, code := range courseCodes {
		_, err = f.enrollSvc.Enroll(ctx, usr, code)
		require.NoError(t, err)
	}
	return usr, m.SlotID
}

func (f fixture) createCourse(t *testing.T, code string, lecturerIDs ...string) academic.Course {
	t.Helper()
	course, err := f.academicSvc.CreateCourse(context.Background(), academic.NewCourse{
		Code:          code,
		Title:         "Course " + code,
		MinimumLevel:  100,
		DepartmentIDs: []string{f.dept.ID},
		SemesterIDs:   []string{f.semester.ID},
		LecturerIDs:   lecturerIDs,
	})
	require.NoError(t, err)
	return course
}

func TestService_sessionLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	lect, lectSlot := f.enrolledLecturer(t, "cycle@school.test")
	course := f.createCourse(t, "CSC101", lect.ID)
	_, stuSlot := f.enrolledStudent(t, "CSC/2021/001", "CSC101")

	// start
	start, err := f.svc.StartSession(ctx, lectSlot, "CSC101")
	require.NoError(t, err)
	assert.Equal(t, course.ID, start.Session.CourseID)
	assert.Equal(t, lect.ID, start.Session.LecturerID)
	assert.True(t, start.Session.IsActive)
	assert.True(t, start.Session.EndTime.IsZero())

	// a second start by the same lecturer is rejected
	_, err = f.svc.StartSession(ctx, lectSlot, "CSC101")
	assert.Equal(t, attendance.ErrSessionExists, err)

	// mark
	mark, err := f.svc.MarkAttendance(ctx, stuSlot, "CSC101")
	require.NoError(t, err)
	assert.False(t, mark.AlreadyMarked)
	assert.Equal(t, start.Session.ID, mark.Record.SessionID)
	assert.Equal(t, f.conf.Attendance.DefaultMarks, mark.Record.MarksAwarded)

	// end
	end, err := f.svc.EndSession(ctx, lectSlot)
	require.NoError(t, err)
	assert.False(t, end.Session.IsActive)
	assert.False(t, end.Session.EndTime.IsZero())
	assert.Equal(t, 1, end.TotalMarked)
	assert.Equal(t, course.Code, end.Course.Code)

	// marking after the end finds no active session
	_, err = f.svc.MarkAttendance(ctx, stuSlot, "CSC101")
	assert.Equal(t, attendance.ErrNoActiveSession, err)

	// the lecturer can start a fresh session now
	start2, err := f.svc.StartSession(ctx, lectSlot, "CSC101")
	require.NoError(t, err)
	assert.NotEqual(t, start.Session.ID, start2.Session.ID)
}

func TestService_StartSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	lect, lectSlot := f.enrolledLecturer(t, "start@school.test")
	other, _ := f.enrolledLecturer(t, "other@school.test")
	f.createCourse(t, "CSC101", lect.ID)
	f.createCourse(t, "CSC102", other.ID)
	_, stuSlot := f.enrolledStudent(t, "CSC/2021/002")

	tests := []struct {
		name       string
		slotID     int
		courseCode string
		wantErr    error
	}{
		{name: "unknown slot", slotID: 9999, courseCode: "CSC101", wantErr: fingerprint.ErrNotFound},
		{name: "student slot", slotID: stuSlot, courseCode: "CSC101", wantErr: fingerprint.ErrWrongRole},
		{name: "unknown course", slotID: lectSlot, courseCode: "NOPE999", wantErr: attendance.ErrCourseNotAssigned},
		{name: "course assigned to another lecturer", slotID: lectSlot, courseCode: "CSC102", wantErr: attendance.ErrCourseNotAssigned},
		{name: "ok", slotID: lectSlot, courseCode: "csc101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.StartSession(ctx, tt.slotID, tt.courseCode)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, lect.ID, res.Lecturer.ID)
		})
	}
}

func TestService_MarkAttendance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	lect, lectSlot := f.enrolledLecturer(t, "mark@school.test")
	f.createCourse(t, "CSC101", lect.ID)
	f.createCourse(t, "CSC102", lect.ID)
	_, stuSlot := f.enrolledStudent(t, "CSC/2021/003", "CSC101")
	_, strangerSlot := f.enrolledStudent(t, "CSC/2021/004") // not enrolled

	_, err := f.svc.StartSession(ctx, lectSlot, "CSC101")
	require.NoError(t, err)

	t.Run("no active session for the course", func(t *testing.T) {
		_, err := f.svc.MarkAttendance(ctx, stuSlot, "CSC102")
		assert.Equal(t, attendance.ErrNoActiveSession, err)
	})

	t.Run("lecturer slot cannot mark", func(t *testing.T) {
		_, err := f.svc.MarkAttendance(ctx, lectSlot, "CSC101")
		assert.Equal(t, fingerprint.ErrWrongRole, err)
	})

	t.Run("unenrolled student is rejected", func(t *testing.T) {
		_, err := f.svc.MarkAttendance(ctx, strangerSlot, "CSC101")
		assert.Equal(t, attendance.ErrNotEnrolled, err)
	})

	t.Run("marking twice returns the same record", func(t *testing.T) {
		first, err := f.svc.MarkAttendance(ctx, stuSlot, "CSC101")
		require.NoError(t, err)
		assert.False(t, first.AlreadyMarked)

		second, err := f.svc.MarkAttendance(ctx, stuSlot, "CSC101")
		require.NoError(t, err)
		assert.True(t, second.AlreadyMarked)
		assert.Equal(t, first.Record.ID, second.Record.ID)
		assert.Equal(t, first.Record.Timestamp, second.Record.Timestamp)
	})
}

func TestService_EndSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	lect, lectSlot := f.enrolledLecturer(t, "end@school.test")
	f.createCourse(t, "CSC101", lect.ID)

	t.Run("no active session", func(t *testing.T) {
		_, err := f.svc.EndSession(ctx, lectSlot)
		assert.Equal(t, attendance.ErrNoActiveSession, err)
	})

	t.Run("counts marked students", func(t *testing.T) {
		_, err := f.svc.StartSession(ctx, lectSlot, "CSC101")
		require.NoError(t, err)

		for _, matric := range []string{"CSC/2021/005", "CSC/2021/006"} {
			_, slot := f.enrolledStudent(t, matric, "CSC101")
			_, err = f.svc.MarkAttendance(ctx, slot, "CSC101")
			require.NoError(t, err)
		}

		end, err := f.svc.EndSession(ctx, lectSlot)
		require.NoError(t, err)
		assert.Equal(t, 2, end.TotalMarked)
	})
}
