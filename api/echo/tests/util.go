package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/mahudhurio/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/enrollment"
	"github.com/trezcool/mahudhurio/core/fingerprint"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server Server
	conf   *core.Config

	usrSvc      *user.Service
	fpSvc       *fingerprint.Service
	academicSvc *academic.Service
	enrollSvc   *enrollment.Service
	attSvc      *attendance.Service

	dept     academic.Department
	semester academic.Semester
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := inmem.Open()
	require.NoError(t, err)

	conf := core.NewTestConfig()
	usrSvc := user.NewService(inmem.NewUserRepository(db), conf)
	fpSvc := fingerprint.NewService(inmem.NewFingerprintRepository(db), usrSvc, conf)
	academicSvc := academic.NewService(inmem.NewAcademicRepository(db))
	enrollSvc := enrollment.NewService(inmem.NewEnrollmentRepository(db), academicSvc)
	attSvc := attendance.NewService(inmem.NewAttendanceRepository(db), fpSvc, usrSvc, academicSvc, enrollSvc, conf)

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         nopLogger{},
		UserSvc:        usrSvc,
		FingerprintSvc: fpSvc,
		AcademicSvc:    academicSvc,
		EnrollmentSvc:  enrollSvc,
		AttendanceSvc:  attSvc,
		Validate:       validate,
		Translator:     translator,
	})

	fac, err := academicSvc.CreateFaculty(ctx, "Science")
	require.NoError(t, err)
	dept, err := academicSvc.CreateDepartment(ctx, fac.ID, "Computer Science")
	require.NoError(t, err)
	sem, err := academicSvc.CreateSemester(ctx, academic.NewSemester{Name: "First", Session: "2025/2026"})
	require.NoError(t, err)
	require.NoError(t, academicSvc.SetCurrentSemester(ctx, sem.ID))

	return &testApp{
		server:      server,
		conf:        conf,
		usrSvc:      usrSvc,
		fpSvc:       fpSvc,
		academicSvc: academicSvc,
		enrollSvc:   enrollSvc,
		attSvc:      attSvc,
		dept:        dept,
		semester:    sem,
	}
}

func (app *testApp) createUser(t *testing.T, email, matric string, role user.Role) user.User {
	t.Helper()
	nu := user.NewUser{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		FacultyID:    app.dept.FacultyID,
		DepartmentID: app.dept.ID,
		Role:         role,
		Password:     "pwd",
	}
	if role == user.RoleStudent {
		nu.MatricNumber = matric
		nu.Level = 200
	}
	usr, err := app.usrSvc.Create(context.Background(), nu)
	require.NoError(t, err)
	return usr
}

func (app *testApp) enrollFingerprint(t *testing.T, usr user.User) int {
	t.Helper()
	m, err := app.fpSvc.Enroll(context.Background(), usr.ID)
	require.NoError(t, err)
	return m.SlotID
}

func (app *testApp) createCourse(t *testing.T, code string, lecturerIDs ...string) academic.Course {
	t.Helper()
	course, err := app.academicSvc.CreateCourse(context.Background(), academic.NewCourse{
		Code:          code,
		Title:         "Course " + code,
		MinimumLevel:  100,
		DepartmentIDs: []string{app.dept.ID},
		SemesterIDs:   []string{app.semester.ID},
		LecturerIDs:   lecturerIDs,
	})
	require.NoError(t, err)
	return course
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
}

func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
