package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/mahudhurio/api/echo"
	"github.com/trezcool/mahudhurio/core/user"
)

func TestScanAPI_nextSlotAndEnroll(t *testing.T) {
	app := setup(t)

	student := app.createUser(t, "stu@school.test", "CSC/2021/001", user.RoleStudent)

	t.Run("next-slot returns the base slot on an empty system", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/scan/next-slot", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp NextSlotResponse
		decode(t, rec, &resp)
		assert.Equal(t, app.conf.Fingerprint.BaseSlot, resp.Slot)
	})

	t.Run("check before enrollment", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/scan/check/CSC%2F2021%2F001", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp CheckResponse
		decode(t, rec, &resp)
		assert.True(t, resp.UserExists)
		assert.False(t, resp.FingerprintExists)
	})

	t.Run("check unknown credential", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/scan/check/ghost@school.test", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp CheckResponse
		decode(t, rec, &resp)
		assert.False(t, resp.UserExists)
		assert.False(t, resp.FingerprintExists)
	})

	t.Run("enroll by matric number", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/enroll", "", EnrollFingerprintRequest{Credential: "CSC/2021/001"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp EnrollFingerprintResponse
		decode(t, rec, &resp)
		assert.Equal(t, app.conf.Fingerprint.BaseSlot, resp.SlotID)
		assert.Equal(t, student.FullName(), resp.FullName)
		assert.Equal(t, "student", resp.Role)
	})

	t.Run("check after enrollment", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/scan/check/stu@school.test", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp CheckResponse
		decode(t, rec, &resp)
		assert.True(t, resp.UserExists)
		assert.True(t, resp.FingerprintExists)
	})

	t.Run("enrolling twice conflicts", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/enroll", "", EnrollFingerprintRequest{Credential: "stu@school.test"})
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	})

	t.Run("enroll unknown credential", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/enroll", "", EnrollFingerprintRequest{Credential: "ghost@school.test"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("exhausted range", func(t *testing.T) {
		app.conf.Fingerprint.MaxSlots = 1 // only the student's slot
		defer func() { app.conf.Fingerprint.MaxSlots = 128 }()

		rec := app.do(t, http.MethodGet, "/v1/scan/next-slot", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestScanAPI_sessionLifecycle(t *testing.T) {
	app := setup(t)

	lect := app.createUser(t, "lect@school.test", "", user.RoleLecturer)
	lectSlot := app.enrollFingerprint(t, lect)
	student := app.createUser(t, "stu@school.test", "CSC/2021/002", user.RoleStudent)
	stuSlot := app.enrollFingerprint(t, student)
	app.createCourse(t, "CSC101", lect.ID)

	_, err := app.enrollSvc.Enroll(context.Background(), student, "CSC101")
	require.NoError(t, err)

	t.Run("mark before start finds no session", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/attendance/mark", "",
			MarkAttendanceRequest{FingerprintID: stuSlot, CourseCode: "CSC101"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("start session", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/session/start", "",
			StartSessionRequest{FingerprintID: lectSlot, CourseCode: "CSC101"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp StartSessionResponse
		decode(t, rec, &resp)
		assert.Equal(t, "CSC101", resp.CourseCode)
		assert.Equal(t, lect.FullName(), resp.Lecturer)
		assert.NotEmpty(t, resp.SessionID)
	})

	t.Run("second start conflicts", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/session/start", "",
			StartSessionRequest{FingerprintID: lectSlot, CourseCode: "CSC101"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("student cannot start a session", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/session/start", "",
			StartSessionRequest{FingerprintID: stuSlot, CourseCode: "CSC101"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("mark attendance", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/attendance/mark", "",
			MarkAttendanceRequest{FingerprintID: stuSlot, CourseCode: "CSC101"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp MarkAttendanceResponse
		decode(t, rec, &resp)
		assert.Equal(t, student.FullName(), resp.Student)
		assert.Equal(t, "CSC/2021/002", resp.MatricNumber)
		assert.Equal(t, "attendance marked", resp.Message)
	})

	t.Run("second mark is a no-op", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/attendance/mark", "",
			MarkAttendanceRequest{FingerprintID: stuSlot, CourseCode: "CSC101"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp MarkAttendanceResponse
		decode(t, rec, &resp)
		assert.Equal(t, "attendance already marked", resp.Message)
	})

	t.Run("unenrolled student is forbidden", func(t *testing.T) {
		other := app.createUser(t, "other@school.test", "CSC/2021/003", user.RoleStudent)
		otherSlot := app.enrollFingerprint(t, other)

		rec := app.do(t, http.MethodPost, "/v1/scan/attendance/mark", "",
			MarkAttendanceRequest{FingerprintID: otherSlot, CourseCode: "CSC101"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("end session", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/session/end", "",
			EndSessionRequest{FingerprintID: lectSlot})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp EndSessionResponse
		decode(t, rec, &resp)
		assert.Equal(t, "CSC101", resp.CourseCode)
		assert.Equal(t, 1, resp.TotalStudentsMarked)
	})

	t.Run("ending again finds no session", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/v1/scan/session/end", "",
			EndSessionRequest{FingerprintID: lectSlot})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestScanAPI_validation(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name:     "start: missing fingerprint id",
			method:   http.MethodPost,
			path:     "/v1/scan/session/start",
			body:     StartSessionRequest{CourseCode: "CSC101"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "start: missing course code",
			method:   http.MethodPost,
			path:     "/v1/scan/session/start",
			body:     StartSessionRequest{FingerprintID: 1},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "mark: missing body",
			method:   http.MethodPost,
			path:     "/v1/scan/attendance/mark",
			body:     MarkAttendanceRequest{},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "enroll: missing credential",
			method:   http.MethodPost,
			path:     "/v1/scan/enroll",
			body:     EnrollFingerprintRequest{},
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}
