package echoapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/fingerprint"
	"github.com/trezcool/mahudhurio/core/user"
)

// scanApi serves the fingerprint scan devices. The devices sit on a trusted
// network segment and authenticate by slot ID, not by JWT.
type scanApi struct {
	attSvc   *attendance.Service
	fpSvc    *fingerprint.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerScanAPI(g *echo.Group, deps ServerDeps) {
	api := scanApi{
		attSvc:   deps.AttendanceSvc,
		fpSvc:    deps.FingerprintSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/scan")

	sg.GET("/next-slot", api.nextSlot)
	sg.GET("/check/:credential", api.check)
	sg.POST("/enroll", api.enroll)
	sg.POST("/session/start", api.startSession)
	sg.POST("/attendance/mark", api.markAttendance)
	sg.POST("/session/end", api.endSession)
}

// Handlers

func (api *scanApi) nextSlot(ctx echo.Context) (err error) {
	defer func() { countScan("next_slot", err) }()

	slot, err := api.fpSvc.NextFreeSlot(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NextSlotResponse{Slot: slot})
}

func (api *scanApi) check(ctx echo.Context) (err error) {
	defer func() { countScan("check", err) }()

	// matric numbers contain "/" and arrive percent-encoded
	credential, err := url.PathUnescape(ctx.Param("credential"))
	if err != nil {
		credential = ctx.Param("credential")
	}
	credential = core.CleanString(credential)
	resp := CheckResponse{}

	usr, err := api.usrSvc.ResolveIdentity(ctx.Request().Context(), credential)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			err = nil
			return ctx.JSON(http.StatusOK, resp)
		}
		return errors.Wrap(err, "resolving identity")
	}
	resp.UserExists = true

	enrolled, err := api.fpSvc.Enrolled(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "checking fingerprint enrollment")
	}
	resp.FingerprintExists = enrolled
	return ctx.JSON(http.StatusOK, resp)
}

func (api *scanApi) enroll(ctx echo.Context) (err error) {
	defer func() { countScan("enroll", err) }()

	var data EnrollFingerprintRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollFingerprintRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.usrSvc.ResolveIdentity(ctx.Request().Context(), data.Credential)
	if err != nil {
		return err
	}

	var mapping fingerprint.Mapping
	if data.SlotID > 0 {
		mapping, err = api.fpSvc.Assign(ctx.Request().Context(), usr.ID, data.SlotID)
	} else {
		mapping, err = api.fpSvc.Enroll(ctx.Request().Context(), usr.ID)
	}
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, EnrollFingerprintResponse{
		SlotID:   mapping.SlotID,
		FullName: usr.FullName(),
		Role:     string(usr.Role),
	})
}

func (api *scanApi) startSession(ctx echo.Context) (err error) {
	defer func() { countScan("session_start", err) }()

	var data StartSessionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartSessionRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.attSvc.StartSession(ctx.Request().Context(), data.FingerprintID, data.CourseCode)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, StartSessionResponse{
		SessionID:  res.Session.ID,
		CourseCode: res.Course.Code,
		Course:     res.Course.Title,
		Lecturer:   res.Lecturer.FullName(),
		StartTime:  res.Session.StartTime,
	})
}

func (api *scanApi) markAttendance(ctx echo.Context) (err error) {
	defer func() { countScan("attendance_mark", err) }()

	var data MarkAttendanceRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendanceRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.attSvc.MarkAttendance(ctx.Request().Context(), data.FingerprintID, data.CourseCode)
	if err != nil {
		return err
	}

	resp := MarkAttendanceResponse{
		Student:      res.Student.FullName(),
		MatricNumber: res.Student.MatricNumber,
		CourseCode:   res.Course.Code,
		Time:         res.Record.Timestamp,
	}
	if res.AlreadyMarked {
		resp.Message = "attendance already marked"
		return ctx.JSON(http.StatusOK, resp)
	}
	attendanceMarked.Inc()
	resp.Message = "attendance marked"
	return ctx.JSON(http.StatusCreated, resp)
}

func (api *scanApi) endSession(ctx echo.Context) (err error) {
	defer func() { countScan("session_end", err) }()

	var data EndSessionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EndSessionRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.attSvc.EndSession(ctx.Request().Context(), data.FingerprintID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, EndSessionResponse{
		SessionID:           res.Session.ID,
		CourseCode:          res.Course.Code,
		TotalStudentsMarked: res.TotalMarked,
		EndTime:             res.Session.EndTime,
	})
}

type (
	NextSlotResponse struct {
		Slot int `json:"slot"`
	}

	CheckResponse struct {
		UserExists        bool `json:"user_exists"`
		FingerprintExists bool `json:"fingerprint_exists"`
	}

	EnrollFingerprintRequest struct {
		Credential string `json:"credential" validate:"required"`
		SlotID     int    `json:"slot_id"` // 0 = auto-assign the lowest free slot
	}

	EnrollFingerprintResponse struct {
		SlotID   int    `json:"slot_id"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}

	StartSessionRequest struct {
		FingerprintID int    `json:"fingerprint_id" validate:"required,min=1"`
		CourseCode    string `json:"course_code" validate:"required"`
	}

	StartSessionResponse struct {
		SessionID  string    `json:"session_id"`
		CourseCode string    `json:"course_code"`
		Course     string    `json:"course"`
		Lecturer   string    `json:"lecturer"`
		StartTime  time.Time `json:"start_time"`
	}

	MarkAttendanceRequest struct {
		FingerprintID int    `json:"fingerprint_id" validate:"required,min=1"`
		CourseCode    string `json:"course_code" validate:"required"`
	}

	MarkAttendanceResponse struct {
		Message      string    `json:"message"`
		Student      string    `json:"student"`
		MatricNumber string    `json:"matric_number"`
		CourseCode   string    `json:"course_code"`
		Time         time.Time `json:"time"`
	}

	EndSessionRequest struct {
		FingerprintID int `json:"fingerprint_id" validate:"required,min=1"`
	}

	EndSessionResponse struct {
		SessionID           string    `json:"session_id"`
		CourseCode          string    `json:"course_code"`
		TotalStudentsMarked int       `json:"total_students_marked"`
		EndTime             time.Time `json:"end_time"`
	}
)

func (r *EnrollFingerprintRequest) Validate(validate *validator.Validate) error {
	r.Credential = core.CleanString(r.Credential)
	return validate.Struct(r)
}

func (r *StartSessionRequest) Validate(validate *validator.Validate) error {
	r.CourseCode = core.CleanString(r.CourseCode)
	return validate.Struct(r)
}

func (r *MarkAttendanceRequest) Validate(validate *validator.Validate) error {
	r.CourseCode = core.CleanString(r.CourseCode)
	return validate.Struct(r)
}

func (r *EndSessionRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
