package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/enrollment"
	"github.com/trezcool/mahudhurio/core/user"
)

type courseApi struct {
	academicSvc *academic.Service
	enrollSvc   *enrollment.Service
	attSvc      *attendance.Service
	usrSvc      *user.Service
	validate    *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		academicSvc: deps.AcademicSvc,
		enrollSvc:   deps.EnrollmentSvc,
		attSvc:      deps.AttendanceSvc,
		usrSvc:      deps.UserSvc,
		validate:    deps.Validate,
	}

	cg := g.Group("/courses", jwt)

	cg.GET("", api.query)
	cg.GET("/eligible", api.eligible, studentMiddleware())
	cg.POST("/enroll", api.enroll, studentMiddleware())
	cg.GET("/enrollments", api.enrollments, studentMiddleware())

	rg := cg.Group("/:code", lecturerOrAdminMiddleware())
	rg.GET("/attendance", api.attendanceSummary)
	rg.GET("/attendance.csv", api.attendanceSummaryCSV)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.academicSvc.QueryCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) eligible(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.enrollSvc.EligibleCourses(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	var data EnrollCourseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollCourseRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.enrollSvc.Enroll(ctx.Request().Context(), usr, data.CourseCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) enrollments(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sem, err := api.academicSvc.CurrentSemester(ctx.Request().Context())
	if err != nil {
		return err
	}

	enrs, err := api.enrollSvc.StudentEnrollments(ctx.Request().Context(), usr.ID, sem.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enrs)
}

// reportCourse resolves the course in the URL and checks that the caller may
// see its report. Lecturers only see courses assigned to them.
func (api *courseApi) reportCourse(ctx echo.Context) (academic.Course, error) {
	course, err := api.academicSvc.GetCourseByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return academic.Course{}, err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return academic.Course{}, errors.Wrap(err, "getting context user")
	}
	if !usr.IsAdmin() && !course.AssignedTo(usr.ID) {
		return academic.Course{}, errHttpForbidden
	}
	return course, nil
}

func (api *courseApi) attendanceSummary(ctx echo.Context) error {
	course, err := api.reportCourse(ctx)
	if err != nil {
		return err
	}

	summary, err := api.attSvc.CourseSummary(ctx.Request().Context(), course.ID)
	if err != nil {
		return err
	}

	rows := make([]AttendanceSummaryRow, len(summary))
	for i, s := range summary {
		rows[i] = AttendanceSummaryRow{
			Student:         s.Student.FullName(),
			MatricNumber:    s.Student.MatricNumber,
			ClassesAttended: s.AttendedCount,
			TotalClasses:    s.TotalSessions,
			Percentage:      s.Percentage,
		}
	}
	return ctx.JSON(http.StatusOK, AttendanceSummaryResponse{
		CourseCode: course.Code,
		Course:     course.Title,
		Rows:       rows,
	})
}

func (api *courseApi) attendanceSummaryCSV(ctx echo.Context) error {
	course, err := api.reportCourse(ctx)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%s_attendance.csv", strings.ReplaceAll(course.Code, " ", "_"))
	ctx.Response().Header().Set(echo.HeaderContentType, "text/csv")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Response().WriteHeader(http.StatusOK)

	return api.attSvc.WriteSummaryCSV(ctx.Request().Context(), ctx.Response(), course.ID)
}

type (
	EnrollCourseRequest struct {
		CourseCode string `json:"course_code" validate:"required"`
	}

	AttendanceSummaryRow struct {
		Student         string  `json:"student"`
		MatricNumber    string  `json:"matric_number"`
		ClassesAttended int     `json:"classes_attended"`
		TotalClasses    int     `json:"total_classes"`
		Percentage      float64 `json:"percentage"`
	}

	AttendanceSummaryResponse struct {
		CourseCode string                 `json:"course_code"`
		Course     string                 `json:"course"`
		Rows       []AttendanceSummaryRow `json:"rows"`
	}
)

func (r *EnrollCourseRequest) Validate(validate *validator.Validate) error {
	r.CourseCode = core.CleanString(r.CourseCode)
	return validate.Struct(r)
}
