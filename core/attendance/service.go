package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/academic"
	"github.com/trezcool/mahudhurio/core/enrollment"
	"github.com/trezcool/mahudhurio/core/fingerprint"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	// errors
	ErrSessionExists     = errors.New("an active session already exists for this lecturer")
	ErrNoActiveSession   = errors.New("no active session found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotEnrolled       = errors.New("student is not enrolled in this course")
	ErrCourseNotAssigned = errors.New("lecturer is not assigned to this course")
	ErrRecordExists      = errors.New("attendance already recorded for this student")
	ErrRecordNotFound    = errors.New("attendance record not found")
)

type (
	Repository interface {
		// CreateSession returns ErrSessionExists when the one-active-session-
		// per-lecturer constraint is violated; the constraint (a partial
		// unique index) is what actually closes the start-session race.
		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		// GetActiveSessionByLecturer returns ErrNoActiveSession when the
		// lecturer has no open session.
		GetActiveSessionByLecturer(ctx context.Context, lecturerID string) (Session, error)
		// GetActiveSessionByCourse returns the most recently started active
		// session for the course, or ErrNoActiveSession.
		GetActiveSessionByCourse(ctx context.Context, courseID string) (Session, error)
		// EndSession performs the terminal transition: is_active=false,
		// end_time set. It is the session's single mutation.
		EndSession(ctx context.Context, id string, endTime time.Time) (Session, error)
		QuerySessionsByCourse(ctx context.Context, courseID string) ([]Session, error)

		// CreateRecord returns ErrRecordExists when the (session, student)
		// uniqueness constraint is violated.
		CreateRecord(ctx context.Context, r Record) (Record, error)
		GetRecord(ctx context.Context, sessionID, studentID string) (Record, error)
		CountRecordsBySession(ctx context.Context, sessionID string) (int, error)
		QueryRecordsByCourse(ctx context.Context, courseID string) ([]Record, error)
	}

	Service struct {
		repo        Repository
		fpSvc       *fingerprint.Service
		usrSvc      *user.Service
		academicSvc *academic.Service
		enrollSvc   *enrollment.Service
		conf        *core.Config
	}
)

func NewService(
	repo Repository,
	fpSvc *fingerprint.Service,
	usrSvc *user.Service,
	academicSvc *academic.Service,
	enrollSvc *enrollment.Service,
	conf *core.Config,
) *Service {
	return &Service{
		repo:        repo,
		fpSvc:       fpSvc,
		usrSvc:      usrSvc,
		academicSvc: academicSvc,
		enrollSvc:   enrollSvc,
		conf:        conf,
	}
}

// StartSession opens an attendance session for the lecturer identified by the
// scanned slot: Idle -> Active. The lecturer must be assigned to the course
// and may not already have an active session.
func (svc *Service) StartSession(ctx context.Context, lecturerSlotID int, courseCode string) (StartResult, error) {
	lect, err := svc.fpSvc.LookupUser(ctx, lecturerSlotID, user.RoleLecturer)
	if err != nil {
		return StartResult{}, err
	}

	if _, err = svc.repo.GetActiveSessionByLecturer(ctx, lect.ID); err == nil {
		return StartResult{}, ErrSessionExists
	} else if errors.Cause(err) != ErrNoActiveSession {
		return StartResult{}, errors.Wrap(err, "checking active session")
	}

	course, err := svc.academicSvc.GetCourseByCode(ctx, courseCode)
	if err != nil {
		if errors.Cause(err) == academic.ErrNotFound {
			return StartResult{}, ErrCourseNotAssigned
		}
		return StartResult{}, errors.Wrap(err, "finding course")
	}
	if !course.AssignedTo(lect.ID) {
		return StartResult{}, ErrCourseNotAssigned
	}

	sem, err := svc.academicSvc.CurrentSemester(ctx)
	if err != nil {
		return StartResult{}, err
	}

	// the check above is check-then-act; the repo's uniqueness constraint is
	// the authoritative guard, and the losing caller of a concurrent start
	// gets ErrSessionExists here.
	sess, err := svc.repo.CreateSession(ctx, Session{
		CourseID:   course.ID,
		LecturerID: lect.ID,
		SemesterID: sem.ID,
		StartTime:  time.Now().UTC(),
		IsActive:   true,
	})
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{Session: sess, Course: course, Lecturer: lect}, nil
}

// MarkAttendance records the scanned student as present in the course's
// active session. Marking twice is a no-op: the existing record is returned
// with AlreadyMarked set.
func (svc *Service) MarkAttendance(ctx context.Context, studentSlotID int, courseCode string) (MarkResult, error) {
	course, err := svc.academicSvc.GetCourseByCode(ctx, courseCode)
	if err != nil {
		if errors.Cause(err) == academic.ErrNotFound {
			return MarkResult{}, ErrNoActiveSession
		}
		return MarkResult{}, errors.Wrap(err, "finding course")
	}
	sess, err := svc.repo.GetActiveSessionByCourse(ctx, course.ID)
	if err != nil {
		return MarkResult{}, err
	}

	stu, err := svc.fpSvc.LookupUser(ctx, studentSlotID, user.RoleStudent)
	if err != nil {
		return MarkResult{}, err
	}

	enrolled, err := svc.enrollSvc.IsEnrolled(ctx, stu.ID, sess.CourseID, sess.SemesterID)
	if err != nil {
		return MarkResult{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return MarkResult{}, ErrNotEnrolled
	}

	rec, err := svc.repo.CreateRecord(ctx, Record{
		SessionID:    sess.ID,
		StudentID:    stu.ID,
		Timestamp:    time.Now().UTC(),
		MarksAwarded: svc.conf.Attendance.DefaultMarks,
	})
	if err != nil {
		if errors.Cause(err) != ErrRecordExists {
			return MarkResult{}, err
		}
		// concurrent or repeated scans land here; return the existing record
		if rec, err = svc.repo.GetRecord(ctx, sess.ID, stu.ID); err != nil {
			return MarkResult{}, errors.Wrap(err, "finding existing record")
		}
		return MarkResult{Record: rec, Student: stu, Course: course, AlreadyMarked: true}, nil
	}
	return MarkResult{Record: rec, Student: stu, Course: course}, nil
}

// EndSession closes the lecturer's active session: Active -> Idle. The
// transition is terminal; a new session must be started for the next class.
func (svc *Service) EndSession(ctx context.Context, lecturerSlotID int) (EndResult, error) {
	lect, err := svc.fpSvc.LookupUser(ctx, lecturerSlotID, user.RoleLecturer)
	if err != nil {
		return EndResult{}, err
	}

	sess, err := svc.repo.GetActiveSessionByLecturer(ctx, lect.ID)
	if err != nil {
		return EndResult{}, err
	}

	sess, err = svc.repo.EndSession(ctx, sess.ID, time.Now().UTC())
	if err != nil {
		return EndResult{}, errors.Wrap(err, "ending session")
	}

	count, err := svc.repo.CountRecordsBySession(ctx, sess.ID)
	if err != nil {
		return EndResult{}, errors.Wrap(err, "counting records")
	}
	course, err := svc.academicSvc.GetCourse(ctx, sess.CourseID)
	if err != nil {
		return EndResult{}, errors.Wrap(err, "finding course")
	}
	return EndResult{Session: sess, Course: course, TotalMarked: count}, nil
}
