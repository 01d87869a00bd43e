package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// csvHeader is the exported summary layout, one row per enrolled student.
var csvHeader = []string{"Student Name", "Matric Number", "Classes Attended", "Total Classes", "Attendance Score (%)"}

// CourseSummary aggregates sessions and records into per-student attendance
// percentages for the course, restricted to students enrolled in the current
// semester. It is recomputed on demand, never materialized. A course with no
// sessions yields an empty summary.
func (svc *Service) CourseSummary(ctx context.Context, courseID string) ([]StudentSummary, error) {
	sessions, err := svc.repo.QuerySessionsByCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	if len(sessions) == 0 {
		return []StudentSummary{}, nil
	}

	records, err := svc.repo.QueryRecordsByCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	attended := make(map[string]int, len(records))
	for _, rec := range records {
		attended[rec.StudentID]++
	}

	sem, err := svc.academicSvc.CurrentSemester(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, err := svc.enrollSvc.CourseEnrollments(ctx, courseID, sem.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	summary := make([]StudentSummary, 0, len(enrollments))
	for _, enr := range enrollments {
		stu, err := svc.usrSvc.GetByID(ctx, enr.StudentID)
		if err != nil {
			return nil, errors.Wrap(err, "finding enrolled student")
		}
		count := attended[stu.ID]
		summary = append(summary, StudentSummary{
			Student:       stu,
			AttendedCount: count,
			TotalSessions: len(sessions),
			Percentage:    float64(count) / float64(len(sessions)) * 100,
		})
	}
	sort.Slice(summary, func(i, j int) bool {
		return summary[i].Student.MatricNumber < summary[j].Student.MatricNumber
	})
	return summary, nil
}

// WriteSummaryCSV writes the course attendance summary as CSV, percentages
// formatted to one decimal place.
func (svc *Service) WriteSummaryCSV(ctx context.Context, w io.Writer, courseID string) error {
	summary, err := svc.CourseSummary(ctx, courseID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, row := range summary {
		record := []string{
			row.Student.FullName(),
			row.Student.MatricNumber,
			strconv.Itoa(row.AttendedCount),
			strconv.Itoa(row.TotalSessions),
			fmt.Sprintf("%.1f", row.Percentage),
		}
		if err = cw.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}
