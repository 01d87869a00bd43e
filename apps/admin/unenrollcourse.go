package main

import (
	"context"
	"fmt"

	"github.com/trezcool/mahudhurio/core/enrollment"
)

func (cli *commandLine) unenrollCourse(credential, courseCode string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.ResolveIdentity(ctx, credential)
	if err != nil {
		return err
	}
	course, err := cli.academicSvc.GetCourseByCode(ctx, courseCode)
	if err != nil {
		return err
	}
	sem, err := cli.academicSvc.CurrentSemester(ctx)
	if err != nil {
		return err
	}
	enrollments, err := cli.enrollSvc.StudentEnrollments(ctx, usr.ID, sem.ID)
	if err != nil {
		return err
	}
	for _, e := range enrollments {
		if e.CourseID == course.ID {
			if err = cli.enrollSvc.Remove(ctx, e.ID); err != nil {
				return err
			}
			fmt.Printf("%q unenrolled from %s for %s\n", usr.FullName(), course.Code, sem.Label())
			return nil
		}
	}
	return enrollment.ErrNotFound
}
