package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/academic"
)

// setSemester points the system at the given semester, creating it first if
// it does not exist yet.
func (cli *commandLine) setSemester(name, session string) error {
	ctx := context.Background()

	ns := academic.NewSemester{Name: name, Session: session}
	if err := ns.Validate(cli.validate); err != nil {
		return err
	}

	sem, err := cli.academicSvc.GetSemesterByNameAndSession(ctx, ns.Name, ns.Session)
	if err != nil {
		if errors.Cause(err) != academic.ErrNotFound {
			return err
		}
		if sem, err = cli.academicSvc.CreateSemester(ctx, ns); err != nil {
			return err
		}
	}

	if err = cli.academicSvc.SetCurrentSemester(ctx, sem.ID); err != nil {
		return err
	}
	fmt.Printf("current semester set to %s\n", sem.Label())
	return nil
}
