package main

import (
	"context"
	"fmt"

	"github.com/trezcool/mahudhurio/core/user"
)

func (cli *commandLine) resetPassword(credential, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.ResolveIdentity(ctx, credential)
	if err != nil {
		return err
	}
	uu := user.UpdateUser{Password: pwd}
	if err = uu.Validate(cli.validate, usr, cli.usrSvc); err != nil {
		return err
	}
	if _, err = cli.usrSvc.Update(ctx, usr.ID, uu); err != nil {
		return err
	}
	fmt.Printf("password reset for %q\n", usr.FullName())
	return nil
}

func (cli *commandLine) unenrollFingerprint(credential string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.ResolveIdentity(ctx, credential)
	if err != nil {
		return err
	}
	if err = cli.fpSvc.Unenroll(ctx, usr.ID); err != nil {
		return err
	}
	fmt.Printf("fingerprint slot released for %q\n", usr.FullName())
	return nil
}
