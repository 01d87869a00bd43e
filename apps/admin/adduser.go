package main

import (
	"context"
	"fmt"

	"github.com/trezcool/mahudhurio/core/user"
)

func (cli *commandLine) addUser(nu user.NewUser) error {
	ctx := context.Background()
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %q (%s)\n", usr.Role, usr.FullName(), usr.ID)
	return nil
}
