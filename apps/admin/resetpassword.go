package main

import (
	"context"

	"github.com/gongbuapp/gongbu/core"
)

// resetPassword sets a new password for the user matching uname (username or email).
func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
