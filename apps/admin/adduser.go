package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/gongbuapp/gongbu/core"
	"github.com/gongbuapp/gongbu/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, uname, email, school, role, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	roles, err := rolesFor(role)
	if err != nil {
		return err
	}

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr, err = cli.usrRepo.GetUserByUsernameOrEmail(ctx, email)
		if err != nil && errors.Cause(err) != user.ErrNotFound {
			return err
		}
	}

	usr.Username = uname
	usr.Email = email
	if name != "" {
		usr.Name = core.CleanString(name)
	}
	if school != "" {
		usr.School = core.CleanString(school)
	}
	usr.Roles = roles
	usr.IsActive = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}

func rolesFor(role string) ([]string, error) {
	switch role {
	case "student":
		return []string{user.RoleStudent}, nil
	case "teacher":
		return []string{user.RoleTeacher}, nil
	case "admin":
		return user.AllRoles, nil
	}
	return nil, fmt.Errorf("unknown role %q", role)
}
