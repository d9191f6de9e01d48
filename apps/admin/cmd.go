package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/gongbuapp/gongbu/core/leaderboard"
	"github.com/gongbuapp/gongbu/core/session"
	"github.com/gongbuapp/gongbu/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrRepo  user.Repository
	boardSvc leaderboard.ServiceInterface
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-school SCHOOL] [-role student|teacher|admin] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  showboard [-window all|week|month] [-top N] [-schools] - print the leaderboard")
	fmt.Fprintln(cli.out, "  senddigest [-window all|week|month] - email the standings to ranked learners")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserSchool := addUserCmd.String("school", "", "The user's school.")
	addUserRole := addUserCmd.String("role", "student", "One of: student, teacher, admin.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	showBoardCmd := flag.NewFlagSet("showboard", flag.ExitOnError)
	showBoardWindow := showBoardCmd.String("window", "all", "One of: all, week, month.")
	showBoardTop := showBoardCmd.Int("top", 0, "Number of entries to show; 0 for the configured default.")
	showBoardSchools := showBoardCmd.Bool("schools", false, "Group the board per school.")

	sendDigestCmd := flag.NewFlagSet("senddigest", flag.ExitOnError)
	sendDigestWindow := sendDigestCmd.String("window", "week", "One of: all, week, month.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				addUserCmd.Usage()
			}
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, *addUserSchool, *addUserRole, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				resetPasswordCmd.Usage()
			}
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "showboard":
		if err := showBoardCmd.Parse(args[2:]); err != nil {
			return err
		}
		w, err := session.ParseWindow(*showBoardWindow)
		if err != nil {
			return err
		}
		return cli.showBoard(w, *showBoardTop, *showBoardSchools)

	case "senddigest":
		if err := sendDigestCmd.Parse(args[2:]); err != nil {
			return err
		}
		w, err := session.ParseWindow(*sendDigestWindow)
		if err != nil {
			return err
		}
		return cli.sendDigest(w)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
